package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMethodMux(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		http.MethodPost: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	})

	cases := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodPost, http.StatusCreated},
		{http.MethodDelete, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "/", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.method, rec.Code, tc.want)
		}
	}
}

func TestMethodMuxAllowHeader(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodPut:    http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
		http.MethodDelete: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if got := rec.Header().Get("Allow"); got != "DELETE, PUT" {
		t.Errorf("Allow = %q, want sorted method list", got)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citybeat-app/server/internal/auth"
)

func newTestManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-with-enough-length", time.Hour, "citybeat-test")
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	manager := newTestManager()
	token, err := manager.Generate("01ACCOUNT00000000000000000", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var gotULID string
	var gotAdmin bool
	handler := RequireAuth(manager, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotULID = AccountULID(r.Context())
		gotAdmin = IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotULID != "01ACCOUNT00000000000000000" {
		t.Errorf("AccountULID = %q", gotULID)
	}
	if gotAdmin {
		t.Error("IsAdmin = true for a non-admin token")
	}
}

func TestRequireAuthRejections(t *testing.T) {
	manager := newTestManager()
	otherManager := auth.NewJWTManager("a-different-secret-entirely!!", time.Hour, "citybeat-test")
	foreignToken, err := otherManager.Generate("01ACCOUNT00000000000000000", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + foreignToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			handler := RequireAuth(manager, "test")(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler reached without credentials")
			}
			if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
				t.Errorf("Content-Type = %q", got)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	manager := newTestManager()
	adminToken, err := manager.Generate("01ADMIN000000000000000000A", true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	userToken, err := manager.Generate("01ACCOUNT00000000000000000", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin token", "Bearer " + adminToken, http.StatusOK},
		{"user token", "Bearer " + userToken, http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			handler := RequireAdmin(manager, "test")(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/venues", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if called != (tc.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestClaimsHelpersWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ClaimsFromContext(req.Context()) != nil {
		t.Error("claims present on an unauthenticated request")
	}
	if AccountULID(req.Context()) != "" {
		t.Error("account ULID present on an unauthenticated request")
	}
	if IsAdmin(req.Context()) {
		t.Error("admin on an unauthenticated request")
	}
}

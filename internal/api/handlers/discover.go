package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/placesearch"
)

// DiscoverHandler proxies the third-party place search so the API key never
// reaches clients.
type DiscoverHandler struct {
	Client *placesearch.Client
	Env    string
}

func NewDiscoverHandler(client *placesearch.Client, env string) *DiscoverHandler {
	return &DiscoverHandler{Client: client, Env: env}
}

func (h *DiscoverHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: "q", Message: "is required"}, h.Env)
		return
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))

	cards, err := h.Client.Search(r.Context(), query, city)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: cards})
}

// Photo streams an upstream place photo through the server.
func (h *DiscoverHandler) Photo(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: "ref", Message: "is required"}, h.Env)
		return
	}

	maxWidth := 0
	if raw := r.URL.Query().Get("max_width"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1600 {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: "max_width", Message: "must be between 1 and 1600"}, h.Env)
			return
		}
		maxWidth = parsed
	}

	body, contentType, err := h.Client.Photo(r.Context(), ref, maxWidth)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, body)
}

func (h *DiscoverHandler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream placesearch.UpstreamError
	if errors.As(err, &upstream) {
		problem.Write(w, r, http.StatusBadGateway, problem.TypeUpstream, "Place search unavailable", err, h.Env)
		return
	}
	writeServiceError(w, r, err, h.Env)
}

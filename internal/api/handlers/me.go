package handlers

import (
	"errors"
	"net/http"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/accounts"
	"github.com/citybeat-app/server/internal/domain/catalog"
)

// MeHandler serves the authenticated account's own profile and favorites.
type MeHandler struct {
	Service *accounts.Service
	Env     string
}

func NewMeHandler(service *accounts.Service, env string) *MeHandler {
	return &MeHandler{Service: service, Env: env}
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.Service.Get(r.Context(), middleware.AccountULID(r.Context()))
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderAccount(account))
}

type updateProfileRequest struct {
	Name       *string `json:"name"`
	AvatarPath *string `json:"avatar_path"`
}

func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req, h.Env) {
		return
	}

	account, err := h.Service.UpdateProfile(r.Context(), middleware.AccountULID(r.Context()), accounts.UpdateParams{
		Name:       req.Name,
		AvatarPath: req.AvatarPath,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, renderAccount(account))
}

func (h *MeHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.Service.ListFavorites(r.Context(), middleware.AccountULID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	items := make([]venueResponse, 0, len(favorites))
	for i := range favorites {
		items = append(items, renderVenue(&favorites[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func (h *MeHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	venueULID, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	if err := h.Service.AddFavorite(r.Context(), middleware.AccountULID(r.Context()), venueULID); err != nil {
		if errors.Is(err, catalog.ErrVenueNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		writeServiceError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	venueULID, ok := ValidateAndExtractULID(w, r, "id", h.Env)
	if !ok {
		return
	}

	if err := h.Service.RemoveFavorite(r.Context(), middleware.AccountULID(r.Context()), venueULID); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

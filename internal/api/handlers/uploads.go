package handlers

import (
	"errors"
	"net/http"

	"github.com/citybeat-app/server/internal/api/middleware"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/uploads"
)

type UploadsHandler struct {
	Store *uploads.Store
	Env   string
}

func NewUploadsHandler(store *uploads.Store, env string) *UploadsHandler {
	return &UploadsHandler{Store: store, Env: env}
}

type uploadResponse struct {
	Path string `json:"path"`
}

// Upload accepts a single multipart file under the "file" field and returns
// its public path.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Missing file field", err, h.Env)
		return
	}
	defer file.Close()

	path, err := h.Store.Save(r.Context(), header.Filename, middleware.AccountULID(r.Context()), file)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrTooLarge):
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "File too large", err, h.Env)
		case errors.Is(err, uploads.ErrUnsupportedExt):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Unsupported file type", err, h.Env)
		default:
			writeServiceError(w, r, err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{Path: path})
}

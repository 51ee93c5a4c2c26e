package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/citybeat-app/server/internal/api/pagination"
	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/domain/catalog"
	"github.com/citybeat-app/server/internal/domain/ids"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON decodes a request body, rejecting unknown fields and writing the
// validation problem itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, env)
		return false
	}
	return true
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// ValidateAndExtractULID extracts and validates a ULID path parameter. On
// failure it writes the problem response and returns false.
func ValidateAndExtractULID(w http.ResponseWriter, r *http.Request, paramName, env string) (string, bool) {
	value := strings.TrimSpace(pathParam(r, paramName))
	if value == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: paramName, Message: "missing"}, env)
		return "", false
	}
	if err := ids.ValidateULID(value); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", catalog.FieldError{Field: paramName, Message: "invalid ULID"}, env)
		return "", false
	}
	return ids.Normalize(value), true
}

// writeServiceError maps the shared domain error kinds onto problem
// responses. Handlers call it after their endpoint-specific cases.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var fieldErr catalog.FieldError
	switch {
	case errors.As(err, &fieldErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(map[string]interface{}{fieldErr.Field: fieldErr.Message}))
	case errors.Is(err, catalog.ErrVenueNotFound), errors.Is(err, catalog.ErrEventNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env)
	case errors.Is(err, catalog.ErrEndsBeforeStart):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
	case errors.Is(err, pagination.ErrInvalidCursor):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(map[string]interface{}{"after": "invalid cursor"}))
	case errors.Is(err, catalog.ErrDuplicateExternalID):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

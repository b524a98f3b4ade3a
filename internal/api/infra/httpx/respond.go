package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// handleError maps domain errors onto status codes. Anything unknown is
// logged and reported as a 500 without details.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *entity.ValidationError
	var na *entity.NotAcceptableError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: verr.Message,
			Fields:  verr.Fields,
		})
	case errors.As(err, &na):
		writeError(w, http.StatusNotAcceptable, "not_acceptable", na.Reason)
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, entity.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "not_authenticated", entity.ErrUnauthenticated.Error())
	case errors.Is(err, entity.ErrForbidden):
		writeError(w, http.StatusForbidden, "permission_denied", entity.ErrForbidden.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// decodeJSON reads a JSON body into v, reporting malformed input as a
// validation error.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return entity.NewValidationError("Request body is empty")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return entity.NewValidationError("JSON parse error - %s", err.Error())
	}
	return nil
}

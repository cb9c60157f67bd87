package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// Sentinel errors shared by the domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrBadInput   = errors.New("malformed input")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unclassified errors are logged and surface as an opaque 500.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadInput):
		Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

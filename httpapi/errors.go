package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	goSignup "github.com/MrEthical07/goSignup"
)

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusOf maps an engine error to its HTTP status. Code rejections during
// signup are 400 rather than 401 so clients do not treat them as a lost session.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, goSignup.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, goSignup.ErrCodeNotFound),
		errors.Is(err, goSignup.ErrIdentityNotFound):
		return http.StatusNotFound
	case errors.Is(err, goSignup.ErrCodeMismatch),
		errors.Is(err, goSignup.ErrCodeExpired):
		return http.StatusBadRequest
	case errors.Is(err, goSignup.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, goSignup.ErrInvalidCredentials),
		errors.Is(err, goSignup.ErrMissingToken),
		errors.Is(err, goSignup.ErrInvalidToken),
		errors.Is(err, goSignup.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, goSignup.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, goSignup.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}

	switch goSignup.KindOf(err) {
	case goSignup.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{
		Error:   goSignup.CodeOf(err),
		Kind:    string(goSignup.KindOf(err)),
		Message: goSignup.MessageOf(err),
	})
}

func logDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

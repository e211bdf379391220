package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"sharedrive/internal/domain"
	"sharedrive/internal/httputil"
)

const (
	forbiddenDetail = "you do not have access to this resource"
	upstreamDetail  = "a backing service failed, try again later"
)

// handleError converts domain errors to problem responses. Forbidden and
// upstream failures never echo the underlying error.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		logger.Debug("access denied", "error", err)
		httputil.RespondError(w, http.StatusForbidden, forbiddenDetail)
	case errors.Is(err, domain.ErrUserNotFound):
		httputil.RespondError(w, http.StatusNotFound, domain.ErrUserNotFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &tooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		logger.Error("upstream failure", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, upstreamDetail)
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

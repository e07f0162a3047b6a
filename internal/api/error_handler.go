package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdash/dashboard/internal/api/handler"
	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/service"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.ErrorResponse{Error: "validation failed", Fields: ve.Fields}
	}

	// The backend's own wording is what the user should read.
	var rr *domain.RemoteRejectedError
	if errors.As(err, &rr) {
		code := rr.StatusCode
		if code < 400 || code >= 500 {
			code = http.StatusBadGateway
		}
		return code, handler.ErrorResponse{Error: rr.DisplayMessage()}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, handler.ErrorResponse{Error: "not signed in"}
	case errors.Is(err, domain.ErrAuthExpired):
		return http.StatusUnauthorized, handler.ErrorResponse{Error: "credential expired"}
	case errors.Is(err, domain.ErrAuthMalformed):
		return http.StatusUnauthorized, handler.ErrorResponse{Error: "credential malformed"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, handler.ErrorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, handler.ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable, handler.ErrorResponse{Error: "task backend unreachable"}
	case errors.Is(err, service.ErrSessionSuperseded):
		return http.StatusConflict, handler.ErrorResponse{Error: "session changed during the request"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{Error: "internal server error"}
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return authStatus(ae.Code), ae.Message
	}

	// A failed write is shown once, with its notice.
	var we *domain.StoreWriteError
	if errors.As(err, &we) {
		log.Error().
			Err(err).
			Str("collection", we.Collection).
			Str("op", we.Op).
			Msg("store write failed")
		return http.StatusServiceUnavailable, we.Notice
	}

	var se *domain.SubscriptionError
	if errors.As(err, &se) {
		log.Error().Err(err).Str("collection", se.Collection).Msg("subscription failed")
		return http.StatusServiceUnavailable, "live updates unavailable"
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "sign in required"
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "session ended, sign in again"
	case errors.Is(err, domain.ErrDuesAlreadyPaid):
		return http.StatusConflict, "dues already paid for the current period"
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, "already exists"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func authStatus(code string) int {
	switch code {
	case domain.AuthCodeEmailInUse:
		return http.StatusConflict
	case domain.AuthCodeInvalidCredential, domain.AuthCodeWrongPassword, domain.AuthCodeRequiresRecentAuth:
		return http.StatusUnauthorized
	case domain.AuthCodeWeakPassword, domain.AuthCodePasswordMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

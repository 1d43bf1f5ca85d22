package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tmh/registry/internal/platform/validate"
	"github.com/tmh/registry/pkg/apperrors"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Errors     []string `json:"errors"`
	Stacktrace string   `json:"stacktrace,omitempty"`
}

var statusByType = map[apperrors.Type]int{
	apperrors.TypeValidation:       http.StatusBadRequest,
	apperrors.TypeIntegrity:        http.StatusBadRequest,
	apperrors.TypeNotFound:         http.StatusNotFound,
	apperrors.TypePermissionDenied: http.StatusForbidden,
	apperrors.TypeNotAuthenticated: http.StatusUnauthorized,
	apperrors.TypeInternal:         http.StatusInternalServerError,
}

// ErrorHandler translates returned errors into {"errors": [...]} bodies.
// showStack adds the panic stack or error chain to 500 responses.
func ErrorHandler(logger zerolog.Logger, showStack bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translate(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("unhandled error")
			if showStack {
				body.Stacktrace = stackOf(err)
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func translate(err error) (int, ErrorBody) {
	if appErr, ok := apperrors.As(err); ok {
		status, known := statusByType[appErr.Type]
		if !known {
			status = http.StatusInternalServerError
		}
		return status, ErrorBody{Errors: []string{appErr.Message}}
	}

	if msgs := validate.Messages(err); msgs != nil {
		return http.StatusBadRequest, ErrorBody{Errors: msgs}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if inner, ok := he.Message.(error); ok {
			msg = inner.Error()
		}
		return he.Code, ErrorBody{Errors: []string{msg}}
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return http.StatusInternalServerError, ErrorBody{Errors: []string{pe.Error()}}
	}

	return http.StatusInternalServerError, ErrorBody{Errors: []string{err.Error()}}
}

func stackOf(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Stack
	}
	return fmt.Sprintf("%+v", err)
}

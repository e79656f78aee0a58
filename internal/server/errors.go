package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/handlers"
	"github.com/nfrund/causal/internal/middleware"
)

// setupErrorHandling installs the central error handler. Domain errors map to
// their status codes; anything unexpected is a 500 logged with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translateError(c, err)

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(status)
		} else {
			respErr = c.JSON(status, body)
		}
		if respErr != nil {
			slog.Error("Failed to write error response", "error", respErr)
		}
	}
}

func translateError(c echo.Context, err error) (int, handlers.ErrorResponse) {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var reqErr *domain.RequestError
	var httpErr *echo.HTTPError

	switch {
	case errors.Is(err, domain.ErrMalformedRequest):
		msg := err.Error()
		if errors.As(err, &reqErr) {
			msg = reqErr.Message
		}
		return http.StatusBadRequest, handlers.ErrorResponse{Code: handlers.CodeMalformedRequest, Message: msg}

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, handlers.ErrorResponse{Code: handlers.CodeNotFound, Message: err.Error()}

	case errors.Is(err, domain.ErrStorageUnavailable):
		logger.ErrorContext(ctx, "Storage unavailable", "error", err, "path", c.Path())
		return http.StatusServiceUnavailable, handlers.ErrorResponse{
			Code:    handlers.CodeStorageUnavailable,
			Message: domain.ErrStorageUnavailable.Error(),
		}

	case errors.As(err, &httpErr):
		if httpErr.Internal != nil {
			logger.DebugContext(ctx, "HTTP error", "status", httpErr.Code, "error", httpErr.Internal)
		}
		code := handlers.CodeHTTP
		if httpErr.Code == http.StatusNotFound {
			code = handlers.CodeNotFound
		}
		return httpErr.Code, handlers.ErrorResponse{Code: code, Message: fmt.Sprint(httpErr.Message)}

	default:
		logger.ErrorContext(ctx, "Internal Server Error (Unhandled)",
			"error", err,
			"path", c.Path(),
			"stack_trace", string(debug.Stack()),
		)
		return http.StatusInternalServerError, handlers.ErrorResponse{
			Code:    handlers.CodeInternal,
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
}

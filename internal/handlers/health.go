package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/middleware"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers GET /health with the store status.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Get returns 200 OK when the store answers a ping, 503 otherwise.
func (h *HealthHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.store.Ping(ctx); err != nil {
		middleware.FromContext(ctx).WarnContext(ctx, "Health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    CodeStorageUnavailable,
			Message: domain.ErrStorageUnavailable.Error(),
		})
	}
	return c.String(http.StatusOK, "OK")
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/middleware"
	"github.com/nfrund/causal/internal/topic"
)

// TopicHandler handles HTTP requests for the /topics resource.
type TopicHandler struct {
	service topic.Service
}

// NewTopicHandler creates a new TopicHandler.
func NewTopicHandler(service topic.Service) *TopicHandler {
	return &TopicHandler{service: service}
}

// parseID reads the :id path parameter. Anything but a positive base-10
// integer is reported as a missing topic.
func parseID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 || raw[0] == '+' {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// bindTopic decodes and validates the request body.
func bindTopic(c echo.Context) (*domain.TopicInput, error) {
	var req TopicRequest
	if err := c.Bind(&req); err != nil {
		return nil, domain.NewMalformedRequest("request body must be a JSON object with title, content and tags")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return req.Input(), nil
}

// List handles GET /topics.
func (h *TopicHandler) List(c echo.Context) error {
	topics, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewTopicListResponse(topics))
}

// Create handles POST /topics.
func (h *TopicHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	in, err := bindTopic(c)
	if err != nil {
		return err
	}
	created, err := h.service.Create(ctx, in)
	if err != nil {
		return err
	}

	middleware.FromContext(ctx).DebugContext(ctx, "Topic created", "topic_id", created.ID)
	return c.JSON(http.StatusCreated, NewTopicResponse(created))
}

// Get handles GET /topics/:id.
func (h *TopicHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.service.Retrieve(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewTopicResponse(t))
}

// Update handles PUT /topics/:id. The body is checked before the id.
func (h *TopicHandler) Update(c echo.Context) error {
	in, err := bindTopic(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	updated, err := h.service.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewTopicResponse(updated))
}

// Delete handles DELETE /topics/:id.
func (h *TopicHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Register mounts the topic routes on g. Write routes get the extra middleware.
func (h *TopicHandler) Register(g *echo.Group, write ...echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.POST("", h.Create, write...)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, write...)
	g.DELETE("/:id", h.Delete, write...)
}

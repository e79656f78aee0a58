package server

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/nfrund/causal/internal/handlers"
	"github.com/nfrund/causal/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	topicHandler := handlers.NewTopicHandler(s.Topics)
	healthHandler := handlers.NewHealthHandler(s.Repo)
	rateLimiter := middleware.RateLimiter(s.Cfg.GetRateLimit())

	// /api/topics is the prefix the web frontend calls.
	topicHandler.Register(s.E.Group("/topics"), rateLimiter)
	topicHandler.Register(s.E.Group("/api/topics"), rateLimiter)

	s.E.GET("/health", healthHandler.Get)
	s.E.GET("/ws/topics", s.Stream.Handler)

	if s.metrics != nil {
		s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: s.metrics,
		}))
	}
}

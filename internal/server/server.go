package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/causal/internal/config"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/handlers"
	appmiddleware "github.com/nfrund/causal/internal/middleware"
	"github.com/nfrund/causal/internal/pubsub"
	"github.com/nfrund/causal/internal/topic"
	ws "github.com/nfrund/causal/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metricsSubsystem prefixes every HTTP metric name.
const metricsSubsystem = "causal"

// Server holds the dependencies for the HTTP server.
type Server struct {
	E      *echo.Echo
	Cfg    config.Provider
	Repo   domain.TopicRepository
	Bus    pubsub.Bus
	Topics topic.Service
	Stream *ws.EventStream

	metrics *prometheus.Registry
}

// New wires a server around an open repository. The server owns repo from
// here on and closes it in Shutdown.
func New(cfg config.Provider, repo domain.TopicRepository) *Server {
	bus := pubsub.NewWatermillBridge(nil)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	s := &Server{
		E:      e,
		Cfg:    cfg,
		Repo:   repo,
		Bus:    bus,
		Topics: topic.NewService(repo, bus),
		Stream: ws.NewEventStream(bus, eventTopics(), cfg.GetCORSAllowOrigins()),
	}
	s.setupMiddleware()
	return s
}

func eventTopics() []string {
	names := make([]string, 0, len(topic.AllEvents))
	for _, ev := range topic.AllEvents {
		names = append(names, ev.Name())
	}
	return names
}

func (s *Server) setupMiddleware() {
	s.E.Use(middleware.Recover())
	s.E.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.E.Use(appmiddleware.Logger)
	s.E.Use(appmiddleware.RequestLogger())
	s.E.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.Cfg.GetCORSAllowOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	if s.Cfg.GetMetricsEnabled() {
		// Each server gets its own registry.
		s.metrics = prometheus.NewRegistry()
		s.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		s.E.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  metricsSubsystem,
			Registerer: s.metrics,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
	}
}

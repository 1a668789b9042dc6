package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/agent"
	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/extract"
	"github.com/fyrsmithlabs/chatd/internal/ingest"
	"github.com/fyrsmithlabs/chatd/internal/rag"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Services are the workflow backends the server routes to.
type Services struct {
	Chat           *chat.Service
	Extract        *extract.Service
	Agent          *agent.Agent
	RetrievalAgent *agent.Agent
	Pipeline       *rag.Pipeline
	Ingest         *ingest.Service
}

// Server provides the chatd HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	services Services
	logger   *zap.Logger
	config   *Config
}

// NewServer creates a new HTTP server.
func NewServer(services Services, logger *zap.Logger, cfg *Config) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		services: services,
		logger:   logger,
		config:   cfg,
	}

	e.HTTPErrorHandler = s.handleError
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/chat/structured_output", s.handleStructuredOutput)
	api.POST("/chat/agents", s.handleAgents)
	api.POST("/chat/retrieval", s.handleRetrieval)
	api.POST("/chat/retrieval_agents", s.handleRetrievalAgents)
	api.POST("/retrieval/ingest", s.handleIngest)
}

// handleError converts any handler failure into the {error} JSON contract.
// The status comes from the failure when it carries one, else from the
// error kind, else 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		// Streaming already started; the truncated body is all the caller
		// gets.
		s.logger.Warn("error after response started", zap.Error(err))
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	case errors.Is(err, chat.ErrEmptyMessages), errors.Is(err, chat.ErrInvalidRole):
		code = http.StatusBadRequest
	case errors.Is(err, agent.ErrNotConverged):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, ingest.ErrEmptyText):
		code = http.StatusBadRequest
	}

	if jsonErr := c.JSON(code, map[string]string{"error": message}); jsonErr != nil {
		s.logger.Error("failed to write error response", zap.Error(jsonErr))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Package httpapi provides the HTTP API for ragd.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// TenantHeader carries the caller's tenant identifier.
const TenantHeader = "X-Tenant-ID"

// Server provides HTTP endpoints for the RAG pipeline.
type Server struct {
	echo    *echo.Echo
	service *rag.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// DefaultTenant is assigned to requests without a tenant header.
	// Empty means the header is mandatory.
	DefaultTenant string
}

// NewServer creates a new HTTP server.
func NewServer(service *rag.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
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

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
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
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and metrics
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// RAG API routes, all tenant-scoped
	api := s.echo.Group("/api/rag", s.tenantMiddleware)
	api.POST("/query", s.handleQuery)
	api.GET("/search", s.handleSearch)
	api.GET("/history", s.handleHistory)
	api.POST("/documents", s.handleIngest)
	api.POST("/documents/upload", s.handleUpload)
	api.GET("/documents", s.handleListDocuments)
	api.GET("/documents/:id", s.handleGetDocument)
	api.DELETE("/documents/:id", s.handleDeleteDocument)
	api.GET("/stats", s.handleStats)
	api.GET("/suggested-questions", s.handleSuggestedQuestions)
}

// tenantMiddleware resolves the caller's tenant from the request header and
// injects it into the request context. Requests without a resolvable tenant
// still reach the handlers, which fail closed.
func (s *Server) tenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := c.Request().Header.Get(TenantHeader)
		if tenantID == "" {
			tenantID = s.config.DefaultTenant
		}
		if tenantID != "" {
			ctx := tenant.NewContext(c.Request().Context(), &tenant.Info{ID: tenantID})
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
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

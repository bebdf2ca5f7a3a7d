// Package api exposes the workshop HTTP surface: session creation (buffered
// and streaming), session reads, reports, templates, and health.
package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/database"
	"github.com/opennotebook/workshop/pkg/services"
)

// HealthChecker reports backing-store health. Nil when running on the
// in-memory store.
type HealthChecker interface {
	Health(ctx context.Context) (*database.HealthStatus, error)
}

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg             *config.Config
	workshopService *services.WorkshopService
	dbHealth        HealthChecker
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg *config.Config, workshopService *services.WorkshopService, dbHealth HealthChecker) *Server {
	e := echo.New()
	e.Use(securityHeaders())

	s := &Server{
		echo:            e,
		cfg:             cfg,
		workshopService: workshopService,
		dbHealth:        dbHealth,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{Handler: e}
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.healthHandler)

	g := s.echo.Group("/api/v1/workshops")
	g.GET("/templates", s.listTemplatesHandler)
	g.POST("/sessions", s.createSessionHandler)
	g.POST("/sessions/stream", s.streamSessionHandler)
	g.GET("/sessions/:id", s.getSessionHandler)
	g.GET("/sessions/:id/report", s.getReportHandler)
	g.DELETE("/sessions/:id", s.deleteSessionHandler)
	g.GET("/notebooks/:id/sessions", s.listNotebookSessionsHandler)
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

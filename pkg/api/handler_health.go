package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/opennotebook/workshop/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// Returns a minimal, safe response suitable for unauthenticated access.
// Only the service's own components are checked; the LLM provider is
// excluded so an upstream outage does not get this process restarted.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := &HealthResponse{
		Status:        healthStatusHealthy,
		Version:       version.GitCommit,
		Configuration: ConfigurationStats{Modes: s.cfg.Modes.Len()},
	}

	httpStatus := http.StatusOK
	if s.dbHealth != nil {
		dbStatus, err := s.dbHealth.Health(reqCtx)
		resp.Database = dbStatus
		if err != nil {
			resp.Status = healthStatusUnhealthy
			httpStatus = http.StatusServiceUnavailable
		}
	}

	return c.JSON(httpStatus, resp)
}

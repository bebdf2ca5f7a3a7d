package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listTemplatesHandler handles GET /api/v1/workshops/templates.
func (s *Server) listTemplatesHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &TemplateListResponse{
		Templates: s.workshopService.ListTemplates(),
	})
}

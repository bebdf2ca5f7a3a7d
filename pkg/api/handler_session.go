package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/opennotebook/workshop/pkg/models"
)

// createSessionHandler handles POST /api/v1/workshops/sessions.
// Creates the session, starts the run in the background, and returns the
// session record immediately; clients poll for progress.
func (s *Server) createSessionHandler(c *echo.Context) error {
	var req models.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := s.workshopService.CreateSession(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, session)
}

// getSessionHandler handles GET /api/v1/workshops/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	session, err := s.workshopService.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, session)
}

// getReportHandler handles GET /api/v1/workshops/sessions/:id/report.
func (s *Server) getReportHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	report, err := s.workshopService.GetReport(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, report)
}

// deleteSessionHandler handles DELETE /api/v1/workshops/sessions/:id.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	if err := s.workshopService.DeleteSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &DeleteResponse{
		SessionID: sessionID,
		Message:   "Session deleted",
	})
}

// listNotebookSessionsHandler handles GET /api/v1/workshops/notebooks/:id/sessions.
func (s *Server) listNotebookSessionsHandler(c *echo.Context) error {
	notebookID := c.Param("id")
	if notebookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "notebook id is required")
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit: must be a non-negative integer")
		}
		limit = parsed
	}

	sessions, err := s.workshopService.ListNotebookSessions(c.Request().Context(), notebookID, limit)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &SessionListResponse{
		Sessions: sessions,
		Total:    len(sessions),
	})
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/opennotebook/workshop/pkg/events"
	"github.com/opennotebook/workshop/pkg/models"
)

// keepaliveInterval is how often the relay writes a comment frame to defeat
// intermediary buffering on otherwise-quiet streams.
const keepaliveInterval = 2 * time.Second

// streamSessionHandler handles POST /api/v1/workshops/sessions/stream.
// Creates the session and relays its run as Server-Sent Events: first
// session_created, then agent_start / agent_chunk / agent_complete per turn,
// ending with session_complete or error. The stream closes after the
// terminal event. A client disconnect only detaches the relay; the run
// continues in the background and the session stays pollable.
func (s *Server) streamSessionHandler(c *echo.Context) error {
	var req models.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, sink, err := s.workshopService.CreateSessionStream(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	logger := slog.With("session_id", session.ID)

	sse, err := events.NewSSEWriter(c.Response())
	if err != nil {
		// The run is already started; it finishes in the background.
		logger.Error("Failed to open event stream", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	clientGone := c.Request().Context().Done()

	for {
		select {
		case event, ok := <-sink.Events():
			if !ok {
				// Run finished and the sink closed; the terminal event was
				// already relayed.
				return nil
			}
			if err := sse.WriteEvent(event); err != nil {
				logger.Info("Stream write failed, detaching relay", "error", err)
				return nil
			}
			switch event.EventType() {
			case events.EventTypeSessionComplete, events.EventTypeError:
				return nil
			}

		case <-keepalive.C:
			if err := sse.WriteKeepalive(); err != nil {
				logger.Info("Keepalive write failed, detaching relay", "error", err)
				return nil
			}

		case <-clientGone:
			logger.Info("Client disconnected, session continues in background")
			return nil
		}
	}
}

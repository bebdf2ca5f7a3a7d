// Package services sits between the HTTP layer and the store/orchestrator:
// request validation, session lifecycle entry points, and template listing.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/events"
	"github.com/opennotebook/workshop/pkg/models"
	"github.com/opennotebook/workshop/pkg/orchestrator"
	"github.com/opennotebook/workshop/pkg/store"
)

// sinkBuffer sizes the event channel between a run and its relay. Chunks
// dominate the volume; the relay drains continuously, so a moderate buffer
// absorbs flush latency without unbounded memory.
const sinkBuffer = 256

// WorkshopService manages workshop session lifecycle.
type WorkshopService struct {
	store store.Store
	cfg   *config.Config
	orch  *orchestrator.Orchestrator

	// runs tracks in-flight session goroutines for graceful shutdown.
	runs   sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewWorkshopService creates a new WorkshopService.
func NewWorkshopService(s store.Store, cfg *config.Config, orch *orchestrator.Orchestrator) *WorkshopService {
	return &WorkshopService{store: s, cfg: cfg, orch: orch}
}

// CreateSession validates the request, persists a new session in created
// status, and starts the run in the background. The returned session
// reflects the record at creation time; callers poll for progress.
func (s *WorkshopService) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	session, mode, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.startRun(session.ID, mode, events.NopSink{})
	return session, nil
}

// CreateSessionStream is the streaming variant: it additionally returns the
// event sink the run emits into, for the relay handler to drain. The caller
// owns draining; the sink channel is closed when the run finishes.
func (s *WorkshopService) CreateSessionStream(ctx context.Context, req models.CreateSessionRequest) (*models.Session, *events.ChannelSink, error) {
	session, mode, err := s.create(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	sink := events.NewChannelSink(sinkBuffer)
	s.startRun(session.ID, mode, sink)
	return session, sink, nil
}

func (s *WorkshopService) create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, *config.ModeConfig, error) {
	if req.Topic == "" {
		return nil, nil, NewValidationError("topic", "required")
	}
	if req.NotebookID == "" {
		return nil, nil, NewValidationError("notebook_id", "required")
	}
	if req.Mode == "" {
		return nil, nil, NewValidationError("mode", "required")
	}
	mode, err := s.cfg.GetMode(req.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:          uuid.New().String(),
		NotebookID:  req.NotebookID,
		Mode:        req.Mode,
		Topic:       req.Topic,
		Status:      models.StatusCreated,
		Context:     req.Context,
		Turns:       []models.Turn{},
		TotalRounds: mode.Workflow.Rounds,
		AgentCount:  len(mode.Agents),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("Workshop session created",
		"session_id", session.ID, "mode", req.Mode, "notebook_id", req.NotebookID)
	return session, mode, nil
}

// startRun launches the orchestrator in the background. The run uses its own
// context so a client disconnect never cancels it; the session stays
// pollable while it finishes.
func (s *WorkshopService) startRun(sessionID string, mode *config.ModeConfig, sink events.Sink) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Warn("Rejecting run on shutting-down service", "session_id", sessionID)
		if closer, ok := sink.(*events.ChannelSink); ok {
			closer.Close()
		}
		return
	}
	s.runs.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.runs.Done()
		defer func() {
			if closer, ok := sink.(*events.ChannelSink); ok {
				closer.Close()
			}
		}()
		s.orch.Run(context.Background(), sessionID, mode, sink)
	}()
}

// GetSession returns a session including its transcript.
func (s *WorkshopService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListNotebookSessions returns a notebook's sessions, newest first, without
// transcripts.
func (s *WorkshopService) ListNotebookSessions(ctx context.Context, notebookID string, limit int) ([]*models.Session, error) {
	if notebookID == "" {
		return nil, NewValidationError("notebook_id", "required")
	}
	sessions, err := s.store.ListSessions(ctx, models.SessionFilters{NotebookID: notebookID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its transcript.
func (s *WorkshopService) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("Workshop session deleted", "session_id", id)
	return nil
}

// GetReport returns the final report. Sessions that have not completed have
// no report yet; failed sessions never will.
func (s *WorkshopService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: session is %s", ErrReportNotReady, session.Status)
	}
	return &models.Report{
		SessionID: session.ID,
		Topic:     session.Topic,
		Mode:      session.Mode,
		Content:   session.FinalReport,
		Format:    "markdown",
		CreatedAt: session.UpdatedAt,
	}, nil
}

// ListTemplates returns the configured modes as template views, sorted by
// mode ID.
func (s *WorkshopService) ListTemplates() []models.Template {
	ids := s.cfg.Modes.List()
	templates := make([]models.Template, 0, len(ids))
	for _, id := range ids {
		mode, err := s.cfg.GetMode(id)
		if err != nil {
			continue
		}
		agents := make([]models.TemplateAgent, len(mode.Agents))
		for i, a := range mode.Agents {
			agents[i] = models.TemplateAgent{
				ID:      a.ID,
				Name:    a.Name,
				Role:    a.Role,
				Persona: a.Persona,
				Color:   a.Color,
				Avatar:  a.Avatar,
			}
		}
		templates = append(templates, models.Template{
			ModeID:        id,
			Name:          mode.Name,
			Description:   mode.Description,
			Icon:          mode.Icon,
			UseCases:      mode.UseCases,
			EstimatedTime: mode.EstimatedTime,
			Agents:        agents,
			Workflow:      string(mode.Workflow.Type),
			Rounds:        mode.Workflow.Rounds,
		})
	}
	return templates
}

// Shutdown stops accepting new runs and waits for in-flight sessions to
// finish, bounded by ctx.
func (s *WorkshopService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out waiting for running sessions: %w", ctx.Err())
	}
}

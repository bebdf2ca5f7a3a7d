// Package orchestrator drives a workshop session's workflow: it schedules
// agents per the mode configuration, persists each completed turn, emits
// typed progress events, and moves the session to a terminal status.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/events"
	"github.com/opennotebook/workshop/pkg/llm"
	"github.com/opennotebook/workshop/pkg/models"
	"github.com/opennotebook/workshop/pkg/store"
)

// Orchestrator is the single writer for running sessions.
type Orchestrator struct {
	store     store.Store
	llm       llm.Client
	defaults  config.Defaults
	notebooks llm.NotebookFetcher
}

// New creates an orchestrator. notebooks may be nil, which disables the
// notebook_reader tool for all agents.
func New(s store.Store, client llm.Client, defaults config.Defaults, notebooks llm.NotebookFetcher) *Orchestrator {
	return &Orchestrator{store: s, llm: client, defaults: defaults, notebooks: notebooks}
}

// Run drives the session to a terminal status, emitting progress events to
// sink. Blocking; callers start it in a goroutine. Run never returns a
// partial state: every exit path persists either completed or failed, and
// the transcript accumulated so far is retained on failure.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, mode *config.ModeConfig, sink events.Sink) {
	ctx, cancel := context.WithTimeout(ctx, o.defaults.SessionTimeout)
	defer cancel()

	logger := slog.With("session_id", sessionID)

	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to load session for run", "error", err)
		sink.Emit(events.NewError("session could not be loaded"))
		return
	}

	if err := o.store.SetStatus(ctx, sessionID, models.StatusInProgress, ""); err != nil {
		logger.Error("Failed to mark session in progress", "error", err)
		sink.Emit(events.NewError("session could not be started"))
		return
	}
	session.Status = models.StatusInProgress
	sink.Emit(events.NewSessionCreated(sessionID))

	logger.Info("Workshop session started",
		"mode", session.Mode,
		"topic", session.Topic,
		"workflow", string(mode.Workflow.Type))

	switch mode.Workflow.Type {
	case config.WorkflowHybrid:
		err = o.runHybrid(ctx, session, mode, sink)
	default:
		err = o.runSequential(ctx, session, mode, sink)
	}
	if err != nil {
		o.fail(ctx, logger, sessionID, sink, err)
		return
	}

	report := generateReport(session, mode)
	if err := o.store.SetReport(ctx, sessionID, report); err != nil {
		o.fail(ctx, logger, sessionID, sink, fmt.Errorf("failed to persist report: %w", err))
		return
	}
	if err := o.store.SetStatus(ctx, sessionID, models.StatusCompleted, ""); err != nil {
		o.fail(ctx, logger, sessionID, sink, fmt.Errorf("failed to complete session: %w", err))
		return
	}

	sink.Emit(events.NewSessionComplete(sessionID))
	logger.Info("Workshop session completed", "turns", len(session.Turns))
}

// runSequential executes every step except the last for each configured
// round, each agent seeing the prior turns its step's context permits, then
// runs the final step once.
func (o *Orchestrator) runSequential(ctx context.Context, session *models.Session, mode *config.ModeConfig, sink events.Sink) error {
	steps := mode.Workflow.Steps
	rounds := mode.Workflow.Rounds
	if rounds < 1 {
		rounds = 1
	}

	bodySteps := steps[:len(steps)-1]
	finalStep := steps[len(steps)-1]

	for round := 1; round <= rounds; round++ {
		for _, step := range bodySteps {
			if err := o.runAgent(ctx, session, mode, step.Agent, round, step.Context, sink); err != nil {
				return err
			}
		}
	}
	return o.runAgent(ctx, session, mode, finalStep.Agent, rounds, finalStep.Context, sink)
}

// runHybrid executes each diverge step's agents, concurrently when the step
// is marked parallel, each seeing only what the step's context permits, then
// runs the integrator with every diverge turn visible. The session fails
// only if an entire diverge step produces no successful turn or the
// integrator itself fails.
func (o *Orchestrator) runHybrid(ctx context.Context, session *models.Session, mode *config.ModeConfig, sink events.Sink) error {
	round := 1
	for _, step := range mode.Workflow.Steps {
		switch step.Phase {
		case config.PhaseDiverge:
			var turns []models.Turn
			var err error
			if step.Parallel {
				turns, err = o.runParallel(ctx, session, mode, step.Agents, round, step.Context, sink)
			} else {
				turns, err = o.runSerial(ctx, session, mode, step.Agents, round, step.Context, sink)
			}
			if err != nil {
				return err
			}
			succeeded := 0
			for _, turn := range turns {
				session.Turns = append(session.Turns, turn)
				if !turn.Error {
					succeeded++
				}
			}
			if succeeded == 0 {
				return errors.New("all parallel agents failed")
			}

		case config.PhaseIntegrate:
			for _, agentID := range step.Agents {
				if err := o.runAgent(ctx, session, mode, agentID, round, step.Context, sink); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// runParallel invokes the given agents concurrently. A failed agent yields
// an error-flagged turn rather than aborting its peers; only store failures
// and context cancellation propagate as errors.
func (o *Orchestrator) runParallel(ctx context.Context, session *models.Session, mode *config.ModeConfig, agentIDs []string, round int, contextAgents []string, sink events.Sink) ([]models.Turn, error) {
	turns := make([]models.Turn, len(agentIDs))
	g, groupCtx := errgroup.WithContext(ctx)

	for i, agentID := range agentIDs {
		g.Go(func() error {
			turn, err := o.produceTurn(groupCtx, session, mode, agentID, round, contextAgents, sink)
			if err != nil && groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			if persistErr := o.persistTurn(groupCtx, session.ID, turn, sink); persistErr != nil {
				return persistErr
			}
			turns[i] = turn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return turns, nil
}

// runSerial is runParallel for steps that opt out of concurrency. Turns are
// still collected rather than appended, so later agents in the step do not
// see their peers' output.
func (o *Orchestrator) runSerial(ctx context.Context, session *models.Session, mode *config.ModeConfig, agentIDs []string, round int, contextAgents []string, sink events.Sink) ([]models.Turn, error) {
	turns := make([]models.Turn, len(agentIDs))
	for i, agentID := range agentIDs {
		turn, err := o.produceTurn(ctx, session, mode, agentID, round, contextAgents, sink)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if persistErr := o.persistTurn(ctx, session.ID, turn, sink); persistErr != nil {
			return nil, persistErr
		}
		turns[i] = turn
	}
	return turns, nil
}

// runAgent produces, persists, and appends one turn for a sequential or
// integrate step. A producer failure fails the session after the
// error-flagged turn is persisted, so the partial transcript survives.
func (o *Orchestrator) runAgent(ctx context.Context, session *models.Session, mode *config.ModeConfig, agentID string, round int, contextAgents []string, sink events.Sink) error {
	turn, err := o.produceTurn(ctx, session, mode, agentID, round, contextAgents, sink)
	if persistErr := o.persistTurn(ctx, session.ID, turn, sink); persistErr != nil {
		return persistErr
	}
	session.Turns = append(session.Turns, turn)
	if err != nil {
		return fmt.Errorf("agent %s failed: %w", agentID, err)
	}
	return nil
}

// produceTurn invokes the turn producer for one agent. On failure the
// returned turn carries the error message as content with Error set, and the
// error is returned alongside so callers decide whether the session fails.
func (o *Orchestrator) produceTurn(ctx context.Context, session *models.Session, mode *config.ModeConfig, agentID string, round int, contextAgents []string, sink events.Sink) (models.Turn, error) {
	agent := mode.Agent(agentID)
	if agent == nil {
		turn := models.Turn{
			AgentID:   agentID,
			AgentName: agentID,
			Content:   fmt.Sprintf("unknown agent %q", agentID),
			Round:     round,
			Error:     true,
			Timestamp: time.Now().UTC(),
		}
		return turn, fmt.Errorf("unknown agent %q in workflow", agentID)
	}

	sink.Emit(events.NewAgentStart(agent.ID, agent.Name, round))
	slog.Info("Agent turn started",
		"session_id", session.ID, "agent_id", agent.ID, "round", round)

	turnCtx, cancel := context.WithTimeout(ctx, o.defaults.TurnTimeout)
	defer cancel()

	req := llm.TurnRequest{
		Model:        o.defaults.LLMModel,
		SystemPrompt: agent.SystemPrompt,
		Prompt:       buildPrompt(agent, mode, session, contextAgents),
		Temperature:  agent.Temperature,
		MaxTokens:    int64(o.defaults.MaxTokens),
		Tools:        o.resolveTools(agent, session),
	}

	result, err := o.llm.GenerateTurn(turnCtx, req, func(delta string) {
		sink.Emit(events.NewAgentChunk(agent.ID, round, delta))
	})

	turn := models.Turn{
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Round:     round,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		slog.Warn("Agent turn failed",
			"session_id", session.ID, "agent_id", agent.ID, "round", round, "error", err)
		turn.Content = err.Error()
		turn.Error = true
		return turn, err
	}

	turn.Content = result.Content
	turn.ToolCalls = result.ToolCalls
	return turn, nil
}

// persistTurn writes the turn and emits its completion event. Store failures
// are fatal to the session: a turn the client saw must never be silently
// missing from the transcript.
func (o *Orchestrator) persistTurn(ctx context.Context, sessionID string, turn models.Turn, sink events.Sink) error {
	if err := o.store.AppendTurn(ctx, sessionID, turn); err != nil {
		return fmt.Errorf("failed to persist turn for agent %s: %w", turn.AgentID, err)
	}
	sink.Emit(events.NewAgentComplete(turn))
	return nil
}

func (o *Orchestrator) resolveTools(agent *config.AgentConfig, session *models.Session) []llm.Tool {
	if o.notebooks == nil {
		return nil
	}
	var tools []llm.Tool
	for _, name := range agent.Tools {
		if name == "notebook_reader" {
			tools = append(tools, llm.NewNotebookReader(session.NotebookID, o.notebooks))
		}
	}
	return tools
}

// fail moves the session to failed and emits the terminal error event. The
// status write uses a fresh context so a timed-out run can still record its
// failure.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, sessionID string, sink events.Sink, cause error) {
	logger.Error("Workshop session failed", "error", cause)

	statusCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		statusCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}
	if err := o.store.SetStatus(statusCtx, sessionID, models.StatusFailed, cause.Error()); err != nil {
		logger.Error("Failed to record session failure", "error", err)
	}
	sink.Emit(events.NewError(cause.Error()))
}

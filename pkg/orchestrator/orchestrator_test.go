package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/events"
	"github.com/opennotebook/workshop/pkg/llm"
	"github.com/opennotebook/workshop/pkg/models"
	"github.com/opennotebook/workshop/pkg/store"
)

// fakeLLM routes each request through a test-provided function.
type fakeLLM struct {
	generate func(ctx context.Context, req llm.TurnRequest, onDelta func(string)) (*llm.TurnResult, error)
}

func (f *fakeLLM) GenerateTurn(ctx context.Context, req llm.TurnRequest, onDelta func(string)) (*llm.TurnResult, error) {
	return f.generate(ctx, req, onDelta)
}

// recordingSink captures emitted events; safe for parallel agent phases.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingSink) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.EventType()
	}
	return types
}

func testDefaults() config.Defaults {
	return config.Defaults{
		LLMModel:       "test-model",
		MaxTokens:      512,
		TurnTimeout:    5 * time.Second,
		SessionTimeout: 30 * time.Second,
		MaxRetries:     0,
	}
}

// debateMode is a two-agent sequential mode: agent "a" argues for each
// round, agent "b" closes once.
func debateMode(rounds int) *config.ModeConfig {
	return &config.ModeConfig{
		Name: "Debate",
		Agents: []config.AgentConfig{
			{ID: "a", Name: "Agent A", Temperature: 0.7, SystemPrompt: "You are A.",
				UserPromptTemplate: "Topic: {topic}\nPrior: {previous_opinions}"},
			{ID: "b", Name: "Agent B", Temperature: 0.5, SystemPrompt: "You are B.",
				UserPromptTemplate: "Topic: {topic}\nA said: {a_opinion}"},
		},
		Workflow: config.WorkflowConfig{
			Type:   config.WorkflowSequential,
			Rounds: rounds,
			Steps: []config.WorkflowStep{
				{Agent: "a"},
				{Agent: "b"},
			},
		},
	}
}

func ideationMode() *config.ModeConfig {
	return &config.ModeConfig{
		Name: "Ideation",
		Agents: []config.AgentConfig{
			{ID: "x", Name: "X", SystemPrompt: "You are X.", UserPromptTemplate: "{topic}"},
			{ID: "y", Name: "Y", SystemPrompt: "You are Y.", UserPromptTemplate: "{topic}"},
			{ID: "z", Name: "Z", SystemPrompt: "You are Z.", UserPromptTemplate: "{topic}"},
			{ID: "merge", Name: "Merger", SystemPrompt: "You merge.",
				UserPromptTemplate: "{x_ideas}\n{y_ideas}\n{z_ideas}"},
		},
		Workflow: config.WorkflowConfig{
			Type:   config.WorkflowHybrid,
			Rounds: 1,
			Steps: []config.WorkflowStep{
				{Agents: []string{"x", "y", "z"}, Phase: config.PhaseDiverge, Parallel: true},
				{Agents: []string{"merge"}, Phase: config.PhaseIntegrate, Context: []string{"x", "y", "z"}},
			},
		},
	}
}

func seedSession(t *testing.T, s store.Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.CreateSession(context.Background(), &models.Session{
		ID:         id,
		NotebookID: "nb-1",
		Mode:       "debate",
		Topic:      "Should we ship it?",
		Status:     models.StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func TestRun_SequentialHappyPath(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, onDelta func(string)) (*llm.TurnResult, error) {
		if strings.Contains(req.SystemPrompt, "You are A.") {
			onDelta("Hello")
			onDelta(" world")
			return &llm.TurnResult{Content: "Hello world"}, nil
		}
		return &llm.TurnResult{Content: "Ack"}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", debateMode(1), sink)

	assert.Equal(t, []string{
		"session_created",
		"agent_start", "agent_chunk", "agent_chunk", "agent_complete",
		"agent_start", "agent_complete",
		"session_complete",
	}, sink.types())

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, "Hello world", session.Turns[0].Content)
	assert.Equal(t, "Ack", session.Turns[1].Content)
	assert.Contains(t, session.FinalReport, "Hello world")
}

func TestRun_SequentialRoundsRepeatBodySteps(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	var mu sync.Mutex
	var prompts []string
	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		mu.Lock()
		prompts = append(prompts, req.Prompt)
		mu.Unlock()
		return &llm.TurnResult{Content: fmt.Sprintf("turn %d", len(prompts))}, nil
	}}

	mode := debateMode(2)
	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", mode, sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, session.Turns, 3)

	// Body agent repeats per round, the final agent runs once.
	assert.Equal(t, "a", session.Turns[0].AgentID)
	assert.Equal(t, 1, session.Turns[0].Round)
	assert.Equal(t, "a", session.Turns[1].AgentID)
	assert.Equal(t, 2, session.Turns[1].Round)
	assert.Equal(t, "b", session.Turns[2].AgentID)
	assert.Equal(t, 2, session.Turns[2].Round)

	// Round two's prompt carries round one's output.
	assert.Contains(t, prompts[1], "turn 1")
}

func TestRun_SequentialProducerFailure(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		if strings.Contains(req.SystemPrompt, "You are B.") {
			return nil, errors.New("model overloaded")
		}
		return &llm.TurnResult{Content: "fine"}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", debateMode(1), sink)

	types := sink.types()
	assert.Equal(t, "error", types[len(types)-1])
	assert.NotContains(t, types, "session_complete")

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, session.Status)
	assert.Contains(t, session.ErrorMsg, "model overloaded")

	// Partial transcript retained, including the failed turn.
	require.Len(t, session.Turns, 2)
	assert.False(t, session.Turns[0].Error)
	assert.True(t, session.Turns[1].Error)
	assert.Empty(t, session.FinalReport)
}

func TestRun_HybridHappyPath(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		if strings.Contains(req.SystemPrompt, "merge") {
			return &llm.TurnResult{Content: "merged: " + req.Prompt}, nil
		}
		return &llm.TurnResult{Content: "idea from " + req.SystemPrompt}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", ideationMode(), sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Turns, 4)

	// Integrator sees every diverge agent's output.
	final := session.Turns[3]
	assert.Equal(t, "merge", final.AgentID)
	assert.Contains(t, final.Content, "You are X.")
	assert.Contains(t, final.Content, "You are Y.")
	assert.Contains(t, final.Content, "You are Z.")
}

func TestRun_HybridPartialFailureStillCompletes(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		if strings.Contains(req.SystemPrompt, "You are Y.") {
			return nil, errors.New("timeout")
		}
		return &llm.TurnResult{Content: "content"}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", ideationMode(), sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Turns, 4)

	errored := 0
	for _, turn := range session.Turns {
		if turn.Error {
			errored++
			assert.Equal(t, "y", turn.AgentID)
		}
	}
	assert.Equal(t, 1, errored)
	assert.Contains(t, sink.types(), "session_complete")
}

func TestRun_HybridAllDivergeFailedFailsSession(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		return nil, errors.New("provider down")
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", ideationMode(), sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, session.Status)

	types := sink.types()
	assert.Equal(t, "error", types[len(types)-1])
	assert.NotContains(t, types, "session_complete")
}

func TestRun_MissingSessionEmitsError(t *testing.T) {
	sink := &recordingSink{}
	o := New(store.NewMemoryStore(), &fakeLLM{}, testDefaults(), nil)
	o.Run(context.Background(), "nope", debateMode(1), sink)

	types := sink.types()
	require.Len(t, types, 1)
	assert.Equal(t, "error", types[0])
}

func TestRun_AgentCompleteCarriesFullContent(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, onDelta func(string)) (*llm.TurnResult, error) {
		onDelta("partial")
		return &llm.TurnResult{
			Content:   "full authoritative content",
			ToolCalls: []models.ToolCall{{Tool: "notebook_reader", Output: "notes"}},
		}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", debateMode(1), sink)

	var completes []events.AgentCompletePayload
	sink.mu.Lock()
	for _, e := range sink.events {
		if payload, ok := e.(events.AgentCompletePayload); ok {
			completes = append(completes, payload)
		}
	}
	sink.mu.Unlock()

	require.Len(t, completes, 2)
	assert.Equal(t, "full authoritative content", completes[0].Content)
	require.Len(t, completes[0].ToolCalls, 1)
	assert.Equal(t, "notebook_reader", completes[0].ToolCalls[0].Tool)
}

func TestRun_StepContextLimitsPromptVisibility(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	mode := &config.ModeConfig{
		Name: "Dialectic",
		Agents: []config.AgentConfig{
			{ID: "a", Name: "Agent A", SystemPrompt: "You are A.",
				UserPromptTemplate: "Prior: {previous_opinions}"},
			{ID: "b", Name: "Agent B", SystemPrompt: "You are B.",
				UserPromptTemplate: "Prior: {previous_opinions}"},
		},
		Workflow: config.WorkflowConfig{
			Type:   config.WorkflowSequential,
			Rounds: 2,
			Steps: []config.WorkflowStep{
				{Agent: "a", Context: []string{"b"}},
				{Agent: "b", Context: []string{"a"}},
			},
		},
	}

	var mu sync.Mutex
	prompts := map[string][]string{}
	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		mu.Lock()
		defer mu.Unlock()
		agent := "a"
		if strings.Contains(req.SystemPrompt, "You are B.") {
			agent = "b"
		}
		prompts[agent] = append(prompts[agent], req.Prompt)
		return &llm.TurnResult{Content: agent + " statement"}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", mode, sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)

	// Round two: each agent sees only its counterpart's statement, never
	// its own round-one output.
	require.Len(t, prompts["a"], 2)
	assert.Contains(t, prompts["a"][1], "b statement")
	assert.NotContains(t, prompts["a"][1], "a statement")
	require.Len(t, prompts["b"], 2)
	assert.Contains(t, prompts["b"][1], "a statement")
	assert.NotContains(t, prompts["b"][1], "b statement")
}

func TestRun_HybridSerialDivergeIsolatesPeers(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedSession(t, memStore, "s1")
	sink := &recordingSink{}

	mode := ideationMode()
	mode.Workflow.Steps[0].Parallel = false
	for i := range mode.Agents[:3] {
		mode.Agents[i].UserPromptTemplate = "{topic}\nPeers: {previous_opinions}"
	}

	var mu sync.Mutex
	var prompts []string
	client := &fakeLLM{generate: func(_ context.Context, req llm.TurnRequest, _ func(string)) (*llm.TurnResult, error) {
		mu.Lock()
		defer mu.Unlock()
		prompts = append(prompts, req.Prompt)
		return &llm.TurnResult{Content: fmt.Sprintf("idea %d", len(prompts))}, nil
	}}

	o := New(memStore, client, testDefaults(), nil)
	o.Run(context.Background(), "s1", mode, sink)

	session, err := memStore.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)
	require.Len(t, session.Turns, 4)

	// Diverge agents ran in declaration order without seeing peers.
	assert.Equal(t, []string{"x", "y", "z", "merge"}, []string{
		session.Turns[0].AgentID, session.Turns[1].AgentID,
		session.Turns[2].AgentID, session.Turns[3].AgentID,
	})
	require.Len(t, prompts, 4)
	assert.NotContains(t, prompts[1], "idea 1")
	assert.NotContains(t, prompts[2], "idea 1")

	// The integrator sees all three diverge turns.
	assert.Contains(t, prompts[3], "idea 1")
	assert.Contains(t, prompts[3], "idea 2")
	assert.Contains(t, prompts[3], "idea 3")
}

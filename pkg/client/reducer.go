// Package client provides a Go consumer for the workshop API: a REST
// client, an SSE stream consumer, and a session view that folds stream
// events into live per-agent state with a polling fallback when the
// stream drops.
package client

import (
	"github.com/opennotebook/workshop/pkg/events"
	"github.com/opennotebook/workshop/pkg/models"
)

// Phase describes where the session view currently gets its data from.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStreaming Phase = "streaming"
	PhasePolling   Phase = "polling"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// TurnKey identifies one agent turn within a session. An agent speaking
// in two rounds produces two keys.
type TurnKey struct {
	AgentID string
	Round   int
}

// TurnView is the client-side state for one turn. While the turn streams,
// Content accumulates chunks; once complete, Content holds the
// authoritative full text.
type TurnView struct {
	AgentID   string
	AgentName string
	Round     int
	Content   string
	ToolCalls []models.ToolCall
	Error     bool
	Complete  bool
}

// SessionView folds workshop events into per-turn state. Turns keep the
// order in which they first appeared on the stream. Not safe for
// concurrent use; callers serialize Apply with reads.
type SessionView struct {
	SessionID string
	Phase     Phase
	Err       string

	order []TurnKey
	turns map[TurnKey]*TurnView
}

// NewSessionView returns an empty view in the idle phase.
func NewSessionView() *SessionView {
	return &SessionView{
		Phase: PhaseIdle,
		turns: make(map[TurnKey]*TurnView),
	}
}

// Terminal reports whether the session has finished. Once terminal, the
// view ignores any further events.
func (v *SessionView) Terminal() bool {
	return v.Phase == PhaseCompleted || v.Phase == PhaseFailed
}

// Turns returns the turn views in first-seen order.
func (v *SessionView) Turns() []TurnView {
	out := make([]TurnView, 0, len(v.order))
	for _, key := range v.order {
		out = append(out, *v.turns[key])
	}
	return out
}

// Turn returns the view for one (agent, round) key, or nil if the key has
// not appeared yet.
func (v *SessionView) Turn(agentID string, round int) *TurnView {
	return v.turns[TurnKey{AgentID: agentID, Round: round}]
}

// ensureTurn returns the record for key, creating it on first sight.
// Creation is what pins the turn's position in the ordering.
func (v *SessionView) ensureTurn(key TurnKey) *TurnView {
	if turn, ok := v.turns[key]; ok {
		return turn
	}
	turn := &TurnView{AgentID: key.AgentID, Round: key.Round}
	v.turns[key] = turn
	v.order = append(v.order, key)
	return turn
}

// Apply folds one event into the view. Events arriving after a terminal
// event are dropped. Unknown event types are ignored so newer servers can
// add events without breaking older clients.
func (v *SessionView) Apply(evt events.Event) {
	if v.Terminal() {
		return
	}
	switch e := evt.(type) {
	case *events.SessionCreatedPayload:
		v.SessionID = e.SessionID
		if v.Phase == PhaseIdle {
			v.Phase = PhaseStreaming
		}
	case *events.AgentStartPayload:
		turn := v.ensureTurn(TurnKey{AgentID: e.AgentID, Round: e.Round})
		turn.AgentName = e.AgentName
	case *events.AgentChunkPayload:
		turn := v.ensureTurn(TurnKey{AgentID: e.AgentID, Round: e.Round})
		if !turn.Complete {
			turn.Content += e.Chunk
		}
	case *events.AgentCompletePayload:
		turn := v.ensureTurn(TurnKey{AgentID: e.AgentID, Round: e.Round})
		turn.AgentName = e.AgentName
		turn.Content = e.Content
		turn.ToolCalls = e.ToolCalls
		turn.Error = e.Error
		turn.Complete = true
	case *events.SessionCompletePayload:
		for _, turn := range v.turns {
			turn.Complete = true
		}
		v.Phase = PhaseCompleted
	case *events.ErrorPayload:
		v.Err = e.Error
		v.Phase = PhaseFailed
	}
}

// ApplySession replaces the view's turn state with a persisted session.
// Used for the authoritative re-fetch after session_complete and for each
// polling cycle; the server transcript wins over anything accumulated
// from the stream.
func (v *SessionView) ApplySession(session *models.Session) {
	v.SessionID = session.ID
	v.order = v.order[:0]
	v.turns = make(map[TurnKey]*TurnView)
	for _, t := range session.Turns {
		turn := v.ensureTurn(TurnKey{AgentID: t.AgentID, Round: t.Round})
		turn.AgentName = t.AgentName
		turn.Content = t.Content
		turn.ToolCalls = t.ToolCalls
		turn.Error = t.Error
		turn.Complete = true
	}
	switch session.Status {
	case models.StatusCompleted:
		v.Phase = PhaseCompleted
	case models.StatusFailed:
		v.Err = session.ErrorMsg
		v.Phase = PhaseFailed
	}
}

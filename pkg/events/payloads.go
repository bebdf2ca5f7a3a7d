package events

import (
	"time"

	"github.com/opennotebook/workshop/pkg/models"
)

// SessionCreatedPayload is the payload for session_created events.
// Emitted once, before any agent output.
type SessionCreatedPayload struct {
	Type      string `json:"type"`       // always EventTypeSessionCreated
	SessionID string `json:"session_id"` // session UUID
}

// AgentStartPayload is the payload for agent_start events.
// Emitted when an agent begins producing a turn.
type AgentStartPayload struct {
	Type      string `json:"type"`       // always EventTypeAgentStart
	AgentID   string `json:"agent_id"`   // agent identifier from the mode config
	AgentName string `json:"agent_name"` // display name
	Round     int    `json:"round"`      // 1-based
}

// AgentChunkPayload is the payload for agent_chunk events.
// High frequency, transient — clients concatenate chunks for a live view but
// the final content arrives in agent_complete.
type AgentChunkPayload struct {
	Type    string `json:"type"`     // always EventTypeAgentChunk
	AgentID string `json:"agent_id"` // agent identifier
	Round   int    `json:"round"`    // 1-based
	Chunk   string `json:"chunk"`    // incremental text delta
}

// AgentCompletePayload is the payload for agent_complete events.
// Content is the full authoritative turn text and replaces any accumulated
// chunks for the same (agent_id, round) key.
type AgentCompletePayload struct {
	Type      string            `json:"type"`                 // always EventTypeAgentComplete
	AgentID   string            `json:"agent_id"`             // agent identifier
	AgentName string            `json:"agent_name"`           // display name
	Round     int               `json:"round"`                // 1-based
	Content   string            `json:"content"`              // full turn text
	ToolCalls []models.ToolCall `json:"tool_calls"`           // tools the agent invoked, in order
	Error     bool              `json:"turn_error,omitempty"` // set when the turn failed and content is the failure message
	Timestamp time.Time         `json:"timestamp"`
}

// SessionCompletePayload is the payload for session_complete events.
// Terminal. The client re-fetches the persisted session for the
// authoritative transcript and report.
type SessionCompletePayload struct {
	Type      string `json:"type"`       // always EventTypeSessionComplete
	SessionID string `json:"session_id"` // session UUID
}

// ErrorPayload is the payload for error events. Terminal.
type ErrorPayload struct {
	Type  string `json:"type"`  // always EventTypeError
	Error string `json:"error"` // human-readable message
}

func (SessionCreatedPayload) EventType() string  { return EventTypeSessionCreated }
func (AgentStartPayload) EventType() string      { return EventTypeAgentStart }
func (AgentChunkPayload) EventType() string      { return EventTypeAgentChunk }
func (AgentCompletePayload) EventType() string   { return EventTypeAgentComplete }
func (SessionCompletePayload) EventType() string { return EventTypeSessionComplete }
func (ErrorPayload) EventType() string           { return EventTypeError }

// NewSessionCreated builds a session_created payload.
func NewSessionCreated(sessionID string) SessionCreatedPayload {
	return SessionCreatedPayload{Type: EventTypeSessionCreated, SessionID: sessionID}
}

// NewAgentStart builds an agent_start payload.
func NewAgentStart(agentID, agentName string, round int) AgentStartPayload {
	return AgentStartPayload{Type: EventTypeAgentStart, AgentID: agentID, AgentName: agentName, Round: round}
}

// NewAgentChunk builds an agent_chunk payload.
func NewAgentChunk(agentID string, round int, chunk string) AgentChunkPayload {
	return AgentChunkPayload{Type: EventTypeAgentChunk, AgentID: agentID, Round: round, Chunk: chunk}
}

// NewAgentComplete builds an agent_complete payload from a persisted turn.
func NewAgentComplete(turn models.Turn) AgentCompletePayload {
	toolCalls := turn.ToolCalls
	if toolCalls == nil {
		toolCalls = []models.ToolCall{}
	}
	return AgentCompletePayload{
		Type:      EventTypeAgentComplete,
		AgentID:   turn.AgentID,
		AgentName: turn.AgentName,
		Round:     turn.Round,
		Content:   turn.Content,
		ToolCalls: toolCalls,
		Error:     turn.Error,
		Timestamp: turn.Timestamp,
	}
}

// NewSessionComplete builds a session_complete payload.
func NewSessionComplete(sessionID string) SessionCompletePayload {
	return SessionCompletePayload{Type: EventTypeSessionComplete, SessionID: sessionID}
}

// NewError builds an error payload.
func NewError(message string) ErrorPayload {
	return ErrorPayload{Type: EventTypeError, Error: message}
}

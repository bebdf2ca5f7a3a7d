// Package models defines the API-facing data structures shared across the
// service, store, and client layers.
package models

import "time"

// Status is the lifecycle state of a workshop session.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is a terminal state. A session that
// reached a terminal status is immutable.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ToolCall records one tool invocation made by an agent while producing a
// turn. Output is opaque text; structured payloads (embedded JSON, templated
// prose) are interpreted by presentation code only.
type ToolCall struct {
	Tool   string `json:"tool"`
	Input  any    `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// Turn is one completed agent contribution to a session transcript.
// Round numbers are 1-based. Failed agent invocations are retained in the
// transcript with Error set and the failure message as Content.
type Turn struct {
	AgentID   string     `json:"agent_id"`
	AgentName string     `json:"agent_name"`
	Content   string     `json:"content"`
	Round     int        `json:"round"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Error     bool       `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Session is a workshop deliberation session. After creation it is mutated
// only by the orchestrator (single writer); once Status is terminal the
// record is immutable.
type Session struct {
	ID          string            `json:"id"`
	NotebookID  string            `json:"notebook_id"`
	Mode        string            `json:"mode"`
	Topic       string            `json:"topic"`
	Status      Status            `json:"status"`
	Context     map[string]string `json:"context,omitempty"`
	Turns       []Turn            `json:"turns"`
	FinalReport string            `json:"final_report,omitempty"`
	ErrorMsg    string            `json:"error,omitempty"`
	TotalRounds int               `json:"total_rounds"`
	AgentCount  int               `json:"agent_count"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TurnsByAgent returns the session's non-error turns for one agent, in
// transcript order.
func (s *Session) TurnsByAgent(agentID string) []Turn {
	var turns []Turn
	for _, t := range s.Turns {
		if t.AgentID == agentID && !t.Error {
			turns = append(turns, t)
		}
	}
	return turns
}

// CreateSessionRequest contains fields for creating a new workshop session.
type CreateSessionRequest struct {
	NotebookID string            `json:"notebook_id"`
	Mode       string            `json:"mode"`
	Topic      string            `json:"topic"`
	Context    map[string]string `json:"context,omitempty"`
}

// SessionFilters contains filtering options for listing sessions.
type SessionFilters struct {
	NotebookID string `json:"notebook_id,omitempty"`
	Status     Status `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

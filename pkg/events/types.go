// Package events defines the typed stream events emitted while a workshop
// session runs, plus the sinks and SSE framing used to deliver them.
//
// Event order for one session:
//
//	session_created
//	per turn: agent_start, agent_chunk (repeated), agent_complete
//	session_complete | error
//
// agent_chunk events are transient — lost chunks are recovered by the
// agent_complete event, which carries the full authoritative content for its
// (agent_id, round) key. After session_complete or error nothing further is
// emitted on that stream. Keepalives are SSE comments, not events, and carry
// no payload.
package events

// Event types carried in the "type" field of every payload.
const (
	EventTypeSessionCreated  = "session_created"
	EventTypeAgentStart      = "agent_start"
	EventTypeAgentChunk      = "agent_chunk"
	EventTypeAgentComplete   = "agent_complete"
	EventTypeSessionComplete = "session_complete"
	EventTypeError           = "error"
)

// Event is a typed stream event with a JSON payload.
type Event interface {
	EventType() string
}

package events

import (
	"log/slog"
	"sync"
	"time"
)

// terminalEmitTimeout bounds how long Emit waits to hand a terminal event
// to a slow consumer before giving up.
const terminalEmitTimeout = 5 * time.Second

// Sink receives orchestrator events. Emit must be safe for concurrent use;
// hybrid workflows emit chunks from multiple goroutines.
type Sink interface {
	Emit(event Event)
}

// ChannelSink buffers events on a channel for a relay goroutine to drain.
// After Close, further emits are dropped. Emit never blocks forever: if the
// buffer is full a progress event is dropped with a warning rather than
// stalling the workflow on a slow consumer, while a terminal event waits up
// to terminalEmitTimeout so the stream still ends with session_complete or
// error.
type ChannelSink struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events returns the channel the relay drains. The channel is closed by
// Close, which signals the relay that no further events will arrive.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

func (s *ChannelSink) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
		return
	default:
	}
	if !terminal(event) {
		slog.Warn("Event sink buffer full, dropping event", "event_type", event.EventType())
		return
	}

	// The relay stops on the terminal event; losing it would leave the
	// stream open with no way to finish.
	timer := time.NewTimer(terminalEmitTimeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
	case <-timer.C:
		slog.Warn("Event sink consumer stalled, dropping terminal event",
			"event_type", event.EventType())
	}
}

func terminal(event Event) bool {
	switch event.EventType() {
	case EventTypeSessionComplete, EventTypeError:
		return true
	}
	return false
}

// Close stops the sink. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// NopSink discards all events. Used for background (non-streaming) runs.
type NopSink struct{}

func (NopSink) Emit(Event) {}

var (
	_ Sink = (*ChannelSink)(nil)
	_ Sink = NopSink{}
)

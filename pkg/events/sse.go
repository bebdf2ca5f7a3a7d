package events

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEWriter frames events as Server-Sent Events on an HTTP response.
// Not safe for concurrent use; one relay goroutine owns the writer.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares w for streaming and writes the SSE response headers.
// Returns an error if the writer does not support flushing.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Disables response buffering in nginx-style proxies that would
	// otherwise defeat incremental delivery.
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent frames one event and flushes it to the client.
func (s *SSEWriter) WriteEvent(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.EventType(), data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepalive writes a comment-only keepalive frame. Conformant consumers
// ignore it; its only purpose is defeating intermediary buffering and idle
// timeouts.
func (s *SSEWriter) WriteKeepalive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("failed to write keepalive: %w", err)
	}
	s.flusher.Flush()
	return nil
}

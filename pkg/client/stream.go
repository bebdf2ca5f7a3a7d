package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/opennotebook/workshop/pkg/events"
)

// ErrStreamInterrupted is returned when the SSE stream ends before a
// terminal event arrived. The view holds a partial transcript and the
// caller should fall back to polling.
var ErrStreamInterrupted = errors.New("event stream interrupted before session finished")

// decodeEvent unmarshals one SSE data payload into its typed event.
// Returns nil for event types this client does not know about.
func decodeEvent(name string, data []byte) (events.Event, error) {
	var evt events.Event
	switch name {
	case events.EventTypeSessionCreated:
		evt = &events.SessionCreatedPayload{}
	case events.EventTypeAgentStart:
		evt = &events.AgentStartPayload{}
	case events.EventTypeAgentChunk:
		evt = &events.AgentChunkPayload{}
	case events.EventTypeAgentComplete:
		evt = &events.AgentCompletePayload{}
	case events.EventTypeSessionComplete:
		evt = &events.SessionCompletePayload{}
	case events.EventTypeError:
		evt = &events.ErrorPayload{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(data, evt); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", name, err)
	}
	return evt, nil
}

// consumeStream reads SSE frames from r and folds each event into view,
// calling onUpdate after every applied event. Keepalive comments and
// unknown fields are ignored; a frame with malformed JSON is logged and
// skipped. Returns nil once a terminal event has been applied, or
// ErrStreamInterrupted if the stream ends first.
func consumeStream(r io.Reader, view *SessionView, onUpdate func(*SessionView)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// Blank line ends the frame.
			if eventName != "" && data.Len() > 0 {
				applyFrame(view, eventName, []byte(data.String()), onUpdate)
			}
			eventName = ""
			data.Reset()
			if view.Terminal() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
			// Keepalive comment.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
	}
	if !view.Terminal() {
		return ErrStreamInterrupted
	}
	return nil
}

func applyFrame(view *SessionView, name string, data []byte, onUpdate func(*SessionView)) {
	evt, err := decodeEvent(name, data)
	if err != nil {
		slog.Warn("Skipping malformed stream event", "event", name, "error", err)
		return
	}
	if evt == nil {
		return
	}
	view.Apply(evt)
	if onUpdate != nil {
		onUpdate(view)
	}
}

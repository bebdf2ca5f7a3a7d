package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSink_EmitAndDrain(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(NewSessionCreated("s1"))
	sink.Emit(NewAgentStart("supporter", "The Supporter", 1))
	sink.Close()

	var got []Event
	for event := range sink.Events() {
		got = append(got, event)
	}
	require.Len(t, got, 2)
	assert.Equal(t, EventTypeSessionCreated, got[0].EventType())
	assert.Equal(t, EventTypeAgentStart, got[1].EventType())
}

func TestChannelSink_EmitAfterCloseDropped(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Close()
	// Must not panic on a closed channel.
	sink.Emit(NewError("too late"))

	_, open := <-sink.Events()
	assert.False(t, open)
}

func TestChannelSink_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(NewAgentChunk("a", 1, "x"))
	sink.Emit(NewAgentChunk("a", 1, "y")) // dropped, must not block
	sink.Close()

	var got []Event
	for event := range sink.Events() {
		got = append(got, event)
	}
	require.Len(t, got, 1)
	chunk, ok := got[0].(AgentChunkPayload)
	require.True(t, ok)
	assert.Equal(t, "x", chunk.Chunk)
}

func TestChannelSink_CloseIdempotent(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Close()
	assert.NotPanics(t, func() { sink.Close() })
}

func TestChannelSink_TerminalEventWaitsForConsumer(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(NewAgentChunk("a", 1, "x")) // fills the buffer

	drained := make(chan Event, 2)
	go func() {
		time.Sleep(50 * time.Millisecond)
		for event := range sink.Events() {
			drained <- event
		}
		close(drained)
	}()

	// Full buffer, but a terminal event must still reach the relay.
	sink.Emit(NewSessionComplete("s1"))
	sink.Close()

	var got []Event
	for event := range drained {
		got = append(got, event)
	}
	require.Len(t, got, 2)
	assert.Equal(t, EventTypeSessionComplete, got[1].EventType())
}

func TestChannelSink_TerminalErrorEventWaitsForConsumer(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(NewAgentChunk("a", 1, "x"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		<-sink.Events()
	}()

	done := make(chan struct{})
	go func() {
		sink.Emit(NewError("model unavailable"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("terminal error event was not delivered")
	}
	sink.Close()

	event, ok := <-sink.Events()
	require.True(t, ok)
	assert.Equal(t, EventTypeError, event.EventType())
}

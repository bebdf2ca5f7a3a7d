package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeStream_HappyPath(t *testing.T) {
	raw := strings.Join([]string{
		"event: session_created",
		`data: {"type":"session_created","session_id":"s-1"}`,
		"",
		": keepalive",
		"",
		"event: agent_start",
		`data: {"type":"agent_start","agent_id":"a","agent_name":"Agent A","round":1}`,
		"",
		"event: agent_chunk",
		`data: {"type":"agent_chunk","agent_id":"a","round":1,"chunk":"Hi"}`,
		"",
		"event: agent_complete",
		`data: {"type":"agent_complete","agent_id":"a","agent_name":"Agent A","round":1,"content":"Hi","tool_calls":[]}`,
		"",
		"event: session_complete",
		`data: {"type":"session_complete","session_id":"s-1"}`,
		"",
	}, "\n")

	v := NewSessionView()
	var updates int
	err := consumeStream(strings.NewReader(raw), v, func(*SessionView) { updates++ })

	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Equal(t, "s-1", v.SessionID)
	assert.Equal(t, 5, updates)
	require.Len(t, v.Turns(), 1)
	assert.Equal(t, "Hi", v.Turns()[0].Content)
}

func TestConsumeStream_EndsWithoutTerminal(t *testing.T) {
	raw := strings.Join([]string{
		"event: session_created",
		`data: {"type":"session_created","session_id":"s-1"}`,
		"",
		"event: agent_start",
		`data: {"type":"agent_start","agent_id":"a","agent_name":"Agent A","round":1}`,
		"",
	}, "\n")

	v := NewSessionView()
	err := consumeStream(strings.NewReader(raw), v, nil)

	require.ErrorIs(t, err, ErrStreamInterrupted)
	assert.Equal(t, "s-1", v.SessionID)
	require.Len(t, v.Turns(), 1)
	assert.False(t, v.Turns()[0].Complete)
}

func TestConsumeStream_SkipsMalformedAndUnknownFrames(t *testing.T) {
	raw := strings.Join([]string{
		"event: agent_chunk",
		`data: {"type":"agent_chunk","agent_id":`,
		"",
		"event: shiny_new_event",
		`data: {"type":"shiny_new_event"}`,
		"",
		"event: agent_chunk",
		`data: {"type":"agent_chunk","agent_id":"a","round":1,"chunk":"ok"}`,
		"",
		"event: error",
		`data: {"type":"error","error":"llm timeout"}`,
		"",
	}, "\n")

	v := NewSessionView()
	err := consumeStream(strings.NewReader(raw), v, nil)

	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, v.Phase)
	assert.Equal(t, "llm timeout", v.Err)
	require.NotNil(t, v.Turn("a", 1))
	assert.Equal(t, "ok", v.Turn("a", 1).Content)
}

func TestConsumeStream_StopsAtTerminalEvent(t *testing.T) {
	raw := strings.Join([]string{
		"event: session_complete",
		`data: {"type":"session_complete","session_id":"s-1"}`,
		"",
		"event: agent_chunk",
		`data: {"type":"agent_chunk","agent_id":"a","round":1,"chunk":"late"}`,
		"",
	}, "\n")

	v := NewSessionView()
	err := consumeStream(strings.NewReader(raw), v, nil)

	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Nil(t, v.Turn("a", 1))
}

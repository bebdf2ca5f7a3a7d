package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotebook/workshop/pkg/models"
)

func TestSSEWriter_Headers(t *testing.T) {
	rec := httptest.NewRecorder()
	_, err := NewSSEWriter(rec)
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestSSEWriter_WriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent(NewAgentChunk("critic", 2, "however")))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: agent_chunk\ndata: "), "body: %q", body)
	assert.True(t, strings.HasSuffix(body, "\n\n"))

	dataLine := strings.TrimPrefix(strings.Split(body, "\n")[1], "data: ")
	var payload AgentChunkPayload
	require.NoError(t, json.Unmarshal([]byte(dataLine), &payload))
	assert.Equal(t, EventTypeAgentChunk, payload.Type)
	assert.Equal(t, "critic", payload.AgentID)
	assert.Equal(t, 2, payload.Round)
	assert.Equal(t, "however", payload.Chunk)
}

func TestSSEWriter_AgentCompleteCarriesToolCalls(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	turn := models.Turn{
		AgentID:   "supporter",
		AgentName: "The Supporter",
		Content:   "Grounded in the notes, this holds up.",
		Round:     1,
		ToolCalls: []models.ToolCall{{Tool: "notebook_reader", Output: "notes"}},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, w.WriteEvent(NewAgentComplete(turn)))

	dataLine := strings.TrimPrefix(strings.Split(rec.Body.String(), "\n")[1], "data: ")
	var payload AgentCompletePayload
	require.NoError(t, json.Unmarshal([]byte(dataLine), &payload))
	assert.Equal(t, turn.Content, payload.Content)
	require.Len(t, payload.ToolCalls, 1)
	assert.Equal(t, "notebook_reader", payload.ToolCalls[0].Tool)
	assert.False(t, payload.Error)
}

func TestSSEWriter_Keepalive(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteKeepalive())
	assert.Equal(t, ": keepalive\n\n", rec.Body.String())
}

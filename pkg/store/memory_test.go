package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotebook/workshop/pkg/models"
)

func newTestSession(id, notebookID string) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:          id,
		NotebookID:  notebookID,
		Mode:        "dialectical",
		Topic:       "test topic",
		Status:      models.StatusCreated,
		Context:     map[string]string{"focus": "tradeoffs"},
		TotalRounds: 2,
		AgentCount:  3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateSession(ctx, newTestSession("sess-1", "nb-1")))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	assert.Equal(t, "nb-1", got.NotebookID)
	assert.Equal(t, models.StatusCreated, got.Status)
	assert.Equal(t, "tradeoffs", got.Context["focus"])
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateSession(ctx, newTestSession("sess-1", "nb-1")))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	got.Status = models.StatusFailed
	got.Turns = append(got.Turns, models.Turn{AgentID: "rogue"})

	again, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, again.Status)
	assert.Empty(t, again.Turns)
}

func TestMemoryStore_AppendTurn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateSession(ctx, newTestSession("sess-1", "nb-1")))

	turn := models.Turn{
		AgentID:   "supporter",
		AgentName: "The Supporter",
		Content:   "I think this is promising.",
		Round:     1,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.AppendTurn(ctx, "sess-1", turn))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "supporter", got.Turns[0].AgentID)
	assert.Equal(t, 1, got.Turns[0].Round)
}

func TestMemoryStore_AppendTurnMissingSession(t *testing.T) {
	s := NewMemoryStore()
	err := s.AppendTurn(context.Background(), "missing", models.Turn{AgentID: "a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetStatusAndReport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateSession(ctx, newTestSession("sess-1", "nb-1")))

	require.NoError(t, s.SetStatus(ctx, "sess-1", models.StatusFailed, "agent timed out"))
	require.NoError(t, s.SetReport(ctx, "sess-1", "# Report"))

	got, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "agent timed out", got.ErrorMsg)
	assert.Equal(t, "# Report", got.FinalReport)
}

func TestMemoryStore_ListSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := newTestSession("sess-a", "nb-1")
	a.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	b := newTestSession("sess-b", "nb-1")
	b.CreatedAt = time.Now().UTC().Add(-1 * time.Hour)
	b.Status = models.StatusCompleted
	c := newTestSession("sess-c", "nb-2")
	c.CreatedAt = time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, a))
	require.NoError(t, s.CreateSession(ctx, b))
	require.NoError(t, s.CreateSession(ctx, c))

	t.Run("newest first", func(t *testing.T) {
		got, err := s.ListSessions(ctx, models.SessionFilters{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "sess-c", got[0].ID)
		assert.Equal(t, "sess-a", got[2].ID)
	})

	t.Run("filter by notebook", func(t *testing.T) {
		got, err := s.ListSessions(ctx, models.SessionFilters{NotebookID: "nb-1"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("filter by status", func(t *testing.T) {
		got, err := s.ListSessions(ctx, models.SessionFilters{Status: models.StatusCompleted})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "sess-b", got[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.ListSessions(ctx, models.SessionFilters{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "sess-c", got[0].ID)
	})
}

func TestMemoryStore_DeleteSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateSession(ctx, newTestSession("sess-1", "nb-1")))

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	_, err := s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteSession(ctx, "sess-1"), ErrNotFound)
}

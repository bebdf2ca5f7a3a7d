package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opennotebook/workshop/pkg/models"
)

// MemoryStore is an in-memory Store used for development mode and tests.
// Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *MemoryStore) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *MemoryStore) ListSessions(_ context.Context, filters models.SessionFilters) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := []*models.Session{}
	for _, session := range s.sessions {
		if filters.NotebookID != "" && session.NotebookID != filters.NotebookID {
			continue
		}
		if filters.Status != "" && session.Status != filters.Status {
			continue
		}
		clone := cloneSession(session)
		clone.Turns = nil
		sessions = append(sessions, clone)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if filters.Limit > 0 && len(sessions) > filters.Limit {
		sessions = sessions[:filters.Limit]
	}
	return sessions, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.Turns = append(session.Turns, turn)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, sessionID string, status models.Status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.Status = status
	session.ErrorMsg = errorMsg
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetReport(_ context.Context, sessionID string, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.FinalReport = report
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneSession(s *models.Session) *models.Session {
	clone := *s
	if s.Context != nil {
		clone.Context = make(map[string]string, len(s.Context))
		for k, v := range s.Context {
			clone.Context[k] = v
		}
	}
	clone.Turns = append([]models.Turn(nil), s.Turns...)
	return &clone
}

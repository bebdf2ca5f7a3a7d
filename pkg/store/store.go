// Package store provides persistence for workshop sessions and their turns.
package store

import (
	"context"
	"errors"

	"github.com/opennotebook/workshop/pkg/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store persists workshop sessions and their transcripts.
type Store interface {
	// CreateSession inserts a new session record.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession returns a session including its turns.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// ListSessions returns sessions matching the filters, newest first,
	// without their turns.
	ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.Session, error)

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error

	// AppendTurn adds a turn to a session's transcript.
	AppendTurn(ctx context.Context, sessionID string, turn models.Turn) error

	// SetStatus updates the session status. The error message is stored
	// only for failed sessions.
	SetStatus(ctx context.Context, sessionID string, status models.Status, errorMsg string) error

	// SetReport stores the final report for a session.
	SetReport(ctx context.Context, sessionID string, report string) error
}

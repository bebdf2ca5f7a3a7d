package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opennotebook/workshop/pkg/models"
)

// PostgresStore persists sessions in PostgreSQL using direct SQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by the given database connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.Session) error {
	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, notebook_id, mode, topic, status, context,
			final_report, error_msg, total_rounds, agent_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		session.ID, session.NotebookID, session.Mode, session.Topic,
		string(session.Status), contextJSON, session.FinalReport, session.ErrorMsg,
		session.TotalRounds, session.AgentCount, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, notebook_id, mode, topic, status, context, final_report,
			error_msg, total_rounds, agent_count, created_at, updated_at
		FROM sessions WHERE id = $1`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Turns = turns
	return session, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.Session, error) {
	query := `
		SELECT id, notebook_id, mode, topic, status, context, final_report,
			error_msg, total_rounds, agent_count, created_at, updated_at
		FROM sessions`

	var conditions []string
	var args []any
	if filters.NotebookID != "" {
		args = append(args, filters.NotebookID)
		conditions = append(conditions, fmt.Sprintf("notebook_id = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	// Turns are removed by ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, sessionID string, turn models.Turn) error {
	toolCallsJSON, err := json.Marshal(turn.ToolCalls)
	if err != nil {
		return fmt.Errorf("failed to marshal tool calls: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, agent_id, agent_name, content, round, tool_calls, error, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1)`,
		sessionID, turn.AgentID, turn.AgentName, turn.Content, turn.Round,
		toolCallsJSON, turn.Error, turn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = $2 WHERE id = $1`,
		sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, sessionID string, status models.Status, errorMsg string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = $2, error_msg = $3, updated_at = $4 WHERE id = $1`,
		sessionID, string(status), errorMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetReport(ctx context.Context, sessionID string, report string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET final_report = $2, updated_at = $3 WHERE id = $1`,
		sessionID, report, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update session report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) loadTurns(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, agent_name, content, round, tool_calls, error, created_at
		FROM turns WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var turn models.Turn
		var toolCallsJSON []byte
		if err := rows.Scan(&turn.AgentID, &turn.AgentName, &turn.Content,
			&turn.Round, &toolCallsJSON, &turn.Error, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if len(toolCallsJSON) > 0 {
			if err := json.Unmarshal(toolCallsJSON, &turn.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return turns, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var session models.Session
	var status string
	var contextJSON []byte
	err := row.Scan(&session.ID, &session.NotebookID, &session.Mode, &session.Topic,
		&status, &contextJSON, &session.FinalReport, &session.ErrorMsg,
		&session.TotalRounds, &session.AgentCount, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	session.Status = models.Status(status)
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &session.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
		}
	}
	return &session, nil
}

// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lubebot/internal/common/logger"
	"lubebot/internal/models"
)

// Store persists conversation turns per session so the classifier and the
// generation model see recent context across requests.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// EnsureSchema creates the conversation_turns table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversation_turns (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create conversation_turns: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_conversation_turns_session
		ON conversation_turns (session_id, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to index conversation_turns: %w", err)
	}
	return nil
}

// SaveTurn appends one turn to a session.
func (s *Store) SaveTurn(ctx context.Context, sessionID string, turn models.ChatTurn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, session_id, role, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), sessionID, turn.Role, turn.Text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// Recent returns the last limit turns of a session in chronological order.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text FROM (
			SELECT role, text, created_at FROM conversation_turns
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		var turn models.ChatTurn
		if err := rows.Scan(&turn.Role, &turn.Text); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Prune deletes turns older than the retention window. Runs from a ticker in
// the server, failures only log.
func (s *Store) Prune(ctx context.Context, retention time.Duration) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_turns WHERE created_at < $1`,
		time.Now().UTC().Add(-retention))
	if err != nil {
		s.logger.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("history pruned", map[string]interface{}{"deleted": n})
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"calai/internal/domain"
	"calai/internal/port"
)

type chatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a new SQLite-backed ChatHistoryRepository.
func NewChatRepo(db *sql.DB) port.ChatHistoryRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) Append(ctx context.Context, sessionID string, turn domain.ChatTurn) error {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, string(turn.Role), turn.Content, ts.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("chatRepo.Append: %w", err)
	}
	return nil
}

func (r *chatRepo) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error) {
	// Newest rows first, then reversed so callers get chronological order.
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_turns
		 WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("chatRepo.Recent: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var (
			turn      domain.ChatTurn
			role      string
			createdAt string
		)
		if err := rows.Scan(&role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		turn.Role = domain.ChatRole(role)
		if turn.Timestamp, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

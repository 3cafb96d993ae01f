package repository

import (
	"context"
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
)

// CreatePromptHistory stores a prompt/response pair.
func (s *SQLiteStore) CreatePromptHistory(ctx context.Context, entry *domain.PromptHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompt_history (user_id, prompt, response, created_at) VALUES (?, ?, ?, ?)`,
		entry.UserID, entry.Prompt, entry.Response, entry.CreatedAt)
	if err != nil {
		return err
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// ListPromptHistory returns the user's most recent entries first.
func (s *SQLiteStore) ListPromptHistory(ctx context.Context, userID int64, limit int) ([]domain.PromptHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, prompt, response, created_at FROM prompt_history WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PromptHistory
	for rows.Next() {
		var h domain.PromptHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Prompt, &h.Response, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

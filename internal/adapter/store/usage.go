package store

import (
	"context"
	"time"

	"binna-crm/internal/domain"
)

const windowColumns = `id, user_id, max_total_tokens, unlimited,
	current_total_tokens, current_prompt_tokens, current_completion_tokens, current_cached_tokens,
	start_period, finish_period`

func (s *Store) CreateWindow(ctx context.Context, w *domain.UsageWindow) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_windows
			(user_id, max_total_tokens, unlimited, start_period, finish_period)
			VALUES (?, ?, ?, ?, ?)`,
		w.UserID, w.MaxTotalTokens, w.Unlimited, formatTime(w.StartPeriod), formatTime(w.FinishPeriod),
	)
	if err != nil {
		return err
	}
	w.ID, err = res.LastInsertId()
	return err
}

func (s *Store) WindowsContaining(ctx context.Context, userID int64, t time.Time) ([]domain.UsageWindow, error) {
	ts := formatTime(t)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+windowColumns+` FROM usage_windows
			WHERE user_id = ? AND start_period <= ? AND finish_period > ?
			ORDER BY start_period DESC`,
		userID, ts, ts,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []domain.UsageWindow
	for rows.Next() {
		var w domain.UsageWindow
		var start, finish string
		if err := rows.Scan(&w.ID, &w.UserID, &w.MaxTotalTokens, &w.Unlimited,
			&w.CurrentTotalTokens, &w.CurrentPromptTokens, &w.CurrentCompletionTokens, &w.CurrentCachedTokens,
			&start, &finish); err != nil {
			return nil, err
		}
		w.StartPeriod = parseTime(start)
		w.FinishPeriod = parseTime(finish)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// AddUsage inserts a usage event and bumps the window counters in one
// transaction.
func (s *Store) AddUsage(ctx context.Context, windowID, userID int64, usage domain.RunUsage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The window update runs first: a zero row count means the window id
	// does not exist, before the event insert can trip its foreign key.
	res, err := tx.ExecContext(ctx,
		`UPDATE usage_windows SET
			current_total_tokens = current_total_tokens + ?,
			current_prompt_tokens = current_prompt_tokens + ?,
			current_completion_tokens = current_completion_tokens + ?,
			current_cached_tokens = current_cached_tokens + ?
			WHERE id = ?`,
		usage.TotalTokens, usage.PromptTokens, usage.CompletionTokens, usage.CachedTokens, windowID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO usage_events
			(window_id, user_id, total_tokens, prompt_tokens, completion_tokens, cached_tokens, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		windowID, userID, usage.TotalTokens, usage.PromptTokens, usage.CompletionTokens, usage.CachedTokens,
		formatTime(time.Now()),
	); err != nil {
		return err
	}
	return tx.Commit()
}

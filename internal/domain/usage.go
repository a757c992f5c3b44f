package domain

import (
	"context"
	"time"
)

// UsageWindow is a per-user token budget over a half-open time interval
// [StartPeriod, FinishPeriod). Counters only ever grow; windows are never
// deleted, only time-bounded. Created by the billing process, mutated only
// through UsageStore.AddUsage.
type UsageWindow struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	MaxTotalTokens int  `json:"max_total_tokens"`
	Unlimited      bool `json:"unlimited"`

	CurrentTotalTokens      int `json:"current_total_tokens"`
	CurrentPromptTokens     int `json:"current_prompt_tokens"`
	CurrentCompletionTokens int `json:"current_completion_tokens"`
	CurrentCachedTokens     int `json:"current_cached_tokens"`

	StartPeriod  time.Time `json:"start_period"`
	FinishPeriod time.Time `json:"finish_period"`
}

// Contains reports whether t falls inside the window's [start, finish) interval.
func (w *UsageWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartPeriod) && t.Before(w.FinishPeriod)
}

// Exhausted reports whether the window's token budget is used up.
// Unlimited windows are never exhausted.
func (w *UsageWindow) Exhausted() bool {
	if w.Unlimited {
		return false
	}
	return w.CurrentTotalTokens >= w.MaxTotalTokens
}

// UsageStore persists usage windows and per-turn usage rows.
type UsageStore interface {
	CreateWindow(ctx context.Context, w *UsageWindow) error

	// WindowsContaining returns all windows for the user whose interval
	// contains t, ordered by start period descending.
	WindowsContaining(ctx context.Context, userID int64, t time.Time) ([]UsageWindow, error)

	// AddUsage records one turn's token totals: it inserts a usage row and
	// increments the window's four counters in a single transaction.
	AddUsage(ctx context.Context, windowID, userID int64, usage RunUsage) error
}

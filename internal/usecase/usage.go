package usecase

import (
	"context"
	"log/slog"
	"time"

	"binna-crm/internal/domain"
)

// UsageGuard enforces per-user token budgets over time-bounded windows.
// A turn is admitted only when the user has an active, non-exhausted window;
// consumed tokens are recorded against the window active at recording time.
type UsageGuard struct {
	store  domain.UsageStore
	logger *slog.Logger
	now    func() time.Time
}

// NewUsageGuard creates the guard.
func NewUsageGuard(store domain.UsageStore, logger *slog.Logger) *UsageGuard {
	return &UsageGuard{store: store, logger: logger, now: time.Now}
}

// ActiveWindow returns the user's usage window containing the current time.
// When window intervals overlap, the one with the latest start period wins.
// Returns domain.ErrNoActiveWindow when no window contains now.
func (g *UsageGuard) ActiveWindow(ctx context.Context, userID int64) (*domain.UsageWindow, error) {
	windows, err := g.store.WindowsContaining(ctx, userID, g.now())
	if err != nil {
		return nil, domain.WrapOp("UsageGuard.ActiveWindow", err)
	}
	if len(windows) == 0 {
		return nil, domain.NewDomainError("UsageGuard.ActiveWindow", domain.ErrNoActiveWindow, "")
	}
	// Windows come back ordered by start period descending.
	return &windows[0], nil
}

// AssertCanProceed admits or rejects a new turn: domain.ErrNoActiveWindow
// when the user has no current window, domain.ErrQuotaExceeded when the
// active window's budget is used up.
func (g *UsageGuard) AssertCanProceed(ctx context.Context, userID int64) error {
	w, err := g.ActiveWindow(ctx, userID)
	if err != nil {
		return err
	}
	if w.Exhausted() {
		return domain.NewDomainError("UsageGuard.AssertCanProceed", domain.ErrQuotaExceeded, "")
	}
	return nil
}

// RecordUsage adds one turn's token totals to the user's active window.
// The window is resolved again at recording time; if it lapsed during the
// turn the usage is logged and dropped rather than failing the turn.
func (g *UsageGuard) RecordUsage(ctx context.Context, userID int64, usage domain.RunUsage) {
	w, err := g.ActiveWindow(ctx, userID)
	if err != nil {
		g.logger.Warn("usage not recorded, no active window",
			"user_id", userID, "total_tokens", usage.TotalTokens, "error", err)
		return
	}
	if err := g.store.AddUsage(ctx, w.ID, userID, usage); err != nil {
		g.logger.Error("usage not recorded",
			"user_id", userID, "window_id", w.ID, "error", err)
		return
	}
	g.logger.Debug("usage recorded",
		"user_id", userID, "window_id", w.ID, "total_tokens", usage.TotalTokens)
}

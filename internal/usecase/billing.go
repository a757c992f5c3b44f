package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"binna-crm/internal/domain"
)

// Billing provisions usage windows on a schedule. Each tick it walks every
// account and opens a fresh window for users whose current window has
// lapsed, so quota enforcement never locks out users between cycles.
type Billing struct {
	users     domain.UserStore
	usage     domain.UsageStore
	logger    *slog.Logger
	cron      *cron.Cron
	maxTokens int
	window    time.Duration
	now       func() time.Time
}

// NewBilling creates the billing process. maxTokens is the budget of each
// new window; windowDays its length.
func NewBilling(users domain.UserStore, usage domain.UsageStore, maxTokens, windowDays int, logger *slog.Logger) *Billing {
	return &Billing{
		users:     users,
		usage:     usage,
		logger:    logger,
		cron:      cron.New(),
		maxTokens: maxTokens,
		window:    time.Duration(windowDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Start registers the provisioning job and starts the scheduler. One
// provisioning pass runs immediately so fresh deployments have windows
// before the first tick.
func (b *Billing) Start(schedule string) error {
	if _, err := b.cron.AddFunc(schedule, func() {
		b.ProvisionAll(context.Background())
	}); err != nil {
		return domain.WrapOp("Billing.Start", err)
	}
	b.ProvisionAll(context.Background())
	b.cron.Start()
	b.logger.Info("billing scheduler started", "schedule", schedule)
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (b *Billing) Stop() {
	<-b.cron.Stop().Done()
}

// ProvisionAll opens a window for every user without an active one.
// Per-user failures are logged and skipped so one bad row cannot stall
// everyone's provisioning.
func (b *Billing) ProvisionAll(ctx context.Context) {
	users, err := b.users.ListUsers(ctx)
	if err != nil {
		b.logger.Error("billing pass failed to list users", "error", err)
		return
	}

	provisioned := 0
	for _, u := range users {
		if u.Disabled {
			continue
		}
		created, err := b.ProvisionUser(ctx, &u)
		if err != nil {
			b.logger.Error("window not provisioned", "user_id", u.ID, "error", err)
			continue
		}
		if created {
			provisioned++
		}
	}
	b.logger.Info("billing pass complete", "users", len(users), "windows_created", provisioned)
}

// ProvisionUser opens a new window for the user unless one already covers
// the current time. Admin accounts get unlimited windows. Reports whether
// a window was created.
func (b *Billing) ProvisionUser(ctx context.Context, u *domain.User) (bool, error) {
	now := b.now()
	existing, err := b.usage.WindowsContaining(ctx, u.ID, now)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	w := &domain.UsageWindow{
		UserID:         u.ID,
		MaxTotalTokens: b.maxTokens,
		Unlimited:      u.IsAdmin,
		StartPeriod:    now,
		FinishPeriod:   now.Add(b.window),
	}
	if err := b.usage.CreateWindow(ctx, w); err != nil {
		return false, err
	}
	b.logger.Debug("usage window created",
		"user_id", u.ID, "window_id", w.ID, "finish", w.FinishPeriod)
	return true, nil
}

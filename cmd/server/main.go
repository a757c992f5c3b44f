package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binna-crm/internal/adapter/assistant"
	"binna-crm/internal/adapter/gateway"
	"binna-crm/internal/adapter/store"
	"binna-crm/internal/adapter/tool"
	"binna-crm/internal/infra/config"
	"binna-crm/internal/infra/logger"
	"binna-crm/internal/infra/tracer"
	"binna-crm/internal/usecase"
	"binna-crm/internal/usecase/crm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Storage
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close()

	// 4. CRM controllers and tool registry
	set := tool.CRMSet{
		Establishments: crm.NewEstablishments(db, log),
		Contacts:       crm.NewContacts(db, log),
		Tasks:          crm.NewTasks(db, log),
		Opportunities:  crm.NewOpportunities(db, log),
		Meetings:       crm.NewMeetings(db, log),
		Notes:          crm.NewNotes(db, db, log),
	}
	registry, err := tool.NewCRMRegistry(
		cfg.Assistant.Model, cfg.Assistant.Name,
		cfg.Assistant.Description, cfg.Assistant.Instructions,
		set, log,
	)
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}
	invoker, err := tool.NewInvoker(registry, log)
	if err != nil {
		return fmt.Errorf("tool invoker: %w", err)
	}

	// 5. Assistant provider
	client := assistant.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey, cfg.AssistantTimeout(), log)
	provider := assistant.NewBreakerProvider(client, log)

	syncCtx, cancelSync := context.WithTimeout(ctx, cfg.AssistantTimeout())
	syncAssistant(syncCtx, client, registry, cfg.Assistant.AssistantID, log)
	cancelSync()

	// 6. Use cases
	guard := usecase.NewUsageGuard(db, log)
	conversations := usecase.NewConversations(provider, log)
	turns := usecase.NewTurnRunner(provider, invoker, guard, cfg.Assistant.AssistantID, cfg.Assistant.Model, log)
	auth := usecase.NewAuth(db, db, cfg.SessionTTL(), log)

	// 7. Billing windows
	var billing *usecase.Billing
	if cfg.Billing.Enabled {
		billing = usecase.NewBilling(db, db, cfg.Billing.DefaultMaxTokens, cfg.Billing.WindowDays, log)
		if err := billing.Start(cfg.Billing.Schedule); err != nil {
			return fmt.Errorf("billing: %w", err)
		}
		defer billing.Stop()
	}

	// 8. HTTP gateway
	srv := gateway.New(gateway.Config{
		Addr:           cfg.Server.Addr,
		RatePerMinute:  cfg.Server.RatePerMinute,
		RateBurst:      cfg.Server.RateBurst,
		RequestTimeout: cfg.RequestTimeout(),
	}, auth, conversations, turns, guard, log)

	// 9. Serve until interrupted
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// syncAssistant pushes the local tool descriptor to the remote assistant
// when it has drifted. Sync failures are logged, not fatal: the assistant
// keeps working with its current remote definition.
func syncAssistant(ctx context.Context, client *assistant.Client, registry *tool.Registry, assistantID string, log *slog.Logger) {
	remote, err := client.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		log.Warn("assistant sync: retrieve failed", "assistant_id", assistantID, "error", err)
		return
	}
	if !registry.NeedsSync(remote) {
		log.Info("assistant definition up to date", "assistant_id", assistantID)
		return
	}
	if err := client.UpdateAssistant(ctx, assistantID, registry.Descriptor()); err != nil {
		log.Warn("assistant sync: update failed", "assistant_id", assistantID, "error", err)
		return
	}
	log.Info("assistant definition updated", "assistant_id", assistantID, "tools", len(registry.Schemas()))
}

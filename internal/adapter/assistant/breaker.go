package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"binna-crm/internal/domain"
)

// BreakerProvider wraps a provider with a circuit breaker. The breaker
// guards the initial call of each operation; an already-open event stream
// is not interrupted.
type BreakerProvider struct {
	inner domain.AssistantProvider
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerProvider wraps the provider.
func NewBreakerProvider(inner domain.AssistantProvider, logger *slog.Logger) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:    "assistant-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerProvider{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func execute[T any](b *BreakerProvider, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, domain.NewDomainError("assistant.breaker", domain.ErrProviderError, err.Error())
		}
		return zero, err
	}
	return res.(T), nil
}

func (b *BreakerProvider) CreateThread(ctx context.Context) (string, error) {
	return execute(b, func() (string, error) { return b.inner.CreateThread(ctx) })
}

func (b *BreakerProvider) RetrieveThread(ctx context.Context, threadID string) (string, error) {
	return execute(b, func() (string, error) { return b.inner.RetrieveThread(ctx, threadID) })
}

func (b *BreakerProvider) AppendMessage(ctx context.Context, threadID, role, content string) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, b.inner.AppendMessage(ctx, threadID, role, content)
	})
	return err
}

func (b *BreakerProvider) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	return execute(b, func() ([]domain.ThreadMessage, error) {
		return b.inner.ListMessages(ctx, threadID)
	})
}

func (b *BreakerProvider) StreamRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (<-chan domain.RunEvent, error) {
	return execute(b, func() (<-chan domain.RunEvent, error) {
		return b.inner.StreamRun(ctx, threadID, assistantID, additionalInstructions)
	})
}

func (b *BreakerProvider) StreamToolOutputs(ctx context.Context, threadID, runID string, outputs []domain.ToolOutput) (<-chan domain.RunEvent, error) {
	return execute(b, func() (<-chan domain.RunEvent, error) {
		return b.inner.StreamToolOutputs(ctx, threadID, runID, outputs)
	})
}

func (b *BreakerProvider) RetrieveRunUsage(ctx context.Context, threadID, runID string) (domain.RunUsage, error) {
	return execute(b, func() (domain.RunUsage, error) {
		return b.inner.RetrieveRunUsage(ctx, threadID, runID)
	})
}

package usecase

import (
	"context"
	"log/slog"

	"binna-crm/internal/domain"
)

// Conversations manages the lifecycle of provider-side threads. Message
// history lives at the provider; this layer only creates, resolves and
// reads threads on the user's behalf.
type Conversations struct {
	provider domain.AssistantProvider
	logger   *slog.Logger
}

// NewConversations creates the conversation use case.
func NewConversations(provider domain.AssistantProvider, logger *slog.Logger) *Conversations {
	return &Conversations{provider: provider, logger: logger}
}

// Open creates a new empty thread and returns its id.
func (c *Conversations) Open(ctx context.Context, userID int64) (string, error) {
	threadID, err := c.provider.CreateThread(ctx)
	if err != nil {
		return "", domain.WrapOp("Conversations.Open", err)
	}
	c.logger.Info("thread created", "user_id", userID, "thread_id", threadID)
	return threadID, nil
}

// Resolve verifies a thread exists at the provider and returns its id.
// Returns domain.ErrThreadNotFound for unknown threads.
func (c *Conversations) Resolve(ctx context.Context, threadID string) (string, error) {
	id, err := c.provider.RetrieveThread(ctx, threadID)
	if err != nil {
		return "", domain.WrapOp("Conversations.Resolve", err)
	}
	return id, nil
}

// History returns the thread's messages in order.
func (c *Conversations) History(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	msgs, err := c.provider.ListMessages(ctx, threadID)
	if err != nil {
		return nil, domain.WrapOp("Conversations.History", err)
	}
	return msgs, nil
}

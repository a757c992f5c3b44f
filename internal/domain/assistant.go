package domain

import (
	"context"
	"time"
)

// Run event types emitted by the assistant provider's event stream.
const (
	RunEventTextDelta      = "text.delta"
	RunEventRequiresAction = "requires_action"
	RunEventCompleted      = "completed"
	RunEventFailed         = "failed"
)

// RunEvent is one event from a streamed assistant run. TextDelta is set for
// text.delta events; ToolCalls is set for requires_action events; Err carries
// the provider failure message for failed events.
type RunEvent struct {
	Type      string
	RunID     string
	TextDelta string
	ToolCalls []ToolCall
	Err       string
}

// ThreadMessage is one entry of a thread's ordered message history.
type ThreadMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RunUsage is the token accounting reported by the provider for one run.
type RunUsage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	CachedTokens     int `json:"cached_tokens"`
}

// AssistantProvider is the external conversation provider: it owns threads
// (ordered, append-only message histories) and runs (model executions that
// may pause for tool calls). The core never mutates history directly.
type AssistantProvider interface {
	CreateThread(ctx context.Context) (string, error)
	RetrieveThread(ctx context.Context, threadID string) (string, error)
	AppendMessage(ctx context.Context, threadID, role, content string) error
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)

	// StreamRun starts a run on the thread with per-run additional
	// instructions and returns its event stream. The channel is closed when
	// the run pauses for tool calls, completes, or fails.
	StreamRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (<-chan RunEvent, error)

	// StreamToolOutputs submits tool outputs for a paused run and returns
	// the resumed event stream.
	StreamToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (<-chan RunEvent, error)

	RetrieveRunUsage(ctx context.Context, threadID, runID string) (RunUsage, error)
}

// AssistantConfigurator reconciles the remote assistant configuration.
// Used once at process start.
type AssistantConfigurator interface {
	RetrieveAssistant(ctx context.Context, assistantID string) (*AssistantDescriptor, error)
	UpdateAssistant(ctx context.Context, assistantID string, desc AssistantDescriptor) error
}

package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.opentelemetry.io/otel/trace"

	"binna-crm/internal/domain"
	"binna-crm/internal/infra/tracer"
)

// streamTrailerSentinel separates the assistant's visible text from the
// trailing tool-invocation audit payload. Clients split the stream on this
// exact byte sequence, so it must never change.
const streamTrailerSentinel = `\json`

// contextDateTimeLayout is the timestamp format placed in the per-turn
// context instructions, matching the datetime format the tools accept.
const contextDateTimeLayout = "2006-01-02T15:04:05"

// TurnChunk is one unit of a streamed turn: either a piece of assistant
// text (the trailer included) or a terminal error. After a chunk with Err
// set, the channel closes.
type TurnChunk struct {
	Text string
	Err  error
}

// turnContext is the situational payload serialized into each run's
// additional instructions.
type turnContext struct {
	CurrentDatetime         string `json:"current_datetime"`
	CurrentDay              string `json:"current_day"`
	UserFirstName           string `json:"user_first_name,omitempty"`
	UserBusinessDescription string `json:"user_business_description,omitempty"`
}

// TurnRunner drives one full conversation turn: it admits the turn against
// the usage budget, appends the user message, streams the run, resolves
// tool pauses by invoking tools in the order requested, and records token
// usage exactly once when the run completes.
type TurnRunner struct {
	provider    domain.AssistantProvider
	invoker     domain.ToolInvoker
	guard       *UsageGuard
	logger      *slog.Logger
	assistantID string
	encoder     *tiktoken.Tiktoken
	now         func() time.Time
}

// NewTurnRunner creates the runner. The token encoder is best effort: when
// no encoding exists for the model, pre-flight estimates are skipped.
func NewTurnRunner(provider domain.AssistantProvider, invoker domain.ToolInvoker, guard *UsageGuard, assistantID, model string, logger *slog.Logger) *TurnRunner {
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("no token encoding for model, pre-flight estimates disabled",
			"model", model, "error", err)
		encoder = nil
	}
	return &TurnRunner{
		provider:    provider,
		invoker:     invoker,
		guard:       guard,
		logger:      logger,
		assistantID: assistantID,
		encoder:     encoder,
		now:         time.Now,
	}
}

// Stream runs one turn for the user on the given thread. Admission checks
// and the message append happen synchronously; the returned channel then
// carries text chunks as the provider produces them, the audit trailer when
// at least one tool round occurred, and at most one terminal error.
func (t *TurnRunner) Stream(ctx context.Context, user *domain.User, threadID, message string) (<-chan TurnChunk, error) {
	if err := t.guard.AssertCanProceed(ctx, user.ID); err != nil {
		return nil, err
	}

	if t.encoder != nil {
		t.logger.Debug("pre-flight token estimate",
			"user_id", user.ID, "prompt_tokens", len(t.encoder.Encode(message, nil, nil)))
	}

	if err := t.provider.AppendMessage(ctx, threadID, "user", message); err != nil {
		return nil, domain.WrapOp("TurnRunner.Stream", err)
	}

	out := make(chan TurnChunk)
	go t.run(ctx, user, threadID, out)
	return out, nil
}

func (t *TurnRunner) run(ctx context.Context, user *domain.User, threadID string, out chan<- TurnChunk) {
	defer close(out)

	ctx, span := tracer.StartSpan(ctx, "turn.run",
		trace.WithAttributes(tracer.StringAttr("thread.id", threadID)),
	)
	defer span.End()

	events, err := t.provider.StreamRun(ctx, threadID, t.assistantID, t.contextInstructions(user))
	if err != nil {
		tracer.RecordError(span, err)
		emit(ctx, out, TurnChunk{Err: domain.WrapOp("TurnRunner.run", err)})
		return
	}

	var (
		runID       string
		toolRounds  int
		lastRecords []domain.InvocationRecord
	)

	for {
		var calls []domain.ToolCall
		paused := false

		for ev := range events {
			switch ev.Type {
			case domain.RunEventTextDelta:
				if !emit(ctx, out, TurnChunk{Text: ev.TextDelta}) {
					return
				}
			case domain.RunEventRequiresAction:
				runID = ev.RunID
				calls = ev.ToolCalls
				paused = true
			case domain.RunEventCompleted:
				runID = ev.RunID
			case domain.RunEventFailed:
				err := domain.NewDomainError("TurnRunner.run", domain.ErrRunFailed, ev.Err)
				tracer.RecordError(span, err)
				emit(ctx, out, TurnChunk{Err: err})
				return
			}
		}

		if !paused {
			break
		}

		toolRounds++
		records := make([]domain.InvocationRecord, 0, len(calls))
		outputs := make([]domain.ToolOutput, 0, len(calls))
		for _, call := range calls {
			rec := t.invoker.Invoke(ctx, user.ID, call)
			records = append(records, rec)
			outputs = append(outputs, toolOutputOf(rec))
		}
		lastRecords = records

		events, err = t.provider.StreamToolOutputs(ctx, threadID, runID, outputs)
		if err != nil {
			tracer.RecordError(span, err)
			emit(ctx, out, TurnChunk{Err: domain.WrapOp("TurnRunner.run", err)})
			return
		}
	}

	if toolRounds > 0 {
		payload, err := json.Marshal(lastRecords)
		if err != nil {
			t.logger.Error("trailer payload not serializable", "error", err)
		} else if !emit(ctx, out, TurnChunk{Text: streamTrailerSentinel + string(payload)}) {
			return
		}
	}

	tracer.SetOK(span)
	t.recordUsage(ctx, user.ID, threadID, runID)
}

// recordUsage fetches the completed run's token totals and records them.
// Failures here must not fail the turn; the text already streamed.
func (t *TurnRunner) recordUsage(ctx context.Context, userID int64, threadID, runID string) {
	if runID == "" {
		t.logger.Warn("run id missing after stream, usage not recorded",
			"user_id", userID, "thread_id", threadID)
		return
	}
	usage, err := t.provider.RetrieveRunUsage(ctx, threadID, runID)
	if err != nil {
		t.logger.Warn("run usage unavailable",
			"user_id", userID, "run_id", runID, "error", err)
		return
	}
	t.guard.RecordUsage(ctx, userID, usage)
}

// contextInstructions renders the per-turn situational context the
// assistant receives alongside its standing instructions.
func (t *TurnRunner) contextInstructions(user *domain.User) string {
	now := t.now()
	payload, _ := json.Marshal(turnContext{
		CurrentDatetime:         now.Format(contextDateTimeLayout),
		CurrentDay:              now.Weekday().String(),
		UserFirstName:           user.FirstName,
		UserBusinessDescription: user.BusinessDescription,
	})
	return "contexto: " + string(payload)
}

// emit delivers a chunk unless the turn context is done. A false return
// means the consumer is gone and the run loop must unwind; blocking on the
// unbuffered channel would pin this goroutine and the provider stream for
// the life of the process.
func emit(ctx context.Context, out chan<- TurnChunk, c TurnChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// toolOutputOf serializes an invocation record into the provider's
// tool-output wire form.
func toolOutputOf(rec domain.InvocationRecord) domain.ToolOutput {
	body, err := json.Marshal(rec)
	if err != nil {
		body, _ = json.Marshal(map[string]any{
			"success": false,
			"message": "tool output not serializable",
		})
	}
	return domain.ToolOutput{ToolCallID: rec.ToolCallID, Output: string(body)}
}

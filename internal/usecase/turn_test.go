package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binna-crm/internal/domain"
)

func activeWindow(userID int64, maxTokens int) domain.UsageWindow {
	now := time.Now()
	return domain.UsageWindow{
		UserID:         userID,
		MaxTotalTokens: maxTokens,
		StartPeriod:    now.Add(-time.Hour),
		FinishPeriod:   now.Add(time.Hour),
	}
}

func newTestRunner(provider *fakeProvider, invoker domain.ToolInvoker, usage *fakeUsageStore) *TurnRunner {
	guard := NewUsageGuard(usage, testLogger())
	return &TurnRunner{
		provider:    provider,
		invoker:     invoker,
		guard:       guard,
		logger:      testLogger(),
		assistantID: "asst_1",
		now:         time.Now,
	}
}

func collect(t *testing.T, ch <-chan TurnChunk) (text string, chunks []TurnChunk) {
	t.Helper()
	for chunk := range ch {
		chunks = append(chunks, chunk)
		text += chunk.Text
	}
	return text, chunks
}

func TestStreamPlainTextTurn(t *testing.T) {
	provider := &fakeProvider{
		streams: [][]domain.RunEvent{{
			{Type: domain.RunEventTextDelta, TextDelta: "Hello "},
			{Type: domain.RunEventTextDelta, TextDelta: "there"},
			{Type: domain.RunEventCompleted, RunID: "run_1"},
		}},
		usage: domain.RunUsage{TotalTokens: 42, PromptTokens: 30, CompletionTokens: 12},
	}
	usage := &fakeUsageStore{windows: []domain.UsageWindow{activeWindow(1, 1000)}}
	usage.windows[0].ID = 1
	runner := newTestRunner(provider, &fakeInvoker{}, usage)

	user := &domain.User{ID: 1}
	ch, err := runner.Stream(context.Background(), user, "thread_1", "hi")
	require.NoError(t, err)

	text, _ := collect(t, ch)
	assert.Equal(t, "Hello there", text)
	// No tool round, no trailer.
	assert.NotContains(t, text, streamTrailerSentinel)

	assert.Equal(t, []string{"hi"}, provider.appended)
	assert.Equal(t, 1, provider.usageCalls)
	require.Len(t, usage.added, 1)
	assert.Equal(t, 42, usage.added[0].TotalTokens)
}

func TestStreamToolRoundInOrder(t *testing.T) {
	provider := &fakeProvider{
		streams: [][]domain.RunEvent{
			{
				{Type: domain.RunEventTextDelta, TextDelta: "Let me check. "},
				{
					Type:  domain.RunEventRequiresAction,
					RunID: "run_1",
					ToolCalls: []domain.ToolCall{
						{ID: "call_a", Name: "get_customer_by_name", Arguments: json.RawMessage(`{"name":"acme"}`)},
						{ID: "call_b", Name: "get_all_contacts", Arguments: json.RawMessage(`{"customer_id":1}`)},
					},
				},
			},
			{
				{Type: domain.RunEventTextDelta, TextDelta: "Done."},
				{Type: domain.RunEventCompleted, RunID: "run_1"},
			},
		},
		usage: domain.RunUsage{TotalTokens: 100},
	}
	invoker := &fakeInvoker{}
	usage := &fakeUsageStore{windows: []domain.UsageWindow{activeWindow(1, 1000)}}
	usage.windows[0].ID = 1
	runner := newTestRunner(provider, invoker, usage)

	ch, err := runner.Stream(context.Background(), &domain.User{ID: 1}, "thread_1", "who works at acme?")
	require.NoError(t, err)

	text, _ := collect(t, ch)

	// Both calls executed sequentially in the order requested, then
	// submitted together in one batch.
	require.Len(t, invoker.calls, 2)
	assert.Equal(t, "call_a", invoker.calls[0].ID)
	assert.Equal(t, "call_b", invoker.calls[1].ID)
	require.Len(t, provider.submitted, 1)
	require.Len(t, provider.submitted[0], 2)
	assert.Equal(t, "call_a", provider.submitted[0][0].ToolCallID)
	assert.Equal(t, "call_b", provider.submitted[0][1].ToolCallID)

	// The visible text is followed by the audit trailer.
	visible, trailer, found := strings.Cut(text, streamTrailerSentinel)
	require.True(t, found)
	assert.Equal(t, "Let me check. Done.", visible)

	var records []domain.InvocationRecord
	require.NoError(t, json.Unmarshal([]byte(trailer), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "get_customer_by_name", records[0].FunctionName)
	assert.True(t, records[0].Success)

	// Usage recorded exactly once for the whole turn.
	assert.Equal(t, 1, provider.usageCalls)
	assert.Len(t, usage.added, 1)
}

func TestStreamTrailerCarriesFinalRound(t *testing.T) {
	provider := &fakeProvider{
		streams: [][]domain.RunEvent{
			{{
				Type:      domain.RunEventRequiresAction,
				RunID:     "run_1",
				ToolCalls: []domain.ToolCall{{ID: "call_a", Name: "first_tool"}},
			}},
			{{
				Type:      domain.RunEventRequiresAction,
				RunID:     "run_1",
				ToolCalls: []domain.ToolCall{{ID: "call_b", Name: "second_tool"}},
			}},
			{{Type: domain.RunEventCompleted, RunID: "run_1"}},
		},
	}
	usage := &fakeUsageStore{windows: []domain.UsageWindow{activeWindow(1, 1000)}}
	usage.windows[0].ID = 1
	runner := newTestRunner(provider, &fakeInvoker{}, usage)

	ch, err := runner.Stream(context.Background(), &domain.User{ID: 1}, "thread_1", "go")
	require.NoError(t, err)
	text, _ := collect(t, ch)

	_, trailer, found := strings.Cut(text, streamTrailerSentinel)
	require.True(t, found)

	var records []domain.InvocationRecord
	require.NoError(t, json.Unmarshal([]byte(trailer), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "second_tool", records[0].FunctionName)
}

func TestStreamRunFailure(t *testing.T) {
	provider := &fakeProvider{
		streams: [][]domain.RunEvent{{
			{Type: domain.RunEventTextDelta, TextDelta: "partial"},
			{Type: domain.RunEventFailed, RunID: "run_1", Err: "rate_limit_exceeded"},
		}},
	}
	usage := &fakeUsageStore{windows: []domain.UsageWindow{activeWindow(1, 1000)}}
	usage.windows[0].ID = 1
	runner := newTestRunner(provider, &fakeInvoker{}, usage)

	ch, err := runner.Stream(context.Background(), &domain.User{ID: 1}, "thread_1", "hi")
	require.NoError(t, err)

	_, chunks := collect(t, ch)
	last := chunks[len(chunks)-1]
	require.Error(t, last.Err)
	assert.ErrorIs(t, last.Err, domain.ErrRunFailed)
	assert.Empty(t, usage.added)
}

func TestStreamConsumerGoneEndsRun(t *testing.T) {
	provider := &fakeProvider{
		streams: [][]domain.RunEvent{{
			{Type: domain.RunEventTextDelta, TextDelta: "one "},
			{Type: domain.RunEventTextDelta, TextDelta: "two "},
			{Type: domain.RunEventTextDelta, TextDelta: "three"},
			{Type: domain.RunEventCompleted, RunID: "run_1"},
		}},
	}
	usage := &fakeUsageStore{windows: []domain.UsageWindow{activeWindow(1, 1000)}}
	usage.windows[0].ID = 1
	runner := newTestRunner(provider, &fakeInvoker{}, usage)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := runner.Stream(ctx, &domain.User{ID: 1}, "thread_1", "hi")
	require.NoError(t, err)

	// Take one chunk, then walk away like a disconnected client: cancel
	// and stop reading. The run goroutine must close the channel instead
	// of blocking on the next send forever.
	<-ch
	cancel()
	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed, not carrying more chunks")
	case <-time.After(2 * time.Second):
		t.Fatal("run goroutine still blocked after consumer left")
	}
	assert.Empty(t, usage.added)
}

func TestStreamRejectedWithoutWindow(t *testing.T) {
	runner := newTestRunner(&fakeProvider{}, &fakeInvoker{}, &fakeUsageStore{})

	_, err := runner.Stream(context.Background(), &domain.User{ID: 1}, "thread_1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoActiveWindow)
}

func TestStreamRejectedWhenExhausted(t *testing.T) {
	w := activeWindow(1, 100)
	w.ID = 1
	w.CurrentTotalTokens = 100
	runner := newTestRunner(&fakeProvider{}, &fakeInvoker{}, &fakeUsageStore{windows: []domain.UsageWindow{w}})

	_, err := runner.Stream(context.Background(), &domain.User{ID: 1}, "thread_1", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestContextInstructions(t *testing.T) {
	runner := &TurnRunner{logger: testLogger()}
	runner.now = func() time.Time {
		return time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	}

	got := runner.contextInstructions(&domain.User{
		ID:                  1,
		FirstName:           "Ana",
		BusinessDescription: "industrial valves distributor",
	})

	require.True(t, strings.HasPrefix(got, "contexto: "))
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(got, "contexto: ")), &payload))
	assert.Equal(t, "2026-09-01T15:04:05", payload["current_datetime"])
	assert.Equal(t, "Tuesday", payload["current_day"])
	assert.Equal(t, "Ana", payload["user_first_name"])
	assert.Equal(t, "industrial valves distributor", payload["user_business_description"])

	// Optional profile fields are omitted, not sent empty.
	bare := runner.contextInstructions(&domain.User{ID: 2})
	assert.NotContains(t, bare, "user_first_name")
	assert.NotContains(t, bare, "user_business_description")
}

package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binna-crm/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "sk-test", 5*time.Second, testLogger())
}

func TestClientSetsAuthHeaders(t *testing.T) {
	var gotAuth, gotBeta string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBeta = r.Header.Get("OpenAI-Beta")
		json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
	}))

	id, err := c.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread_1", id)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "assistants=v2", gotBeta)
}

func TestRetrieveThreadNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.RetrieveThread(context.Background(), "thread_x")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}

func TestAPIErrorCarriesProviderMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid model"},
		})
	}))

	err := c.AppendMessage(context.Background(), "thread_1", "user", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestListMessages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id": "msg_1", "role": "user", "created_at": 1756700000,
					"content": []map[string]any{
						{"type": "text", "text": map[string]string{"value": "hello"}},
					},
				},
				{
					"id": "msg_2", "role": "assistant", "created_at": 1756700005,
					"content": []map[string]any{
						{"type": "text", "text": map[string]string{"value": "hi there"}},
					},
				},
			},
		})
	}))

	msgs, err := c.ListMessages(context.Background(), "thread_1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestStreamRunEvents(t *testing.T) {
	stream := "event: thread.message.delta\n" +
		`data: {"delta":{"content":[{"type":"text","text":{"value":"Hel"}}]}}` + "\n\n" +
		"event: thread.message.delta\n" +
		`data: {"delta":{"content":[{"type":"text","text":{"value":"lo"}}]}}` + "\n\n" +
		"event: thread.run.completed\n" +
		`data: {"id":"run_1"}` + "\n\n" +
		"data: [DONE]\n\n"

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, "asst_1", body["assistant_id"])
		assert.Equal(t, "contexto: {}", body["additional_instructions"])

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, stream)
	}))

	events, err := c.StreamRun(context.Background(), "thread_1", "asst_1", "contexto: {}")
	require.NoError(t, err)

	var got []domain.RunEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "Hel", got[0].TextDelta)
	assert.Equal(t, "lo", got[1].TextDelta)
	assert.Equal(t, domain.RunEventCompleted, got[2].Type)
	assert.Equal(t, "run_1", got[2].RunID)
}

func TestStreamStopsAtRequiresAction(t *testing.T) {
	stream := "event: thread.run.requires_action\n" +
		`data: {"id":"run_1","required_action":{"submit_tool_outputs":{"tool_calls":[{"id":"call_a","function":{"name":"get_all_customers","arguments":"{}"}}]}}}` + "\n\n" +
		"event: thread.run.step.completed\n" +
		"data: {}\n\n"

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, stream)
	}))

	events, err := c.StreamRun(context.Background(), "thread_1", "asst_1", "")
	require.NoError(t, err)

	var got []domain.RunEvent
	for ev := range events {
		got = append(got, ev)
	}
	// The pause event ends the stream; nothing after it is delivered.
	require.Len(t, got, 1)
	assert.Equal(t, domain.RunEventRequiresAction, got[0].Type)
	require.Len(t, got[0].ToolCalls, 1)
	assert.Equal(t, "get_all_customers", got[0].ToolCalls[0].Name)
}

func TestStreamToolOutputsPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: thread.run.completed\ndata: {\"id\":\"run_1\"}\n\ndata: [DONE]\n\n")
	}))

	outputs := []domain.ToolOutput{{ToolCallID: "call_a", Output: `{"success":true}`}}
	events, err := c.StreamToolOutputs(context.Background(), "thread_1", "run_1", outputs)
	require.NoError(t, err)
	for range events {
	}

	assert.Equal(t, "/threads/thread_1/runs/run_1/submit_tool_outputs", gotPath)
	sent := gotBody["tool_outputs"].([]any)[0].(map[string]any)
	assert.Equal(t, "call_a", sent["tool_call_id"])
	assert.Equal(t, `{"success":true}`, sent["output"])
}

func TestRetrieveRunUsage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "run_1",
			"usage": map[string]any{
				"total_tokens":      120,
				"prompt_tokens":     90,
				"completion_tokens": 30,
				"prompt_token_details": map[string]any{
					"cached_tokens": 40,
				},
			},
		})
	}))

	usage, err := c.RetrieveRunUsage(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunUsage{
		TotalTokens:      120,
		PromptTokens:     90,
		CompletionTokens: 30,
		CachedTokens:     40,
	}, usage)
}

func TestRetrieveAndUpdateAssistant(t *testing.T) {
	var updated map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			json.NewEncoder(w).Encode(map[string]string{"id": "asst_1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o", "name": "binna", "instructions": "help",
			"tools": []map[string]any{
				{"type": "code_interpreter"},
				{"type": "function", "function": map[string]any{
					"name": "get_all_customers", "description": "d",
					"parameters": map[string]any{"type": "object"}, "strict": false,
				}},
			},
		})
	}))

	desc, err := c.RetrieveAssistant(context.Background(), "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", desc.Model)
	// Non-function tools are ignored.
	require.Len(t, desc.Tools, 1)
	assert.Equal(t, "get_all_customers", desc.Tools[0].Name)

	err = c.UpdateAssistant(context.Background(), "asst_1", domain.AssistantDescriptor{
		Model: "gpt-4o",
		Tools: []domain.ToolSchema{{Name: "echo", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)
	tools := updated["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)
	assert.Equal(t, "function", fn["type"])
}

type flakyProvider struct {
	domain.AssistantProvider
	err error
}

func (p *flakyProvider) CreateThread(context.Context) (string, error) {
	return "", p.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{err: errors.New("connection refused")}
	b := NewBreakerProvider(inner, testLogger())

	for i := 0; i < 5; i++ {
		_, err := b.CreateThread(context.Background())
		require.Error(t, err)
	}

	// Breaker is open now; the inner provider is no longer reached and
	// the failure is reported as a provider error.
	_, err := b.CreateThread(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

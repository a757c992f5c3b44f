package assistant

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binna-crm/internal/domain"
)

func TestSSEScannerSplitsEvents(t *testing.T) {
	input := "event: thread.message.delta\n" +
		"data: {\"a\":1}\n" +
		"\n" +
		": keep-alive comment\n" +
		"event: thread.run.completed\n" +
		"data: {\"id\":\"run_1\"}\n" +
		"\n" +
		"data: [DONE]\n" +
		"\n"

	sc := newSSEScanner(strings.NewReader(input))

	ev, err := sc.Next()
	require.NoError(t, err)
	assert.Equal(t, "thread.message.delta", ev.Event)
	assert.Equal(t, `{"a":1}`, ev.Data)

	ev, err = sc.Next()
	require.NoError(t, err)
	assert.Equal(t, "thread.run.completed", ev.Event)

	ev, err = sc.Next()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", ev.Data)

	_, err = sc.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSSEScannerJoinsMultiLineData(t *testing.T) {
	input := "event: x\ndata: line1\ndata: line2\n\n"
	sc := newSSEScanner(strings.NewReader(input))

	ev, err := sc.Next()
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", ev.Data)
}

func TestDecodeRunEventTextDelta(t *testing.T) {
	ev, ok := decodeRunEvent(sseEvent{
		Event: "thread.message.delta",
		Data:  `{"delta":{"content":[{"type":"text","text":{"value":"hi"}}]}}`,
	})
	require.True(t, ok)
	assert.Equal(t, domain.RunEventTextDelta, ev.Type)
	assert.Equal(t, "hi", ev.TextDelta)
}

func TestDecodeRunEventRequiresAction(t *testing.T) {
	data := `{
		"id": "run_1",
		"required_action": {
			"submit_tool_outputs": {
				"tool_calls": [
					{"id": "call_a", "function": {"name": "get_all_customers", "arguments": "{}"}},
					{"id": "call_b", "function": {"name": "get_customer_by_id", "arguments": "{\"customer_id\":3}"}}
				]
			}
		}
	}`
	ev, ok := decodeRunEvent(sseEvent{Event: "thread.run.requires_action", Data: data})
	require.True(t, ok)
	assert.Equal(t, domain.RunEventRequiresAction, ev.Type)
	assert.Equal(t, "run_1", ev.RunID)
	require.Len(t, ev.ToolCalls, 2)
	assert.Equal(t, "get_all_customers", ev.ToolCalls[0].Name)
	assert.Equal(t, "call_b", ev.ToolCalls[1].ID)
	assert.JSONEq(t, `{"customer_id":3}`, string(ev.ToolCalls[1].Arguments))
}

func TestDecodeRunEventFailed(t *testing.T) {
	ev, ok := decodeRunEvent(sseEvent{
		Event: "thread.run.failed",
		Data:  `{"id":"run_1","last_error":{"message":"rate limit"}}`,
	})
	require.True(t, ok)
	assert.Equal(t, domain.RunEventFailed, ev.Type)
	assert.Equal(t, "rate limit", ev.Err)
}

func TestDecodeRunEventSkipsUnknown(t *testing.T) {
	_, ok := decodeRunEvent(sseEvent{Event: "thread.run.step.created", Data: `{}`})
	assert.False(t, ok)
}

// Package assistant talks to the OpenAI Assistants v2 API: thread and
// message management, streamed runs, tool-output submission and assistant
// configuration.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"binna-crm/internal/domain"
)

const betaHeader = "assistants=v2"

// Client implements domain.AssistantProvider and
// domain.AssistantConfigurator over the HTTP API. Plain requests carry a
// timeout; streaming requests do not, they end with the run.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	stream  *http.Client
	logger  *slog.Logger
}

// NewClient creates the API client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		logger:  logger,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do issues a plain request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewDomainError("assistant.do", domain.ErrProviderError, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewDomainError("assistant.do", domain.ErrThreadNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewDomainError("assistant.do", domain.ErrProviderError, "decode response: "+err.Error())
	}
	return nil
}

// apiError extracts the provider's error message from a failed response.
func apiError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	detail := fmt.Sprintf("status %d", resp.StatusCode)
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		detail += ": " + payload.Error.Message
	}
	return domain.NewDomainError("assistant.api", domain.ErrProviderError, detail)
}

// CreateThread creates an empty thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// RetrieveThread verifies a thread exists and returns its id.
func (c *Client) RetrieveThread(ctx context.Context, threadID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID, nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// AppendMessage appends a message to the thread.
func (c *Client) AppendMessage(ctx context.Context, threadID, role, content string) error {
	body := map[string]string{"role": role, "content": content}
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil)
}

// apiMessage is the provider's message shape; content is a list of typed
// parts of which only text parts matter here.
type apiMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

func (m apiMessage) text() string {
	for _, part := range m.Content {
		if part.Type == "text" {
			return part.Text.Value
		}
	}
	return ""
}

// ListMessages returns the thread's messages oldest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]domain.ThreadMessage, error) {
	var out struct {
		Data []apiMessage `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=asc&limit=100", nil, &out); err != nil {
		return nil, err
	}

	msgs := make([]domain.ThreadMessage, len(out.Data))
	for i, m := range out.Data {
		msgs[i] = domain.ThreadMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.text(),
			CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
		}
	}
	return msgs, nil
}

// StreamRun starts a streamed run on the thread.
func (c *Client) StreamRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (<-chan domain.RunEvent, error) {
	body := map[string]any{
		"assistant_id": assistantID,
		"stream":       true,
	}
	if additionalInstructions != "" {
		body["additional_instructions"] = additionalInstructions
	}
	return c.openStream(ctx, "/threads/"+threadID+"/runs", body)
}

// StreamToolOutputs submits tool outputs for a paused run and resumes its
// stream.
func (c *Client) StreamToolOutputs(ctx context.Context, threadID, runID string, outputs []domain.ToolOutput) (<-chan domain.RunEvent, error) {
	body := map[string]any{
		"tool_outputs": outputs,
		"stream":       true,
	}
	return c.openStream(ctx, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", body)
}

// RetrieveRunUsage fetches a finished run's token accounting.
func (c *Client) RetrieveRunUsage(ctx context.Context, threadID, runID string) (domain.RunUsage, error) {
	var out struct {
		Usage struct {
			TotalTokens      int `json:"total_tokens"`
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			PromptTokenDetails struct {
				CachedTokens int `json:"cached_tokens"`
			} `json:"prompt_token_details"`
		} `json:"usage"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &out); err != nil {
		return domain.RunUsage{}, err
	}
	return domain.RunUsage{
		TotalTokens:      out.Usage.TotalTokens,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		CachedTokens:     out.Usage.PromptTokenDetails.CachedTokens,
	}, nil
}

// openStream issues a streaming POST and feeds decoded run events into a
// channel until the stream ends.
func (c *Client) openStream(ctx context.Context, path string, body any) (<-chan domain.RunEvent, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, domain.NewDomainError("assistant.stream", domain.ErrProviderError, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}

	out := make(chan domain.RunEvent)
	go c.pump(ctx, resp.Body, out)
	return out, nil
}

// pump translates the SSE stream into run events and closes the channel
// when the stream ends. Sends race the context so an abandoned consumer
// cannot strand the goroutine and its open response body.
func (c *Client) pump(ctx context.Context, body io.ReadCloser, out chan<- domain.RunEvent) {
	defer close(out)
	defer body.Close()

	scanner := newSSEScanner(body)
	for {
		ev, err := scanner.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			select {
			case out <- domain.RunEvent{Type: domain.RunEventFailed, Err: "stream read: " + err.Error()}:
			case <-ctx.Done():
			}
			return
		}
		if ev.Data == "[DONE]" {
			return
		}

		runEv, ok := decodeRunEvent(ev)
		if !ok {
			continue
		}
		select {
		case out <- runEv:
		case <-ctx.Done():
			return
		}

		// The stream carries more events after a pause, but the run does
		// not progress until outputs are submitted on a fresh stream.
		if runEv.Type == domain.RunEventRequiresAction {
			return
		}
	}
}

// decodeRunEvent maps the provider event types the orchestrator cares
// about; everything else (step events, message lifecycle) is skipped.
func decodeRunEvent(ev sseEvent) (domain.RunEvent, bool) {
	switch ev.Event {
	case "thread.message.delta":
		var payload struct {
			Delta struct {
				Content []struct {
					Type string `json:"type"`
					Text struct {
						Value string `json:"value"`
					} `json:"text"`
				} `json:"content"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			return domain.RunEvent{}, false
		}
		var text string
		for _, part := range payload.Delta.Content {
			if part.Type == "text" {
				text += part.Text.Value
			}
		}
		if text == "" {
			return domain.RunEvent{}, false
		}
		return domain.RunEvent{Type: domain.RunEventTextDelta, TextDelta: text}, true

	case "thread.run.requires_action":
		var payload struct {
			ID             string `json:"id"`
			RequiredAction struct {
				SubmitToolOutputs struct {
					ToolCalls []struct {
						ID       string `json:"id"`
						Function struct {
							Name      string `json:"name"`
							Arguments string `json:"arguments"`
						} `json:"function"`
					} `json:"tool_calls"`
				} `json:"submit_tool_outputs"`
			} `json:"required_action"`
		}
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			return domain.RunEvent{}, false
		}
		calls := make([]domain.ToolCall, len(payload.RequiredAction.SubmitToolOutputs.ToolCalls))
		for i, tc := range payload.RequiredAction.SubmitToolOutputs.ToolCalls {
			calls[i] = domain.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			}
		}
		return domain.RunEvent{Type: domain.RunEventRequiresAction, RunID: payload.ID, ToolCalls: calls}, true

	case "thread.run.completed":
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			return domain.RunEvent{}, false
		}
		return domain.RunEvent{Type: domain.RunEventCompleted, RunID: payload.ID}, true

	case "thread.run.failed", "thread.run.expired", "thread.run.cancelled":
		var payload struct {
			ID        string `json:"id"`
			LastError struct {
				Message string `json:"message"`
			} `json:"last_error"`
		}
		msg := ev.Event
		if err := json.Unmarshal([]byte(ev.Data), &payload); err == nil && payload.LastError.Message != "" {
			msg = payload.LastError.Message
		}
		return domain.RunEvent{Type: domain.RunEventFailed, RunID: payload.ID, Err: msg}, true
	}

	return domain.RunEvent{}, false
}

// apiTool is the provider's function-tool shape.
type apiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
		Strict      bool            `json:"strict"`
	} `json:"function"`
}

func toAPITool(ts domain.ToolSchema) apiTool {
	var t apiTool
	t.Type = "function"
	t.Function.Name = ts.Name
	t.Function.Description = ts.Description
	t.Function.Parameters = ts.Parameters
	t.Function.Strict = ts.Strict
	return t
}

// RetrieveAssistant fetches the live assistant configuration.
func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (*domain.AssistantDescriptor, error) {
	var out struct {
		Model        string    `json:"model"`
		Name         string    `json:"name"`
		Description  string    `json:"description"`
		Instructions string    `json:"instructions"`
		Tools        []apiTool `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/assistants/"+assistantID, nil, &out); err != nil {
		return nil, err
	}

	desc := &domain.AssistantDescriptor{
		Model:        out.Model,
		Name:         out.Name,
		Description:  out.Description,
		Instructions: out.Instructions,
	}
	for _, t := range out.Tools {
		if t.Type != "function" {
			continue
		}
		desc.Tools = append(desc.Tools, domain.ToolSchema{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
			Strict:      t.Function.Strict,
		})
	}
	return desc, nil
}

// UpdateAssistant pushes the desired configuration to the provider.
func (c *Client) UpdateAssistant(ctx context.Context, assistantID string, desc domain.AssistantDescriptor) error {
	tools := make([]apiTool, len(desc.Tools))
	for i, ts := range desc.Tools {
		tools[i] = toAPITool(ts)
	}
	body := map[string]any{
		"model":        desc.Model,
		"name":         desc.Name,
		"description":  desc.Description,
		"instructions": desc.Instructions,
		"tools":        tools,
	}
	if err := c.do(ctx, http.MethodPost, "/assistants/"+assistantID, body, nil); err != nil {
		return err
	}
	c.logger.Info("assistant configuration updated", "assistant_id", assistantID, "tools", len(tools))
	return nil
}

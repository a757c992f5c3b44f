package domain

import (
	"context"
	"encoding/json"
)

// ToolSchema describes a tool for the assistant function-calling protocol.
// Parameters is the JSON Schema object for the tool's arguments; Strict is
// true only when every exposed parameter is required, in which case the
// schema carries "additionalProperties": false.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Strict      bool            `json:"strict"`
}

// ToolCall represents the assistant's request to invoke a tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// InvocationRecord is the outcome of executing one tool call. It is
// serialized into the tool-output submission and into the trailing audit
// chunk of a streamed turn; it is never persisted.
type InvocationRecord struct {
	ToolCallID   string          `json:"tool_call_id"`
	FunctionName string          `json:"function_name"`
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Output       json.RawMessage `json:"output,omitempty"`
}

// ToolOutput is the wire form submitted back to the assistant provider
// to resume a paused run.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// ToolInvoker resolves a tool call by name and executes it with the caller's
// identity injected. Unknown tools and execution failures are reported inside
// the record (Success=false), never as an error: the conversation must be
// able to continue when the model requests a bad tool.
type ToolInvoker interface {
	Invoke(ctx context.Context, userID int64, call ToolCall) InvocationRecord
}

// AssistantDescriptor is the desired remote assistant configuration.
type AssistantDescriptor struct {
	Model        string       `json:"model"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Instructions string       `json:"instructions"`
	Tools        []ToolSchema `json:"tools"`
}

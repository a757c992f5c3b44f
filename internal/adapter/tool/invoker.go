package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/kaptinlin/jsonschema"
	"go.opentelemetry.io/otel/trace"

	"binna-crm/internal/domain"
	"binna-crm/internal/infra/tracer"
)

// successMessage is the fixed confirmation placed in every successful
// invocation record; per-call detail travels in the output payload.
const successMessage = "Successfully executed tool"

// Invoker implements domain.ToolInvoker over a Registry. Model-supplied
// arguments are filtered to the declared parameter set (the model is
// untrusted and may hallucinate fields) and validated against the generated
// schema before the bound function runs. Failures of any kind are folded
// into the record so the conversation can continue.
type Invoker struct {
	registry *Registry
	compiled map[string]*jsonschema.Schema
	logger   *slog.Logger
}

// NewInvoker compiles every registered schema and returns the invoker.
// A compile failure is a configuration error and prevents startup.
func NewInvoker(registry *Registry, logger *slog.Logger) (*Invoker, error) {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[string]*jsonschema.Schema, len(registry.Schemas()))
	for _, ts := range registry.Schemas() {
		schema, err := compiler.Compile(ts.Parameters)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %q: %w", ts.Name, err)
		}
		compiled[ts.Name] = schema
	}
	return &Invoker{registry: registry, compiled: compiled, logger: logger}, nil
}

// Invoke implements domain.ToolInvoker.
func (inv *Invoker) Invoke(ctx context.Context, userID int64, call domain.ToolCall) domain.InvocationRecord {
	ctx, span := tracer.StartSpan(ctx, "tool.invoke",
		trace.WithAttributes(tracer.StringAttr("tool.name", call.Name)),
	)
	defer span.End()

	fs, err := inv.registry.Resolve(call.Name)
	if err != nil {
		tracer.RecordError(span, err)
		inv.logger.Warn("unknown tool requested", "tool", call.Name, "user_id", userID)
		return failedRecord(call, fmt.Sprintf("unknown tool %q", call.Name))
	}

	var raw map[string]any
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &raw); err != nil {
			tracer.RecordError(span, err)
			return failedRecord(call, fmt.Sprintf("invalid arguments: %v", err))
		}
	}

	args := filterArgs(fs, raw)

	if schema, ok := inv.compiled[call.Name]; ok {
		if result := schema.Validate(map[string]any(args)); !result.IsValid() {
			msg := fmt.Sprintf("argument validation failed: %s", result.Error())
			tracer.RecordError(span, fmt.Errorf("%s", msg))
			return failedRecord(call, msg)
		}
	}

	inv.logger.Info("tool call", "tool", call.Name, "user_id", userID)

	result, callErr := fs.Call(ctx, userID, args)
	if callErr != nil {
		tracer.RecordError(span, callErr)
		inv.logger.Warn("tool call failed", "tool", call.Name, "error", callErr)
		return failedRecord(call, callErr.Error())
	}

	if isNilResult(result) {
		result = nil
	}

	tracer.SetOK(span)
	return domain.InvocationRecord{
		ToolCallID:   call.ID,
		FunctionName: call.Name,
		Success:      result != nil,
		Message:      successMessage,
		Output:       marshalOutput(result),
	}
}

// isNilResult reports whether a tool result is nil, including typed nil
// pointers returned by entity lookups that found nothing.
func isNilResult(result any) bool {
	if result == nil {
		return true
	}
	v := reflect.ValueOf(result)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// filterArgs keeps only keys matching declared, non-context parameters.
// Extra keys from the model are silently dropped.
func filterArgs(fs FuncSpec, raw map[string]any) Args {
	args := make(Args, len(raw))
	for _, p := range fs.Params {
		if p.ContextInjected {
			continue
		}
		if v, ok := raw[p.Name]; ok {
			args[p.Name] = v
		}
	}
	return args
}

// marshalOutput serializes a tool result, falling back to its string
// rendering for values that do not marshal cleanly.
func marshalOutput(result any) json.RawMessage {
	if result == nil {
		return nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		out, _ = json.Marshal(fmt.Sprintf("%v", result))
	}
	return out
}

func failedRecord(call domain.ToolCall, message string) domain.InvocationRecord {
	return domain.InvocationRecord{
		ToolCallID:   call.ID,
		FunctionName: call.Name,
		Success:      false,
		Message:      message,
	}
}

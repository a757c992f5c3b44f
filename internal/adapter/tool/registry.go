package tool

import (
	"encoding/json"
	"log/slog"
	"sort"

	"binna-crm/internal/domain"
)

// Registry holds the ordered set of tool function bindings, their
// precomputed schemas, and the desired assistant descriptor built from the
// full registered set. Schemas are computed once at Register time and
// treated as immutable afterwards.
type Registry struct {
	logger *slog.Logger
	names  []string
	funcs  map[string]FuncSpec
	desc   domain.AssistantDescriptor
}

// NewRegistry creates an empty registry for the given assistant identity.
func NewRegistry(model, name, description, instructions string, logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		funcs:  make(map[string]FuncSpec),
		desc: domain.AssistantDescriptor{
			Model:        model,
			Name:         name,
			Description:  description,
			Instructions: instructions,
		},
	}
}

// Register parses the function's schema and adds the binding. A parse
// failure here is a configuration error: the process must not start with an
// invalid tool set, so callers are expected to treat the error as fatal.
func (r *Registry) Register(fs FuncSpec) error {
	if _, exists := r.funcs[fs.Name]; exists {
		return domain.NewDomainError("Registry.Register", domain.ErrDuplicateTool, fs.Name)
	}

	schema, err := ParseSpec(fs)
	if err != nil {
		return err
	}

	r.names = append(r.names, fs.Name)
	r.funcs[fs.Name] = fs
	r.desc.Tools = append(r.desc.Tools, schema)
	return nil
}

// RegisterAll registers every spec, stopping at the first failure.
func (r *Registry) RegisterAll(specs ...FuncSpec) error {
	for _, fs := range specs {
		if err := r.Register(fs); err != nil {
			return err
		}
	}
	return nil
}

// Resolve looks up a tool function by exact name.
func (r *Registry) Resolve(name string) (FuncSpec, error) {
	fs, ok := r.funcs[name]
	if !ok {
		return FuncSpec{}, domain.NewDomainError("Registry.Resolve", domain.ErrToolNotFound, name)
	}
	return fs, nil
}

// Schemas returns the precomputed tool schemas in registration order.
func (r *Registry) Schemas() []domain.ToolSchema {
	return r.desc.Tools
}

// Descriptor returns the desired assistant configuration.
func (r *Registry) Descriptor() domain.AssistantDescriptor {
	return r.desc
}

// NeedsSync compares the desired descriptor against the live remote one:
// field-by-field on model, name, description and instructions, plus an
// order-insensitive deep comparison of the tool schemas via canonical
// serialization. Returns true if anything differs.
func (r *Registry) NeedsSync(remote *domain.AssistantDescriptor) bool {
	if remote == nil {
		return true
	}
	if remote.Model != r.desc.Model ||
		remote.Name != r.desc.Name ||
		remote.Description != r.desc.Description ||
		remote.Instructions != r.desc.Instructions {
		return true
	}
	same := canonicalToolSet(r.desc.Tools) == canonicalToolSet(remote.Tools)
	if !same && r.logger != nil {
		r.logger.Debug("assistant tool set differs from remote",
			"local", len(r.desc.Tools), "remote", len(remote.Tools))
	}
	return !same
}

// canonicalToolSet serializes a tool list into an order-insensitive
// canonical form: each schema's Parameters is re-marshalled through a
// generic value (which sorts object keys), and the list is sorted by name.
func canonicalToolSet(tools []domain.ToolSchema) string {
	entries := make([]string, 0, len(tools))
	for _, t := range tools {
		var params any
		// Unparseable remote schemas compare as their raw text.
		if err := json.Unmarshal(t.Parameters, &params); err != nil {
			params = string(t.Parameters)
		}
		entry, _ := json.Marshal(map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  params,
			"strict":      t.Strict,
		})
		entries = append(entries, string(entry))
	}
	sort.Strings(entries)
	out, _ := json.Marshal(entries)
	return string(out)
}

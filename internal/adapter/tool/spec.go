package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"binna-crm/internal/domain"
)

// ParamType is the semantic type tag of a tool function parameter.
type ParamType string

const (
	TypeString   ParamType = "str"
	TypeInt      ParamType = "int"
	TypeFloat    ParamType = "float"
	TypeBool     ParamType = "bool"
	TypeDateTime ParamType = "datetime"
)

// DateTimeLayout is the wire format for datetime-string parameters.
const DateTimeLayout = "2006-01-02T15:04:05"

// dateTimePattern is attached to datetime properties so the model emits
// parseable values.
const dateTimePattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`

// jsonTypeMap maps semantic type tags to JSON Schema types.
var jsonTypeMap = map[ParamType]string{
	TypeString:   "string",
	TypeInt:      "number",
	TypeFloat:    "number",
	TypeBool:     "boolean",
	TypeDateTime: "string",
}

// ParamSpec describes one declared parameter of a tool function.
// ContextInjected parameters are supplied by the invocation environment
// (store handle, caller identity) and never appear in the generated schema.
type ParamSpec struct {
	Name            string
	Type            ParamType
	Optional        bool
	ContextInjected bool
}

// Args is the filtered, decoded argument payload handed to a tool function.
type Args map[string]any

// CallFunc is the bound implementation of a tool function. userID is the
// caller's internal identity, injected from the authenticated request and
// never taken from model-supplied data.
type CallFunc func(ctx context.Context, userID int64, args Args) (any, error)

// FuncSpec is a declarative tool function descriptor: name, structured doc
// text, ordered parameter list, and the bound implementation. The doc format
// is a summary paragraph, an "Args:" block of "- name: text" lines, and a
// "Returns:" block with a single "- type: text" line.
type FuncSpec struct {
	Name   string
	Doc    string
	Params []ParamSpec
	Call   CallFunc
}

// ParseSpec turns a FuncSpec into the JSON-Schema-shaped tool description.
// Fails with domain.ErrMissingDoc when the doc text is empty and with
// domain.ErrUnresolvableType when a parameter carries an unknown type tag.
// Property and required order follow declaration order with context-injected
// parameters filtered out.
func ParseSpec(fs FuncSpec) (domain.ToolSchema, error) {
	if strings.TrimSpace(fs.Doc) == "" {
		return domain.ToolSchema{}, domain.NewDomainError("ParseSpec", domain.ErrMissingDoc, fs.Name)
	}

	doc := parseDoc(fs.Doc)

	var props bytes.Buffer
	var required []string
	strict := true

	for _, p := range fs.Params {
		if p.ContextInjected {
			continue
		}
		jsonType, ok := jsonTypeMap[p.Type]
		if !ok {
			return domain.ToolSchema{}, domain.NewDomainError(
				"ParseSpec", domain.ErrUnresolvableType,
				fmt.Sprintf("%s: parameter %q has type %q", fs.Name, p.Name, p.Type),
			)
		}

		if p.Optional {
			strict = false
		} else {
			required = append(required, p.Name)
		}

		if props.Len() > 0 {
			props.WriteByte(',')
		}
		writeProperty(&props, p, jsonType, doc.args[p.Name])
	}

	var schema bytes.Buffer
	schema.WriteString(`{"type":"object","properties":{`)
	schema.Write(props.Bytes())
	schema.WriteString(`},"required":`)
	writeStringArray(&schema, required)
	if strict {
		schema.WriteString(`,"additionalProperties":false`)
	}
	schema.WriteByte('}')

	return domain.ToolSchema{
		Name:        fs.Name,
		Description: doc.description(),
		Parameters:  json.RawMessage(schema.Bytes()),
		Strict:      strict,
	}, nil
}

func writeProperty(buf *bytes.Buffer, p ParamSpec, jsonType, description string) {
	name, _ := json.Marshal(p.Name)
	desc, _ := json.Marshal(description)
	buf.Write(name)
	buf.WriteString(`:{"type":"`)
	buf.WriteString(jsonType)
	buf.WriteString(`","description":`)
	buf.Write(desc)
	if p.Type == TypeDateTime {
		pattern, _ := json.Marshal(dateTimePattern)
		buf.WriteString(`,"pattern":`)
		buf.Write(pattern)
	}
	buf.WriteByte('}')
}

func writeStringArray(buf *bytes.Buffer, items []string) {
	buf.WriteByte('[')
	for i, s := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, _ := json.Marshal(s)
		buf.Write(v)
	}
	buf.WriteByte(']')
}

// docInfo is the parsed structure of a FuncSpec doc string.
type docInfo struct {
	summary string
	args    map[string]string
	returns string
}

// description renders the function-level description: the summary paragraph
// followed by the returns text phrased as a response hint for the model.
func (d docInfo) description() string {
	if d.returns == "" {
		return d.summary
	}
	return d.summary + "\n\nyou will receive as a response: " + d.returns
}

// parseDoc splits a doc string into summary, per-argument descriptions and
// the returns description. Undocumented arguments resolve to "".
func parseDoc(doc string) docInfo {
	info := docInfo{args: make(map[string]string)}

	const (
		inSummary = iota
		inArgs
		inReturns
	)
	section := inSummary

	var summary []string
	lastArg := ""

	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.EqualFold(line, "Args:"):
			section = inArgs
			continue
		case strings.EqualFold(line, "Returns:"):
			section = inReturns
			continue
		}

		switch section {
		case inSummary:
			if line != "" {
				summary = append(summary, line)
			}
		case inArgs:
			if name, text, ok := parseBullet(line); ok {
				info.args[name] = text
				lastArg = name
			} else if line != "" && lastArg != "" {
				// Continuation of the previous bullet.
				info.args[lastArg] += " " + line
			}
		case inReturns:
			if _, text, ok := parseBullet(line); ok {
				if info.returns == "" {
					info.returns = text
				}
			} else if line != "" && info.returns != "" {
				info.returns += " " + line
			}
		}
	}

	info.summary = strings.Join(summary, " ")
	return info
}

// parseBullet parses a "- name: free text" doc line.
func parseBullet(line string) (name, text string, ok bool) {
	if !strings.HasPrefix(line, "-") {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "-"))
	name, text, found := strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(text), true
}

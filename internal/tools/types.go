// Package tools defines the callable surface the orchestration loop exposes
// to the reasoning model: file and todo operations, reflection, web search,
// and sub-agent delegation.
//
// Every tool follows one invocation protocol: a declared name, a JSON-schema
// argument description the model sees, and a handler that receives the
// current session plus arguments and returns a Result. A Result carries the
// text fed back into the conversation and, optionally, a state delta (file
// writes, todo replacement) which the dispatcher applies together with the
// tool-result message as one step. There is no hidden context injection;
// state flows through the handler signature.
package tools

import (
	"context"

	"scour/internal/state"
)

// Property describes a single parameter for the JSON argument schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array").
	Items map[string]any `json:"items,omitempty"`
}

// Schema defines the JSON schema for tool arguments.
type Schema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// Result is what a handler hands back to the dispatcher. Text becomes the
// tool-result message; Files and Todos, when set, are applied to the session
// in the same dispatch step.
type Result struct {
	// Text is the tool output merged into the conversation.
	Text string

	// Files are virtual file writes to apply (upsert per key).
	Files map[string]string

	// Todos is the replacement ledger, applied only when ReplaceTodos is set
	// (an empty replacement list is valid).
	Todos        []state.Todo
	ReplaceTodos bool
}

// HandlerFunc executes a tool against the current session state.
type HandlerFunc func(ctx context.Context, session *state.Session, args map[string]any) (*Result, error)

// Tool is one entry in the dispatch surface.
type Tool struct {
	// Name is the unique identifier the model invokes the tool by.
	Name string

	// Description explains what the tool does; shown to the model.
	Description string

	// Schema declares the expected arguments.
	Schema Schema

	// Parallel marks the tool safe for concurrent dispatch when one acting
	// phase requests it several times. Only tools that never return state
	// deltas and do their own synchronization may set it.
	Parallel bool

	// Execute runs the tool.
	Execute HandlerFunc
}

// Validate checks that the tool definition is usable.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Definition converts the tool's schema into the wire form sent to the model.
func (t *Tool) Definition() Definition {
	schema := map[string]any{
		"type":       "object",
		"properties": t.Schema.Properties,
	}
	if len(t.Schema.Required) > 0 {
		schema["required"] = t.Schema.Required
	}
	return Definition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// StringArg extracts a string argument, returning "" when absent or mistyped.
func StringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// IntArg extracts an integer argument. JSON decoding yields float64 for
// numbers, so both forms are accepted. Returns fallback when absent.
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

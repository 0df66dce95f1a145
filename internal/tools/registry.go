package tools

import (
	"context"
	"fmt"
	"sort"

	"scour/internal/logging"
	"scour/internal/state"
)

// Registry holds the tools available to one orchestration loop and performs
// dispatch. Registries are built once at construction time and read-only
// afterwards; a run's loop never mutates its registry, so no lock is needed.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool. Returns an error if a tool with the same name
// already exists or the definition is invalid.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	logging.ToolsDebug("registered tool: %s", tool.Name)
	return nil
}

// MustRegister registers a tool and panics on error. Use for static tool
// registration at construction time.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.tools)
}

// Subset returns a new registry restricted to the named tools. Missing names
// are silently skipped; a sub-agent definition may list tools its runtime
// does not provide.
func (r *Registry) Subset(names []string) *Registry {
	sub := NewRegistry()
	for _, name := range names {
		if tool, ok := r.tools[name]; ok {
			sub.MustRegister(tool)
		}
	}
	return sub
}

// Definitions returns model-facing definitions for every tool, in
// registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch executes one tool call against the session: it validates the
// call, runs the handler, applies any state delta, and returns the
// tool-result message for the caller to append.
//
// Handler errors do not abort the run. They come back as error-flagged tool
// results so the model can read the failure and self-correct. An unknown
// tool name or a malformed argument is a conversation event, not a crash.
func (r *Registry) Dispatch(ctx context.Context, session *state.Session, call state.ToolCall) state.Message {
	result, err := r.execute(ctx, session, call)
	if err != nil {
		logging.Tools("tool %s failed: %v", call.Name, err)
		return state.Message{
			Role:       state.RoleTool,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    fmt.Sprintf("Error: %v", err),
			IsError:    true,
		}
	}

	for name, content := range result.Files {
		session.WriteFile(name, content)
	}
	if result.ReplaceTodos {
		if err := session.WriteTodos(result.Todos); err != nil {
			return state.Message{
				Role:       state.RoleTool,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Content:    fmt.Sprintf("Error: %v", err),
				IsError:    true,
			}
		}
	}

	logging.ToolsDebug("tool %s completed: %d chars result", call.Name, len(result.Text))
	return state.Message{
		Role:       state.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    result.Text,
	}
}

func (r *Registry) execute(ctx context.Context, session *state.Session, call state.ToolCall) (*Result, error) {
	tool := r.Get(call.Name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	for _, required := range tool.Schema.Required {
		if _, ok := call.Args[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}

	logging.ToolsDebug("executing tool: %s", call.Name)
	result, err := tool.Execute(ctx, session, call.Args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	return result, nil
}

package builtin

import (
	"context"
	"fmt"
	"strings"

	"scour/internal/state"
	"scour/internal/tools"
)

// ReadTodosTool returns a tool that reads the full todo ledger.
func ReadTodosTool() *tools.Tool {
	return &tools.Tool{
		Name:        "read_todos",
		Description: "Read the current TODO list",
		Schema: tools.Schema{
			Properties: map[string]tools.Property{},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			todos := session.ReadTodos()
			if len(todos) == 0 {
				return &tools.Result{Text: "No todos."}, nil
			}
			var sb strings.Builder
			for i, todo := range todos {
				fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, todo.Status, todo.Description)
			}
			return &tools.Result{Text: strings.TrimRight(sb.String(), "\n")}, nil
		},
	}
}

// WriteTodosTool returns a tool that replaces the whole todo ledger. There
// is no partial update: the model rewrites the full list every time.
func WriteTodosTool() *tools.Tool {
	return &tools.Tool{
		Name:        "write_todos",
		Description: "Replace the TODO list with a new one. Always pass the complete list; there is no partial update.",
		Schema: tools.Schema{
			Required: []string{"todos"},
			Properties: map[string]tools.Property{
				"todos": {
					Type:        "array",
					Description: "The complete TODO list. Each item has a description and a status (pending, in_progress, or completed).",
					Items: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"description": map[string]any{"type": "string"},
							"status": map[string]any{
								"type": "string",
								"enum": []string{"pending", "in_progress", "completed"},
							},
						},
						"required": []string{"description", "status"},
					},
				},
			},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			todos, err := parseTodos(args["todos"])
			if err != nil {
				return nil, err
			}
			return &tools.Result{
				Text:         fmt.Sprintf("Updated todo list to %d item(s)", len(todos)),
				Todos:        todos,
				ReplaceTodos: true,
			}, nil
		},
	}
}

// parseTodos converts the wire form (a JSON array of objects) into ledger
// entries. Status validation happens in the session on write.
func parseTodos(raw any) ([]state.Todo, error) {
	items, ok := raw.([]any)
	if !ok {
		// Allow the already-typed form used by internal callers and tests.
		if typed, ok := raw.([]state.Todo); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("todos must be an array, got %T", raw)
	}

	todos := make([]state.Todo, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("todo %d must be an object, got %T", i, item)
		}
		description, _ := obj["description"].(string)
		status, _ := obj["status"].(string)
		if description == "" {
			return nil, fmt.Errorf("todo %d has no description", i)
		}
		todos = append(todos, state.Todo{
			Description: description,
			Status:      state.TodoStatus(status),
		})
	}
	return todos, nil
}

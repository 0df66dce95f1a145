package state

import "fmt"

// TodoStatus is the three-value lifecycle of a todo item.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// Valid reports whether the status is one of the three allowed values.
func (ts TodoStatus) Valid() bool {
	switch ts {
	case TodoPending, TodoInProgress, TodoCompleted:
		return true
	}
	return false
}

// Todo is one task ledger entry. Order in the list is execution priority.
type Todo struct {
	Description string     `json:"description" yaml:"description"`
	Status      TodoStatus `json:"status" yaml:"status"`
}

// ReadTodos returns a copy of the ledger. An uninitialized ledger reads as
// an empty list, not an error.
func (s *Session) ReadTodos() []Todo {
	return append([]Todo(nil), s.todos...)
}

// WriteTodos replaces the whole ledger. There is deliberately no partial
// update: the model re-reads then rewrites the full list, which keeps a
// single-threaded run free of lost updates.
func (s *Session) WriteTodos(items []Todo) error {
	for i, item := range items {
		if !item.Status.Valid() {
			return fmt.Errorf("%w: %q (item %d)", ErrInvalidTodoStatus, item.Status, i)
		}
	}
	s.todos = append([]Todo(nil), items...)
	return nil
}

// Package state holds the mutable bundle threaded through one agent run:
// the conversation, the in-memory virtual file store, and the todo ledger.
//
// A Session is owned by exactly one orchestration loop. Sub-agents never
// share a live Session with their parent; they receive a fork (see Fork)
// and their file writes are merged back only after they terminate.
package state

// Role identifies who produced a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is one conversation turn. Assistant turns may carry tool calls;
// tool turns answer exactly one of them, referenced by ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// Session is the unit of mutable context for one orchestration run.
type Session struct {
	Messages []Message

	// files maps filename to content; fileOrder preserves insertion order
	// so ListFiles is stable across a run.
	files     map[string]string
	fileOrder []string

	todos []Todo
}

// New creates a Session seeded with a single user message.
func New(question string) *Session {
	s := Empty()
	s.Append(Message{Role: RoleUser, Content: question})
	return s
}

// Empty creates a Session with no messages, files, or todos.
func Empty() *Session {
	return &Session{
		files: make(map[string]string),
	}
}

// Append adds a message to the conversation.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// PendingToolCalls returns the tool calls from the latest assistant turn
// that have no matching tool-result message yet. The loop must not ask the
// model for another turn while any remain.
func (s *Session) PendingToolCalls() []ToolCall {
	lastAssistant := -1
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			lastAssistant = i
			break
		}
	}
	if lastAssistant < 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, msg := range s.Messages[lastAssistant+1:] {
		if msg.Role == RoleTool {
			answered[msg.ToolCallID] = true
		}
	}

	var pending []ToolCall
	for _, call := range s.Messages[lastAssistant].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}

// Fork returns a child Session with deep copies of this session's files and
// todos and an empty conversation. Parent writes after the fork are not
// visible to the child, and vice versa, until MergeFiles.
func (s *Session) Fork() *Session {
	child := Empty()
	child.fileOrder = append([]string(nil), s.fileOrder...)
	for name, content := range s.files {
		child.files[name] = content
	}
	child.todos = append([]Todo(nil), s.todos...)
	return child
}

// MergeFiles folds a child session's files into this one. Child entries win
// on key collision; keys new to this session keep the child's relative order.
func (s *Session) MergeFiles(child *Session) {
	for _, name := range child.fileOrder {
		s.WriteFile(name, child.files[name])
	}
}

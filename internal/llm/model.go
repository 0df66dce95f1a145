// Package llm abstracts the reasoning model behind a small interface so the
// orchestration loop, the summarizer, and the tests talk to the same shape.
// The production implementation is Gemini (see gemini.go); tests use
// scripted fakes.
package llm

import (
	"context"

	"scour/internal/state"
	"scour/internal/tools"
)

// ChatRequest is one reasoning turn: the full conversation so far plus the
// tool surface the model may call into.
type ChatRequest struct {
	System   string
	Messages []state.Message
	Tools    []tools.Definition
}

// CompleteRequest is a single-shot prompt with no tool surface, used for
// side tasks like content summarization. ForceJSON constrains the output to
// a JSON document when the backend supports it.
type CompleteRequest struct {
	System    string
	Prompt    string
	ForceJSON bool
}

// Turn is the model's answer to a ChatRequest. Text and ToolCalls may both
// be present; an empty ToolCalls slice means the model chose to answer.
type Turn struct {
	Text      string
	ToolCalls []state.ToolCall
}

// Model is the reasoning backend.
type Model interface {
	Chat(ctx context.Context, req ChatRequest) (*Turn, error)
	Complete(ctx context.Context, req CompleteRequest) (string, error)
}

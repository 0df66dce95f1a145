package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scour/internal/llm"
	"scour/internal/state"
	"scour/internal/tools"
)

// scribe is a minimal sub-agent definition for tests: it writes one note
// file and answers.
func scribeAgent() Definition {
	return Definition{
		Name:         "scribe",
		Description:  "Writes a note about the topic.",
		Instructions: "scribe instructions",
		Tools:        []string{"write_file", "think"},
	}
}

// routedModel answers differently for parent and child loops, keyed by
// system instructions.
func routedModel(parent, child func(req llm.ChatRequest) (*llm.Turn, error)) *fakeModel {
	return &fakeModel{ChatFunc: func(req llm.ChatRequest) (*llm.Turn, error) {
		if req.System == "parent instructions" {
			return parent(req)
		}
		return child(req)
	}}
}

func delegatorUnderTest(t *testing.T, model llm.Model, defs ...Definition) (*Delegator, *tools.Registry) {
	t.Helper()
	registry := builtinRegistry(t)
	d := NewDelegator(model, registry, 10, 3)
	for _, def := range defs {
		require.NoError(t, d.Register(def))
	}
	registry.MustRegister(d.Tool())
	return d, registry
}

func TestDelegateUnknownAgent(t *testing.T) {
	model := routedModel(
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "c1", Name: "delegate",
					Args: map[string]any{"agent_name": "ghost-agent", "topic": "anything"},
				}}}, nil
			}
			return &llm.Turn{Text: "continued without the ghost"}, nil
		},
		func(req llm.ChatRequest) (*llm.Turn, error) {
			t.Fatal("no sub-agent should run")
			return nil, nil
		},
	)
	_, registry := delegatorUnderTest(t, model, scribeAgent())
	loop := NewLoop(model, registry, "parent instructions", 0)

	session := state.New("question")
	answer, err := loop.Run(context.Background(), session)
	require.NoError(t, err, "an unknown agent must not crash the parent run")
	assert.Equal(t, "continued without the ghost", answer)

	result := session.Messages[2]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "unknown agent")
	assert.Contains(t, result.Content, "ghost-agent")
}

func TestDelegateMergesChildFiles(t *testing.T) {
	model := routedModel(
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "c1", Name: "delegate",
					Args: map[string]any{"agent_name": "scribe", "topic": "take notes"},
				}}}, nil
			}
			return &llm.Turn{Text: "done"}, nil
		},
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				assert.Equal(t, "take notes", req.Messages[0].Content, "child seeded with the topic")
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "w1", Name: "write_file",
					Args: map[string]any{"file_path": "notes.md", "content": "from the child"},
				}}}, nil
			}
			return &llm.Turn{Text: "notes written"}, nil
		},
	)
	_, registry := delegatorUnderTest(t, model, scribeAgent())
	loop := NewLoop(model, registry, "parent instructions", 0)

	session := state.New("question")
	session.WriteFile("parent.md", "already here")

	_, err := loop.Run(context.Background(), session)
	require.NoError(t, err)

	// Child answer came back as the tool result; child files merged.
	assert.Equal(t, "notes written", session.Messages[2].Content)
	content, err := session.ReadFile("notes.md")
	require.NoError(t, err)
	assert.Equal(t, "from the child", content)

	content, err = session.ReadFile("parent.md")
	require.NoError(t, err)
	assert.Equal(t, "already here", content)
}

func TestDelegateChildToolSubset(t *testing.T) {
	model := routedModel(
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "c1", Name: "delegate",
					Args: map[string]any{"agent_name": "scribe", "topic": "t"},
				}}}, nil
			}
			return &llm.Turn{Text: "done"}, nil
		},
		func(req llm.ChatRequest) (*llm.Turn, error) {
			names := make([]string, 0, len(req.Tools))
			for _, def := range req.Tools {
				names = append(names, def.Name)
			}
			assert.ElementsMatch(t, []string{"write_file", "think"}, names)
			return &llm.Turn{Text: "checked"}, nil
		},
	)
	_, registry := delegatorUnderTest(t, model, scribeAgent())
	loop := NewLoop(model, registry, "parent instructions", 0)

	_, err := loop.Run(context.Background(), state.New("question"))
	require.NoError(t, err)
}

func TestDelegateChildCeilingIsNonFatal(t *testing.T) {
	model := routedModel(
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "c1", Name: "delegate",
					Args: map[string]any{"agent_name": "scribe", "topic": "t"},
				}}}, nil
			}
			return &llm.Turn{Text: "salvaged"}, nil
		},
		func(req llm.ChatRequest) (*llm.Turn, error) {
			// Child never answers, always reflects again.
			return &llm.Turn{ToolCalls: []state.ToolCall{{
				ID: fmt.Sprintf("t%d", len(req.Messages)), Name: "think",
				Args: map[string]any{"reflection": "more"},
			}}}, nil
		},
	)
	_, registry := delegatorUnderTest(t, model, scribeAgent())
	loop := NewLoop(model, registry, "parent instructions", 0)

	session := state.New("question")
	answer, err := loop.Run(context.Background(), session)
	require.NoError(t, err, "a child hitting its ceiling must not fail the parent")
	assert.Equal(t, "salvaged", answer)

	result := session.Messages[2]
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content, "iteration limit")
}

func TestParallelDelegation(t *testing.T) {
	var childMu sync.Mutex
	childTopics := make(map[string]bool)

	model := routedModel(
		func(req llm.ChatRequest) (*llm.Turn, error) {
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{
					{ID: "c1", Name: "delegate", Args: map[string]any{"agent_name": "scribe", "topic": "alpha"}},
					{ID: "c2", Name: "delegate", Args: map[string]any{"agent_name": "scribe", "topic": "beta"}},
				}}, nil
			}
			return &llm.Turn{Text: "combined"}, nil
		},
		func(req llm.ChatRequest) (*llm.Turn, error) {
			topic := req.Messages[0].Content
			childMu.Lock()
			childTopics[topic] = true
			childMu.Unlock()
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "w", Name: "write_file",
					Args: map[string]any{"file_path": topic + ".md", "content": topic},
				}}}, nil
			}
			return &llm.Turn{Text: "answer for " + topic}, nil
		},
	)
	_, registry := delegatorUnderTest(t, model, scribeAgent())
	loop := NewLoop(model, registry, "parent instructions", 0)

	session := state.New("question")
	answer, err := loop.Run(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "combined", answer)

	assert.True(t, childTopics["alpha"])
	assert.True(t, childTopics["beta"])

	// Results appended in request order regardless of completion order.
	assert.Equal(t, "c1", session.Messages[2].ToolCallID)
	assert.Equal(t, "answer for alpha", session.Messages[2].Content)
	assert.Equal(t, "c2", session.Messages[3].ToolCallID)

	// Both children's files merged into the parent.
	for _, name := range []string{"alpha.md", "beta.md"} {
		if _, err := session.ReadFile(name); err != nil {
			t.Errorf("missing merged file %s", name)
		}
	}
}

func TestNestedDelegationDoesNotBlockOnParentPermit(t *testing.T) {
	model := &fakeModel{ChatFunc: func(req llm.ChatRequest) (*llm.Turn, error) {
		switch req.System {
		case "parent instructions":
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "c1", Name: "delegate",
					Args: map[string]any{"agent_name": "planner", "topic": "plan the work"},
				}}}, nil
			}
			return &llm.Turn{Text: "planned"}, nil
		case "planner instructions":
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "n1", Name: "delegate",
					Args: map[string]any{"agent_name": "scribe", "topic": "write it down"},
				}}}, nil
			}
			return &llm.Turn{Text: "handed off"}, nil
		default:
			if len(req.Messages) == 1 {
				return &llm.Turn{ToolCalls: []state.ToolCall{{
					ID: "w1", Name: "write_file",
					Args: map[string]any{"file_path": "plan.md", "content": "nested"},
				}}}, nil
			}
			return &llm.Turn{Text: "written"}, nil
		}
	}}

	registry := builtinRegistry(t)
	d := NewDelegator(model, registry, 10, 1)
	require.NoError(t, d.Register(Definition{
		Name:         "planner",
		Description:  "Breaks a task down and hands the pieces off.",
		Instructions: "planner instructions",
		Tools:        []string{"delegate", "think"},
	}))
	require.NoError(t, d.Register(scribeAgent()))
	registry.MustRegister(d.Tool())
	loop := NewLoop(model, registry, "parent instructions", 0)

	// A bound of 1 with a delegating child deadlocks if the levels share a
	// semaphore; the deadline turns that into a test failure.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session := state.New("question")
	answer, err := loop.Run(ctx, session)
	require.NoError(t, err, "a delegating child must not wait on the permit its parent holds")
	assert.Equal(t, "planned", answer)

	content, err := session.ReadFile("plan.md")
	require.NoError(t, err)
	assert.Equal(t, "nested", content)
}

// gateModel tracks how many children are inside Chat at once. Unlike
// fakeModel it takes no lock, so concurrent children really overlap.
type gateModel struct {
	parent   func(req llm.ChatRequest) (*llm.Turn, error)
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (m *gateModel) Chat(ctx context.Context, req llm.ChatRequest) (*llm.Turn, error) {
	if req.System == "parent instructions" {
		return m.parent(req)
	}

	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return &llm.Turn{Text: "answer for " + req.Messages[0].Content}, nil
}

func (m *gateModel) Complete(ctx context.Context, req llm.CompleteRequest) (string, error) {
	return "", errors.New("not used")
}

func TestDelegationConcurrencyBound(t *testing.T) {
	const bound = 2
	const delegations = 5

	model := &gateModel{parent: func(req llm.ChatRequest) (*llm.Turn, error) {
		if len(req.Messages) == 1 {
			calls := make([]state.ToolCall, delegations)
			for i := range calls {
				calls[i] = state.ToolCall{
					ID: fmt.Sprintf("c%d", i), Name: "delegate",
					Args: map[string]any{"agent_name": "scribe", "topic": fmt.Sprintf("topic-%d", i)},
				}
			}
			return &llm.Turn{ToolCalls: calls}, nil
		}
		return &llm.Turn{Text: "gathered"}, nil
	}}

	registry := builtinRegistry(t)
	d := NewDelegator(model, registry, 10, bound)
	require.NoError(t, d.Register(scribeAgent()))
	registry.MustRegister(d.Tool())
	loop := NewLoop(model, registry, "parent instructions", 0)

	session := state.New("question")
	answer, err := loop.Run(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "gathered", answer)

	assert.LessOrEqual(t, model.peak.Load(), int64(bound), "no more than the bound may run at once")

	// Every delegation still completed, in request order.
	for i := 0; i < delegations; i++ {
		msg := session.Messages[2+i]
		assert.Equal(t, fmt.Sprintf("c%d", i), msg.ToolCallID)
		assert.Equal(t, fmt.Sprintf("answer for topic-%d", i), msg.Content)
	}
}

func TestDelegatorToolDescriptionListsAgents(t *testing.T) {
	model := &fakeModel{}
	d, _ := delegatorUnderTest(t, model, scribeAgent())

	tool := d.Tool()
	assert.True(t, tool.Parallel)
	assert.True(t, strings.Contains(tool.Description, "scribe: Writes a note about the topic."))
}

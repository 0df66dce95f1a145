package agent

import (
	"context"
	"fmt"
	"sync"

	"scour/internal/llm"
	"scour/internal/logging"
	"scour/internal/state"
	"scour/internal/tools"
)

// DefaultRecursionLimit bounds reasoning/acting round trips per loop.
const DefaultRecursionLimit = 15

// Loop is the orchestration state machine: Reasoning presents the
// conversation to the model, Acting dispatches the tool calls it requested,
// and the cycle repeats until a text-only turn terminates the run or the
// recursion ceiling fails it.
type Loop struct {
	model          llm.Model
	registry       *tools.Registry
	instructions   string
	recursionLimit int
}

// NewLoop builds a loop. A non-positive limit uses DefaultRecursionLimit.
func NewLoop(model llm.Model, registry *tools.Registry, instructions string, recursionLimit int) *Loop {
	if recursionLimit <= 0 {
		recursionLimit = DefaultRecursionLimit
	}
	return &Loop{
		model:          model,
		registry:       registry,
		instructions:   instructions,
		recursionLimit: recursionLimit,
	}
}

// Run drives the session to termination and returns the final answer.
//
// A model invocation error is fatal to this loop instance and comes back
// wrapped; the ceiling comes back as ErrRecursionLimit after exactly
// recursionLimit model round trips. In both cases the session keeps
// whatever messages, files, and todos accumulated before the failure.
func (l *Loop) Run(ctx context.Context, session *state.Session) (string, error) {
	for round := 1; round <= l.recursionLimit; round++ {
		logging.AgentDebug("reasoning round %d/%d (%d messages)", round, l.recursionLimit, len(session.Messages))

		turn, err := l.model.Chat(ctx, llm.ChatRequest{
			System:   l.instructions,
			Messages: session.Messages,
			Tools:    l.registry.Definitions(),
		})
		if err != nil {
			return "", fmt.Errorf("reasoning failed on round %d: %w", round, err)
		}

		session.Append(state.Message{
			Role:      state.RoleAssistant,
			Content:   turn.Text,
			ToolCalls: turn.ToolCalls,
		})

		if len(turn.ToolCalls) == 0 {
			logging.Agent("run terminated after %d round(s)", round)
			return turn.Text, nil
		}

		l.act(ctx, session)
	}

	logging.Agent("run failed: ceiling of %d rounds reached", l.recursionLimit)
	return "", fmt.Errorf("%w: %d rounds", ErrRecursionLimit, l.recursionLimit)
}

// act dispatches every pending call from the latest assistant turn. Calls
// run in request order; when the turn consists of several parallel-safe
// calls (sub-agent delegations), they run concurrently and their results
// are appended in request order afterwards.
func (l *Loop) act(ctx context.Context, session *state.Session) {
	calls := session.PendingToolCalls()

	if len(calls) > 1 && l.allParallel(calls) {
		results := make([]state.Message, len(calls))
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func(i int, call state.ToolCall) {
				defer wg.Done()
				results[i] = l.registry.Dispatch(ctx, session, call)
			}(i, call)
		}
		wg.Wait()
		for _, msg := range results {
			session.Append(msg)
		}
		return
	}

	for _, call := range calls {
		session.Append(l.registry.Dispatch(ctx, session, call))
	}
}

func (l *Loop) allParallel(calls []state.ToolCall) bool {
	for _, call := range calls {
		tool := l.registry.Get(call.Name)
		if tool == nil || !tool.Parallel {
			return false
		}
	}
	return true
}

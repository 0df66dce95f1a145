package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"scour/internal/llm"
	"scour/internal/logging"
	"scour/internal/state"
	"scour/internal/tools"
)

// DefaultMaxConcurrentResearchUnits bounds sub-agents in flight per parent.
const DefaultMaxConcurrentResearchUnits = 3

// Delegator runs registered sub-agents as nested orchestration loops and
// folds each result back into the parent conversation as one tool result.
//
// The concurrency bound is enforced here, not merely advertised: a weighted
// semaphore admits at most maxConcurrent children at a time, and merges into
// the parent file store are serialized under a mutex so concurrently
// finishing children never lose writes.
//
// The bound is per delegation level. A sub-agent allowed to delegate gets a
// delegator of its own with a fresh semaphore, so a nested delegation never
// waits on the permit its ancestor is holding.
type Delegator struct {
	model          llm.Model
	registry       *tools.Registry
	recursionLimit int
	maxConcurrent  int64

	agents map[string]Definition
	order  []string

	sem *semaphore.Weighted

	// mu guards parent session forks and merge-backs.
	mu sync.Mutex
}

// NewDelegator creates a delegator over the full tool surface; each child
// sees only the subset its definition allows.
func NewDelegator(model llm.Model, registry *tools.Registry, recursionLimit int, maxConcurrent int64) *Delegator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentResearchUnits
	}
	return &Delegator{
		model:          model,
		registry:       registry,
		recursionLimit: recursionLimit,
		maxConcurrent:  maxConcurrent,
		agents:         make(map[string]Definition),
		sem:            semaphore.NewWeighted(maxConcurrent),
	}
}

// nested returns a delegator for one level down: same agents and tool
// surface, but its own semaphore so the child's delegations are bounded
// independently of the permits held above it.
func (d *Delegator) nested() *Delegator {
	return &Delegator{
		model:          d.model,
		registry:       d.registry,
		recursionLimit: d.recursionLimit,
		maxConcurrent:  d.maxConcurrent,
		agents:         d.agents,
		order:          d.order,
		sem:            semaphore.NewWeighted(d.maxConcurrent),
	}
}

// childRegistry builds the tool subset a sub-agent runs with. A definition
// listing delegate gets a nested delegator's tool instead of this one's, so
// each level acquires from its own semaphore.
func (d *Delegator) childRegistry(def Definition) *tools.Registry {
	sub := tools.NewRegistry()
	for _, name := range def.Tools {
		if name == "delegate" {
			sub.MustRegister(d.nested().Tool())
			continue
		}
		if tool := d.registry.Get(name); tool != nil {
			sub.MustRegister(tool)
		}
	}
	return sub
}

// Register adds a sub-agent definition.
func (d *Delegator) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := d.agents[def.Name]; exists {
		return fmt.Errorf("sub-agent %q already registered", def.Name)
	}
	d.agents[def.Name] = def
	d.order = append(d.order, def.Name)
	logging.DelegateDebug("registered sub-agent: %s", def.Name)
	return nil
}

// Tool returns the delegate tool. Its description enumerates the registered
// agents so the model knows what it can hand off, and what to.
func (d *Delegator) Tool() *tools.Tool {
	var sb strings.Builder
	sb.WriteString("Delegate a task to a specialized sub-agent. The sub-agent works in isolation ")
	sb.WriteString("and returns a single result; its research files become available to you afterwards. ")
	sb.WriteString("Available agents:\n")
	for _, name := range d.order {
		fmt.Fprintf(&sb, "- %s: %s\n", name, d.agents[name].Description)
	}

	return &tools.Tool{
		Name:        "delegate",
		Description: sb.String(),
		Parallel:    true,
		Schema: tools.Schema{
			Required: []string{"agent_name", "topic"},
			Properties: map[string]tools.Property{
				"agent_name": {
					Type:        "string",
					Description: "Name of the registered sub-agent to run",
				},
				"topic": {
					Type:        "string",
					Description: "The single task or research topic for the sub-agent",
				},
			},
		},
		Execute: d.delegate,
	}
}

// delegate runs one sub-agent against a fork of the parent session.
func (d *Delegator) delegate(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
	agentName := tools.StringArg(args, "agent_name")
	topic := tools.StringArg(args, "topic")

	def, ok := d.agents[agentName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, agentName)
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("delegation cancelled: %w", err)
	}
	defer d.sem.Release(1)

	logging.Delegate("delegating to %s: %s", agentName, topic)

	d.mu.Lock()
	child := session.Fork()
	d.mu.Unlock()
	child.Append(state.Message{Role: state.RoleUser, Content: topic})

	loop := NewLoop(d.model, d.childRegistry(def), def.Instructions, d.recursionLimit)
	answer, err := loop.Run(ctx, child)

	// Merge whatever the child produced, answer or not. Partial artifacts
	// are still useful to the parent.
	d.mu.Lock()
	session.MergeFiles(child)
	d.mu.Unlock()

	switch {
	case errors.Is(err, ErrRecursionLimit):
		logging.Delegate("sub-agent %s hit its recursion limit", agentName)
		return &tools.Result{
			Text: fmt.Sprintf("Sub-agent '%s' reached its iteration limit before finishing. Any findings it saved are in the files.", agentName),
		}, nil
	case err != nil:
		return nil, fmt.Errorf("sub-agent %s failed: %w", agentName, err)
	}

	logging.Delegate("sub-agent %s finished (%d messages)", agentName, len(child.Messages))
	return &tools.Result{Text: answer}, nil
}

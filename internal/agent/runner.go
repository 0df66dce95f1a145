package agent

import (
	"context"

	"scour/internal/llm"
	"scour/internal/logging"
	"scour/internal/research"
	"scour/internal/state"
	"scour/internal/tools"
	"scour/internal/tools/builtin"
)

// RunnerConfig carries the run bounds and any extra sub-agents beyond the
// bundled researcher.
type RunnerConfig struct {
	RecursionLimit             int
	MaxConcurrentResearchUnits int
	MaxResearcherIterations    int
	ExtraAgents                []Definition
}

// RunResult is what a run hands back to the caller, answer or not. Files
// and Todos always reflect the final session state, so artifacts gathered
// before a failure remain inspectable.
type RunResult struct {
	Answer       string            `json:"answer"`
	Question     string            `json:"question"`
	MessageCount int               `json:"message_count"`
	Files        map[string]string `json:"files"`
	Todos        []state.Todo      `json:"todos"`
}

// Runner is the programmatic entry point: it owns the assembled tool
// surface and starts a fresh session per question.
type Runner struct {
	model          llm.Model
	registry       *tools.Registry
	instructions   string
	recursionLimit int
}

// NewRunner assembles the full agent: builtin tools, the search tool over
// the given pipeline, and the delegate tool with the bundled research agent
// plus any extras.
func NewRunner(model llm.Model, pipeline *research.Pipeline, cfg RunnerConfig) (*Runner, error) {
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = DefaultRecursionLimit
	}
	if cfg.MaxConcurrentResearchUnits <= 0 {
		cfg.MaxConcurrentResearchUnits = DefaultMaxConcurrentResearchUnits
	}
	if cfg.MaxResearcherIterations <= 0 {
		cfg.MaxResearcherIterations = 3
	}

	registry := tools.NewRegistry()
	builtin.RegisterAll(registry)
	registry.MustRegister(research.SearchTool(pipeline))

	delegator := NewDelegator(model, registry, cfg.RecursionLimit, int64(cfg.MaxConcurrentResearchUnits))
	if err := delegator.Register(ResearchAgent()); err != nil {
		return nil, err
	}
	for _, def := range cfg.ExtraAgents {
		if err := delegator.Register(def); err != nil {
			return nil, err
		}
	}
	registry.MustRegister(delegator.Tool())

	return &Runner{
		model:          model,
		registry:       registry,
		instructions:   SystemInstructions(cfg.MaxConcurrentResearchUnits, cfg.MaxResearcherIterations),
		recursionLimit: cfg.RecursionLimit,
	}, nil
}

// Run answers one question. On failure the returned result still carries
// the question, message count, and any files and todos the run accumulated;
// the error explains the cause.
func (r *Runner) Run(ctx context.Context, question string) (*RunResult, error) {
	logging.Agent("processing question: %s", question)

	session := state.New(question)
	loop := NewLoop(r.model, r.registry, r.instructions, r.recursionLimit)
	answer, err := loop.Run(ctx, session)

	result := &RunResult{
		Answer:       answer,
		Question:     question,
		MessageCount: len(session.Messages),
		Files:        session.Files(),
		Todos:        session.ReadTodos(),
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

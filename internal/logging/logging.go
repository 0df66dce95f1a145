// Package logging provides categorized logging for scour, backed by zap.
// Each subsystem logs through its own named logger so a run can be traced
// per concern (agent loop, tool dispatch, research pipeline, model calls).
// Logging is silent at Info level by default; --verbose enables Debug.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	// CategoryAgent covers the orchestration loop and run lifecycle.
	CategoryAgent Category = "agent"

	// CategoryDelegate covers sub-agent spawning and merge-back.
	CategoryDelegate Category = "delegate"

	// CategoryTools covers tool registration and dispatch.
	CategoryTools Category = "tools"

	// CategoryResearch covers the search/fetch/summarize pipeline.
	CategoryResearch Category = "research"

	// CategoryLLM covers model invocations.
	CategoryLLM Category = "llm"

	// CategoryState covers virtual file and todo mutations.
	CategoryState Category = "state"

	// CategoryConfig covers configuration loading.
	CategoryConfig Category = "config"
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	sugared = map[Category]*zap.SugaredLogger{}
)

// Init installs the process-wide logger. Call once from the CLI entry point
// before any subsystem logs. verbose enables Debug-level output.
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger replaces the root logger. Tests use this to capture output.
func SetLogger(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = logger
	sugared = map[Category]*zap.SugaredLogger{}
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Get returns the logger for a category.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := sugared[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := sugared[category]; ok {
		return l
	}
	l := root.Named(string(category)).Sugar()
	sugared[category] = l
	return l
}

// Agent logs at Info level in the agent category.
func Agent(format string, args ...any) { Get(CategoryAgent).Infof(format, args...) }

// AgentDebug logs at Debug level in the agent category.
func AgentDebug(format string, args ...any) { Get(CategoryAgent).Debugf(format, args...) }

// Delegate logs at Info level in the delegate category.
func Delegate(format string, args ...any) { Get(CategoryDelegate).Infof(format, args...) }

// DelegateDebug logs at Debug level in the delegate category.
func DelegateDebug(format string, args ...any) { Get(CategoryDelegate).Debugf(format, args...) }

// Tools logs at Info level in the tools category.
func Tools(format string, args ...any) { Get(CategoryTools).Infof(format, args...) }

// ToolsDebug logs at Debug level in the tools category.
func ToolsDebug(format string, args ...any) { Get(CategoryTools).Debugf(format, args...) }

// Research logs at Info level in the research category.
func Research(format string, args ...any) { Get(CategoryResearch).Infof(format, args...) }

// ResearchDebug logs at Debug level in the research category.
func ResearchDebug(format string, args ...any) { Get(CategoryResearch).Debugf(format, args...) }

// LLM logs at Info level in the llm category.
func LLM(format string, args ...any) { Get(CategoryLLM).Infof(format, args...) }

// LLMDebug logs at Debug level in the llm category.
func LLMDebug(format string, args ...any) { Get(CategoryLLM).Debugf(format, args...) }

// State logs at Info level in the state category.
func State(format string, args ...any) { Get(CategoryState).Infof(format, args...) }

// StateDebug logs at Debug level in the state category.
func StateDebug(format string, args ...any) { Get(CategoryState).Debugf(format, args...) }

// Config logs at Info level in the config category.
func Config(format string, args ...any) { Get(CategoryConfig).Infof(format, args...) }

// ConfigDebug logs at Debug level in the config category.
func ConfigDebug(format string, args ...any) { Get(CategoryConfig).Debugf(format, args...) }

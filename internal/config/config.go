// Package config loads run configuration: .env files, environment
// variables, an optional YAML config file, and the bounded limits the agent
// runs under. Precedence: defaults < YAML file < environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"scour/internal/agent"
	"scour/internal/logging"
)

// Defaults for the run bounds.
const (
	DefaultRecursionLimit             = 15
	DefaultMaxConcurrentResearchUnits = 3
	DefaultMaxResearcherIterations    = 3
	DefaultFetchTimeout               = 30 * time.Second
)

// Config holds all scour configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Limits bound the orchestration run.
	Limits LimitsConfig `yaml:"limits"`

	// AgentsFile optionally points at extra sub-agent definitions.
	AgentsFile string `yaml:"agents_file"`
}

// LLMConfig configures the reasoning model.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LimitsConfig bounds the orchestration run. FetchTimeout is a Go duration
// string ("30s", "1m") since yaml.v3 has no native duration decoding.
type LimitsConfig struct {
	RecursionLimit             int    `yaml:"recursion_limit"`
	MaxConcurrentResearchUnits int    `yaml:"max_concurrent_research_units"`
	MaxResearcherIterations    int    `yaml:"max_researcher_iterations"`
	FetchTimeout               string `yaml:"fetch_timeout"`
}

// FetchTimeout parses the configured fetch timeout, falling back to the
// default on absence or a malformed value.
func (c *Config) FetchTimeout() time.Duration {
	if c.Limits.FetchTimeout == "" {
		return DefaultFetchTimeout
	}
	d, err := time.ParseDuration(c.Limits.FetchTimeout)
	if err != nil || d <= 0 {
		logging.Config("ignoring malformed fetch_timeout %q", c.Limits.FetchTimeout)
		return DefaultFetchTimeout
	}
	return d
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			RecursionLimit:             DefaultRecursionLimit,
			MaxConcurrentResearchUnits: DefaultMaxConcurrentResearchUnits,
			MaxResearcherIterations:    DefaultMaxResearcherIterations,
		},
	}
}

// Load builds the configuration. A missing .env or config file is not an
// error; a malformed config file is.
func Load(path string) (*Config, error) {
	// .env values become environment variables without overriding the
	// existing environment.
	if err := godotenv.Load(); err == nil {
		logging.ConfigDebug("loaded .env")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logging.ConfigDebug("loaded config file: %s", path)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("SCOUR_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := envInt("SCOUR_RECURSION_LIMIT"); v > 0 {
		c.Limits.RecursionLimit = v
	}
	if v := envInt("SCOUR_MAX_CONCURRENT_RESEARCH_UNITS"); v > 0 {
		c.Limits.MaxConcurrentResearchUnits = v
	}
	if v := envInt("SCOUR_MAX_RESEARCHER_ITERATIONS"); v > 0 {
		c.Limits.MaxResearcherIterations = v
	}
	if v := os.Getenv("SCOUR_FETCH_TIMEOUT"); v != "" {
		c.Limits.FetchTimeout = v
	}
	if v := os.Getenv("SCOUR_AGENTS_FILE"); v != "" {
		c.AgentsFile = v
	}
}

// applyDefaults backfills zero values left by a sparse config file.
func (c *Config) applyDefaults() {
	if c.Limits.RecursionLimit <= 0 {
		c.Limits.RecursionLimit = DefaultRecursionLimit
	}
	if c.Limits.MaxConcurrentResearchUnits <= 0 {
		c.Limits.MaxConcurrentResearchUnits = DefaultMaxConcurrentResearchUnits
	}
	if c.Limits.MaxResearcherIterations <= 0 {
		c.Limits.MaxResearcherIterations = DefaultMaxResearcherIterations
	}
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Config("ignoring non-integer %s=%q", key, v)
		return 0
	}
	return n
}

// LoadAgents reads extra sub-agent definitions from a YAML file:
//
//	agents:
//	  - name: fact-checker
//	    description: Verifies claims against sources.
//	    instructions: ...
//	    tools: [internet_search, think]
func LoadAgents(path string) ([]agent.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents file: %w", err)
	}

	var doc struct {
		Agents []agent.Definition `yaml:"agents"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse agents file: %w", err)
	}

	for _, def := range doc.Agents {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	logging.Config("loaded %d sub-agent definition(s) from %s", len(doc.Agents), path)
	return doc.Agents, nil
}

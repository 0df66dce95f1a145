// Command scour runs the deep-research agent: it takes a question, searches
// the web through bounded sub-agents, and prints the final answer.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scour/internal/agent"
	"scour/internal/config"
	"scour/internal/llm"
	"scour/internal/logging"
	"scour/internal/research"
)

var (
	// Global flags
	verbose    bool
	apiKey     string
	model      string
	configFile string
	agentsFile string
)

var rootCmd = &cobra.Command{
	Use:   "scour [question]",
	Short: "scour - autonomous deep-research agent",
	Long: `scour answers questions by researching the web.

It plans with a TODO list, delegates topics to isolated research sub-agents,
stores findings in an in-memory file store, and converges on an answer within
bounded iteration limits. Run with a question argument, or without one for an
interactive prompt.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model name (default "+llm.DefaultModel+")")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&agentsFile, "agents", "", "path to a YAML file of extra sub-agent definitions")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if model != "" {
		cfg.LLM.Model = model
	}
	if agentsFile != "" {
		cfg.AgentsFile = agentsFile
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		question, err = promptQuestion()
		if err != nil {
			return err
		}
	}
	if question == "" {
		return errors.New("no question given")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}

	pipeline := research.NewPipeline(
		research.NewDuckDuckGo(nil),
		research.NewFetcher(nil, cfg.FetchTimeout()),
		research.NewSummarizer(gemini),
	)

	var extraAgents []agent.Definition
	if cfg.AgentsFile != "" {
		extraAgents, err = config.LoadAgents(cfg.AgentsFile)
		if err != nil {
			return err
		}
	}

	runner, err := agent.NewRunner(gemini, pipeline, agent.RunnerConfig{
		RecursionLimit:             cfg.Limits.RecursionLimit,
		MaxConcurrentResearchUnits: cfg.Limits.MaxConcurrentResearchUnits,
		MaxResearcherIterations:    cfg.Limits.MaxResearcherIterations,
		ExtraAgents:                extraAgents,
	})
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, question)
	if err != nil {
		// Partial findings survive a failed run.
		if result != nil && len(result.Files) > 0 {
			fmt.Fprintf(os.Stderr, "Run failed after collecting %d file(s): %v\n", len(result.Files), err)
			printFiles(result.Files)
			return err
		}
		return err
	}

	fmt.Println(result.Answer)
	if verbose {
		fmt.Fprintf(os.Stderr, "\n[%d messages, %d files, %d todos]\n",
			result.MessageCount, len(result.Files), len(result.Todos))
	}
	return nil
}

func promptQuestion() (string, error) {
	fmt.Print("Enter your question: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read question: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printFiles(files map[string]string) {
	fmt.Fprintln(os.Stderr, "Collected files:")
	for name := range files {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scour/internal/llm"
	"scour/internal/logging"
)

// fallbackChars bounds the fallback summary length.
const fallbackChars = 1000

const summarizeSystem = `You are summarizing a webpage fetched during research.
Produce a JSON object with exactly two fields:
  "filename": a short descriptive markdown filename for storing this page (e.g. "quantum_computing_overview.md")
  "summary": the key learnings from the page, dense and factual

Respond with JSON only.`

// Summary is the structured output of the summarization collaborator.
type Summary struct {
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
}

// Summarizer condenses fetched page content into a Summary.
type Summarizer struct {
	model llm.Model
}

// NewSummarizer creates a Summarizer backed by the given model.
func NewSummarizer(model llm.Model) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize asks the model for a {filename, summary} pair. It never fails:
// any model error or malformed output falls back deterministically to a
// generic filename plus a truncated excerpt. This is the pipeline's terminal
// safety net.
func (s *Summarizer) Summarize(ctx context.Context, content string) Summary {
	prompt := fmt.Sprintf("Webpage content:\n\n%s\n\nDate: %s", content, Today())

	out, err := s.model.Complete(ctx, llm.CompleteRequest{
		System:    summarizeSystem,
		Prompt:    prompt,
		ForceJSON: true,
	})
	if err != nil {
		logging.Research("summarization failed, using fallback: %v", err)
		return fallbackSummary(content)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &summary); err != nil || summary.Filename == "" || summary.Summary == "" {
		logging.Research("summarization returned malformed output, using fallback")
		return fallbackSummary(content)
	}
	return summary
}

func fallbackSummary(content string) Summary {
	if strings.TrimSpace(content) == "" {
		return Summary{Filename: "search_result.md", Summary: "No content could be extracted"}
	}
	excerpt := content
	if runes := []rune(content); len(runes) > fallbackChars {
		excerpt = string(runes[:fallbackChars]) + "..."
	}
	return Summary{Filename: "search_result.md", Summary: excerpt}
}

// Today formats the current date the way artifacts and prompts expect.
func Today() string {
	return time.Now().Format("Mon Jan 02, 2006")
}

package research

import (
	"context"
	"fmt"
	"strings"

	"scour/internal/state"
	"scour/internal/tools"
)

// SearchTool wraps the pipeline as the internet_search tool. For each
// artifact it writes a full formatted document into the virtual file store
// and returns only a short digest, so the reasoning model never sees raw
// page content unless it explicitly reads the file.
func SearchTool(pipeline *Pipeline) *tools.Tool {
	return &tools.Tool{
		Name: "internet_search",
		Description: "Search the web and save detailed results to files while returning minimal context. " +
			"Full content is stored per result; read the files when you need detail.",
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {
					Type:        "string",
					Description: "The search query",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of results to return (default: 1)",
					Default:     1,
				},
				"topic": {
					Type:        "string",
					Description: "Topic filter for results (default: general)",
					Enum:        []any{"general", "news", "finance"},
					Default:     "general",
				},
			},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			query := tools.StringArg(args, "query")
			opts := SearchOptions{
				MaxResults: tools.IntArg(args, "max_results", 1),
				Topic:      tools.StringArg(args, "topic"),
			}

			artifacts, err := pipeline.Run(ctx, query, opts)
			if err != nil {
				// A provider failure is a research dead end, not a run
				// failure. The model reads this and tries another query.
				return &tools.Result{
					Text: fmt.Sprintf("Search failed for '%s': %v. Try another search.", query, err),
				}, nil
			}
			if len(artifacts) == 0 {
				return &tools.Result{Text: "No results found for: " + query}, nil
			}

			files := make(map[string]string, len(artifacts))
			savedFiles := make([]string, 0, len(artifacts))
			summaries := make([]string, 0, len(artifacts))

			for _, artifact := range artifacts {
				files[artifact.Filename] = formatArtifact(artifact, query)
				savedFiles = append(savedFiles, artifact.Filename)
				summaries = append(summaries, fmt.Sprintf("- %s: %s...", artifact.Filename, artifact.Summary))
			}

			digest := fmt.Sprintf("Found %d result(s) for '%s':\n\n%s\n\nFiles: %s\nUse read_file() to access full details when needed.",
				len(artifacts), query, strings.Join(summaries, "\n"), strings.Join(savedFiles, ", "))

			return &tools.Result{Text: digest, Files: files}, nil
		},
	}
}

// formatArtifact renders the stored document for one artifact.
func formatArtifact(artifact Artifact, query string) string {
	raw := artifact.RawContent
	if raw == "" {
		raw = "No raw content available"
	}
	return fmt.Sprintf(`# Search Result: %s

**URL:** %s
**Query:** %s
**Date:** %s

## Summary
%s

## Raw Content
%s
`, artifact.Title, artifact.URL, query, Today(), artifact.Summary, raw)
}

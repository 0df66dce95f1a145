package research

import (
	"context"
	"encoding/base64"
	"errors"
	"path"

	"github.com/google/uuid"

	"scour/internal/logging"
)

// Artifact is one processed search result, ready to be stored as a virtual
// file.
type Artifact struct {
	URL        string
	Title      string
	Summary    string
	Filename   string
	RawContent string
}

// Pipeline runs the fetch-summarize-store sequence for a query.
type Pipeline struct {
	provider   Provider
	fetcher    *Fetcher
	summarizer *Summarizer
}

// NewPipeline wires the three collaborators together.
func NewPipeline(provider Provider, fetcher *Fetcher, summarizer *Summarizer) *Pipeline {
	return &Pipeline{provider: provider, fetcher: fetcher, summarizer: summarizer}
}

// Run searches, then fetches and summarizes each result. Per-result failures
// never abort the run:
//
//   - 200 response: page converted to markdown and summarized
//   - non-200 response: URL_error placeholder with the provider snippet
//   - timeout or connection failure: connection_error placeholder
//
// Only a provider failure returns an error; with results in hand the caller
// always gets one artifact per result.
func (p *Pipeline) Run(ctx context.Context, query string, opts SearchOptions) ([]Artifact, error) {
	opts.IncludeRawContent = true
	results, err := p.provider.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(results))
	for _, result := range results {
		var summary Summary
		var raw string

		body, err := p.fetcher.Get(ctx, result.URL)
		var statusErr *StatusError
		switch {
		case err == nil:
			raw = HTMLToMarkdown(body)
			summary = p.summarizer.Summarize(ctx, raw)

		case errors.As(err, &statusErr):
			logging.ResearchDebug("fetch %s: %v", result.URL, err)
			raw = result.RawContent
			summary = Summary{
				Filename: "URL_error.md",
				Summary:  snippetOr(result.Content, "Error reading URL; try another search."),
			}

		default:
			logging.ResearchDebug("fetch %s: %v", result.URL, err)
			raw = result.RawContent
			summary = Summary{
				Filename: "connection_error.md",
				Summary:  snippetOr(result.Content, "Could not fetch URL (timeout/connection error). Try another search."),
			}
		}

		artifacts = append(artifacts, Artifact{
			URL:        result.URL,
			Title:      result.Title,
			Summary:    summary.Summary,
			Filename:   uniqueFilename(summary.Filename),
			RawContent: raw,
		})
	}

	logging.Research("pipeline produced %d artifact(s) for %q", len(artifacts), query)
	return artifacts, nil
}

func snippetOr(snippet, fallback string) string {
	if snippet != "" {
		return snippet
	}
	return fallback
}

// uniqueFilename inserts an 8-char random suffix before the extension so
// artifacts from the same base name never collide within a run.
func uniqueFilename(filename string) string {
	id := uuid.New()
	uid := base64.RawURLEncoding.EncodeToString(id[:])[:8]

	ext := path.Ext(filename)
	name := filename[:len(filename)-len(ext)]
	return name + "_" + uid + ext
}

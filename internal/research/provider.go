// Package research implements the fetch-summarize-store pipeline behind the
// internet_search tool: query a search provider, retrieve each result page,
// summarize it (with a deterministic fallback), and emit one uniquely named
// artifact per result. Every network failure mode degrades to a still-usable
// placeholder artifact so the orchestration loop always receives something
// per result.
package research

import "context"

// ProviderResult is one ranked hit from a search provider.
type ProviderResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// RawContent is the full page body, when the provider supplies it.
	RawContent string `json:"raw_content,omitempty"`
}

// SearchOptions narrow a provider query.
type SearchOptions struct {
	MaxResults int

	// Topic filters results; providers that cannot filter ignore it.
	// One of "general", "news", "finance".
	Topic string

	// IncludeRawContent asks the provider for full page bodies.
	IncludeRawContent bool
}

// Provider is the external search collaborator. Implementations return zero
// or more ranked results; an empty slice is not an error.
type Provider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]ProviderResult, error)
}

package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scour/internal/llm"
	"scour/internal/state"
)

// fakeProvider returns canned results.
type fakeProvider struct {
	results []ProviderResult
	err     error
}

func (f *fakeProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]ProviderResult, error) {
	return f.results, f.err
}

// fakeModel scripts the summarization collaborator.
type fakeModel struct {
	completion string
	err        error
}

func (f *fakeModel) Chat(ctx context.Context, req llm.ChatRequest) (*llm.Turn, error) {
	return nil, errors.New("not used")
}

func (f *fakeModel) Complete(ctx context.Context, req llm.CompleteRequest) (string, error) {
	return f.completion, f.err
}

func TestSummarizeFallbackOnModelError(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&fakeModel{err: errors.New("model down")})
	content := strings.Repeat("x", 1500)

	summary := s.Summarize(context.Background(), content)
	if summary.Filename != "search_result.md" {
		t.Errorf("fallback filename = %q", summary.Filename)
	}
	if len(summary.Summary) != 1003 || !strings.HasSuffix(summary.Summary, "...") {
		t.Errorf("fallback summary should be 1000 chars plus ellipsis, got %d chars", len(summary.Summary))
	}
}

func TestSummarizeFallbackOnMalformedJSON(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&fakeModel{completion: "this is not json"})

	summary := s.Summarize(context.Background(), "short content")
	if summary.Filename != "search_result.md" {
		t.Errorf("fallback filename = %q", summary.Filename)
	}
	if summary.Summary != "short content" {
		t.Errorf("short content must not be truncated, got %q", summary.Summary)
	}
}

func TestSummarizeFallbackOnEmptyContent(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&fakeModel{err: errors.New("model down")})

	for _, content := range []string{"", "   \n\t "} {
		summary := s.Summarize(context.Background(), content)
		if summary.Filename != "search_result.md" {
			t.Errorf("fallback filename = %q", summary.Filename)
		}
		if summary.Summary != "No content could be extracted" {
			t.Errorf("empty page must still yield a summary, got %q", summary.Summary)
		}
	}
}

func TestSummarizeStructuredOutput(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&fakeModel{completion: `{"filename": "go_release.md", "summary": "Go 1.24 ships"}`})

	summary := s.Summarize(context.Background(), "page body")
	if summary.Filename != "go_release.md" {
		t.Errorf("filename = %q", summary.Filename)
	}
	if summary.Summary != "Go 1.24 ships" {
		t.Errorf("summary = %q", summary.Summary)
	}
}

func TestUniqueFilename(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := uniqueFilename("search_result.md")
		if !strings.HasPrefix(name, "search_result_") || !strings.HasSuffix(name, ".md") {
			t.Fatalf("suffix must sit before the extension, got %q", name)
		}
		if len(name) != len("search_result_")+8+len(".md") {
			t.Fatalf("suffix must be 8 chars, got %q", name)
		}
		if seen[name] {
			t.Fatalf("duplicate filename %q", name)
		}
		seen[name] = true
	}
}

func TestPipelineSuccessfulFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><h1>Paris</h1><p>Capital of France.</p></body></html>"))
	}))
	defer server.Close()

	provider := &fakeProvider{results: []ProviderResult{
		{URL: server.URL, Title: "Paris", Content: "snippet"},
	}}
	model := &fakeModel{completion: `{"filename": "paris.md", "summary": "Paris is the capital of France."}`}
	pipeline := NewPipeline(provider, NewFetcher(nil, 0), NewSummarizer(model))

	artifacts, err := pipeline.Run(context.Background(), "capital of France", SearchOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}

	artifact := artifacts[0]
	if !strings.HasPrefix(artifact.Filename, "paris_") {
		t.Errorf("filename = %q", artifact.Filename)
	}
	if artifact.Summary != "Paris is the capital of France." {
		t.Errorf("summary = %q", artifact.Summary)
	}
	if !strings.Contains(artifact.RawContent, "Capital of France.") {
		t.Errorf("raw content should hold the converted page, got %q", artifact.RawContent)
	}
}

func TestPipelineURLError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	provider := &fakeProvider{results: []ProviderResult{
		{URL: server.URL, Title: "Dead page", Content: "provider snippet", RawContent: "provider raw"},
	}}
	model := &fakeModel{err: errors.New("must not be called")}
	pipeline := NewPipeline(provider, NewFetcher(nil, 0), NewSummarizer(model))

	artifacts, err := pipeline.Run(context.Background(), "anything", SearchOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}

	artifact := artifacts[0]
	if !strings.HasPrefix(artifact.Filename, "URL_error_") {
		t.Errorf("filename = %q", artifact.Filename)
	}
	if artifact.Summary != "provider snippet" {
		t.Errorf("summary should fall back to the provider snippet, got %q", artifact.Summary)
	}
	if artifact.RawContent != "provider raw" {
		t.Errorf("raw content should fall back to provider raw content, got %q", artifact.RawContent)
	}
}

func TestPipelineConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	provider := &fakeProvider{results: []ProviderResult{
		{URL: deadURL, Title: "Unreachable"},
	}}
	pipeline := NewPipeline(provider, NewFetcher(nil, 0), NewSummarizer(&fakeModel{}))

	artifacts, err := pipeline.Run(context.Background(), "anything", SearchOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	artifact := artifacts[0]
	if !strings.HasPrefix(artifact.Filename, "connection_error_") {
		t.Errorf("filename = %q", artifact.Filename)
	}
	if artifact.Summary != "Could not fetch URL (timeout/connection error). Try another search." {
		t.Errorf("summary = %q", artifact.Summary)
	}
}

func TestSearchToolWritesFilesAndDigest(t *testing.T) {
	t.Parallel()

	// 100KB page body: the digest must stay small regardless.
	bigBody := "<html><body><p>" + strings.Repeat("data ", 20000) + "</p></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bigBody))
	}))
	defer server.Close()

	provider := &fakeProvider{results: []ProviderResult{
		{URL: server.URL, Title: "Big page"},
	}}
	model := &fakeModel{completion: `{"filename": "big_page.md", "summary": "A very large page."}`}
	pipeline := NewPipeline(provider, NewFetcher(nil, 0), NewSummarizer(model))
	tool := SearchTool(pipeline)

	session := state.Empty()
	result, err := tool.Execute(context.Background(), session, map[string]any{"query": "big data"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(result.Files))
	}
	var filename, doc string
	for name, content := range result.Files {
		filename, doc = name, content
	}

	if !strings.Contains(result.Text, "Found 1 result(s) for 'big data'") {
		t.Errorf("digest = %q", result.Text)
	}
	if !strings.Contains(result.Text, filename) {
		t.Error("digest should name the stored file")
	}
	if len(result.Text) > 2000 {
		t.Errorf("digest leaked raw content: %d chars", len(result.Text))
	}

	for _, section := range []string{"# Search Result: Big page", "**Query:** big data", "## Summary", "## Raw Content"} {
		if !strings.Contains(doc, section) {
			t.Errorf("stored document missing %q", section)
		}
	}
}

func TestSearchToolProviderFailure(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(&fakeProvider{err: errors.New("rate limited")}, NewFetcher(nil, 0), NewSummarizer(&fakeModel{}))
	tool := SearchTool(pipeline)

	result, err := tool.Execute(context.Background(), state.Empty(), map[string]any{"query": "q"})
	if err != nil {
		t.Fatalf("provider failure must not surface as a tool error: %v", err)
	}
	if !strings.Contains(result.Text, "Try another search") {
		t.Errorf("result = %q", result.Text)
	}
	if len(result.Files) != 0 {
		t.Error("no files on provider failure")
	}
}

func TestSearchToolNoResults(t *testing.T) {
	t.Parallel()

	pipeline := NewPipeline(&fakeProvider{}, NewFetcher(nil, 0), NewSummarizer(&fakeModel{}))
	tool := SearchTool(pipeline)

	result, err := tool.Execute(context.Background(), state.Empty(), map[string]any{"query": "obscure"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Text != "No results found for: obscure" {
		t.Errorf("result = %q", result.Text)
	}
}

func TestFormatArtifactNoRawContent(t *testing.T) {
	t.Parallel()

	doc := formatArtifact(Artifact{Title: "T", URL: "http://x", Summary: "s"}, "q")
	if !strings.Contains(doc, "No raw content available") {
		t.Errorf("empty raw content placeholder missing:\n%s", doc)
	}
}

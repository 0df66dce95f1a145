package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"scour/internal/logging"
)

// DuckDuckGo searches through the DuckDuckGo HTML endpoint. No API key is
// required, which makes it the bundled default Provider.
type DuckDuckGo struct {
	client  *http.Client
	timeout time.Duration
}

// NewDuckDuckGo creates the default search provider. A nil client uses
// http.DefaultClient.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGo{client: client, timeout: 30 * time.Second}
}

// Search queries the HTML endpoint and scrapes the result list.
func (d *DuckDuckGo) Search(ctx context.Context, query string, opts SearchOptions) ([]ProviderResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 1
	}
	if maxResults > 30 {
		maxResults = 30
	}

	searchQuery := query
	// The HTML endpoint has no topic parameter; bias the query instead.
	switch opts.Topic {
	case "news":
		searchQuery = query + " news"
	case "finance":
		searchQuery = query + " finance"
	}

	logging.ResearchDebug("duckduckgo search: query=%q max_results=%d", searchQuery, maxResults)

	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(searchQuery))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to look like a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB limit
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results, err := parseDuckDuckGoResults(string(body), maxResults)
	if err != nil {
		return nil, err
	}
	logging.Research("duckduckgo search completed: %d results for %q", len(results), query)
	return results, nil
}

// parseDuckDuckGoResults extracts search results from the result list HTML.
func parseDuckDuckGoResults(htmlContent string, maxResults int) ([]ProviderResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []ProviderResult

	// DuckDuckGo HTML uses class="result results_links ..." per hit
	var findResults func(*html.Node)
	findResults = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "div" {
			for _, attr := range n.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "result") && strings.Contains(attr.Val, "results_links") {
					result := extractResult(n)
					if result.URL != "" && result.Title != "" {
						results = append(results, result)
					}
					return
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findResults(c)
		}
	}

	findResults(doc)
	return results, nil
}

// extractResult pulls title, URL, and snippet out of a single result div.
func extractResult(n *html.Node) ProviderResult {
	var result ProviderResult

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "class" {
					if strings.Contains(attr.Val, "result__a") {
						result.URL = getAttr(n, "href")
						result.Title = textContent(n)
					} else if strings.Contains(attr.Val, "result__snippet") {
						result.Content = textContent(n)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(n)

	// Unwrap DuckDuckGo redirect links
	if strings.HasPrefix(result.URL, "//duckduckgo.com/l/?uddg=") {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(result.URL, "//duckduckgo.com/l/?uddg=")); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			result.URL = decoded
		}
	}

	return result
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent returns all text within a node, space-joined.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

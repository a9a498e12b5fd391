package tools

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

const (
	searchEndpoint   = "https://html.duckduckgo.com/html/"
	searchUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultSearchMax = 4
)

// WebSearchOptions configure the search tool.
type WebSearchOptions struct {
	// MaxResults caps the number of results returned per query; keeping it
	// small avoids overloading the model context.
	MaxResults int
	HTTPClient *http.Client
}

// WebSearch queries the DuckDuckGo HTML endpoint and formats the top results
// as titled snippets with source URLs. Ideal for real-time or recent
// information the model cannot answer from memory.
type WebSearch struct {
	client     *http.Client
	maxResults int
}

var _ tool.Tool = (*WebSearch)(nil)

// NewWebSearch constructs the search tool with optional overrides.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		MaxResults: defaultSearchMax,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WebSearch{client: opts.HTTPClient, maxResults: opts.MaxResults}
}

// Name implements tool.Tool.
func (t *WebSearch) Name() string { return "web_search" }

// Spec implements tool.Tool.
func (t *WebSearch) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: "web_search",
		Description: "Search the internet for current information. Provide a clear and " +
			"concise search query, e.g. 'latest technology news'.",
		Parameters: map[string]core.Param{
			"query": {
				Type:        "string",
				Description: "The search query",
				Required:    true,
			},
		},
	}
}

// Call implements tool.Tool.
func (t *WebSearch) Call(tc *tool.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)

	req, err := http.NewRequestWithContext(tc.Context(), http.MethodGet,
		searchEndpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var formatted []string
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(formatted) >= t.maxResults {
			return false
		}
		title := strings.TrimSpace(sel.Find(".result__title a").First().Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())
		href, _ := sel.Find(".result__title a").First().Attr("href")
		if title == "" {
			return true
		}
		formatted = append(formatted, fmt.Sprintf(
			"Result [%d]:\nTitle: %s\nSnippet: %s\nSource: %s\n",
			len(formatted)+1, title, snippet, resolveSearchHref(href)))
		return true
	})

	if len(formatted) == 0 {
		return "No relevant results found for your query.", nil
	}
	return strings.Join(formatted, "---\n"), nil
}

// resolveSearchHref unwraps DuckDuckGo's redirect links (/l/?uddg=<target>).
func resolveSearchHref(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

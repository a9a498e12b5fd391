package tools

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

const defaultBrowseMaxLen = 4000

// BrowseOptions configure the browse tool.
type BrowseOptions struct {
	// MaxLength truncates extracted text to keep observations bounded.
	MaxLength  int
	HTTPClient *http.Client
}

// Browse fetches a webpage and extracts its clean textual content. Useful
// when the model has a URL from a search result and needs the full article.
type Browse struct {
	client *http.Client
	maxLen int
}

var _ tool.Tool = (*Browse)(nil)

// NewBrowse constructs the browse tool with optional overrides.
func NewBrowse(optFns ...func(o *BrowseOptions)) *Browse {
	opts := BrowseOptions{
		MaxLength:  defaultBrowseMaxLen,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Browse{client: opts.HTTPClient, maxLen: opts.MaxLength}
}

// Name implements tool.Tool.
func (t *Browse) Name() string { return "browse_webpage" }

// Spec implements tool.Tool.
func (t *Browse) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: "browse_webpage",
		Description: "Fetch a URL and return the clean textual content of the page. Use this " +
			"when a search snippet is not enough and you need to read the full article.",
		Parameters: map[string]core.Param{
			"url": {
				Type:        "string",
				Description: "The URL to fetch",
				Required:    true,
			},
		},
	}
}

// Call implements tool.Tool.
func (t *Browse) Call(tc *tool.Context, args map[string]any) (any, error) {
	pageURL, _ := args["url"].(string)

	req, err := http.NewRequestWithContext(tc.Context(), http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", pageURL, err)
	}

	return ExtractText(doc, t.maxLen), nil
}

// ExtractText strips page chrome and returns the joined paragraph text,
// truncated to maxLen runes.
func ExtractText(doc *goquery.Document, maxLen int) string {
	doc.Find("script, style, header, footer, nav, aside").Remove()

	var chunks []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			chunks = append(chunks, text)
		}
	})

	full := strings.Join(chunks, "\n")
	if full == "" {
		return "Could not extract meaningful text from the page. It might be a video, a PDF, or a page without paragraphs."
	}
	if runes := []rune(full); len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return full
}

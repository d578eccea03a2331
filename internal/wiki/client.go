package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"
)

// DefaultEndpoint is the MediaWiki action API used when the config names
// no other wiki.
const DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

// ErrNotFound reports that the wiki has no article for the requested title
// or search term.
var ErrNotFound = errors.New("article not found")

var extraneousWhitespace = regexp.MustCompile(`[ \t]+`)

// Link is one outbound reference from an article.
type Link struct {
	Title  string
	Target string
}

// Article is the resolved content for one pane: a plain-text extract plus
// the outbound links the reader can follow.
type Article struct {
	Title   string
	Extract string
	Links   []Link
	URL     string
}

// Client resolves titles and search terms against a MediaWiki instance.
type Client struct {
	endpoint string
	http     *http.Client
	cache    *fetchCache
}

// NewClient returns a client for the given api.php endpoint. An empty
// endpoint selects English Wikipedia.
func NewClient(endpoint string) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid wiki endpoint %q: %w", endpoint, err)
	}
	cache, err := newFetchCache(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		cache:    cache,
	}, nil
}

// Resolve fetches the article for target. A target ending in .pdf is
// treated as a linked document and resolved by extracting its text; a
// /wiki/ page address is mapped back to the title it names; any other
// target is taken as an article title.
func (c *Client) Resolve(ctx context.Context, target string) (*Article, error) {
	if isPDFTarget(target) {
		return c.resolvePDF(ctx, target)
	}
	return c.resolveTitle(ctx, titleFromTarget(target))
}

// Search resolves a free-text term to its best-matching article.
func (c *Client) Search(ctx context.Context, term string) (*Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("empty search term")
	}

	query := url.Values{}
	query.Set("action", "query")
	query.Set("format", "json")
	query.Set("formatversion", "2")
	query.Set("list", "search")
	query.Set("srlimit", "1")
	query.Set("srsearch", term)

	var payload searchResponse
	if err := c.get(ctx, query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Query.Search) == 0 {
		return nil, fmt.Errorf("no results for %q: %w", term, ErrNotFound)
	}
	return c.resolveTitle(ctx, payload.Query.Search[0].Title)
}

// PageURL returns the canonical page address for an article title, used as
// the link target identifier across the session.
func (c *Client) PageURL(title string) string {
	base := strings.TrimSuffix(c.endpoint, "/w/api.php")
	slug := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	return base + "/wiki/" + slug
}

// titleFromTarget inverts PageURL: a /wiki/<slug> address becomes the
// article title it names. Plain titles pass through untouched, including
// ones that contain a slash.
func titleFromTarget(target string) string {
	trimmed := strings.TrimSpace(target)
	if !strings.HasPrefix(strings.ToLower(trimmed), "http") {
		return trimmed
	}
	idx := strings.Index(trimmed, "/wiki/")
	if idx < 0 {
		return trimmed
	}
	slug := trimmed[idx+len("/wiki/"):]
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	return strings.ReplaceAll(slug, "_", " ")
}

func (c *Client) resolveTitle(ctx context.Context, title string) (*Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("empty article title")
	}

	query := url.Values{}
	query.Set("action", "query")
	query.Set("format", "json")
	query.Set("formatversion", "2")
	query.Set("redirects", "1")
	query.Set("prop", "extracts|links")
	query.Set("explaintext", "1")
	query.Set("exsectionformat", "plain")
	query.Set("plnamespace", "0")
	query.Set("pllimit", "max")
	query.Set("titles", title)

	var payload pageResponse
	if err := c.get(ctx, query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Query.Pages) == 0 {
		return nil, fmt.Errorf("%q: %w", title, ErrNotFound)
	}
	page := payload.Query.Pages[0]
	if page.Missing {
		return nil, fmt.Errorf("%q: %w", title, ErrNotFound)
	}

	links := make([]Link, 0, len(page.Links))
	for _, l := range page.Links {
		name := strings.TrimSpace(l.Title)
		if name == "" {
			continue
		}
		links = append(links, Link{Title: name, Target: c.PageURL(name)})
	}

	return &Article{
		Title:   page.Title,
		Extract: tidyExtract(page.Extract),
		Links:   links,
		URL:     c.PageURL(page.Title),
	}, nil
}

func (c *Client) resolvePDF(ctx context.Context, target string) (*Article, error) {
	text, err := c.fetchPDFText(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to process linked document: %w", err)
	}
	title := path.Base(target)
	return &Article{
		Title:   title,
		Extract: text,
		URL:     target,
	}, nil
}

func (c *Client) get(ctx context.Context, query url.Values, out interface{}) error {
	requestURL := c.endpoint + "?" + query.Encode()
	cached, err := c.cache.Fetch(ctx, requestURL, apiCacheTTL)
	if err == nil {
		data, readErr := os.ReadFile(cached)
		if readErr == nil {
			if decodeErr := json.Unmarshal(data, out); decodeErr == nil {
				return nil
			}
		}
		// A corrupt cache entry falls through to a direct fetch.
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wiki request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("wiki API error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wiki response: %w", err)
	}
	return nil
}

type pageResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing bool   `json:"missing"`
			Links   []struct {
				Title string `json:"title"`
			} `json:"links"`
		} `json:"pages"`
	} `json:"query"`
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func isPDFTarget(target string) bool {
	lower := strings.ToLower(strings.TrimSpace(target))
	return strings.HasPrefix(lower, "http") && strings.HasSuffix(lower, ".pdf")
}

func tidyExtract(extract string) string {
	extract = strings.ReplaceAll(extract, "\r\n", "\n")
	extract = extraneousWhitespace.ReplaceAllString(extract, " ")
	lines := strings.Split(extract, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Search goes through old.reddit.com which serves the listing JSON
	// without OAuth.
	defaultSearchBase = "https://old.reddit.com"
	// Permalinks are resolved against the canonical domain.
	defaultLinkBase = "https://www.reddit.com"

	defaultUserAgent = "research-agent/1.0 (multi-source research bot)"

	commentKind = "t1"
)

// Post is one search result from the discussion platform.
type Post struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Score        int    `json:"score"`
	Subreddit    string `json:"subreddit"`
	CommentCount int    `json:"num_comments"`
}

// SearchResult holds the parsed output of a keyword search.
type SearchResult struct {
	Posts      []Post `json:"parsed_posts"`
	TotalFound int    `json:"total_found"`
}

// Comment is a single top-level comment from a thread.
type Comment struct {
	ID      string `json:"comment_id"`
	Content string `json:"content"`
}

// CommentBatch pools comments retrieved across several threads.
type CommentBatch struct {
	Comments       []Comment `json:"comments"`
	TotalRetrieved int       `json:"total_retrieved"`
}

// FetchFailure records a per-thread fetch that was skipped. Failures are
// reported to the caller instead of aborting the batch.
type FetchFailure struct {
	URL string
	Err error
}

// Client reads the discussion platform's public JSON endpoints.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	// SearchBase and LinkBase are overridable for tests.
	SearchBase string
	LinkBase   string
}

// NewClient returns a client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  defaultUserAgent,
		SearchBase: defaultSearchBase,
		LinkBase:   defaultLinkBase,
	}
}

// listing matches the nested {data:{children:[{kind,data:{...}}]}} shape used
// by both the search endpoint and the per-thread comment endpoint.
type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Title       string `json:"title"`
				Permalink   string `json:"permalink"`
				Score       int    `json:"score"`
				Subreddit   string `json:"subreddit"`
				NumComments int    `json:"num_comments"`
				ID          string `json:"id"`
				Body        string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SearchPosts runs a relevance-ranked search over the last year, capped at
// limit results. It does not retry.
func (c *Client) SearchPosts(ctx context.Context, keyword string, limit int) (*SearchResult, error) {
	params := url.Values{
		"q":     {keyword},
		"sort":  {"relevance"},
		"t":     {"year"},
		"limit": {strconv.Itoa(limit)},
	}
	endpoint := c.SearchBase + "/search.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var raw listing
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{}
	for _, child := range raw.Data.Children {
		d := child.Data
		// Fail closed: a post without a permalink or title is dropped
		// rather than carried forward half-empty.
		if d.Permalink == "" || d.Title == "" {
			continue
		}
		result.Posts = append(result.Posts, Post{
			Title:        d.Title,
			URL:          c.resolvePermalink(d.Permalink),
			Score:        d.Score,
			Subreddit:    d.Subreddit,
			CommentCount: d.NumComments,
		})
	}
	result.TotalFound = len(result.Posts)
	return result, nil
}

// resolvePermalink turns a relative permalink into an absolute URL anchored
// at the canonical domain. Absolute permalinks pass through unchanged.
func (c *Client) resolvePermalink(permalink string) string {
	base, err := url.Parse(c.LinkBase)
	if err != nil {
		return permalink
	}
	ref, err := url.Parse(permalink)
	if err != nil {
		return permalink
	}
	return base.ResolveReference(ref).String()
}

// FetchComments retrieves top-level comments for each thread URL and pools
// them, in URL-list order, up to maxComments total across all threads. A
// failing thread contributes zero comments and is reported in the failure
// list; it never aborts the remaining threads and never shrinks the quota
// available to the ones that succeed.
func (c *Client) FetchComments(ctx context.Context, urls []string, maxComments int) (*CommentBatch, []FetchFailure) {
	perURL := make([][]Comment, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	sem := make(chan struct{}, 3)
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			perURL[i], errs[i] = c.fetchThread(ctx, u)
		}(i, u)
	}
	wg.Wait()

	batch := &CommentBatch{}
	var failures []FetchFailure
	for i := range urls {
		if errs[i] != nil {
			failures = append(failures, FetchFailure{URL: urls[i], Err: errs[i]})
			continue
		}
		for _, cm := range perURL[i] {
			if len(batch.Comments) >= maxComments {
				break
			}
			batch.Comments = append(batch.Comments, cm)
		}
	}
	batch.TotalRetrieved = len(batch.Comments)
	return batch, failures
}

func (c *Client) fetchThread(ctx context.Context, threadURL string) ([]Comment, error) {
	apiURL := strings.TrimRight(threadURL, "/") + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build thread request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thread request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("thread returned status %d", resp.StatusCode)
	}

	// The endpoint returns a two-element array: the post itself, then the
	// comment tree.
	var pages []listing
	if err := json.NewDecoder(resp.Body).Decode(&pages); err != nil {
		return nil, fmt.Errorf("failed to decode thread response: %w", err)
	}
	if len(pages) < 2 {
		return nil, nil
	}

	var comments []Comment
	for _, child := range pages[1].Data.Children {
		if child.Kind != commentKind {
			continue
		}
		if child.Data.Body == "" {
			continue
		}
		comments = append(comments, Comment{ID: child.Data.ID, Content: child.Data.Body})
	}
	return comments, nil
}

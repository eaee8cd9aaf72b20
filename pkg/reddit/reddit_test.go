package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(searchBase string) *Client {
	c := NewClient(5 * time.Second)
	c.SearchBase = searchBase
	return c
}

func TestSearchPostsParsesAndNormalizesURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Error("expected a User-Agent header on search requests")
		}
		q := r.URL.Query()
		if q.Get("sort") != "relevance" || q.Get("t") != "year" {
			t.Errorf("unexpected search params: %v", q)
		}
		fmt.Fprint(w, `{
			"data": {"children": [
				{"kind": "t3", "data": {"title": "First", "permalink": "/r/test/comments/abc/title/", "score": 42, "subreddit": "test", "num_comments": 10}},
				{"kind": "t3", "data": {"title": "", "permalink": "/r/test/comments/def/other/"}},
				{"kind": "t3", "data": {"title": "No permalink"}},
				{"kind": "t3", "data": {"title": "Second", "permalink": "/r/golang/comments/xyz/post/", "score": 7, "subreddit": "golang", "num_comments": 3}}
			]}
		}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	result, err := client.SearchPosts(context.Background(), "test query", 8)
	if err != nil {
		t.Fatalf("SearchPosts() error = %v", err)
	}

	// Malformed children fail closed: only the two complete posts survive.
	if result.TotalFound != 2 || len(result.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(result.Posts))
	}

	want := "https://www.reddit.com/r/test/comments/abc/title/"
	if result.Posts[0].URL != want {
		t.Errorf("permalink not normalized: got %q, want %q", result.Posts[0].URL, want)
	}
	if result.Posts[0].Score != 42 || result.Posts[0].CommentCount != 10 || result.Posts[0].Subreddit != "test" {
		t.Errorf("unexpected post fields: %+v", result.Posts[0])
	}
}

func TestSearchPostsErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.SearchPosts(context.Background(), "q", 8); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestSearchPostsErrorOnMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.SearchPosts(context.Background(), "q", 8); err == nil {
		t.Fatal("expected error on malformed JSON")
	}
}

// threadJSON builds a two-element thread response with n top-level comments
// whose IDs are prefix0..prefix(n-1), plus one non-comment child that must
// be skipped.
func threadJSON(prefix string, n int) string {
	comments := `{"kind": "more", "data": {"id": "ignored", "body": "should be skipped"}}`
	for i := 0; i < n; i++ {
		comments += fmt.Sprintf(`,{"kind": "t1", "data": {"id": "%s%d", "body": "comment %s%d"}}`, prefix, i, prefix, i)
	}
	return fmt.Sprintf(`[{"data": {"children": []}}, {"data": {"children": [%s]}}]`, comments)
}

func TestFetchCommentsPoolsInURLOrderUpToCap(t *testing.T) {
	mux := http.NewServeMux()
	for i, prefix := range []string{"a", "b", "c"} {
		p := prefix
		mux.HandleFunc(fmt.Sprintf("/thread%d.json", i), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, threadJSON(p, 10))
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	urls := []string{srv.URL + "/thread0", srv.URL + "/thread1", srv.URL + "/thread2"}

	batch, failures := client.FetchComments(context.Background(), urls, 5)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if batch.TotalRetrieved != 5 || len(batch.Comments) != 5 {
		t.Fatalf("expected exactly 5 pooled comments, got %d", len(batch.Comments))
	}
	// Pooling is deterministic: first URL's comments come first.
	for i, c := range batch.Comments {
		want := fmt.Sprintf("a%d", i)
		if c.ID != want {
			t.Errorf("comment %d: got ID %q, want %q", i, c.ID, want)
		}
	}
}

func TestFetchCommentsToleratesPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, threadJSON("a", 8))
	})
	mux.HandleFunc("/bad.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/good2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, threadJSON("c", 7))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	urls := []string{srv.URL + "/good1", srv.URL + "/bad", srv.URL + "/good2"}

	batch, failures := client.FetchComments(context.Background(), urls, 20)
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].URL != srv.URL+"/bad" {
		t.Errorf("unexpected failing URL: %s", failures[0].URL)
	}
	// The failing thread contributes zero comments but does not shrink the
	// quota available to the threads that succeeded.
	if batch.TotalRetrieved != 15 {
		t.Fatalf("expected 15 pooled comments, got %d", batch.TotalRetrieved)
	}
	if batch.Comments[0].ID != "a0" || batch.Comments[8].ID != "c0" {
		t.Errorf("pooled order broken: first %q, ninth %q", batch.Comments[0].ID, batch.Comments[8].ID)
	}
}

func TestFetchCommentsSkipsBodylessItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"data": {"children": []}}, {"data": {"children": [
			{"kind": "t1", "data": {"id": "x", "body": ""}},
			{"kind": "t1", "data": {"id": "y", "body": "kept"}}
		]}}]`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	batch, failures := client.FetchComments(context.Background(), []string{srv.URL + "/t"}, 20)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(batch.Comments) != 1 || batch.Comments[0].ID != "y" {
		t.Fatalf("expected only the body-bearing comment, got %+v", batch.Comments)
	}
}

func TestResolvePermalinkKeepsAbsoluteURLs(t *testing.T) {
	client := NewClient(time.Second)
	abs := "https://www.reddit.com/r/test/comments/abc/title/"
	if got := client.resolvePermalink(abs); got != abs {
		t.Errorf("absolute URL changed: %q", got)
	}
}

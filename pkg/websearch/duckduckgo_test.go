package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const htmlResultsPage = `<!DOCTYPE html><html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fone&amp;rut=abc">First Result</a>
  <a class="result__snippet" href="https://example.com/one">Snippet for the <b>first</b> result.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/two">Second Result</a>
  <a class="result__snippet" href="https://example.org/two">Second snippet.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.net/three">Third Result</a>
</div>
</body></html>`

const liteResultsPage = `<html><body><table>
<tr><td><a class="result-link" href="https://example.com/lite">Lite Result</a></td></tr>
<tr><td class="result-snippet">Lite snippet text.</td></tr>
</table></body></html>`

func TestParseResultPageHTMLFrontend(t *testing.T) {
	results, err := parseResultPage(strings.NewReader(htmlResultsPage), 10)
	if err != nil {
		t.Fatalf("parseResultPage() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Title != "First Result" {
		t.Errorf("title = %q", results[0].Title)
	}
	// Redirect links unwrap to the target URL.
	if results[0].URL != "https://example.com/one" {
		t.Errorf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Snippet != "Snippet for the first result." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
	if results[1].URL != "https://example.org/two" {
		t.Errorf("direct URL mangled: %q", results[1].URL)
	}
	if results[2].Snippet != "" {
		t.Errorf("expected empty snippet for third result, got %q", results[2].Snippet)
	}
}

func TestParseResultPageLiteFrontend(t *testing.T) {
	results, err := parseResultPage(strings.NewReader(liteResultsPage), 10)
	if err != nil {
		t.Fatalf("parseResultPage() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Lite Result" || results[0].Snippet != "Lite snippet text." {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestParseResultPageHonorsLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, `<a class="result__a" href="https://example.com/%d">Result %d</a>`, i, i)
	}
	sb.WriteString("</body></html>")

	results, err := parseResultPage(strings.NewReader(sb.String()), 10)
	if err != nil {
		t.Fatalf("parseResultPage() error = %v", err)
	}
	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
}

func TestCleanResultURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"redirect link", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=xyz", "https://example.com/page"},
		{"direct link", "https://example.com/page", "https://example.com/page"},
		{"scheme-relative direct", "//example.com/page", "https://example.com/page"},
		{"redirect without target", "//duckduckgo.com/l/?rut=xyz", "https://duckduckgo.com/l/?rut=xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanResultURL(tt.href); got != tt.want {
				t.Errorf("cleanResultURL(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestDuckDuckGoSearchErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	d := &DuckDuckGo{Endpoint: srv.URL, Client: srv.Client()}
	if _, err := d.Search(context.Background(), "q", 10); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestDuckDuckGoSearchSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		if got := r.PostForm.Get("q"); got != "golang generics" {
			t.Errorf("query = %q", got)
		}
		io.WriteString(w, htmlResultsPage)
	}))
	defer srv.Close()

	d := &DuckDuckGo{Endpoint: srv.URL, Client: srv.Client()}
	results, err := d.Search(context.Background(), "golang generics", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("limit not applied: got %d results", len(results))
	}
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		apiKey  string
		wantErr bool
	}{
		{"duckduckgo needs no key", ProviderDuckDuckGo, "", false},
		{"lite needs no key", ProviderLite, "", false},
		{"brave without key", ProviderBrave, "", true},
		{"brave with key", ProviderBrave, "k", false},
		{"serper without key", ProviderSerper, "", true},
		{"unknown engine", "altavista", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.engine, tt.apiKey, time.Second)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.engine, err, tt.wantErr)
			}
		})
	}
}

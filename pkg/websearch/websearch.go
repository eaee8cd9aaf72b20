// Package websearch provides pluggable web search backends. Each provider
// answers a query with a bounded list of results or an error; ranking and
// failure policy belong to the caller.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Result is one search hit as returned by a backend.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider is a single search backend.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Supported provider names.
const (
	ProviderDuckDuckGo = "duckduckgo"
	ProviderLite       = "lite"
	ProviderBrave      = "brave"
	ProviderSerper     = "serper"
)

// New builds a provider by name. Key-based providers require apiKey; the
// DuckDuckGo backends do not.
func New(name, apiKey string, timeout time.Duration) (Provider, error) {
	client := &http.Client{Timeout: timeout}
	switch name {
	case ProviderDuckDuckGo:
		return &DuckDuckGo{Endpoint: htmlEndpoint, Client: client}, nil
	case ProviderLite:
		return &DuckDuckGo{Endpoint: liteEndpoint, Client: client}, nil
	case ProviderBrave:
		if apiKey == "" {
			return nil, fmt.Errorf("brave provider requires an API key")
		}
		return &Brave{APIKey: apiKey, Client: client}, nil
	case ProviderSerper:
		if apiKey == "" {
			return nil, fmt.Errorf("serper provider requires an API key")
		}
		return &Serper{APIKey: apiKey, Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", name)
	}
}

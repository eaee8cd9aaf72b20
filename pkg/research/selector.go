package research

import (
	"sort"

	"github.com/mikeboe/research-agent/pkg/reddit"
)

// SelectThreads picks at most max thread URLs worth deep-fetching. Threads
// with more comments rank higher; ties keep search-relevance order. Posts
// without a URL are skipped. The result is deterministic for a fixed input.
func SelectThreads(posts []reddit.Post, max int) []string {
	if max <= 0 {
		return nil
	}

	ranked := make([]reddit.Post, 0, len(posts))
	for _, p := range posts {
		if p.URL == "" {
			continue
		}
		ranked = append(ranked, p)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CommentCount > ranked[j].CommentCount
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}

	urls := make([]string, len(ranked))
	for i, p := range ranked {
		urls[i] = p.URL
	}
	return urls
}

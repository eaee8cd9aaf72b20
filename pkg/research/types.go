package research

import (
	"context"

	"github.com/mikeboe/research-agent/pkg/reddit"
)

// SearchHit is one web search result, tagged with the engine it came from.
// Overlapping engines may return duplicates; this layer does not deduplicate.
type SearchHit struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Snippet      string `json:"snippet"`
	SourceEngine string `json:"source_engine"`
}

// EvidenceHit is a prior-knowledge document returned by the evidence store.
// Smaller distance means more similar.
type EvidenceHit struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance"`
}

// EvidenceStore is the optional similarity-indexed document store used to
// augment synthesis. The pipeline runs fine without one.
type EvidenceStore interface {
	Add(ctx context.Context, texts []string, metadatas []map[string]any) error
	Query(ctx context.Context, text string, k int) ([]EvidenceHit, error)
}

// DiscussionSearcher reads the discussion platform: keyword search plus
// per-thread comment retrieval. *reddit.Client satisfies it.
type DiscussionSearcher interface {
	SearchPosts(ctx context.Context, keyword string, limit int) (*reddit.SearchResult, error)
	FetchComments(ctx context.Context, urls []string, maxComments int) (*reddit.CommentBatch, []reddit.FetchFailure)
}

// StageFailure records a recovered failure for observability. The pipeline
// keeps going; the caller can still see what was lost.
type StageFailure struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

// ResearchState is the per-question aggregate threaded through the pipeline.
// It is created fresh for every question, mutated only by the orchestrator
// after each stage completes, and returned to the caller as the terminal
// result. Analysis fields stay nil when the corresponding fetch failed or
// returned nothing.
type ResearchState struct {
	Question string `json:"question"`

	WebResults        []SearchHit          `json:"web_results,omitempty"`
	AltWebResults     []SearchHit          `json:"alt_web_results,omitempty"`
	DiscussionResults *reddit.SearchResult `json:"discussion_results,omitempty"`

	SelectedThreadURLs []string             `json:"selected_thread_urls,omitempty"`
	ThreadData         *reddit.CommentBatch `json:"discussion_thread_data,omitempty"`

	WebAnalysis        *string `json:"web_analysis"`
	AltWebAnalysis     *string `json:"alt_web_analysis"`
	DiscussionAnalysis *string `json:"discussion_analysis"`

	EvidenceHits []EvidenceHit `json:"evidence_hits,omitempty"`

	FinalAnswer *string `json:"final_answer"`

	Failures []StageFailure `json:"failures,omitempty"`
}

// AnalysisCount reports how many per-source analyses are populated.
func (s *ResearchState) AnalysisCount() int {
	n := 0
	for _, a := range []*string{s.WebAnalysis, s.AltWebAnalysis, s.DiscussionAnalysis} {
		if a != nil {
			n++
		}
	}
	return n
}

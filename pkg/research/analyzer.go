package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/research-agent/pkg/reddit"
)

// Source labels used in prompts, log records and failure entries.
const (
	SourceWeb        = "web"
	SourceAltWeb     = "alt_web"
	SourceDiscussion = "discussion"
)

// Analyzer turns one source's raw evidence into a natural-language summary.
type Analyzer struct {
	LLM llms.Model
}

// Analyze summarizes serialized evidence for one source with respect to the
// question. Returns *AnalysisError if the LLM fails or produces no output.
func (a *Analyzer) Analyze(ctx context.Context, question, source, evidence string) (string, error) {
	systemPrompt := fmt.Sprintf(`You are a research analyst.
Summarize what the following %s evidence says about the user's question.
Stick to the evidence; note disagreement between items when you see it.
Do not invent facts that are not present in the evidence.`, sourceDescription(source))

	input := fmt.Sprintf("Question: %s\n\nEvidence:\n%s", question, evidence)

	resp, err := a.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return "", &AnalysisError{Source: source, Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", &AnalysisError{Source: source, Err: fmt.Errorf("llm returned empty analysis")}
	}
	return resp.Choices[0].Content, nil
}

func sourceDescription(source string) string {
	switch source {
	case SourceDiscussion:
		return "discussion-forum"
	default:
		return "web search"
	}
}

// FormatSearchHits serializes web results for an analysis prompt.
func FormatSearchHits(hits []SearchHit) string {
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s\nURL: %s\n%s\n\n", i+1, h.Title, h.URL, h.Snippet)
	}
	return sb.String()
}

// FormatThreadData serializes discussion threads and their pooled comments
// for an analysis prompt.
func FormatThreadData(result *reddit.SearchResult, batch *reddit.CommentBatch) string {
	var sb strings.Builder
	if result != nil {
		sb.WriteString("Threads:\n")
		for _, p := range result.Posts {
			fmt.Fprintf(&sb, "- %s (r/%s, score %d, %d comments)\n", p.Title, p.Subreddit, p.Score, p.CommentCount)
		}
		sb.WriteString("\n")
	}
	if batch != nil && len(batch.Comments) > 0 {
		sb.WriteString("Comments:\n")
		for _, c := range batch.Comments {
			fmt.Fprintf(&sb, "- %s\n", c.Content)
		}
	}
	return sb.String()
}

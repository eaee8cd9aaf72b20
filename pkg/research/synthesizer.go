package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// InsufficientEvidenceAnswer is returned, without an LLM call, when no
// source analysis is available. Keeping it deterministic means the all-null
// case can never produce an unfounded answer.
const InsufficientEvidenceAnswer = "Insufficient evidence: no source could be analyzed for this question."

// Synthesizer combines the per-source analyses into one grounded answer.
type Synthesizer struct {
	LLM llms.Model
}

// Synthesize accepts any combination of nil analyses. With at least one
// analysis it asks the LLM for a combined answer; with none it returns
// InsufficientEvidenceAnswer. Returns *SynthesisError on LLM failure or
// empty output.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, web, altWeb, discussion *string, hits []EvidenceHit) (string, error) {
	var sections []string
	appendSection := func(label string, analysis *string) {
		if analysis != nil {
			sections = append(sections, fmt.Sprintf("## %s\n%s", label, *analysis))
		}
	}
	appendSection("Web search findings", web)
	appendSection("Secondary web search findings", altWeb)
	appendSection("Discussion findings", discussion)

	if len(sections) == 0 {
		return InsufficientEvidenceAnswer, nil
	}

	for _, h := range hits {
		sections = append(sections, fmt.Sprintf("## Prior knowledge (distance %.3f)\n%s", h.Distance, h.Text))
	}

	systemPrompt := `You are a research synthesizer.
Combine the source summaries below into one direct answer to the question.
Ground every claim in the summaries; when sources disagree, say so.
If the summaries do not answer the question, say what is missing.`

	input := fmt.Sprintf("Question: %s\n\n%s", question, strings.Join(sections, "\n\n"))

	resp, err := s.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return "", &SynthesisError{Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", &SynthesisError{Err: fmt.Errorf("llm returned empty answer")}
	}
	return resp.Choices[0].Content, nil
}

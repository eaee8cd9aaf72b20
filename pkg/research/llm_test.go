package research

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeLLM implements llms.Model with a programmable response function and
// records every prompt it sees.
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func newFakeLLM(respond func(prompt string) (string, error)) *fakeLLM {
	if respond == nil {
		respond = func(string) (string, error) { return "canned response", nil }
	}
	return &fakeLLM{respond: respond}
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	prompt := flattenMessages(messages)

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	content, err := f.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) sawPromptContaining(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

func flattenMessages(messages []llms.MessageContent) string {
	var sb strings.Builder
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

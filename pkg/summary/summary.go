// Package summary generates short conversation titles with the lite model.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgegate/edgegate/pkg/llm"
)

const (
	// MaxTokens caps the title completion.
	MaxTokens = 300

	truncateLimit = 300
	truncateKeep  = 150
	truncateGap   = "......"
)

// Truncate shortens s to its first and last 150 characters when it is longer
// than 300 characters.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= truncateLimit {
		return s
	}
	return string(r[:truncateKeep]) + truncateGap + string(r[len(r)-truncateKeep:])
}

// Prompt builds the title prompt for one question/answer exchange.
func Prompt(question, answer string) string {
	return fmt.Sprintf(`Write a short title (at most 20 words) for the following conversation.

Question:
`+"```"+`
%s
`+"```"+`

Answer:
`+"```"+`
%s
`+"```"+`

Rules:
1. The title should be concise and capture the core of the conversation.
2. Do not wrap the title in quotes or other punctuation.
3. Output only the title text.`, Truncate(question), Truncate(answer))
}

// Summarizer titles conversations.
type Summarizer struct {
	client llm.Completer
	model  string
}

// New creates a Summarizer that calls model through client.
func New(client llm.Completer, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize returns the trimmed title for question and answer.
func (s *Summarizer) Summarize(ctx context.Context, question, answer string) (string, error) {
	out, err := s.client.Complete(ctx, llm.Request{
		Model:     s.model,
		Prompt:    Prompt(question, answer),
		MaxTokens: MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

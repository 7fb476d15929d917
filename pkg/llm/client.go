// Package llm issues the gateway's own chat-completion calls (query planning
// and conversation titles) against the configured upstream.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/router"
)

// Request is a single-turn completion request.
type Request struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// Completer returns the assistant text for a single-turn prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is a Completer backed by the upstream pool. Each call takes the
// next key from the round-robin rotator.
type Client struct {
	router     *router.Router
	keys       *keys.Rotator
	httpClient *http.Client
}

// New creates a Client. A nil httpClient uses http.DefaultClient.
func New(r *router.Router, pool *keys.Rotator, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{router: r, keys: pool, httpClient: httpClient}
}

// Complete sends req and returns the first choice's content, or "" if the
// upstream returned no choices.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	key, err := c.keys.Next()
	if err != nil {
		return "", err
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = c.router.ChatBaseURL()
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	creq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if usesCompletionTokens(req.Model) {
		creq.MaxCompletionTokens = req.MaxTokens
	} else {
		creq.MaxTokens = req.MaxTokens
	}

	resp, err := client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAI reasoning models reject max_tokens and the client library refuses
// to send it for them.
var completionTokenPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func usesCompletionTokens(model string) bool {
	for _, p := range completionTokenPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

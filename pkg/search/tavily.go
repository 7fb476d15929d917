package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultURL is the Tavily search endpoint.
const DefaultURL = "https://api.tavily.com/search"

type tavilyRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  string   `json:"include_answer"`
	AutoParameters bool     `json:"auto_parameters"`
	ExcludeDomains []string `json:"exclude_domains"`
}

// Tavily is a minimal client for the Tavily search API.
type Tavily struct {
	url    string
	client *http.Client
}

// NewTavily creates a client posting to url. An empty url uses DefaultURL and
// a nil client uses http.DefaultClient.
func NewTavily(url string, client *http.Client) *Tavily {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Tavily{url: url, client: client}
}

// Search runs one query and returns the raw JSON response. Non-2xx statuses
// and bodies that are not valid JSON are errors.
func (t *Tavily) Search(ctx context.Context, key, query string, maxResults int) (json.RawMessage, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:          query,
		MaxResults:     maxResults,
		IncludeAnswer:  "basic",
		AutoParameters: true,
		ExcludeDomains: BlockedDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search API returned %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("search API returned invalid JSON")
	}
	if gjson.ParseBytes(data).Type == gjson.Null {
		return nil, fmt.Errorf("search API returned null")
	}
	return json.RawMessage(data), nil
}

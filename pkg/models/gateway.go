package models

import "encoding/json"

// DemoCounter is the persisted hourly usage record for the demo password.
// Times is fractional because auxiliary endpoints charge less than one call.
type DemoCounter struct {
	Hour     int64   `json:"hour"`
	Times    float64 `json:"times"`
	MaxTimes int     `json:"maxTimes"`
}

// SearchPlan is the query plan produced by the planning model.
type SearchPlan struct {
	SearchQueries []string `json:"search_queries"`
	NumResults    int      `json:"num_results"`
}

// Empty reports whether the plan asks for no external search.
func (p SearchPlan) Empty() bool {
	return len(p.SearchQueries) == 0 || p.NumResults <= 0
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResult is one raw per-query response from the search API.
type SearchResult = json.RawMessage

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SummarizeResponse is the success body of POST /summarize.
type SummarizeResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
}

// Model is a configured model identifier with an optional display label.
type Model struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

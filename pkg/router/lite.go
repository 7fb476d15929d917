package router

import "strings"

// DefaultLiteModel is used when no models are configured at all.
const DefaultLiteModel = "gemini-2.5-flash-lite"

// ModelPredicate reports whether a model id belongs to a rank.
type ModelPredicate func(id string) bool

// LiteModelStrategy picks the cheapest-looking model for auxiliary calls
// (query planning, titles). Ranks are tried in order; the first rank that
// matches any configured model wins, and within a rank the first matching
// model in configuration order is chosen.
type LiteModelStrategy struct {
	Ranks    []ModelPredicate
	Fallback string
}

// Contains returns a case-insensitive substring predicate.
func Contains(sub string) ModelPredicate {
	sub = strings.ToLower(sub)
	return func(id string) bool {
		return strings.Contains(strings.ToLower(id), sub)
	}
}

// defaultLiteMarkers are naming fragments of small or cheap models, most
// preferred first.
var defaultLiteMarkers = []string{
	"deepseek-v",
	"qwen3-next",
	"-oss-",
	"-mini",
	"qwen3-max",
	"-k2",
	"-nano",
	"-flash",
	"-lite",
	"-instruct",
	"-fast",
	"-dash",
	"-alpha",
	"-haiku",
	"-4o",
	"-r1",
	"-air",
	"gpt",
}

// DefaultLiteModelStrategy returns the built-in ranking.
func DefaultLiteModelStrategy() LiteModelStrategy {
	ranks := make([]ModelPredicate, 0, len(defaultLiteMarkers))
	for _, m := range defaultLiteMarkers {
		ranks = append(ranks, Contains(m))
	}
	return LiteModelStrategy{Ranks: ranks, Fallback: DefaultLiteModel}
}

// Pick returns the preferred model id from ids. With no ranked match it
// returns the first id; with no ids at all it returns the fallback.
func (s LiteModelStrategy) Pick(ids []string) string {
	if len(ids) == 0 {
		return s.Fallback
	}
	for _, rank := range s.Ranks {
		for _, id := range ids {
			if rank(id) {
				return id
			}
		}
	}
	return ids[0]
}

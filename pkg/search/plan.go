package search

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/edgegate/edgegate/pkg/models"
)

// MaxQueries caps how many planned queries are fanned out.
const MaxQueries = 5

var planObject = regexp.MustCompile(`({.*})`)

// ParsePlan extracts a search plan from a model reply. Line breaks are
// removed first so the outermost {...} span can be matched on one line.
// It returns false when no JSON object can be recovered.
func ParsePlan(content string) (models.SearchPlan, bool) {
	flat := strings.ReplaceAll(content, "\n", "")
	candidate := flat
	if m := planObject.FindStringSubmatch(flat); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	if !gjson.Valid(candidate) {
		return models.SearchPlan{}, false
	}
	doc := gjson.Parse(candidate)
	if !doc.IsObject() {
		return models.SearchPlan{}, false
	}

	var plan models.SearchPlan
	doc.Get("search_queries").ForEach(func(_, v gjson.Result) bool {
		if q := strings.TrimSpace(v.String()); q != "" {
			plan.SearchQueries = append(plan.SearchQueries, q)
		}
		return len(plan.SearchQueries) < MaxQueries
	})
	plan.NumResults = int(doc.Get("num_results").Int())
	return plan, true
}

const planPromptTemplate = `You are the retrieval planner for a chat assistant. Decide whether the user's
question needs fresh information from the web and, if so, which search queries
to run.

Return no search (empty list, num_results 0) for small talk, greetings, pure
logic or math, translation, rewriting or creative writing, and questions that
lack the context needed to search.

Otherwise split the question into orthogonal search queries that cover
different angles: definitions and basic facts, recent news, data and
statistics, expert opinion and debate, comparisons, technical documentation.
Write each query in the language with the best sources for the topic.

Output strict JSON with exactly these fields:
- "search_queries": array of 0 to 5 concise keyword queries. Use 1-2 for simple
  facts and 3-5 for in-depth questions.
- "num_results": integer results per query. Use 10 for 1-2 queries and 5 to 8
  for 3-5 queries, keeping the total under 40.

Example:
{"search_queries": ["Tesla stock price change last session"], "num_results": 10}

Example with no search needed:
{"search_queries": [], "num_results": 0}

Current Date: %s

<User_Question>
%s
</User_Question>`

// PlanPrompt wraps query in the planning instructions.
func PlanPrompt(query string, now time.Time) string {
	return strings.TrimSpace(fmt.Sprintf(planPromptTemplate, now.UTC().Format(time.RFC3339), query))
}

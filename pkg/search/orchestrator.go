// Package search plans web searches with a lite model and fans the planned
// queries out to the search API concurrently.
package search

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/edgegate/edgegate/pkg/keys"
	"github.com/edgegate/edgegate/pkg/llm"
	"github.com/edgegate/edgegate/pkg/models"
)

// PlanTimeout bounds the planning call.
const PlanTimeout = 30 * time.Second

// Backend runs a single search query.
type Backend interface {
	Search(ctx context.Context, key, query string, maxResults int) (models.SearchResult, error)
}

// Orchestrator turns a natural-language question into aggregated search
// results.
type Orchestrator struct {
	planner     llm.Completer
	model       string
	backend     Backend
	keys        *keys.Rotator
	planTimeout time.Duration
	now         func() time.Time
}

// New creates an Orchestrator that plans with model via planner and searches
// through backend using keys drawn at random from pool.
func New(planner llm.Completer, model string, backend Backend, pool *keys.Rotator) *Orchestrator {
	return &Orchestrator{
		planner:     planner,
		model:       model,
		backend:     backend,
		keys:        pool,
		planTimeout: PlanTimeout,
		now:         time.Now,
	}
}

// Plan asks the lite model for a search plan. Any failure yields an empty
// plan.
func (o *Orchestrator) Plan(ctx context.Context, query string) models.SearchPlan {
	ctx, cancel := context.WithTimeout(ctx, o.planTimeout)
	defer cancel()

	content, err := o.planner.Complete(ctx, llm.Request{
		Model:  o.model,
		Prompt: PlanPrompt(query, o.now()),
	})
	if err != nil {
		log.WithError(err).WithField("model", o.model).Warn("search planning failed")
		return models.SearchPlan{}
	}
	plan, ok := ParsePlan(content)
	if !ok {
		log.WithField("model", o.model).Debug("search plan not parseable")
		return models.SearchPlan{}
	}
	return plan
}

// Run plans query and executes the plan. The result is never nil. Failed
// sub-queries are dropped and the remaining results keep plan order. The
// only error is keys.ErrEmptyPool when a search is planned but no search
// keys are configured.
func (o *Orchestrator) Run(ctx context.Context, query string) ([]models.SearchResult, error) {
	plan := o.Plan(ctx, query)
	if plan.Empty() {
		return []models.SearchResult{}, nil
	}
	if o.keys.Len() == 0 {
		return nil, fmt.Errorf("search: %w", keys.ErrEmptyPool)
	}

	results := make([]models.SearchResult, len(plan.SearchQueries))
	var g errgroup.Group
	for i, q := range plan.SearchQueries {
		key, err := o.keys.Random()
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		g.Go(func() error {
			res, err := o.backend.Search(ctx, key, q, plan.NumResults)
			if err != nil {
				log.WithError(err).WithField("query", q).Warn("search query failed")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

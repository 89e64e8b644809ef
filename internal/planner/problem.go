// Package planner implements the best-first regression search of
// spec.md §4.7: given a GoalStack and a WorldState, find an ordered
// sequence of actions that would make each goal's objective true, most
// important goal first.
package planner

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/worldstate"
)

// defaultMaxLookaheadDepth caps the regression search's recursion depth
// (spec.md's Open Question #3: an unbounded lookahead can run forever
// chasing an unreachable goal; capping it and memoizing per-node cost
// keeps search time bounded at the cost of occasionally missing a very
// long valid plan).
const defaultMaxLookaheadDepth = 24

// Problem bundles everything one planning session needs: the domain
// library, the current world, the active goals, and the per-session
// bookkeeping (history, metrics) the ranking and tick loop consult.
type Problem struct {
	ID     string
	Domain *domain.Domain
	World  *worldstate.WorldState
	Goals  *goal.Stack

	LocalHistory  *historical.Local
	GlobalHistory *historical.Global      // nil disables cross-problem ranking input
	Metrics       *plannermetrics.Metrics // nil disables metrics emission

	MaxLookaheadDepth int

	// Logger receives the structured planner-core events (goal
	// activated/dropped, plan found/exhausted). Defaults to the global
	// logger; set to logging.Nop() to silence, or to an embedder's own
	// logger via SetLogger.
	Logger *zerolog.Logger

	// cacheLookups/cacheHits back plannermetrics.CacheHitRate (see
	// search.go's recordCacheLookup).
	cacheLookups int
	cacheHits    int
}

// SetLogger overrides the logger Problem emits structured events to.
func (p *Problem) SetLogger(logger *zerolog.Logger) {
	p.Logger = logger
}

// NewProblem returns a Problem ready for planning, with its own local
// action-usage history, and warms the world's reachability cache with
// every predicate any action or event could possibly assert.
// globalHistory and metrics may be nil.
func NewProblem(id string, d *domain.Domain, w *worldstate.WorldState, globalHistory *historical.Global, metrics *plannermetrics.Metrics) *Problem {
	w.SetMetrics(metrics)
	p := &Problem{
		ID:                id,
		Domain:            d,
		World:             w,
		Goals:             goal.NewStack(),
		LocalHistory:      historical.NewLocal(),
		GlobalHistory:     globalHistory,
		Metrics:           metrics,
		MaxLookaheadDepth: defaultMaxLookaheadDepth,
		Logger:            &log.Logger,
	}

	var names []string
	seen := make(map[string]bool)
	collect := func(fo fact.Optional) {
		if !seen[fo.Fact.Predicate.Name] {
			seen[fo.Fact.Predicate.Name] = true
			names = append(names, fo.Fact.Predicate.Name)
		}
	}
	for _, a := range d.Actions() {
		a.Effect.Combined().ForEachFactPattern(collect)
	}
	for _, e := range d.AllEvents() {
		e.Effect.ForEachFactPattern(collect)
	}
	w.Cache().Warm(d.UUID, names)

	return p
}

// context returns the condition.Context the search evaluates
// preconditions and objectives against: the live world, no punctual
// facts (those only exist transiently inside an event round), and the
// domain's axioms.
func (p *Problem) context() condition.Context {
	return condition.Context{Facts: p.World, Derived: p.Domain.DerivedPredicate}
}

package planner

import (
	"time"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/logging"
)

// Step is one action chosen by the search, with the parameter bindings
// that instantiate it.
type Step struct {
	ActionID string
	Bindings condition.Bindings
}

// Plan is an ordered sequence of action instantiations that, applied in
// order from the world the search ran against, makes its goal's
// objective true.
type Plan struct {
	Steps []Step
}

// Empty reports whether the plan requires no action (the goal already
// holds).
func (pl *Plan) Empty() bool { return pl == nil || len(pl.Steps) == 0 }

type candidateInfo struct {
	action   *domain.Action
	bindings condition.Bindings
	subplan  *Plan
}

// PlanForGoal runs the regression search of spec.md §4.7 for a single
// goal: if its objective already holds, the empty plan is returned;
// otherwise the search walks backward from actions whose effect could
// satisfy the objective, recursively resolving each candidate's own
// precondition as a sub-goal, bounded by MaxLookaheadDepth and a
// per-branch action-reuse guard that prevents infinite regression. No
// viable action for the goal is planning termination, not an error
// (spec.md §7): the empty plan is returned and the goal stays on the
// stack for the caller to retry or drop by inactivity.
func (p *Problem) PlanForGoal(g *goal.Goal) *Plan {
	ctx := p.context()
	if ok, _ := condition.IsTrue(g.Objective, ctx, condition.Bindings{}); ok {
		return &Plan{}
	}

	start := time.Now()
	plan, _, ok := p.planFor(g.Objective, condition.Bindings{}, map[string]bool{}, 0, "")
	if p.Metrics != nil {
		p.Metrics.PlanDuration.WithLabelValues(p.ID).Observe(time.Since(start).Seconds())
	}
	if !ok {
		logging.LogPlanExhausted(p.Logger, p.ID, g.Priority)
		return &Plan{}
	}
	logging.LogPlanFound(p.Logger, p.ID, g.Priority, len(plan.Steps))
	return plan
}

// planFor is the recursive regression step. visited holds the action
// ids already used along the current branch, so an action cannot chain
// into its own precondition transitively (spec.md's
// TreeOfAlreadyDonePath cycle guard). lastActionKey is the node key of
// the most recently chosen candidate along this trace (empty at the
// root goal), used to skip its successors-without-interest (spec.md
// §4.5/§4.7 step 2).
func (p *Problem) planFor(goalCond *condition.Condition, bindings condition.Bindings, visited map[string]bool, depth int, lastActionKey string) (*Plan, condition.Bindings, bool) {
	ctx := p.context()
	if ok, refined := condition.IsTrue(goalCond, ctx, bindings); ok {
		return &Plan{}, refined, true
	}
	if depth >= p.MaxLookaheadDepth {
		return nil, bindings, false
	}
	if !p.goalReachable(goalCond) {
		return nil, bindings, false
	}

	withoutInterest := p.Domain.SuccessorsWithoutInterest(lastActionKey)

	var candidates []candidateInfo
	for _, a := range p.candidateActions(goalCond) {
		if visited[a.ID] {
			continue
		}
		if withoutInterest[domain.ActionKey(a.ID)] {
			continue
		}
		ok, trialBindings := effect.CanSatisfyObjective(a.Effect.Combined(), goalCond, bindings.Clone())
		if !ok {
			continue
		}

		preOK, preBindings := condition.IsTrue(a.Precondition, ctx, trialBindings)
		var subplan *Plan
		if preOK {
			subplan = &Plan{}
		} else {
			nextVisited := make(map[string]bool, len(visited)+1)
			for k := range visited {
				nextVisited[k] = true
			}
			nextVisited[a.ID] = true
			var sub bool
			subplan, preBindings, sub = p.planFor(a.Precondition, trialBindings, nextVisited, depth+1, domain.ActionKey(a.ID))
			if !sub {
				continue
			}
		}
		candidates = append(candidates, candidateInfo{action: a, bindings: preBindings, subplan: subplan})
	}

	if len(candidates) == 0 {
		return nil, bindings, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if p.isMoreImportantThan(c, best, ctx) {
			best = c
		}
	}

	steps := append([]Step{}, best.subplan.Steps...)
	steps = append(steps, Step{ActionID: best.action.ID, Bindings: best.bindings})
	return &Plan{Steps: steps}, best.bindings, true
}

// candidateActions returns the goal's precomputed predecessor set
// (spec.md §4.5/§4.7 step 2): every action whose effect can assert or
// retract a predicate goalCond mentions, looked up via
// domain.ActionsWithEffectOnPredicate instead of scanning every
// registered action. Falls back to a full scan when goalCond exposes no
// fact-pattern leaf (a derived-predicate reference or a pure numeric
// comparison), since no predecessor index exists to seed from in that
// case.
func (p *Problem) candidateActions(goalCond *condition.Condition) []*domain.Action {
	seen := map[string]bool{}
	var ids []string
	goalCond.ForEachFactPattern(func(fo fact.Optional) {
		predName := fo.Fact.Predicate.Name
		for _, id := range p.Domain.ActionsWithEffectOnPredicate(predName) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	})
	if len(ids) == 0 {
		return p.Domain.Actions()
	}
	out := make([]*domain.Action, 0, len(ids))
	for _, id := range ids {
		if a, ok := p.Domain.Action(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// goalReachable consults the world's reachability cache: if every
// positive fact leaf of goalCond names a predicate no action or event
// effect has ever asserted, no search can possibly satisfy it, so the
// whole subtree is pruned rather than explored to MaxLookaheadDepth.
func (p *Problem) goalReachable(goalCond *condition.Condition) bool {
	cache := p.World.Cache()
	if uuid, seen := cache.Snapshot(); uuid != p.Domain.UUID || len(seen) == 0 {
		// The domain changed since the cache was warmed, or a world change
		// cleared it: re-seed it from the current actions and events.
		var names []string
		collect := func(fo fact.Optional) { names = append(names, fo.Fact.Predicate.Name) }
		for _, a := range p.Domain.Actions() {
			a.Effect.Combined().ForEachFactPattern(collect)
		}
		for _, e := range p.Domain.AllEvents() {
			e.Effect.ForEachFactPattern(collect)
		}
		cache.Warm(p.Domain.UUID, names)
	}
	anyPositiveLeaf := false
	anyReachable := false
	goalCond.ForEachFactPattern(func(fo fact.Optional) {
		if fo.IsNegated {
			return
		}
		anyPositiveLeaf = true
		if p.World.Cache().EverSeen(fo.Fact.Predicate.Name) {
			anyReachable = true
		}
	})
	if !anyPositiveLeaf {
		return true
	}
	// A cache "hit" is the cache alone ruling the branch unreachable,
	// sparing the caller a recursive search; anyReachable==true means the
	// cache couldn't prune and the search proceeds regardless.
	p.recordCacheLookup(!anyReachable)
	return anyReachable
}

// recordCacheLookup maintains the running fraction of goalReachable
// calls the WorldStateCache alone answered, exported as
// plannermetrics.CacheHitRate.
func (p *Problem) recordCacheLookup(hit bool) {
	p.cacheLookups++
	if hit {
		p.cacheHits++
	}
	if p.Metrics == nil {
		return
	}
	p.Metrics.CacheHitRate.WithLabelValues(p.ID).Set(float64(p.cacheHits) / float64(p.cacheLookups))
}

package planner

import (
	"strconv"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/logging"
)

// GoalPlan pairs a goal with the plan found for it.
type GoalPlan struct {
	Goal *goal.Goal
	Plan *Plan
}

// PlanForMoreImportantGoalPossible walks the goal stack in priority
// order (spec.md §4.7) and returns the plan found for the first
// not-yet-satisfied goal with a viable action. Already-satisfied goals
// are skipped without consuming a search; a goal with no viable action
// yields an empty plan, so the walk falls through to the next goal in
// the same or a lower priority bucket.
func (p *Problem) PlanForMoreImportantGoalPossible() (*GoalPlan, bool) {
	ctx := p.context()
	for _, g := range p.Goals.Goals() {
		if ok, _ := condition.IsTrue(g.Objective, ctx, condition.Bindings{}); ok {
			continue
		}
		if !p.groupEnabled(g, ctx) {
			continue
		}
		plan := p.PlanForGoal(g)
		if !plan.Empty() {
			return &GoalPlan{Goal: g, Plan: plan}, true
		}
	}
	return nil, false
}

// groupEnabled implements spec_full.md §4.a's sometime-after ordering:
// a goal carrying a GroupID cannot activate while any other active
// goal in a numerically-earlier group is still unsatisfied. A goal
// with no GroupID is always enabled.
func (p *Problem) groupEnabled(g *goal.Goal, ctx condition.Context) bool {
	if g.GroupID == "" {
		return true
	}
	for _, other := range p.Goals.Goals() {
		if other == g || other.GroupID == "" || other.GroupID == g.GroupID {
			continue
		}
		if !groupBefore(other.GroupID, g.GroupID) {
			continue
		}
		if ok, _ := condition.IsTrue(other.Objective, ctx, condition.Bindings{}); !ok {
			return false
		}
	}
	return true
}

// groupBefore reports whether group a must be satisfied before group
// b: a numeric comparison when both ids parse as integers, falling
// back to a lexicographic one otherwise.
func groupBefore(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// PlanForEveryGoals computes one plan per active, not-yet-satisfied
// goal, in priority order. Each plan is searched independently against
// the problem's current world state rather than a shadow copy that
// applies higher-priority goals' plans first — spec.md describes
// plan_for_every_goals as repeatedly re-running the single-goal search
// against a world mutated by each prior winner; this implementation
// instead finds every goal's plan against the same starting state, a
// documented simplification (see DESIGN.md) that keeps the per-tick
// cost linear in the goal count instead of quadratic. Goals with no
// viable action are omitted from the result.
func (p *Problem) PlanForEveryGoals() []GoalPlan {
	ctx := p.context()
	var out []GoalPlan
	for _, g := range p.Goals.Goals() {
		if ok, _ := condition.IsTrue(g.Objective, ctx, condition.Bindings{}); ok {
			continue
		}
		if !p.groupEnabled(g, ctx) {
			continue
		}
		plan := p.PlanForGoal(g)
		if plan.Empty() {
			continue
		}
		out = append(out, GoalPlan{Goal: g, Plan: plan})
	}
	return out
}

// ActionsToDoInParallelNow flattens PlanForEveryGoals' per-goal plans
// into one sequential plan (highest-priority goal's steps first), then
// runs the §4.8 parallelization pass over it.
func (p *Problem) ActionsToDoInParallelNow() []ParallelGroup {
	var steps []Step
	for _, gp := range p.PlanForEveryGoals() {
		steps = append(steps, gp.Plan.Steps...)
	}
	return ToParallelPlan(&Plan{Steps: steps}, p.Domain)
}

// AdvanceTick runs one planning round for the scheduler (spec_full.md
// §5.a's continuous-simulation driver): it computes PlanForEveryGoals,
// resets InactivityRounds on every goal a plan was found for, and
// increments it on every unsatisfied goal that wasn't. It does not
// execute the plans themselves — that is left to the caller via
// ExecuteStep, so observers see action-start/action-done notifications
// at the caller's chosen pace rather than all at once.
func (p *Problem) AdvanceTick() []GoalPlan {
	p.reapSatisfiedGoals()
	p.dropInactiveGoals()

	ctx := p.context()
	plans := p.PlanForEveryGoals()
	planned := make(map[*goal.Goal]bool, len(plans))
	for _, gp := range plans {
		planned[gp.Goal] = true
	}
	for _, g := range p.Goals.Goals() {
		if ok, _ := condition.IsTrue(g.Objective, ctx, condition.Bindings{}); ok {
			continue
		}
		if planned[g] {
			g.InactivityRounds = 0
		} else {
			g.InactivityRounds++
		}
	}
	if p.Metrics != nil {
		p.Metrics.ActiveGoals.WithLabelValues(p.ID).Set(float64(p.Goals.Len()))
	}
	return plans
}

// reapSatisfiedGoals drops every satisfied, non-persistent goal from the
// stack (spec.md's iterate_on_goals_and_remove_non_persistent_goals_satisfied),
// run once per tick ahead of PlanForEveryGoals so a goal satisfied by the
// previous tick's execution doesn't consume a search this round.
func (p *Problem) reapSatisfiedGoals() {
	ctx := p.context()
	p.Goals.IterateAndRemoveNonPersistent(func(g *goal.Goal) bool {
		ok, _ := condition.IsTrue(g.Objective, ctx, condition.Bindings{})
		if !ok {
			return false
		}
		if p.Metrics != nil {
			p.Metrics.GoalsSatisfied.WithLabelValues(p.ID).Inc()
		}
		if !g.Persistent {
			logging.LogGoalDropped(p.Logger, p.ID, "satisfied", g.Priority)
			if p.Metrics != nil {
				p.Metrics.GoalsDropped.WithLabelValues(p.ID).Inc()
			}
		}
		return ok
	})
}

// dropInactiveGoals removes every goal whose inactivity deadline has
// elapsed while it sat unsatisfied (spec.md §3/§4.6: "If its inactivity
// deadline elapsed while not active, drop it"), run once per tick
// alongside reapSatisfiedGoals so an unreachable goal doesn't occupy the
// stack forever.
func (p *Problem) dropInactiveGoals() {
	for _, g := range p.Goals.DropExpired() {
		logging.LogGoalDropped(p.Logger, p.ID, "inactivity", g.Priority)
		if p.Metrics != nil {
			p.Metrics.GoalsDropped.WithLabelValues(p.ID).Inc()
		}
	}
}

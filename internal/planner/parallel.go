package planner

import (
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/fact"
)

// ParallelGroup is a batch of steps the parallelization pass judged
// safe to execute simultaneously.
type ParallelGroup struct {
	Steps []Step
}

// ToParallelPlan implements spec.md §4.8's to_parallel_plan: walk a
// sequential plan and greedily pack each step into the most recent
// group whose members don't reference any predicate name its own
// precondition or effect touches, preserving the sequential plan's
// relative order within and across groups.
func ToParallelPlan(plan *Plan, d *domain.Domain) []ParallelGroup {
	var groups []ParallelGroup
	for _, step := range plan.Steps {
		a, ok := d.Action(step.ActionID)
		if !ok {
			groups = append(groups, ParallelGroup{Steps: []Step{step}})
			continue
		}
		if len(groups) > 0 && compatibleWithGroup(d, a, groups[len(groups)-1]) {
			last := len(groups) - 1
			groups[last].Steps = append(groups[last].Steps, step)
			continue
		}
		groups = append(groups, ParallelGroup{Steps: []Step{step}})
	}
	return groups
}

// compatibleWithGroup reports whether action a touches none of the
// predicates any action already in group touches, the same coarse
// name-overlap test domain.go's successor graph uses.
func compatibleWithGroup(d *domain.Domain, a *domain.Action, group ParallelGroup) bool {
	aNames := predicateNames(a)
	for _, step := range group.Steps {
		other, ok := d.Action(step.ActionID)
		if !ok {
			return false
		}
		for n := range predicateNames(other) {
			if aNames[n] {
				return false
			}
		}
	}
	return true
}

func predicateNames(a *domain.Action) map[string]bool {
	names := make(map[string]bool)
	collect := func(fo fact.Optional) { names[fo.Fact.Predicate.Name] = true }
	a.Precondition.ForEachFactPattern(collect)
	a.OverAllCondition.ForEachFactPattern(collect)
	a.Effect.Combined().ForEachFactPattern(collect)
	return names
}

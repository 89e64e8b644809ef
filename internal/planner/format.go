package planner

import (
	"fmt"
	"sort"
	"strings"

	"mud-platform-backend/internal/goal"
)

// PlanToStr renders a plan as one action call per line, in execution
// order, with bindings as key=value pairs sorted by key, e.g.
// "move(from=room1,to=room2)" (spec.md's plan_to_str). The PDDL form is
// internal/pddl's PlanToPDDL, which lists the binding values in
// binding-name order.
func PlanToStr(plan *Plan) string {
	if plan.Empty() {
		return "(no actions needed)"
	}
	var b strings.Builder
	for i, step := range plan.Steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stepToStr(step))
	}
	return b.String()
}

// ParallelPlanToStr renders each parallel group on its own line, with
// simultaneous steps separated by " | ".
func ParallelPlanToStr(groups []ParallelGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		parts := make([]string, len(g.Steps))
		for j, step := range g.Steps {
			parts[j] = stepToStr(step)
		}
		b.WriteString(strings.Join(parts, " | "))
	}
	return b.String()
}

func stepToStr(step Step) string {
	args := make([]string, 0, len(step.Bindings))
	keys := make([]string, 0, len(step.Bindings))
	for k := range step.Bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, step.Bindings[k].String()))
	}
	return fmt.Sprintf("%s(%s)", step.ActionID, strings.Join(args, ","))
}

// GoalsToStr renders a goal stack's current goals, highest priority
// first, one per line (spec.md's goals_to_str).
func GoalsToStr(goals []*goal.Goal) string {
	var b strings.Builder
	for i, g := range goals {
		if i > 0 {
			b.WriteByte('\n')
		}
		flags := ""
		if g.Persistent {
			flags += " persist"
		}
		if g.OneStepTowards {
			flags += " oneStepTowards"
		}
		if g.GroupID != "" {
			flags += fmt.Sprintf(" group=%s", g.GroupID)
		}
		b.WriteString(fmt.Sprintf("[priority=%d]%s %s", g.Priority, flags, g.Objective.String()))
	}
	return b.String()
}

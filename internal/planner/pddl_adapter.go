package planner

import (
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/pddl"
)

// ToPDDLSteps converts a Plan's steps into the shape internal/pddl needs
// to render a `(plan ...)` form, keeping pddl free of any dependency on
// this package.
func (pl *Plan) ToPDDLSteps() []pddl.Step {
	return stepsToPDDL(pl.Steps)
}

// ToPDDLGroups converts a parallelization pass's groups the same way.
func ToPDDLGroups(groups []ParallelGroup) [][]pddl.Step {
	out := make([][]pddl.Step, len(groups))
	for i, g := range groups {
		out[i] = stepsToPDDL(g.Steps)
	}
	return out
}

func stepsToPDDL(steps []Step) []pddl.Step {
	out := make([]pddl.Step, len(steps))
	for i, st := range steps {
		out[i] = pddl.Step{ActionID: st.ActionID, Bindings: map[string]entity.Entity(st.Bindings)}
	}
	return out
}

// Package goal implements the priority-ordered GoalStack of spec.md
// §4.6: the set of objectives the planner is currently trying to
// satisfy, each with a priority bucket, persistence flag, and optional
// group id for sometime-after style constraints (spec_full.md §4.a).
package goal

import (
	"sort"

	"mud-platform-backend/internal/condition"
)

// Goal is one objective the planner should find a plan for.
type Goal struct {
	Objective *condition.Condition
	Priority  int

	// Persistent goals stay on the stack after the planner satisfies them
	// instead of being dropped (spec.md's "persist" wrapper).
	Persistent bool

	// OneStepTowards goals are satisfied by taking one action that
	// merely makes progress (per an action's isMoreImportantThan
	// ranking), not necessarily one that completes the objective.
	OneStepTowards bool

	// GroupID ties a goal to a sometime-after constraint group
	// (spec_full.md §4.a): a goal is not planned for while any goal in
	// an earlier group (numeric order when both ids are integers,
	// otherwise lexicographic) is still unsatisfied.
	GroupID string

	// InactivityRounds counts consecutive planning rounds in which this
	// goal could not be progressed; the planner uses it to decide when
	// to give up on an unreachable goal (spec.md's goal_inactivity
	// edge case).
	InactivityRounds int

	// InactivityDeadline caps InactivityRounds (spec.md §4.6/§3: "If its
	// inactivity deadline elapsed while not active, drop it"). Zero means
	// no deadline: the goal is never dropped for inactivity alone.
	InactivityDeadline int

	id uint64
}

// Stack is the priority-ordered collection of active goals. Goals with
// a higher Priority value are considered first; ties keep insertion
// order (stable), per spec.md §4.6's ordering invariant.
type Stack struct {
	goals  []*Goal
	nextID uint64
}

// NewStack returns an empty goal stack.
func NewStack() *Stack {
	return &Stack{}
}

// Add inserts a goal, assigning it a stable tie-break id.
func (s *Stack) Add(g *Goal) {
	g.id = s.nextID
	s.nextID++
	s.goals = append(s.goals, g)
	s.resort()
}

// AddAll inserts every goal in gs, in order.
func (s *Stack) AddAll(gs []*Goal) {
	for _, g := range gs {
		s.Add(g)
	}
}

// Goals returns the current goals, highest priority first (I4: a
// strict, stable total order).
func (s *Stack) Goals() []*Goal {
	out := make([]*Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// Remove deletes g from the stack (used once a non-persistent goal is
// satisfied).
func (s *Stack) Remove(g *Goal) {
	for i, existing := range s.goals {
		if existing == g {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return
		}
	}
}

// IterateAndRemoveNonPersistent walks goals in priority order, invoking
// satisfied for each. Any goal satisfied reports true is removed unless
// Persistent, implementing spec.md's
// iterate_on_goals_and_remove_non_persistent_goals_satisfied (I5: a
// persistent goal is never permanently dropped just because it was
// satisfied once).
func (s *Stack) IterateAndRemoveNonPersistent(satisfied func(*Goal) bool) {
	var kept []*Goal
	for _, g := range s.goals {
		if satisfied(g) {
			g.InactivityRounds = 0
			if g.Persistent {
				kept = append(kept, g)
			}
			continue
		}
		kept = append(kept, g)
	}
	s.goals = kept
}

// DropExpired removes every goal whose InactivityDeadline is set and has
// been exceeded by InactivityRounds, regardless of Persistent — an
// unreachable goal is dropped outright rather than kept forever
// (spec.md §3/§4.6). It returns the dropped goals for the caller to log
// or count.
func (s *Stack) DropExpired() []*Goal {
	var dropped []*Goal
	var kept []*Goal
	for _, g := range s.goals {
		if g.InactivityDeadline > 0 && g.InactivityRounds > g.InactivityDeadline {
			dropped = append(dropped, g)
			continue
		}
		kept = append(kept, g)
	}
	s.goals = kept
	return dropped
}

// Len reports how many goals are currently active.
func (s *Stack) Len() int { return len(s.goals) }

// resort re-establishes priority order, highest first, stable on
// insertion order for ties.
func (s *Stack) resort() {
	sort.SliceStable(s.goals, func(i, j int) bool {
		return s.goals[i].Priority > s.goals[j].Priority
	})
}

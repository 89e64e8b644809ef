// Package domain implements the immutable Action/Event library and the
// precomputed successor graph of spec.md §3 and §4.5.
package domain

import (
	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/ontology"
)

// GoalTemplate is a not-yet-instantiated Goal an Action or Event effect
// may enqueue: its objective still references the action/event's own
// parameters.
type GoalTemplate struct {
	Objective *condition.Condition
	Priority  int
	Persistent bool
}

// DurationExpr is the relative duration a durative Action takes, as a
// constant (spec.md's Non-goals exclude continuous time beyond this).
type DurationExpr struct {
	Value float64
}

// ActionEffect bundles the four effect phases of spec.md §3/§4.a:
// at-start, at-end, potentially-at-end, plus the goals an action
// enqueues on success.
type ActionEffect struct {
	AtStart          *effect.Effect
	AtEnd            *effect.Effect
	PotentiallyAtEnd *effect.Effect

	GoalsToAdd                []GoalTemplate
	GoalsToAddCurrentPriority []GoalTemplate
}

// Combined returns the effect as it should be regressed against during
// search: at-start AND at-end AND potentially-at-end, since for
// instantaneous (non-durative) actions all three collapse onto the same
// moment and the planner treats them as one unit for reachability.
func (e ActionEffect) Combined() *effect.Effect {
	return effect.And(e.AtStart, e.AtEnd, e.PotentiallyAtEnd)
}

// Action is an agent-chosen transformation with typed parameters.
type Action struct {
	ID                           string
	Parameters                   []ontology.Parameter
	Precondition                 *condition.Condition
	OverAllCondition             *condition.Condition
	Effect                       ActionEffect
	Duration                     *DurationExpr
	PreferInContext              *condition.Condition
	HighImportanceOfNotRepeating bool
}

// Event is a reactive rule: fires automatically once its precondition
// becomes true.
type Event struct {
	SetID        string
	ID           string
	Parameters   []ontology.Parameter
	Precondition *condition.Condition
	Effect       *effect.Effect
	GoalsToAdd   []GoalTemplate
}

// Key identifies an event uniquely within a Domain as (set_id, event_id).
func (e *Event) Key() string {
	return "event:" + e.SetID + ":" + e.ID
}

// SetOfEvents is a named collection of Events, added/removed from a
// Domain as a unit (spec.md §3/§6 add_event_set/remove_event_set).
type SetOfEvents struct {
	ID     string
	Events map[string]*Event
}

func actionKey(id string) string { return "action:" + id }

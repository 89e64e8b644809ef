package planner

import (
	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/planerr"
)

// ExecuteStep applies a chosen action's full effect (at-start AND
// at-end AND potentially-at-end, as one instantaneous transition),
// records it in this problem's action-usage history, and enqueues any
// goals the action's effect adds. Durative actions that must be started
// and finished as two separate world transitions should use
// StartAction/FinishAction instead.
func (p *Problem) ExecuteStep(step Step) error {
	a, ok := p.Domain.Action(step.ActionID)
	if !ok {
		return planerr.Reference("unknown action id %q", step.ActionID)
	}
	if err := p.applyEffect(a.Effect.Combined(), step.Bindings); err != nil {
		return err
	}
	p.recordUsage(a.ID)
	p.enqueueGoals(a.Effect.GoalsToAdd)
	p.enqueueGoals(a.Effect.GoalsToAddCurrentPriority)
	return nil
}

// StartAction applies a durative action's at-start effect only, for
// callers driving the start/end lifecycle directly (spec_full.md §4.a's
// durative actions).
func (p *Problem) StartAction(step Step) error {
	a, ok := p.Domain.Action(step.ActionID)
	if !ok {
		return planerr.Reference("unknown action id %q", step.ActionID)
	}
	return p.applyEffect(a.Effect.AtStart, step.Bindings)
}

// FinishAction applies a durative action's at-end and
// potentially-at-end effects, records usage, and enqueues its goals.
func (p *Problem) FinishAction(step Step) error {
	a, ok := p.Domain.Action(step.ActionID)
	if !ok {
		return planerr.Reference("unknown action id %q", step.ActionID)
	}
	combined := a.Effect.AtEnd
	if a.Effect.PotentiallyAtEnd != nil {
		combined = effect.And(combined, a.Effect.PotentiallyAtEnd)
	}
	if err := p.applyEffect(combined, step.Bindings); err != nil {
		return err
	}
	p.recordUsage(a.ID)
	p.enqueueGoals(a.Effect.GoalsToAdd)
	p.enqueueGoals(a.Effect.GoalsToAddCurrentPriority)
	return nil
}

func (p *Problem) applyEffect(e *effect.Effect, bindings condition.Bindings) error {
	ctx := p.context()
	changes, err := effect.Collect(e, ctx, bindings)
	if err != nil {
		return err
	}
	return p.World.Modify(changes)
}

func (p *Problem) recordUsage(actionID string) {
	p.LocalHistory.Record(actionID)
	if p.GlobalHistory != nil {
		p.GlobalHistory.Record(actionID)
	}
	if p.Metrics != nil {
		p.Metrics.ActionHistoryCount.WithLabelValues(actionID).Set(float64(p.LocalHistory.Count(actionID)))
	}
}

func (p *Problem) enqueueGoals(templates []domain.GoalTemplate) {
	for _, t := range templates {
		p.Goals.Add(&goal.Goal{
			Objective:  t.Objective,
			Priority:   t.Priority,
			Persistent: t.Persistent,
		})
		logging.LogGoalActivated(p.Logger, p.ID, t.Priority)
	}
}

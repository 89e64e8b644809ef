package planner

import (
	"errors"
	"testing"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/planerr"
)

func TestExecuteStep_AppliesEffectAndRecordsHistory(t *testing.T) {
	p, openFact, _ := doorWorld(t)

	if err := p.ExecuteStep(Step{ActionID: "open_door"}); err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}
	if !p.World.Contains(*openFact) {
		t.Fatal("expected open() to hold after executing open_door")
	}
	if p.LocalHistory.Count("open_door") != 1 {
		t.Fatalf("expected local history count 1, got %d", p.LocalHistory.Count("open_door"))
	}
	if p.GlobalHistory.Count("open_door") != 1 {
		t.Fatalf("expected global history count 1, got %d", p.GlobalHistory.Count("open_door"))
	}
}

func TestExecuteStep_UnknownActionIsReferenceError(t *testing.T) {
	p, _, _ := doorWorld(t)

	err := p.ExecuteStep(Step{ActionID: "does_not_exist"})
	if err == nil {
		t.Fatal("expected an error for an unknown action id")
	}
	var perr *planerr.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *planerr.Error, got %T: %v", err, err)
	}
	if perr.Kind != planerr.KindReference {
		t.Fatalf("expected KindReference, got %v", perr.Kind)
	}
}

func TestStartThenFinishAction_TwoPhaseApplication(t *testing.T) {
	p, openFact := durativeDoorWorld(t)

	step := Step{ActionID: "open_door_slowly", Bindings: condition.Bindings{}}
	if err := p.StartAction(step); err != nil {
		t.Fatalf("StartAction: %v", err)
	}
	if p.World.Contains(*openFact) {
		t.Fatal("open() should not hold until FinishAction runs")
	}

	if err := p.FinishAction(step); err != nil {
		t.Fatalf("FinishAction: %v", err)
	}
	if !p.World.Contains(*openFact) {
		t.Fatal("expected open() to hold after FinishAction")
	}
	if p.LocalHistory.Count("open_door_slowly") != 1 {
		t.Fatalf("expected FinishAction to record usage once, got %d", p.LocalHistory.Count("open_door_slowly"))
	}
}

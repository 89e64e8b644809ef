package planner

import (
	"strings"
	"testing"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/ontology"
)

func TestPlanToStr_EmptyPlan(t *testing.T) {
	if got := PlanToStr(&Plan{}); got != "(no actions needed)" {
		t.Fatalf("expected the no-actions sentinel, got %q", got)
	}
}

func TestPlanToStr_RendersStepsInOrderWithSortedBindings(t *testing.T) {
	plan := &Plan{Steps: []Step{
		{ActionID: "move", Bindings: condition.Bindings{
			"to":   entity.NewConcrete("room2", nil),
			"from": entity.NewConcrete("room1", nil),
		}},
		{ActionID: "open_door"},
	}}
	got := PlanToStr(plan)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "move(from=room1,to=room2)" {
		t.Fatalf("expected bindings sorted by key, got %q", lines[0])
	}
	if lines[1] != "open_door()" {
		t.Fatalf("expected a bare action call, got %q", lines[1])
	}
}

func TestParallelPlanToStr_JoinsSimultaneousStepsWithPipe(t *testing.T) {
	groups := []ParallelGroup{
		{Steps: []Step{{ActionID: "a"}, {ActionID: "b"}}},
		{Steps: []Step{{ActionID: "c"}}},
	}
	got := ParallelPlanToStr(groups)
	want := "a() | b()\nc()"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGoalsToStr_RendersFlagsAndObjective(t *testing.T) {
	f := mustFactForFormatTest(t)
	goals := []*goal.Goal{
		{Objective: condition.Fact(f, false), Priority: 3, Persistent: true, GroupID: "g1"},
	}
	got := GoalsToStr(goals)
	if !strings.Contains(got, "[priority=3]") {
		t.Fatalf("expected priority tag, got %q", got)
	}
	if !strings.Contains(got, "persist") || !strings.Contains(got, "group=g1") {
		t.Fatalf("expected persist and group flags, got %q", got)
	}
}

func mustFactForFormatTest(t *testing.T) fact.Fact {
	t.Helper()
	store := ontology.NewStore()
	pred := &ontology.Predicate{Name: "open"}
	if err := store.AddPredicate(pred); err != nil {
		t.Fatalf("AddPredicate: %v", err)
	}
	f, err := fact.New(pred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	return f
}

package planner

import (
	"testing"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/worldstate"
)

func TestPlanForGoal_AlreadySatisfiedReturnsEmptyPlan(t *testing.T) {
	p, openFact, _ := doorWorld(t)
	if err := p.World.AddFacts([]fact.Fact{*openFact}); err != nil {
		t.Fatalf("AddFacts: %v", err)
	}

	g := &goal.Goal{Objective: condition.Fact(*openFact, false), Priority: 1}
	plan := p.PlanForGoal(g)
	if !plan.Empty() {
		t.Fatalf("expected empty plan for already-satisfied goal, got %+v", plan.Steps)
	}
}

func TestPlanForGoal_FindsSingleStepPlan(t *testing.T) {
	p, openFact, _ := doorWorld(t)

	g := &goal.Goal{Objective: condition.Fact(*openFact, false), Priority: 1}
	plan := p.PlanForGoal(g)
	if plan.Empty() {
		t.Fatal("expected a non-empty plan")
	}
	if len(plan.Steps) != 1 || plan.Steps[0].ActionID != "open_door" {
		t.Fatalf("expected [open_door], got %+v", plan.Steps)
	}
}

func TestPlanForGoal_UnreachableWhenPreconditionBlocked(t *testing.T) {
	p, openFact, lockedFact := doorWorld(t)
	if err := p.World.AddFacts([]fact.Fact{*lockedFact}); err != nil {
		t.Fatalf("AddFacts: %v", err)
	}

	g := &goal.Goal{Objective: condition.Fact(*openFact, false), Priority: 1}
	plan := p.PlanForGoal(g)
	if !plan.Empty() {
		t.Fatalf("expected no plan while locked, got %+v", plan.Steps)
	}
}

func TestCandidateActions_SeedsFromActionsWithEffectOnPredicateNotFullScan(t *testing.T) {
	p, openFact, _ := doorWorld(t)

	// "unrelated" has no effect on "open" at all, so it must never show
	// up among open's candidate actions even though it is registered in
	// the domain alongside open_door.
	unrelatedPred := &ontology.Predicate{Name: "unrelated"}
	if err := p.Domain.Ontology.AddPredicate(unrelatedPred); err != nil {
		t.Fatalf("AddPredicate(unrelated): %v", err)
	}
	unrelatedFact, err := fact.New(unrelatedPred, nil)
	if err != nil {
		t.Fatalf("fact.New(unrelated): %v", err)
	}
	p.Domain.AddAction(&domain.Action{ID: "unrelated_action", Effect: domain.ActionEffect{AtStart: effect.Fact(unrelatedFact, false)}})

	goalCond := condition.Fact(*openFact, false)
	candidates := p.candidateActions(goalCond)
	for _, a := range candidates {
		if a.ID == "unrelated_action" {
			t.Fatalf("expected unrelated_action to be excluded from open's predecessor set, got %v", candidates)
		}
	}
	found := false
	for _, a := range candidates {
		if a.ID == "open_door" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected open_door in open's predecessor set, got %v", candidates)
	}
}

func TestCandidateActions_FallsBackToFullScanWithNoFactPatternLeaf(t *testing.T) {
	p, _, _ := doorWorld(t)

	// A condition with no fact-pattern leaf (here, a nil condition, on
	// which ForEachFactPattern visits nothing) has no predecessor index
	// to seed from, so every registered action is considered.
	candidates := p.candidateActions(nil)
	if len(candidates) != len(p.Domain.Actions()) {
		t.Fatalf("expected a full scan fallback, got %d of %d actions", len(candidates), len(p.Domain.Actions()))
	}
}

func TestPlanFor_SkipsSuccessorsWithoutInterestOfLastChosenAction(t *testing.T) {
	store := ontology.NewStore()
	openPred := &ontology.Predicate{Name: "open"}
	litPred := &ontology.Predicate{Name: "lit"}
	if err := store.AddPredicate(openPred); err != nil {
		t.Fatalf("AddPredicate(open): %v", err)
	}
	if err := store.AddPredicate(litPred); err != nil {
		t.Fatalf("AddPredicate(lit): %v", err)
	}
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New(open): %v", err)
	}
	litFact, err := fact.New(litPred, nil)
	if err != nil {
		t.Fatalf("fact.New(lit): %v", err)
	}

	d := domain.New(store)
	// "open_door" requires lit() and asserts open(). "confusing_light"
	// requires not-open() and asserts lit() — its precondition directly
	// contradicts open_door's effect, so it is a without-interest
	// successor of open_door and must be skipped when regressing into
	// open_door's own precondition; "light" asserts lit() with no
	// precondition and is the only action that should survive.
	d.AddAction(&domain.Action{
		ID:           "open_door",
		Precondition: condition.Fact(litFact, false),
		Effect:       domain.ActionEffect{AtStart: effect.Fact(openFact, false)},
	})
	d.AddAction(&domain.Action{
		ID:           "confusing_light",
		Precondition: condition.Not(condition.Fact(openFact, false)),
		Effect:       domain.ActionEffect{AtStart: effect.Fact(litFact, false)},
	})
	d.AddAction(&domain.Action{ID: "light", Effect: domain.ActionEffect{AtStart: effect.Fact(litFact, false)}})

	without := d.SuccessorsWithoutInterest(domain.ActionKey("open_door"))
	if !without[domain.ActionKey("confusing_light")] {
		t.Fatalf("expected confusing_light flagged without-interest after open_door, got %v", without)
	}

	ws := worldstate.New(d)
	p := NewProblem("lit-door-problem", d, ws, historical.NewGlobal(), plannermetrics.NewMetrics())

	g := &goal.Goal{Objective: condition.Fact(openFact, false), Priority: 1}
	plan := p.PlanForGoal(g)
	if plan.Empty() {
		t.Fatal("expected a non-empty plan")
	}
	if len(plan.Steps) != 2 || plan.Steps[0].ActionID != "light" || plan.Steps[1].ActionID != "open_door" {
		t.Fatalf("expected [light, open_door], got %+v", plan.Steps)
	}
}

func TestPlanForGoal_NoViableActionForUnknownPredicateIsEmpty(t *testing.T) {
	p, _, _ := doorWorld(t)

	unknownFact, err := newUnknownFact(p)
	if err != nil {
		t.Fatalf("newUnknownFact: %v", err)
	}
	g := &goal.Goal{Objective: condition.Fact(unknownFact, false), Priority: 1}
	plan := p.PlanForGoal(g)
	if !plan.Empty() {
		t.Fatalf("expected empty plan for an unreachable predicate, got %+v", plan.Steps)
	}
}

package planner

import (
	"testing"

	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
)

func TestToParallelPlan_GroupsIndependentActionsTogether(t *testing.T) {
	store := ontology.NewStore()
	litPred := &ontology.Predicate{Name: "lit"}
	openPred := &ontology.Predicate{Name: "open"}
	store.AddPredicate(litPred)
	store.AddPredicate(openPred)
	litFact, _ := fact.New(litPred, nil)
	openFact, _ := fact.New(openPred, nil)

	d := domain.New(store)
	d.AddAction(&domain.Action{ID: "light_candle", Effect: domain.ActionEffect{AtStart: effect.Fact(litFact, false)}})
	d.AddAction(&domain.Action{ID: "open_door", Effect: domain.ActionEffect{AtStart: effect.Fact(openFact, false)}})

	plan := &Plan{Steps: []Step{{ActionID: "light_candle"}, {ActionID: "open_door"}}}
	groups := ToParallelPlan(plan, d)
	if len(groups) != 1 {
		t.Fatalf("expected both independent steps packed into 1 group, got %d", len(groups))
	}
	if len(groups[0].Steps) != 2 {
		t.Fatalf("expected 2 steps in the single group, got %d", len(groups[0].Steps))
	}
}

func TestToParallelPlan_SeparatesActionsSharingAPredicate(t *testing.T) {
	store := ontology.NewStore()
	openPred := &ontology.Predicate{Name: "open"}
	store.AddPredicate(openPred)
	openFact, _ := fact.New(openPred, nil)

	d := domain.New(store)
	d.AddAction(&domain.Action{ID: "open_door", Effect: domain.ActionEffect{AtStart: effect.Fact(openFact, false)}})
	d.AddAction(&domain.Action{ID: "close_door", Effect: domain.ActionEffect{AtStart: effect.Fact(openFact, true)}})

	plan := &Plan{Steps: []Step{{ActionID: "open_door"}, {ActionID: "close_door"}}}
	groups := ToParallelPlan(plan, d)
	if len(groups) != 2 {
		t.Fatalf("expected open_door/close_door to land in separate groups (both touch 'open'), got %d", len(groups))
	}
}

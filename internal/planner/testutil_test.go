package planner

import (
	"testing"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/worldstate"
)

// doorWorld builds a minimal two-predicate domain: "open" and "locked"
// are nullary relations, with a single action "open_door" whose
// precondition is "not locked" and whose effect adds "open". Grounded
// on the teacher's table-driven unit-test style (small, explicit
// fixtures per package) rather than a shared large fixture.
func doorWorld(t *testing.T) (*Problem, *fact.Fact, *fact.Fact) {
	t.Helper()

	store := ontology.NewStore()
	openPred := &ontology.Predicate{Name: "open"}
	lockedPred := &ontology.Predicate{Name: "locked"}
	if err := store.AddPredicate(openPred); err != nil {
		t.Fatalf("AddPredicate(open): %v", err)
	}
	if err := store.AddPredicate(lockedPred); err != nil {
		t.Fatalf("AddPredicate(locked): %v", err)
	}

	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New(open): %v", err)
	}
	lockedFact, err := fact.New(lockedPred, nil)
	if err != nil {
		t.Fatalf("fact.New(locked): %v", err)
	}

	d := domain.New(store)
	d.AddAction(&domain.Action{
		ID:           "open_door",
		Precondition: condition.Not(condition.Fact(lockedFact, false)),
		Effect: domain.ActionEffect{
			AtStart: effect.Fact(openFact, false),
		},
	})

	ws := worldstate.New(d)
	p := NewProblem("door-problem", d, ws, historical.NewGlobal(), plannermetrics.NewMetrics())
	return p, &openFact, &lockedFact
}

// durativeDoorWorld builds a domain with one durative action,
// "open_door_slowly", whose at-start effect is a no-op and whose
// at-end effect adds "open" — so StartAction alone must not yet make
// the world satisfy "open" (spec_full.md §4.a's two-phase lifecycle).
func durativeDoorWorld(t *testing.T) (*Problem, *fact.Fact) {
	t.Helper()

	store := ontology.NewStore()
	openPred := &ontology.Predicate{Name: "open"}
	if err := store.AddPredicate(openPred); err != nil {
		t.Fatalf("AddPredicate(open): %v", err)
	}
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New(open): %v", err)
	}

	d := domain.New(store)
	d.AddAction(&domain.Action{
		ID: "open_door_slowly",
		Effect: domain.ActionEffect{
			AtEnd: effect.Fact(openFact, false),
		},
	})

	ws := worldstate.New(d)
	p := NewProblem("durative-door-problem", d, ws, historical.NewGlobal(), plannermetrics.NewMetrics())
	return p, &openFact
}

// newUnknownFact registers a predicate no action or event in p's domain
// ever mentions, so its reachability cache correctly reports it as
// unreachable (internal/worldstate/cache.go's EverSeen).
func newUnknownFact(p *Problem) (fact.Fact, error) {
	pred := &ontology.Predicate{Name: "unobtainium"}
	if err := p.Domain.Ontology.AddPredicate(pred); err != nil {
		return fact.Fact{}, err
	}
	return fact.New(pred, nil)
}

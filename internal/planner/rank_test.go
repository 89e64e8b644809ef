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

// twoActionDoorWorld builds a domain with two actions, "a" and "b",
// both of which satisfy "open" with no precondition, so ranking alone
// decides which the search prefers.
func twoActionDoorWorld(t *testing.T) (*Problem, domain.Action, domain.Action) {
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
	actionA := domain.Action{ID: "a", Effect: domain.ActionEffect{AtStart: effect.Fact(openFact, false)}}
	actionB := domain.Action{ID: "b", Effect: domain.ActionEffect{AtStart: effect.Fact(openFact, false)}}
	d.AddAction(&actionA)
	d.AddAction(&actionB)

	ws := worldstate.New(d)
	p := NewProblem("rank-problem", d, ws, historical.NewGlobal(), plannermetrics.NewMetrics())
	return p, actionA, actionB
}

func TestIsMoreImportantThan_LessUsedActionPreferred(t *testing.T) {
	p, actionA, actionB := twoActionDoorWorld(t)
	p.LocalHistory.Record("a")

	ctx := p.context()
	candA := candidateInfo{action: &actionA, bindings: condition.Bindings{}, subplan: &Plan{}}
	candB := candidateInfo{action: &actionB, bindings: condition.Bindings{}, subplan: &Plan{}}

	if p.isMoreImportantThan(candA, candB, ctx) {
		t.Fatal("expected the never-used action b to rank ahead of the once-used action a")
	}
	if !p.isMoreImportantThan(candB, candA, ctx) {
		t.Fatal("expected b (less used) to be more important than a")
	}
}

func TestIsMoreImportantThan_HighImportanceOfNotRepeatingOverridesUsage(t *testing.T) {
	p, actionA, actionB := twoActionDoorWorld(t)
	actionA.HighImportanceOfNotRepeating = true
	p.LocalHistory.Record("a")
	for i := 0; i < 5; i++ {
		p.LocalHistory.Record("b")
	}

	ctx := p.context()
	candA := candidateInfo{action: &actionA, bindings: condition.Bindings{}, subplan: &Plan{}}
	candB := candidateInfo{action: &actionB, bindings: condition.Bindings{}, subplan: &Plan{}}

	// Plain usage-count ranking (stage 3) would favor a (used once vs
	// five times); the repeat-penalty stage (stage 1) overrides that
	// because a alone carries HighImportanceOfNotRepeating.
	if p.isMoreImportantThan(candA, candB, ctx) {
		t.Fatal("expected a's HighImportanceOfNotRepeating penalty to override its lower raw usage count")
	}
}

func TestIsMoreImportantThan_PreferInContextBreaksTie(t *testing.T) {
	p, actionA, actionB := twoActionDoorWorld(t)
	actionA.PreferInContext = condition.Fact(mustFact(t, p, "open"), true)  // "not open": holds, world has no open fact yet
	actionB.PreferInContext = condition.Fact(mustFact(t, p, "open"), false) // "open": does not hold

	ctx := p.context()
	candA := candidateInfo{action: &actionA, bindings: condition.Bindings{}, subplan: &Plan{}}
	candB := candidateInfo{action: &actionB, bindings: condition.Bindings{}, subplan: &Plan{}}

	if !p.isMoreImportantThan(candA, candB, ctx) {
		t.Fatal("expected a's satisfied PreferInContext to outrank b")
	}
}

func TestIsMoreImportantThan_PreferInContextCountsFactsNotJustBoolean(t *testing.T) {
	p, actionA, actionB := twoActionDoorWorld(t)

	litPred := &ontology.Predicate{Name: "lit"}
	if err := p.Domain.Ontology.AddPredicate(litPred); err != nil {
		t.Fatalf("AddPredicate(lit): %v", err)
	}
	litFact, err := fact.New(litPred, nil)
	if err != nil {
		t.Fatalf("fact.New(lit): %v", err)
	}
	if err := p.World.AddFacts([]fact.Fact{litFact}); err != nil {
		t.Fatalf("AddFacts(lit): %v", err)
	}

	// a's PreferInContext holds 2 of 2 atomic facts (lit, not-open); b's
	// holds only 1 of 2 (lit, but also requires open which doesn't hold).
	// A boolean-only preference check would call both "false" (neither
	// whole conjunction holds) and fall through to the next tie-break;
	// the count-based ranking must still prefer a for satisfying more of
	// its own preferred facts.
	actionA.PreferInContext = condition.And(
		condition.Fact(litFact, false),
		condition.Fact(mustFact(t, p, "open"), true),
	)
	actionB.PreferInContext = condition.And(
		condition.Fact(litFact, false),
		condition.Fact(mustFact(t, p, "open"), false),
	)

	ctx := p.context()
	candA := candidateInfo{action: &actionA, bindings: condition.Bindings{}, subplan: &Plan{}}
	candB := candidateInfo{action: &actionB, bindings: condition.Bindings{}, subplan: &Plan{}}

	if !p.isMoreImportantThan(candA, candB, ctx) {
		t.Fatal("expected a (2 of 2 prefer_in_context facts hold) to outrank b (1 of 2)")
	}
}

func mustFact(t *testing.T, p *Problem, predName string) fact.Fact {
	t.Helper()
	pred, ok := p.Domain.Ontology.Predicate(predName)
	if !ok {
		t.Fatalf("predicate %q not found", predName)
	}
	f, err := fact.New(pred, nil)
	if err != nil {
		t.Fatalf("fact.New(%s): %v", predName, err)
	}
	return f
}

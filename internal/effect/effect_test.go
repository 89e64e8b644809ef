package effect

import (
	"testing"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/setoffacts"
)

func newCountStore(t *testing.T) (*ontology.Store, *ontology.Predicate, *ontology.Predicate) {
	t.Helper()
	store := ontology.NewStore()
	numType, err := store.AddType("Number", "")
	if err != nil {
		t.Fatalf("AddType: %v", err)
	}
	countPred := &ontology.Predicate{Name: "count", FluentType: numType}
	openPred := &ontology.Predicate{Name: "open"}
	if err := store.AddPredicate(countPred); err != nil {
		t.Fatalf("AddPredicate(count): %v", err)
	}
	if err := store.AddPredicate(openPred); err != nil {
		t.Fatalf("AddPredicate(open): %v", err)
	}
	return store, countPred, openPred
}

func TestAnd_NilFoldingAndCollapse(t *testing.T) {
	if And() != nil {
		t.Fatal("expected And() with no args to be nil")
	}
	if And(nil, nil) != nil {
		t.Fatal("expected And(nil, nil) to be nil")
	}

	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	single := Fact(openFact, false)
	if got := And(nil, single, nil); got != single {
		t.Fatal("expected And to collapse to the single non-nil effect unchanged")
	}
}

func TestCollect_FactLeafAddsOrRemoves(t *testing.T) {
	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	ctx := condition.Context{Facts: setoffacts.New(nil)}

	changes, err := Collect(Fact(openFact, false), ctx, condition.Bindings{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(changes) != 1 || changes[0].Remove {
		t.Fatalf("expected a single non-removing change, got %+v", changes)
	}

	changes, err = Collect(Fact(openFact, true), ctx, condition.Bindings{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(changes) != 1 || !changes[0].Remove {
		t.Fatalf("expected a single removing change, got %+v", changes)
	}
}

func TestCollect_WhenGuardsEffect(t *testing.T) {
	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	facts := setoffacts.New(nil)
	ctx := condition.Context{Facts: facts}

	falseGuard := condition.Fact(openFact, true) // "not open" -- false once open is asserted
	guarded := When(falseGuard, Fact(openFact, false))

	if err := facts.Insert(openFact, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	changes, err := Collect(guarded, ctx, condition.Bindings{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected the When guard to suppress the effect, got %+v", changes)
	}
}

func TestCollect_IncreaseAccumulatesOnExistingFluent(t *testing.T) {
	_, countPred, _ := newCountStore(t)
	zero := entity.NewConcrete("2", countPred.FluentType)
	countFact, err := fact.New(countPred, nil, fact.WithFluent(zero, false))
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	facts := setoffacts.New(nil)
	if err := facts.Insert(countFact, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ctx := condition.Context{Facts: facts}

	pattern, err := fact.New(countPred, nil, fact.AllowMissingFluent())
	if err != nil {
		t.Fatalf("fact.New(pattern): %v", err)
	}
	changes, err := Collect(Increase(pattern, Num(3)), ctx, condition.Bindings{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected a single fluent-assignment change, got %+v", changes)
	}
	if changes[0].Fact.Fluent == nil || changes[0].Fact.Fluent.Value != "5" {
		t.Fatalf("expected the fluent to increase from 2 to 5, got %+v", changes[0].Fact.Fluent)
	}
}

func TestForEachFactPattern_VisitsAllLeaves(t *testing.T) {
	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}

	combined := And(Fact(openFact, false), Fact(openFact, true))
	var visited int
	combined.ForEachFactPattern(func(fact.Optional) { visited++ })
	if visited != 2 {
		t.Fatalf("expected 2 visited leaves, got %d", visited)
	}
}

func TestForEachFactPattern_NilEffectIsNoop(t *testing.T) {
	var e *Effect
	called := false
	e.ForEachFactPattern(func(fact.Optional) { called = true })
	if called {
		t.Fatal("expected ForEachFactPattern on a nil Effect to never invoke visit")
	}
}

func TestCanSatisfyObjective_MatchesAddedFact(t *testing.T) {
	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}

	goalCond := condition.Fact(openFact, false)
	ok, _ := CanSatisfyObjective(Fact(openFact, false), goalCond, condition.Bindings{})
	if !ok {
		t.Fatal("expected the open-asserting effect to satisfy the open goal")
	}
}

func TestCanSatisfyObjective_NoMatchWhenEffectRemovesWhatGoalWants(t *testing.T) {
	_, _, openPred := newCountStore(t)
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}

	goalCond := condition.Fact(openFact, false)
	ok, _ := CanSatisfyObjective(Fact(openFact, true), goalCond, condition.Bindings{})
	if ok {
		t.Fatal("expected an effect that removes open to not satisfy a goal wanting open")
	}
}

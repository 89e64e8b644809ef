package setoffacts

import (
	"testing"

	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
)

func newRoomStore(t *testing.T) (*ontology.Store, *ontology.Predicate, *ontology.Type) {
	t.Helper()
	store := ontology.NewStore()
	room, err := store.AddType("Room", "")
	if err != nil {
		t.Fatalf("AddType: %v", err)
	}
	inPred := &ontology.Predicate{Name: "in", Parameters: []ontology.Parameter{{Name: "r", Type: room}}}
	if err := store.AddPredicate(inPred); err != nil {
		t.Fatalf("AddPredicate: %v", err)
	}
	return store, inPred, room
}

func TestInsert_RejectsWildcardFact(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	wild, err := fact.New(inPred, []entity.Entity{entity.Any(room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(wild, true); err == nil {
		t.Fatal("expected Insert to reject a fact with a wildcard argument")
	}
}

func TestInsert_IsIdempotent(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	f, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(f, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(f, true); err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected exactly one stored fact, got %d", s.Len())
	}
}

func TestContainsAndGet(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	f, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if s.Contains(f) {
		t.Fatal("expected Contains to be false before Insert")
	}
	if err := s.Insert(f, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !s.Contains(f) {
		t.Fatal("expected Contains to be true after Insert")
	}
	got, ok := s.Get(f)
	if !ok || got.Name() != f.Name() {
		t.Fatalf("expected Get to return the stored fact, got %+v ok=%v", got, ok)
	}
}

func TestRemove_RefusesNonRemovable(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	f, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(f, false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Remove(f); err == nil {
		t.Fatal("expected Remove to refuse a non-removable fact")
	}
	if !s.Contains(f) {
		t.Fatal("expected the fact to remain stored after a refused Remove")
	}
}

func TestRemove_DeletesRemovableFact(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	f, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(f, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err := s.Remove(f)
	if err != nil || !ok {
		t.Fatalf("expected Remove to succeed, ok=%v err=%v", ok, err)
	}
	if s.Contains(f) {
		t.Fatal("expected the fact to be gone after Remove")
	}
}

func TestFind_WildcardMatchesAllStoredOfType(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	kitchen, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New(kitchen): %v", err)
	}
	attic, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("attic", room)})
	if err != nil {
		t.Fatalf("fact.New(attic): %v", err)
	}
	if err := s.Insert(kitchen, true); err != nil {
		t.Fatalf("Insert(kitchen): %v", err)
	}
	if err := s.Insert(attic, true); err != nil {
		t.Fatalf("Insert(attic): %v", err)
	}

	pattern, err := fact.New(inPred, []entity.Entity{entity.Any(room)})
	if err != nil {
		t.Fatalf("fact.New(pattern): %v", err)
	}
	matches := s.Find(pattern)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestFind_ExactPointHitWithNoWildcard(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	kitchen, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(kitchen, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	matches := s.Find(kitchen)
	if len(matches) != 1 || matches[0].Name() != kitchen.Name() {
		t.Fatalf("expected a single exact match, got %+v", matches)
	}

	attic, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("attic", room)})
	if err != nil {
		t.Fatalf("fact.New(attic): %v", err)
	}
	if matches := s.Find(attic); len(matches) != 0 {
		t.Fatalf("expected no matches for an unstored exact fact, got %+v", matches)
	}
}

func TestAll_ReturnsEveryFactUnderPredicate(t *testing.T) {
	store, inPred, room := newRoomStore(t)
	s := New(store)
	kitchen, err := fact.New(inPred, []entity.Entity{entity.NewConcrete("kitchen", room)})
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := s.Insert(kitchen, true); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := s.All("in"); len(got) != 1 {
		t.Fatalf("expected 1 fact under in/1, got %d", len(got))
	}
	if got := s.All("out"); len(got) != 0 {
		t.Fatalf("expected 0 facts under an unused predicate, got %d", len(got))
	}
}

package entity

import (
	"testing"

	"mud-platform-backend/internal/ontology"
)

func TestIsWildcard(t *testing.T) {
	room := &ontology.Type{Name: "Room"}
	if NewConcrete("kitchen", room).IsWildcard() {
		t.Fatal("expected a concrete entity to not be a wildcard")
	}
	if !NewParameter("r", room).IsWildcard() {
		t.Fatal("expected a parameter reference to be a wildcard")
	}
	if !Any(room).IsWildcard() {
		t.Fatal("expected Any to be a wildcard")
	}
}

func TestEqual_ComparesConcreteByValueAndTypeName(t *testing.T) {
	room := &ontology.Type{Name: "Room"}
	other := &ontology.Type{Name: "Room"}
	a := NewConcrete("kitchen", room)
	b := NewConcrete("kitchen", other)
	if !a.Equal(b) {
		t.Fatal("expected two concretes with the same value and type name to be equal")
	}

	c := NewConcrete("attic", room)
	if a.Equal(c) {
		t.Fatal("expected different values to not be equal")
	}
}

func TestEqual_NeverTrueForNonConcrete(t *testing.T) {
	room := &ontology.Type{Name: "Room"}
	a := NewParameter("r", room)
	b := NewParameter("r", room)
	if a.Equal(b) {
		t.Fatal("expected two parameter references to never compare Equal")
	}
}

func TestEqual_NilTypesCompareByNilness(t *testing.T) {
	a := NewConcrete("x", nil)
	b := NewConcrete("x", nil)
	if !a.Equal(b) {
		t.Fatal("expected two nil-typed concretes with equal values to be equal")
	}
	room := &ontology.Type{Name: "Room"}
	c := NewConcrete("x", room)
	if a.Equal(c) {
		t.Fatal("expected a nil-typed and a typed concrete to not be equal")
	}
}

func TestString_AnyRendersLiterally(t *testing.T) {
	room := &ontology.Type{Name: "Room"}
	if got := Any(room).String(); got != "any" {
		t.Fatalf("expected %q, got %q", "any", got)
	}
	if got := NewConcrete("kitchen", room).String(); got != "kitchen" {
		t.Fatalf("expected %q, got %q", "kitchen", got)
	}
}

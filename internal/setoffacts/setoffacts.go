// Package setoffacts implements the multi-key fact index of spec.md
// §4.1: the current set of true facts, indexed so that
// `find(pattern)` runs sub-linearly in the number of stored facts
// instead of scanning all of them.
package setoffacts

import (
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
)

type entry struct {
	fact        fact.Fact
	canBeRemove bool
}

// SetOfFacts is the predicate-name, per-argument-value,
// fluent-value, and exact-call index over the currently-true facts.
type SetOfFacts struct {
	ontology *ontology.Store

	byPredicate map[string]map[string]*entry // predicate -> exact-call key -> entry
	byArgValue  map[string][]map[string]map[string]*entry // predicate -> [argIndex]value -> key -> entry
	byArgType   map[string][]map[string]map[string]*entry // predicate -> [argIndex]typeName -> key -> entry
	byFluent    map[string]map[string]map[string]*entry   // predicate -> fluentValue -> key -> entry
	exactCall   map[string]*entry                         // name(a1,...,an) -> entry (arg-only)
	exactFull   map[string]*entry                         // name(a1,...,an)=v -> entry
}

// New returns an empty index over the given ontology (used for type
// signature generalization).
func New(o *ontology.Store) *SetOfFacts {
	return &SetOfFacts{
		ontology:    o,
		byPredicate: make(map[string]map[string]*entry),
		byArgValue:  make(map[string][]map[string]map[string]*entry),
		byArgType:   make(map[string][]map[string]map[string]*entry),
		byFluent:    make(map[string]map[string]map[string]*entry),
		exactCall:   make(map[string]*entry),
		exactFull:   make(map[string]*entry),
	}
}

// Insert adds f to every index key. canBeRemoved gates Remove.
func (s *SetOfFacts) Insert(f fact.Fact, canBeRemoved bool) error {
	if f.HasWildcard() {
		return planerr.Invariant("setoffacts: cannot store a fact with an unbound parameter or wildcard: %s", f.Name())
	}
	key := f.CallWithFluent()
	if _, exists := s.exactFull[key]; exists {
		return nil // already present, idempotent
	}
	e := &entry{fact: f, canBeRemove: canBeRemoved}

	predName := f.Predicate.Name
	if s.byPredicate[predName] == nil {
		s.byPredicate[predName] = make(map[string]*entry)
	}
	s.byPredicate[predName][key] = e

	s.ensureArgSlices(predName, len(f.Arguments))
	for i, a := range f.Arguments {
		if a.Kind != entity.Concrete {
			continue
		}
		if s.byArgValue[predName][i][a.Value] == nil {
			s.byArgValue[predName][i][a.Value] = make(map[string]*entry)
		}
		s.byArgValue[predName][i][a.Value][key] = e

		for _, t := range generalizedTypeNames(s.ontology, a.Type) {
			if s.byArgType[predName][i][t] == nil {
				s.byArgType[predName][i][t] = make(map[string]*entry)
			}
			s.byArgType[predName][i][t][key] = e
		}
	}

	if f.Fluent != nil && f.Fluent.Kind == entity.Concrete {
		if s.byFluent[predName] == nil {
			s.byFluent[predName] = make(map[string]map[string]*entry)
		}
		if s.byFluent[predName][f.Fluent.Value] == nil {
			s.byFluent[predName][f.Fluent.Value] = make(map[string]*entry)
		}
		s.byFluent[predName][f.Fluent.Value][key] = e
	}

	s.exactCall[f.Name()] = e
	s.exactFull[key] = e
	return nil
}

func (s *SetOfFacts) ensureArgSlices(predName string, arity int) {
	if len(s.byArgValue[predName]) >= arity && len(s.byArgType[predName]) >= arity {
		return
	}
	for len(s.byArgValue[predName]) < arity {
		s.byArgValue[predName] = append(s.byArgValue[predName], make(map[string]map[string]*entry))
	}
	for len(s.byArgType[predName]) < arity {
		s.byArgType[predName] = append(s.byArgType[predName], make(map[string]map[string]*entry))
	}
}

// generalizedTypeNames returns t and every ancestor, implementing
// generateSignatureForSubAndUpperTypes: a fact about a dog is indexed
// under "dog" and every ancestor ("animal", ...).
func generalizedTypeNames(_ *ontology.Store, t *ontology.Type) []string {
	if t == nil {
		return nil
	}
	ancestors := t.Ancestors()
	names := make([]string, len(ancestors))
	for i, a := range ancestors {
		names[i] = a.Name
	}
	return names
}

// Remove deletes f from every index. It refuses (returning false) if f
// was inserted with canBeRemoved=false.
func (s *SetOfFacts) Remove(f fact.Fact) (bool, error) {
	key := f.CallWithFluent()
	e, ok := s.exactFull[key]
	if !ok {
		return false, nil
	}
	if !e.canBeRemove {
		return false, planerr.Invariant("setoffacts: fact %s was inserted as non-removable", f.Name())
	}

	predName := f.Predicate.Name
	delete(s.byPredicate[predName], key)
	for i, a := range f.Arguments {
		if a.Kind != entity.Concrete {
			continue
		}
		if i < len(s.byArgValue[predName]) {
			delete(s.byArgValue[predName][i][a.Value], key)
		}
		if i < len(s.byArgType[predName]) {
			for _, t := range generalizedTypeNames(s.ontology, a.Type) {
				delete(s.byArgType[predName][i][t], key)
			}
		}
	}
	if f.Fluent != nil && f.Fluent.Kind == entity.Concrete {
		delete(s.byFluent[predName][f.Fluent.Value], key)
	}
	delete(s.exactCall, f.Name())
	delete(s.exactFull, key)
	return true, nil
}

// Contains reports whether a ground fact equal to f is currently stored.
func (s *SetOfFacts) Contains(f fact.Fact) bool {
	_, ok := s.exactFull[f.CallWithFluent()]
	return ok
}

// Get returns the stored fact with the same arguments as f (ignoring
// f's fluent), i.e. the current value of the fluent function at that
// argument tuple, if any fact with those arguments is stored.
func (s *SetOfFacts) Get(f fact.Fact) (fact.Fact, bool) {
	e, ok := s.exactCall[f.Name()]
	if !ok {
		return fact.Fact{}, false
	}
	return e.fact, true
}

// All returns every fact currently indexed under predicate name
// predName (the "broad match" case: pattern has no non-wildcard arg).
func (s *SetOfFacts) All(predName string) []fact.Fact {
	m := s.byPredicate[predName]
	out := make([]fact.Fact, 0, len(m))
	for _, e := range m {
		out = append(out, e.fact)
	}
	return out
}

// Find returns every stored fact matching pattern per the matcher rules
// of §4.1: direct point hit when pattern has no wildcards, else
// intersection of the per-argument/fluent candidate lists.
func (s *SetOfFacts) Find(pattern fact.Fact) []fact.Fact {
	predName := pattern.Predicate.Name

	if !pattern.HasWildcard() && !pattern.FluentNegated {
		if pattern.Fluent != nil {
			if e, ok := s.exactFull[pattern.CallWithFluent()]; ok {
				return []fact.Fact{e.fact}
			}
			return nil
		}
		if e, ok := s.exactCall[pattern.Name()]; ok {
			return []fact.Fact{e.fact}
		}
		return nil
	}

	var candidates map[string]*entry
	first := true
	intersect := func(next map[string]*entry) {
		if first {
			candidates = next
			first = false
			return
		}
		merged := make(map[string]*entry, len(candidates))
		for k, v := range candidates {
			if _, ok := next[k]; ok {
				merged[k] = v
			}
		}
		candidates = merged
	}

	for i, a := range pattern.Arguments {
		if a.Kind == entity.AnyValue {
			if a.Type != nil && i < len(s.byArgType[predName]) {
				intersect(s.byArgType[predName][i][a.Type.Name])
			}
			continue
		}
		if a.Kind == entity.BoundParameter {
			continue // resolved by the caller's binding loop, not the index
		}
		if i < len(s.byArgValue[predName]) {
			intersect(s.byArgValue[predName][i][a.Value])
		} else {
			return nil
		}
	}

	if pattern.Fluent != nil && !pattern.FluentNegated && pattern.Fluent.Kind == entity.Concrete {
		intersect(s.byFluent[predName][pattern.Fluent.Value])
	}

	if first {
		// every argument (and the fluent, if any) was a wildcard: full
		// per-signature list.
		return s.All(predName)
	}

	out := make([]fact.Fact, 0, len(candidates))
	for _, e := range candidates {
		if pattern.FluentNegated {
			if pattern.Fluent != nil && e.fact.Fluent != nil && e.fact.Fluent.Equal(*pattern.Fluent) {
				continue
			}
		}
		out = append(out, e.fact)
	}
	return out
}

// Len returns the number of distinct ground facts stored.
func (s *SetOfFacts) Len() int {
	return len(s.exactFull)
}

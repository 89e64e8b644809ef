// Package ontology holds the typed universe a domain is built over: a
// hierarchy of types, the predicates defined on them, and the named
// constants that populate them.
package ontology

import "mud-platform-backend/internal/planerr"

// NumberType is the distinguished built-in type every fluent-bearing
// predicate without a declared type falls back to.
const NumberType = "number"

// Type is a named node in the (single-parent, multi-child) type forest.
type Type struct {
	Name   string
	Parent *Type
}

// IsA reports whether t is other or a transitive descendant of other
// (that is, whether other is t or one of t's ancestors).
func (t *Type) IsA(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Name == other.Name {
			return true
		}
	}
	return false
}

// Store is the set of types known to a domain, plus the predicates and
// constants declared over them.
type Store struct {
	types      map[string]*Type
	predicates map[string]*Predicate
	constants  map[string]*Constant
}

// NewStore returns an empty Store seeded with the built-in number type.
func NewStore() *Store {
	s := &Store{
		types:      make(map[string]*Type),
		predicates: make(map[string]*Predicate),
		constants:  make(map[string]*Constant),
	}
	s.types[NumberType] = &Type{Name: NumberType}
	return s
}

// AddType registers a type, optionally parented under an already-known
// type. Re-adding a type with the same parent is a no-op.
func (s *Store) AddType(name, parentName string) (*Type, error) {
	if existing, ok := s.types[name]; ok {
		if parentName == "" || (existing.Parent != nil && existing.Parent.Name == parentName) {
			return existing, nil
		}
		return nil, planerr.Ontology("type %q already declared with a different parent", name)
	}
	t := &Type{Name: name}
	if parentName != "" {
		parent, ok := s.types[parentName]
		if !ok {
			return nil, planerr.Ontology("unknown parent type %q for %q", parentName, name)
		}
		t.Parent = parent
	}
	s.types[name] = t
	return t, nil
}

// Type looks up a previously-declared type by name.
func (s *Store) Type(name string) (*Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Types returns every declared type, in no particular order.
func (s *Store) Types() []*Type {
	out := make([]*Type, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	return out
}

// Ancestors returns t and every transitive parent, nearest first. Used
// by setoffacts to index a fact under its argument's type and every
// type above it (spec.md §4.1).
func (t *Type) Ancestors() []*Type {
	if t == nil {
		return nil
	}
	out := make([]*Type, 0, 4)
	for cur := t; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Descendants walks the Store's type forest downward from t (inclusive),
// returning t and every type below it.
func (s *Store) Descendants(t *Type) []*Type {
	if t == nil {
		return nil
	}
	out := []*Type{t}
	frontier := []*Type{t}
	for len(frontier) > 0 {
		var next []*Type
		for _, f := range frontier {
			for _, candidate := range s.types {
				if candidate.Parent == f {
					out = append(out, candidate)
					next = append(next, candidate)
				}
			}
		}
		frontier = next
	}
	return out
}

// AddPredicate registers a predicate. Re-registering the same name with
// a different signature is an error.
func (s *Store) AddPredicate(p *Predicate) error {
	if existing, ok := s.predicates[p.Name]; ok {
		if !existing.sameSignature(p) {
			return planerr.Ontology("predicate %q already declared with a different signature", p.Name)
		}
		return nil
	}
	s.predicates[p.Name] = p
	return nil
}

// Predicate looks up a declared predicate by name.
func (s *Store) Predicate(name string) (*Predicate, bool) {
	p, ok := s.predicates[name]
	return p, ok
}

// Predicates returns every declared predicate.
func (s *Store) Predicates() []*Predicate {
	out := make([]*Predicate, 0, len(s.predicates))
	for _, p := range s.predicates {
		out = append(out, p)
	}
	return out
}

// Constant is a named problem object or domain-level value.
type Constant struct {
	Name string
	Type *Type
}

// AddConstant registers a named constant of the given type.
func (s *Store) AddConstant(c *Constant) error {
	if existing, ok := s.constants[c.Name]; ok {
		if existing.Type.Name != c.Type.Name {
			return planerr.Ontology("constant %q already declared with type %q", c.Name, existing.Type.Name)
		}
		return nil
	}
	s.constants[c.Name] = c
	return nil
}

// Constant looks up a declared constant by name.
func (s *Store) Constant(name string) (*Constant, bool) {
	c, ok := s.constants[name]
	return c, ok
}

// Constants returns every declared constant.
func (s *Store) Constants() []*Constant {
	out := make([]*Constant, 0, len(s.constants))
	for _, c := range s.constants {
		out = append(out, c)
	}
	return out
}

// Parameter is a typed formal argument of a predicate, action, event or
// condition quantifier. Equality is by (Name, Type).
type Parameter struct {
	Name string
	Type *Type
}

// Equal reports whether p and other share both name and type.
func (p Parameter) Equal(other Parameter) bool {
	return p.Name == other.Name && p.Type != nil && other.Type != nil && p.Type.Name == other.Type.Name
}

// Predicate is a named, typed relation, optionally a fluent (function)
// returning a value of FluentType.
type Predicate struct {
	Name       string
	Parameters []Parameter
	FluentType *Type // nil if the predicate is a plain relation
}

// IsFluent reports whether this predicate carries a fluent value.
func (p *Predicate) IsFluent() bool {
	return p.FluentType != nil
}

func (p *Predicate) sameSignature(other *Predicate) bool {
	if len(p.Parameters) != len(other.Parameters) {
		return false
	}
	for i := range p.Parameters {
		if p.Parameters[i].Type == nil || other.Parameters[i].Type == nil {
			return false
		}
		if p.Parameters[i].Type.Name != other.Parameters[i].Type.Name {
			return false
		}
	}
	if (p.FluentType == nil) != (other.FluentType == nil) {
		return false
	}
	if p.FluentType != nil && p.FluentType.Name != other.FluentType.Name {
		return false
	}
	return true
}

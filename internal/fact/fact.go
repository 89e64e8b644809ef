// Package fact implements the ground/partially-ground atomic statements
// (Fact) over the ontology, and the invariants spec.md §3 attaches to
// them.
package fact

import (
	"strings"

	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
)

// PunctualPrefix marks an event-only signal (I3): a fact with this
// prefix can never be stored in a WorldState.
const PunctualPrefix = "~punctual~"

// Fact is a ground or partially-ground instance of a Predicate.
type Fact struct {
	Predicate      *ontology.Predicate
	Arguments      []entity.Entity
	Fluent         *entity.Entity // nil if absent
	FluentNegated  bool           // true for `f(x) != v`
	fluentMissingOK bool
}

// Option configures New.
type Option func(*Fact)

// AllowMissingFluent suppresses invariant I2 for facts that are
// intentionally constructed without a fluent value (e.g. a pattern
// used purely for existence lookup).
func AllowMissingFluent() Option {
	return func(f *Fact) { f.fluentMissingOK = true }
}

// WithFluent attaches a fluent value to the fact under construction.
func WithFluent(v entity.Entity, negated bool) Option {
	return func(f *Fact) {
		f.Fluent = &v
		f.FluentNegated = negated
	}
}

// New builds a Fact, enforcing invariants I1 and I2.
func New(pred *ontology.Predicate, args []entity.Entity, opts ...Option) (Fact, error) {
	if len(args) != len(pred.Parameters) {
		return Fact{}, planerr.Ontology("predicate %q expects %d arguments, got %d", pred.Name, len(pred.Parameters), len(args))
	}
	f := Fact{Predicate: pred, Arguments: append([]entity.Entity(nil), args...)}
	for _, opt := range opts {
		opt(&f)
	}

	// I1: each argument's type isA the corresponding parameter type.
	for i, a := range args {
		if a.Kind != entity.Concrete || a.Type == nil {
			continue // wildcards/parameters are checked at binding time
		}
		want := pred.Parameters[i].Type
		if want != nil && !a.Type.IsA(want) {
			return Fact{}, planerr.Ontology("argument %d of %q has type %q, expected a subtype of %q", i, pred.Name, a.Type.Name, want.Name)
		}
	}

	// I2: a fluent predicate requires a fluent value, unless opted out.
	if pred.IsFluent() && f.Fluent == nil && !f.fluentMissingOK {
		return Fact{}, planerr.Ontology("predicate %q is a fluent and requires a value", pred.Name)
	}
	if !pred.IsFluent() && f.Fluent != nil {
		return Fact{}, planerr.Ontology("predicate %q is not a fluent but a fluent value was given", pred.Name)
	}

	return f, nil
}

// IsPunctual reports invariant I3: does this fact's predicate name carry
// the punctual-only prefix.
func (f Fact) IsPunctual() bool {
	return strings.HasPrefix(f.Predicate.Name, PunctualPrefix)
}

// HasWildcard reports whether any argument (or the fluent) is a
// parameter reference or "any value".
func (f Fact) HasWildcard() bool {
	for _, a := range f.Arguments {
		if a.IsWildcard() {
			return true
		}
	}
	return f.Fluent != nil && f.Fluent.IsWildcard()
}

// Name returns the fully-qualified call string `name(a1,...,an)`,
// without the fluent, used as the SetOfFacts exact-call index key
// (CallWithFluent adds the fluent).
func (f Fact) Name() string {
	var b strings.Builder
	b.WriteString(f.Predicate.Name)
	b.WriteByte('(')
	for i, a := range f.Arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// CallWithFluent returns Name() plus `=value` when a fluent is present.
func (f Fact) CallWithFluent() string {
	if f.Fluent == nil {
		return f.Name()
	}
	return f.Name() + "=" + f.Fluent.String()
}

// Clone substitutes any bound-parameter entities via bindings when
// present, leaving concrete/wildcard entities untouched. bindings may be
// nil, in which case Clone returns an equal copy.
func (f Fact) Clone(bindings map[string]entity.Entity) Fact {
	out := f
	out.Arguments = make([]entity.Entity, len(f.Arguments))
	for i, a := range f.Arguments {
		out.Arguments[i] = resolve(a, bindings)
	}
	if f.Fluent != nil {
		resolved := resolve(*f.Fluent, bindings)
		out.Fluent = &resolved
	}
	return out
}

func resolve(e entity.Entity, bindings map[string]entity.Entity) entity.Entity {
	if e.Kind == entity.BoundParameter && bindings != nil {
		if v, ok := bindings[e.Value]; ok {
			return v
		}
	}
	return e
}

// Optional wraps a Fact with a sign, modeling spec.md's FactOptional.
type Optional struct {
	Fact       Fact
	IsNegated  bool
}

// String renders an optional fact in PDDL-ish notation for logs/errors.
func (o Optional) String() string {
	if o.IsNegated {
		return "(not " + o.Fact.Name() + ")"
	}
	return o.Fact.Name()
}

package condition

import (
	"strconv"

	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
)

// FactSource is the read-only view of a world's current facts that
// condition evaluation needs. worldstate.WorldState implements it.
type FactSource interface {
	Find(pattern fact.Fact) []fact.Fact
	Contains(f fact.Fact) bool
	Get(f fact.Fact) (fact.Fact, bool)
}

// DerivedLookup resolves an axiom/derived-predicate body by predicate
// name, supporting spec_full.md §4.a's axioms: when a pattern's
// predicate has no stored facts but a derived definition exists,
// evaluation falls back to the definition instead of failing the match.
type DerivedLookup func(predicateName string) (*Condition, bool)

// Context bundles the inputs is_true needs beyond the condition tree
// itself: the world's current facts, this round's punctual pulses (which
// participate in matches but are never persisted), and any derived
// predicates.
type Context struct {
	Facts    FactSource
	Punctual []fact.Fact
	Derived  DerivedLookup
}

// Bindings maps a Parameter name to the Entity it is currently bound
// to. Absence of a key means "not yet bound", distinct from being bound
// to an explicit entity.Any (the wildcard).
type Bindings map[string]entity.Entity

// Clone returns a shallow copy.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// IsTrue evaluates c against ctx under bindings, per spec.md §4.2.
// It returns the boolean result and the bindings refined along the way
// (e.g. wildcard parameters resolved by a successful Equality or Fact
// match).
func IsTrue(c *Condition, ctx Context, bindings Bindings) (bool, Bindings) {
	if c == nil {
		return true, bindings
	}
	switch c.Kind {
	case KindFact:
		return evalFact(c.FactOpt, ctx, bindings)
	case KindNumber:
		return c.Number != 0, bindings
	case KindNot:
		r, b := IsTrue(c.Child, ctx, bindings)
		return !r, b
	case KindExists:
		return evalExists(c, ctx, bindings, false)
	case KindForall:
		return evalExists(c, ctx, bindings, true)
	case KindNode:
		return evalNode(c, ctx, bindings)
	default:
		return false, bindings
	}
}

func evalFact(fo fact.Optional, ctx Context, bindings Bindings) (bool, Bindings) {
	resolved := fo.Fact.Clone(bindingsAsEntityMap(bindings))

	if !resolved.HasWildcard() {
		found := ctx.Facts.Contains(resolved) || containsAny(ctx.Punctual, resolved)
		if !found {
			if cond, ok := derivedCondition(ctx, resolved); ok {
				found, _ = IsTrue(cond, ctx, bindings)
			}
		}
		return found != fo.IsNegated, bindings
	}

	candidates := ctx.Facts.Find(resolved)
	candidates = append(candidates, filterMatching(ctx.Punctual, resolved)...)
	if len(candidates) == 0 {
		return fo.IsNegated, bindings
	}
	first := candidates[0]
	newB, ok := fact.Match(resolved, first, bindingsAsEntityMap(bindings))
	if !ok {
		return fo.IsNegated, bindings
	}
	out := bindings.Clone()
	for k, v := range newB {
		out[k] = v
	}
	return !fo.IsNegated, out
}

func derivedCondition(ctx Context, f fact.Fact) (*Condition, bool) {
	if ctx.Derived == nil {
		return nil, false
	}
	return ctx.Derived(f.Predicate.Name)
}

func containsAny(facts []fact.Fact, target fact.Fact) bool {
	for _, f := range facts {
		if f.CallWithFluent() == target.CallWithFluent() {
			return true
		}
	}
	return false
}

func filterMatching(facts []fact.Fact, pattern fact.Fact) []fact.Fact {
	var out []fact.Fact
	for _, f := range facts {
		if _, ok := fact.Match(pattern, f, nil); ok {
			out = append(out, f)
		}
	}
	return out
}

func evalExists(c *Condition, ctx Context, bindings Bindings, forall bool) (bool, Bindings) {
	values := candidateValues(c, ctx)
	if len(values) == 0 {
		// No candidate facts mention this parameter's type: Exists is
		// false, Forall is vacuously true.
		return forall, bindings
	}
	result := !forall
	lastBindings := bindings
	for _, v := range values {
		trial := bindings.Clone()
		trial[c.Param.Name] = v
		ok, refined := IsTrue(c.Child, ctx, trial)
		if ok {
			lastBindings = refined
		}
		if forall && !ok {
			return false, bindings
		}
		if !forall && ok {
			return true, refined
		}
	}
	if forall {
		return true, lastBindings
	}
	return result, bindings
}

// candidateValues scans the condition's own fact patterns for entities
// typed like the quantified parameter, giving Exists/Forall a concrete
// enumeration domain without requiring a full-ontology object scan.
func candidateValues(c *Condition, ctx Context) []entity.Entity {
	seen := make(map[string]entity.Entity)
	c.Child.ForEachFactPattern(func(fo fact.Optional) {
		for _, a := range fo.Fact.Arguments {
			if a.Type == nil || a.Type.Name != c.Param.Type.Name {
				continue
			}
			pattern := fo.Fact
			pattern.Arguments = make([]entity.Entity, len(fo.Fact.Arguments))
			copy(pattern.Arguments, fo.Fact.Arguments)
			wildcardIdx := -1
			for i := range pattern.Arguments {
				if pattern.Arguments[i].Kind == entity.BoundParameter && pattern.Arguments[i].Value == c.Param.Name {
					wildcardIdx = i
					pattern.Arguments[i] = entity.Any(c.Param.Type)
				}
			}
			if wildcardIdx == -1 {
				continue
			}
			for _, f := range ctx.Facts.Find(pattern) {
				v := f.Arguments[wildcardIdx]
				seen[v.Value] = v
			}
		}
	})
	out := make([]entity.Entity, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out
}

func evalNode(c *Condition, ctx Context, bindings Bindings) (bool, Bindings) {
	switch c.Op {
	case OpAnd:
		lr, b1 := IsTrue(c.Left, ctx, bindings)
		if lr {
			return IsTrue(c.Right, ctx, b1)
		}
		// Left failed: retry right first, then re-resolve left with any
		// bindings right discovered (permits negated-with-parameter
		// re-resolution, spec.md §4.2).
		rr, b2 := IsTrue(c.Right, ctx, bindings)
		if !rr {
			return false, bindings
		}
		lr2, b3 := IsTrue(c.Left, ctx, b2)
		return lr2, b3
	case OpOr:
		lr, b1 := IsTrue(c.Left, ctx, bindings)
		if lr {
			return true, b1
		}
		return IsTrue(c.Right, ctx, bindings)
	case OpImply:
		lr, _ := IsTrue(c.Left, ctx, bindings)
		if !lr {
			return true, bindings
		}
		return IsTrue(c.Right, ctx, bindings)
	case OpEquality:
		return evalEquality(c, ctx, bindings)
	case OpSuperior, OpSuperiorOrEqual, OpInferior, OpInferiorOrEqual:
		left, ok := evalNumber(c.Left, ctx, bindings)
		if !ok {
			return false, bindings
		}
		right, ok := evalNumber(c.Right, ctx, bindings)
		if !ok {
			return false, bindings
		}
		switch c.Op {
		case OpSuperior:
			return left > right, bindings
		case OpSuperiorOrEqual:
			return left >= right, bindings
		case OpInferior:
			return left < right, bindings
		default:
			return left <= right, bindings
		}
	case OpPlus, OpMinus:
		v, ok := evalNumber(c, ctx, bindings)
		return ok && v != 0, bindings
	default:
		return false, bindings
	}
}

// evalEquality implements spec.md §4.2's Equality semantics: iterate
// candidate fluent values from the right-hand expression, and for each,
// form left_fact(fluent:=v) and test membership; a successful match
// against a wildcard-bearing left fact extracts the wildcard binding.
func evalEquality(c *Condition, ctx Context, bindings Bindings) (bool, Bindings) {
	if c.Left.Kind != KindFact {
		left, lok := evalNumber(c.Left, ctx, bindings)
		right, rok := evalNumber(c.Right, ctx, bindings)
		return lok && rok && left == right, bindings
	}
	value, ok := evalNumber(c.Right, ctx, bindings)
	if !ok {
		return false, bindings
	}
	v := entity.NewConcrete(formatNumber(value), c.Left.FactOpt.Fact.Predicate.FluentType)
	pattern := c.Left.FactOpt.Fact.Clone(bindingsAsEntityMap(bindings))
	pattern.Fluent = &v
	pattern.FluentNegated = false

	if !pattern.HasWildcard() {
		found := ctx.Facts.Contains(pattern)
		return found != c.Left.FactOpt.IsNegated, bindings
	}
	candidates := ctx.Facts.Find(pattern)
	if len(candidates) == 0 {
		return c.Left.FactOpt.IsNegated, bindings
	}
	newB, ok := fact.Match(pattern, candidates[0], bindingsAsEntityMap(bindings))
	if !ok {
		return c.Left.FactOpt.IsNegated, bindings
	}
	out := bindings.Clone()
	for k, val := range newB {
		out[k] = val
	}
	return !c.Left.FactOpt.IsNegated, out
}

// EvalNumber is the exported form of evalNumber, used by the effect
// package to evaluate arithmetic right-hand sides built from Condition
// nodes (e.g. a When guard's comparison re-using the same fluent read).
func EvalNumber(c *Condition, ctx Context, bindings Bindings) (float64, bool) {
	return evalNumber(c, ctx, bindings)
}

// evalNumber evaluates the arithmetic sub-language: number literals,
// a fact's current fluent value, and +/- combinations thereof.
func evalNumber(c *Condition, ctx Context, bindings Bindings) (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindFact:
		resolved := c.FactOpt.Fact.Clone(bindingsAsEntityMap(bindings))
		stored, ok := ctx.Facts.Get(resolved)
		if !ok || stored.Fluent == nil {
			return 0, false
		}
		return parseNumber(stored.Fluent.Value)
	case KindNode:
		left, lok := evalNumber(c.Left, ctx, bindings)
		right, rok := evalNumber(c.Right, ctx, bindings)
		if !lok || !rok {
			return 0, false
		}
		switch c.Op {
		case OpPlus:
			return left + right, true
		case OpMinus:
			return left - right, true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func bindingsAsEntityMap(b Bindings) map[string]entity.Entity {
	return map[string]entity.Entity(b)
}

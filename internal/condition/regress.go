package condition

import (
	"mud-platform-backend/internal/fact"
)

// FindCandidateFromEffectFact is the regression step of spec.md §4.2:
// given a fact an upstream action would produce, locate a subexpression
// of c that effectFact could satisfy and invoke callback for each one
// found (depth-first, stops early if callback returns true).
func FindCandidateFromEffectFact(c *Condition, effectFact fact.Optional, bindings Bindings, callback func(Bindings, fact.Optional) bool) bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case KindFact:
		if c.FactOpt.IsNegated != effectFact.IsNegated {
			return false
		}
		newB, ok := fact.Match(c.FactOpt.Fact, effectFact.Fact, bindingsAsEntityMap(bindings))
		if !ok {
			return false
		}
		merged := bindings.Clone()
		for k, v := range newB {
			merged[k] = v
		}
		return callback(merged, c.FactOpt)
	case KindNot:
		flipped := fact.Optional{Fact: effectFact.Fact, IsNegated: !effectFact.IsNegated}
		return FindCandidateFromEffectFact(c.Child, flipped, bindings, callback)
	case KindExists, KindForall:
		return FindCandidateFromEffectFact(c.Child, effectFact, bindings, callback)
	case KindNode:
		if c.Op == OpAnd || c.Op == OpOr || c.Op == OpImply {
			if FindCandidateFromEffectFact(c.Left, effectFact, bindings, callback) {
				return true
			}
			return FindCandidateFromEffectFact(c.Right, effectFact, bindings, callback)
		}
		return false
	default:
		return false
	}
}

// HasAContradictionWith is a syntactic contradiction check used to prune
// impossible action successions (spec.md §4.2, §4.5): true if c
// contains a fact leaf naming the same predicate and unifiable
// arguments as other, but with the opposite polarity once negatedWrapper
// is accounted for.
func (c *Condition) HasAContradictionWith(other fact.Optional, negatedWrapper bool) bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case KindFact:
		effectiveNegated := c.FactOpt.IsNegated != negatedWrapper
		if effectiveNegated == other.IsNegated {
			return false
		}
		_, ok := fact.Match(c.FactOpt.Fact, other.Fact, nil)
		if !ok {
			_, ok = fact.Match(other.Fact, c.FactOpt.Fact, nil)
		}
		return ok
	case KindNot:
		return c.Child.HasAContradictionWith(other, !negatedWrapper)
	case KindExists, KindForall:
		return c.Child.HasAContradictionWith(other, negatedWrapper)
	case KindNode:
		if c.Op == OpAnd || c.Op == OpOr || c.Op == OpImply {
			return c.Left.HasAContradictionWith(other, negatedWrapper) ||
				c.Right.HasAContradictionWith(other, negatedWrapper)
		}
		return false
	default:
		return false
	}
}

// Clone substitutes bound parameters by their entity in bindings and,
// when invert is true, pushes a logical negation through the tree:
// AND<->OR swap, NOT cancels, every other node gets wrapped in NOT.
func (c *Condition) Clone(bindings Bindings, invert bool) *Condition {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case KindFact:
		negated := c.FactOpt.IsNegated
		if invert {
			negated = !negated
		}
		return Fact(c.FactOpt.Fact.Clone(bindingsAsEntityMap(bindings)), negated)
	case KindNumber:
		return Num(c.Number)
	case KindNot:
		return c.Child.Clone(bindings, !invert)
	case KindExists:
		if invert {
			return Forall(c.Param, c.Child.Clone(bindings, true))
		}
		return Exists(c.Param, c.Child.Clone(bindings, false))
	case KindForall:
		if invert {
			return Exists(c.Param, c.Child.Clone(bindings, true))
		}
		return Forall(c.Param, c.Child.Clone(bindings, false))
	case KindNode:
		switch c.Op {
		case OpAnd:
			if invert {
				return Node(OpOr, c.Left.Clone(bindings, true), c.Right.Clone(bindings, true))
			}
			return Node(OpAnd, c.Left.Clone(bindings, false), c.Right.Clone(bindings, false))
		case OpOr:
			if invert {
				return Node(OpAnd, c.Left.Clone(bindings, true), c.Right.Clone(bindings, true))
			}
			return Node(OpOr, c.Left.Clone(bindings, false), c.Right.Clone(bindings, false))
		default:
			cloned := Node(c.Op, c.Left.Clone(bindings, false), c.Right.Clone(bindings, false))
			if invert {
				return Not(cloned)
			}
			return cloned
		}
	default:
		return nil
	}
}

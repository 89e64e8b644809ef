// Package condition implements the boolean/arithmetic condition tree of
// spec.md §3-§4.2: Action preconditions, Event preconditions, Goal
// objectives and axiom bodies are all Conditions.
package condition

import (
	"fmt"

	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
)

// Op is the binary/quantifier operator of a Node condition.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpImply
	OpEquality
	OpSuperior
	OpSuperiorOrEqual
	OpInferior
	OpInferiorOrEqual
	OpPlus
	OpMinus
)

func (op Op) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpImply:
		return "imply"
	case OpEquality:
		return "="
	case OpSuperior:
		return ">"
	case OpSuperiorOrEqual:
		return ">="
	case OpInferior:
		return "<"
	case OpInferiorOrEqual:
		return "<="
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	default:
		return "?"
	}
}

// Kind discriminates the Condition sum type.
type Kind int

const (
	KindFact Kind = iota
	KindNumber
	KindNot
	KindExists
	KindForall
	KindNode
)

// Condition is a boolean/arithmetic tree evaluated against a world
// state and a parameter-binding environment. Only the fields relevant
// to Kind are populated; trees are immutable value types with pointer
// children, never cyclic.
type Condition struct {
	Kind Kind

	FactOpt fact.Optional // KindFact
	Number  float64       // KindNumber

	Child *Condition // KindNot, KindExists, KindForall body

	Param ontology.Parameter // KindExists, KindForall bound parameter

	Op          Op // KindNode
	Left, Right *Condition
}

// Fact wraps a single optional fact as a leaf condition.
func Fact(f fact.Fact, negated bool) *Condition {
	return &Condition{Kind: KindFact, FactOpt: fact.Optional{Fact: f, IsNegated: negated}}
}

// Num wraps a numeric literal as a leaf condition (used on the
// right-hand side of comparisons and arithmetic nodes).
func Num(n float64) *Condition {
	return &Condition{Kind: KindNumber, Number: n}
}

// Not negates a condition.
func Not(c *Condition) *Condition {
	return &Condition{Kind: KindNot, Child: c}
}

// Exists binds p within c: true if some value of p makes c true.
func Exists(p ontology.Parameter, c *Condition) *Condition {
	return &Condition{Kind: KindExists, Param: p, Child: c}
}

// Forall binds p within c: true if every value of p makes c true.
func Forall(p ontology.Parameter, c *Condition) *Condition {
	return &Condition{Kind: KindForall, Param: p, Child: c}
}

// Node builds a binary operator node.
func Node(op Op, left, right *Condition) *Condition {
	return &Condition{Kind: KindNode, Op: op, Left: left, Right: right}
}

func And(cs ...*Condition) *Condition { return foldNode(OpAnd, cs) }
func Or(cs ...*Condition) *Condition  { return foldNode(OpOr, cs) }

func foldNode(op Op, cs []*Condition) *Condition {
	var nonNil []*Condition
	for _, c := range cs {
		if c != nil {
			nonNil = append(nonNil, c)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	out := nonNil[0]
	for _, c := range nonNil[1:] {
		out = Node(op, out, c)
	}
	return out
}

// ForEachFactPattern walks the tree invoking visit on every atomic
// FactOptional leaf, used by Domain's §4.5 pattern extraction
// (fact_patterns_of_precondition).
func (c *Condition) ForEachFactPattern(visit func(fact.Optional)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case KindFact:
		visit(c.FactOpt)
	case KindNot, KindExists, KindForall:
		c.Child.ForEachFactPattern(visit)
	case KindNode:
		c.Left.ForEachFactPattern(visit)
		c.Right.ForEachFactPattern(visit)
	}
}

// String renders a condition for debug logs and error messages, not
// for the PDDL serializer (see internal/pddl for that).
func (c *Condition) String() string {
	if c == nil {
		return "true"
	}
	switch c.Kind {
	case KindFact:
		return c.FactOpt.String()
	case KindNumber:
		return fmt.Sprintf("%g", c.Number)
	case KindNot:
		return "(not " + c.Child.String() + ")"
	case KindExists:
		return "(exists (" + c.Param.Name + ") " + c.Child.String() + ")"
	case KindForall:
		return "(forall (" + c.Param.Name + ") " + c.Child.String() + ")"
	case KindNode:
		return "(" + c.Op.String() + " " + c.Left.String() + " " + c.Right.String() + ")"
	default:
		return "?"
	}
}

// entityFromFluent reads a fluent off a ground fact, returning ok=false
// if the fact carries no fluent or it is not a concrete value.
func entityFromFluent(f fact.Fact) (entity.Entity, bool) {
	if f.Fluent == nil || f.Fluent.Kind != entity.Concrete {
		return entity.Entity{}, false
	}
	return *f.Fluent, true
}

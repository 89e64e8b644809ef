package pddl

import (
	"fmt"
	"strconv"
	"strings"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
)

// dashGroup is one "name1 name2 - typename" run from a PDDL typed list.
type dashGroup struct {
	Names    []string
	TypeName string
}

// groupByDash splits a typed-list token sequence (the body of
// `:types`/`:parameters`/`:objects`/`:constants`) into runs terminated
// by a `- typename` suffix, the shared PDDL convention that lets
// several names share one trailing type.
func groupByDash(atoms []string) []dashGroup {
	var groups []dashGroup
	var pending []string
	i := 0
	for i < len(atoms) {
		if atoms[i] == "-" {
			typeName := ""
			if i+1 < len(atoms) {
				typeName = atoms[i+1]
			}
			groups = append(groups, dashGroup{Names: pending, TypeName: typeName})
			pending = nil
			i += 2
			continue
		}
		pending = append(pending, atoms[i])
		i++
	}
	if len(pending) > 0 {
		groups = append(groups, dashGroup{Names: pending, TypeName: ""})
	}
	return groups
}

func atomsOf(list []*SExpr) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Atom
	}
	return out
}

// parseTypeHierarchy populates store from a `(:types ...)` clause.
func parseTypeHierarchy(se *SExpr, store *ontology.Store) error {
	for _, g := range groupByDash(atomsOf(se.List[1:])) {
		parent := g.TypeName
		if parent == "" {
			parent = "object"
		}
		if _, ok := store.Type(parent); !ok {
			if _, err := store.AddType(parent, ""); err != nil {
				return err
			}
		}
		for _, n := range g.Names {
			if _, err := store.AddType(n, parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseTypedParams reads a `(?x ?y - type ...)` list into Parameters,
// resolving each type against store.
func parseTypedParams(se *SExpr, store *ontology.Store) ([]ontology.Parameter, error) {
	var out []ontology.Parameter
	for _, g := range groupByDash(atomsOf(se.List)) {
		t, ok := store.Type(g.TypeName)
		if !ok {
			return nil, planerr.Reference("unknown type %q", g.TypeName)
		}
		for _, n := range g.Names {
			out = append(out, ontology.Parameter{Name: strings.TrimPrefix(n, "?"), Type: t})
		}
	}
	return out, nil
}

// parsePredicates populates store from a `(:predicates ...)` or
// `(:functions ...)` clause. fluent marks entries as fluent-valued
// (:functions); every such entry gets ontology.NumberType as its value
// type, and a trailing `- type` after an entry is not accepted.
func parsePredicates(se *SExpr, store *ontology.Store, fluent bool) error {
	for _, entry := range se.List[1:] {
		name := entry.List[0].Atom
		paramAtoms := entry.List[1:]
		params, err := parseTypedParams(&SExpr{List: paramAtoms}, store)
		if err != nil {
			return err
		}
		var fluentType *ontology.Type
		if fluent {
			ft, ok := store.Type(ontology.NumberType)
			if !ok {
				return planerr.Invariant("number type missing from ontology store")
			}
			fluentType = ft
		}
		if err := store.AddPredicate(&ontology.Predicate{Name: name, Parameters: params, FluentType: fluentType}); err != nil {
			return err
		}
	}
	return nil
}

// scope resolves an atom token to an Entity within the parameter
// bindings currently in play (param names without a leading `?`
// prefix), falling back to ontology constants, numeric literals, and
// the `undefined` fluent literal.
type scope struct {
	store  *ontology.Store
	params map[string]*ontology.Type
}

func (s scope) entity(atom string) entity.Entity {
	if strings.HasPrefix(atom, "?") {
		name := strings.TrimPrefix(atom, "?")
		return entity.NewParameter(name, s.params[name])
	}
	if _, err := strconv.ParseFloat(atom, 64); err == nil {
		nt, _ := s.store.Type(ontology.NumberType)
		return entity.NewConcrete(atom, nt)
	}
	if c, ok := s.store.Constant(atom); ok {
		return entity.NewConcrete(atom, c.Type)
	}
	return entity.NewConcrete(atom, nil)
}

// parseFactCall builds a Fact from `(predName arg1 arg2 ...)`, without a
// fluent value (used where the fluent is supplied separately by an
// enclosing `=`/`assign`/`increase` node).
func (s scope) parseFactCall(se *SExpr) (fact.Fact, error) {
	name := se.List[0].Atom
	pred, ok := s.store.Predicate(name)
	if !ok {
		return fact.Fact{}, planerr.Reference("unknown predicate %q", name)
	}
	args := make([]entity.Entity, 0, len(se.List)-1)
	for _, a := range se.List[1:] {
		args = append(args, s.entity(a.Atom))
	}
	return fact.New(pred, args, fact.AllowMissingFluent())
}

// parseCondition parses a boolean/arithmetic Condition tree.
func (s scope) parseCondition(se *SExpr) (*condition.Condition, error) {
	if se.IsAtom() {
		if v, err := strconv.ParseFloat(se.Atom, 64); err == nil {
			return condition.Num(v), nil
		}
		return nil, planerr.Parse("unexpected atom %q in condition position", se.Atom)
	}
	if len(se.List) == 0 {
		return nil, planerr.Parse("empty condition list")
	}
	head := se.Head()
	switch head {
	case "and":
		return s.parseNary(se.List[1:], condition.And)
	case "or":
		return s.parseNary(se.List[1:], condition.Or)
	case "not":
		child, err := s.parseCondition(se.List[1])
		if err != nil {
			return nil, err
		}
		return condition.Not(child), nil
	case "imply":
		left, err := s.parseCondition(se.List[1])
		if err != nil {
			return nil, err
		}
		right, err := s.parseCondition(se.List[2])
		if err != nil {
			return nil, err
		}
		return condition.Node(condition.OpImply, left, right), nil
	case "exists", "forall":
		params, err := parseTypedParams(se.List[1], s.store)
		if err != nil {
			return nil, err
		}
		inner := s.withParams(params)
		body, err := inner.parseCondition(se.List[2])
		if err != nil {
			return nil, err
		}
		if head == "exists" {
			return condition.Exists(params[0], body), nil
		}
		return condition.Forall(params[0], body), nil
	case "=":
		return s.parseEquality(se)
	case ">", ">=", "<", "<=":
		left, err := s.parseNumeric(se.List[1])
		if err != nil {
			return nil, err
		}
		right, err := s.parseNumeric(se.List[2])
		if err != nil {
			return nil, err
		}
		return condition.Node(opFor(head), left, right), nil
	default:
		f, err := s.parseFactCall(se)
		if err != nil {
			return nil, err
		}
		return condition.Fact(f, false), nil
	}
}

func (s scope) parseNary(items []*SExpr, combine func(...*condition.Condition) *condition.Condition) (*condition.Condition, error) {
	parts := make([]*condition.Condition, 0, len(items))
	for _, it := range items {
		c, err := s.parseCondition(it)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	return combine(parts...), nil
}

// parseEquality handles both `(= (pred args) value)` fluent equality
// and `(= expr expr)` plain numeric equality. `undefined` on the
// right-hand side maps to "fact is negated with any fluent value".
func (s scope) parseEquality(se *SExpr) (*condition.Condition, error) {
	left := se.List[1]
	rightAtom := se.List[2].Atom
	if !left.IsAtom() && rightAtom == "undefined" {
		f, err := s.parseFactCall(left)
		if err != nil {
			return nil, err
		}
		return condition.Not(condition.Fact(f, false)), nil
	}
	if !left.IsAtom() && s.isPredicateCall(left) {
		f, err := s.parseFactCall(left)
		if err != nil {
			return nil, err
		}
		rightExpr, err := s.parseNumeric(se.List[2])
		if err != nil {
			return nil, err
		}
		return condition.Node(condition.OpEquality, condition.Fact(f, false), rightExpr), nil
	}
	leftExpr, err := s.parseNumeric(left)
	if err != nil {
		return nil, err
	}
	rightExpr, err := s.parseNumeric(se.List[2])
	if err != nil {
		return nil, err
	}
	return condition.Node(condition.OpEquality, leftExpr, rightExpr), nil
}

func (s scope) isPredicateCall(se *SExpr) bool {
	if se.IsAtom() || len(se.List) == 0 {
		return false
	}
	_, ok := s.store.Predicate(se.List[0].Atom)
	return ok
}

// parseNumeric parses the arithmetic sub-language (number literal,
// fact fluent read, +/-) as a Condition tree, the representation
// condition.EvalNumber consumes.
func (s scope) parseNumeric(se *SExpr) (*condition.Condition, error) {
	if se.IsAtom() {
		v, err := strconv.ParseFloat(se.Atom, 64)
		if err != nil {
			return nil, planerr.Parse("expected a number, got %q", se.Atom)
		}
		return condition.Num(v), nil
	}
	if s.isPredicateCall(se) {
		f, err := s.parseFactCall(se)
		if err != nil {
			return nil, err
		}
		return condition.Fact(f, false), nil
	}
	head := se.Head()
	left, err := s.parseNumeric(se.List[1])
	if err != nil {
		return nil, err
	}
	right, err := s.parseNumeric(se.List[2])
	if err != nil {
		return nil, err
	}
	switch head {
	case "+":
		return condition.Node(condition.OpPlus, left, right), nil
	case "-":
		return condition.Node(condition.OpMinus, left, right), nil
	default:
		return nil, planerr.Parse("unsupported arithmetic operator %q", head)
	}
}

func opFor(head string) condition.Op {
	switch head {
	case ">":
		return condition.OpSuperior
	case ">=":
		return condition.OpSuperiorOrEqual
	case "<":
		return condition.OpInferior
	default:
		return condition.OpInferiorOrEqual
	}
}

func (s scope) withParams(params []ontology.Parameter) scope {
	merged := make(map[string]*ontology.Type, len(s.params)+len(params))
	for k, v := range s.params {
		merged[k] = v
	}
	for _, p := range params {
		merged[p.Name] = p.Type
	}
	return scope{store: s.store, params: merged}
}

// parseEffect parses a WorldStateModification tree.
func (s scope) parseEffect(se *SExpr) (*effect.Effect, error) {
	if se.IsAtom() {
		v, err := strconv.ParseFloat(se.Atom, 64)
		if err != nil {
			return nil, planerr.Parse("unexpected atom %q in effect position", se.Atom)
		}
		return effect.Num(v), nil
	}
	head := se.Head()
	switch head {
	case "and":
		parts := make([]*effect.Effect, 0, len(se.List)-1)
		for _, it := range se.List[1:] {
			e, err := s.parseEffect(it)
			if err != nil {
				return nil, err
			}
			parts = append(parts, e)
		}
		return effect.And(parts...), nil
	case "not":
		f, err := s.parseFactCall(se.List[1])
		if err != nil {
			return nil, err
		}
		return effect.Fact(f, true), nil
	case "assign", "increase", "decrease":
		target, err := s.parseFactCall(se.List[1])
		if err != nil {
			return nil, err
		}
		rhs := se.List[2]
		var expr *effect.Effect
		if rhs.IsAtom() {
			v, err := strconv.ParseFloat(rhs.Atom, 64)
			if err != nil {
				return nil, err
			}
			expr = effect.Num(v)
		} else {
			expr, err = s.parseEffectNumeric(rhs)
			if err != nil {
				return nil, err
			}
		}
		switch head {
		case "assign":
			return effect.Assign(target, expr), nil
		case "increase":
			return effect.Increase(target, expr), nil
		default:
			return effect.Decrease(target, expr), nil
		}
	case "when":
		cond, err := s.parseCondition(se.List[1])
		if err != nil {
			return nil, err
		}
		body, err := s.parseEffect(se.List[2])
		if err != nil {
			return nil, err
		}
		return effect.When(cond, body), nil
	case "forall":
		params, err := parseTypedParams(se.List[1], s.store)
		if err != nil {
			return nil, err
		}
		inner := s.withParams(params)
		template, err := inner.parseFactCall(se.List[2])
		if err != nil {
			return nil, err
		}
		body, err := inner.parseEffect(se.List[3])
		if err != nil {
			return nil, err
		}
		return effect.ForAll(params[0], template, body), nil
	default:
		f, err := s.parseFactCall(se)
		if err != nil {
			return nil, err
		}
		return effect.Fact(f, false), nil
	}
}

func (s scope) parseEffectNumeric(se *SExpr) (*effect.Effect, error) {
	if se.IsAtom() {
		v, err := strconv.ParseFloat(se.Atom, 64)
		if err != nil {
			return nil, err
		}
		return effect.Num(v), nil
	}
	if s.isPredicateCall(se) {
		f, err := s.parseFactCall(se)
		if err != nil {
			return nil, err
		}
		return effect.Fact(f, false), nil
	}
	head := se.Head()
	left, err := s.parseEffectNumeric(se.List[1])
	if err != nil {
		return nil, err
	}
	right, err := s.parseEffectNumeric(se.List[2])
	if err != nil {
		return nil, err
	}
	if head == "+" {
		return &effect.Effect{Kind: effect.KindNode, Op: effect.OpPlus, Left: left, Right: right}, nil
	}
	return &effect.Effect{Kind: effect.KindNode, Op: effect.OpMinus, Left: left, Right: right}, nil
}

// ParsedGoal is one top-level goal extracted from a `(:goal ...)`
// clause, preserving the persist/oneStepTowards wrappers and the
// __PRIORITIZED ordering as a descending Priority.
type ParsedGoal struct {
	Objective  *condition.Condition
	Priority   int
	Persistent bool
	OneStep    bool
}

// parseGoal unwraps persist/oneStepTowards and the __PRIORITIZED
// sequence, assigning descending priorities to a prioritized list.
func (s scope) parseGoal(se *SExpr) ([]ParsedGoal, error) {
	if !se.IsAtom() && se.Head() == "and" && len(se.List) > 1 && se.List[1].Atom == "__PRIORITIZED" {
		items := se.List[2:]
		out := make([]ParsedGoal, 0, len(items))
		for i, it := range items {
			g, err := s.parseSingleGoal(it)
			if err != nil {
				return nil, err
			}
			g.Priority = len(items) - i
			out = append(out, g)
		}
		return out, nil
	}
	g, err := s.parseSingleGoal(se)
	if err != nil {
		return nil, err
	}
	return []ParsedGoal{g}, nil
}

func (s scope) parseSingleGoal(se *SExpr) (ParsedGoal, error) {
	if !se.IsAtom() {
		switch se.Head() {
		case "persist":
			inner, err := s.parseSingleGoal(se.List[1])
			if err != nil {
				return ParsedGoal{}, err
			}
			inner.Persistent = true
			return inner, nil
		case "oneStepTowards":
			inner, err := s.parseSingleGoal(se.List[1])
			if err != nil {
				return ParsedGoal{}, err
			}
			inner.OneStep = true
			return inner, nil
		}
	}
	c, err := s.parseCondition(se)
	if err != nil {
		return ParsedGoal{}, err
	}
	return ParsedGoal{Objective: c}, nil
}

// GoalsFromParsed converts ParsedGoal values into goal.Goal.
func GoalsFromParsed(parsed []ParsedGoal) []*goal.Goal {
	out := make([]*goal.Goal, len(parsed))
	for i, g := range parsed {
		out[i] = &goal.Goal{Objective: g.Objective, Priority: g.Priority, Persistent: g.Persistent, OneStepTowards: g.OneStep}
	}
	return out
}

// newScope returns a scope with no parameters bound, rooted at store.
func newScope(store *ontology.Store) scope {
	return scope{store: store, params: map[string]*ontology.Type{}}
}

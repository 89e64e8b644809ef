package effect

import (
	"strconv"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/planerr"
)

// Change is one scheduled fact addition or removal produced by applying
// an Effect. worldstate.WorldState.Modify is responsible for actually
// writing these into its SetOfFacts (so it can enforce the
// at-most-one-value-per-fluent invariant and emit WhatChanged).
type Change struct {
	Fact   fact.Fact
	Remove bool
}

// Collect walks e and returns every fact add/remove it schedules, under
// bindings, against the read-only view in ctx (used to enumerate
// ForAll's template and evaluate When guards and arithmetic operands).
func Collect(e *Effect, ctx condition.Context, bindings condition.Bindings) ([]Change, error) {
	var out []Change
	err := collect(e, ctx, bindings, &out)
	return out, err
}

func collect(e *Effect, ctx condition.Context, bindings condition.Bindings, out *[]Change) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindFact:
		*out = append(*out, Change{Fact: e.FactOpt.Fact.Clone(bindingsMap(bindings)), Remove: e.FactOpt.IsNegated})
		return nil
	case KindNode:
		switch e.Op {
		case OpAnd:
			if err := collect(e.Left, ctx, bindings, out); err != nil {
				return err
			}
			return collect(e.Right, ctx, bindings, out)
		case OpAssign:
			return collectAssign(e, ctx, bindings, out, assignOp)
		case OpIncrease:
			return collectAssign(e, ctx, bindings, out, increaseOp)
		case OpDecrease:
			return collectAssign(e, ctx, bindings, out, decreaseOp)
		case OpMultiply:
			return collectAssign(e, ctx, bindings, out, multiplyOp)
		case OpForAll:
			return collectForAll(e, ctx, bindings, out)
		case OpWhen:
			ok, _ := condition.IsTrue(e.WhenCond, ctx, bindings)
			if !ok {
				return nil
			}
			return collect(e.Left, ctx, bindings, out)
		default:
			return planerr.Invariant("effect: unsupported node op %v", e.Op)
		}
	default:
		return planerr.Invariant("effect: unsupported kind %v", e.Kind)
	}
}

type combineOp func(current float64, delta float64) float64

func assignOp(_ float64, delta float64) float64   { return delta }
func increaseOp(current float64, delta float64) float64 { return current + delta }
func decreaseOp(current float64, delta float64) float64 { return current - delta }
func multiplyOp(current float64, delta float64) float64 { return current * delta }

func collectAssign(e *Effect, ctx condition.Context, bindings condition.Bindings, out *[]Change, combine combineOp) error {
	target := e.Left.FactOpt.Fact.Clone(bindingsMap(bindings))
	delta, ok := evalNumber(e.Right, ctx, bindings)
	if !ok {
		return planerr.Invariant("effect: could not evaluate right-hand expression for %s", target.Name())
	}
	current := 0.0
	if stored, ok := ctx.Facts.Get(target); ok && stored.Fluent != nil {
		if v, err := strconv.ParseFloat(stored.Fluent.Value, 64); err == nil {
			current = v
		}
	}
	result := combine(current, delta)
	v := entity.NewConcrete(strconv.FormatFloat(result, 'g', -1, 64), target.Predicate.FluentType)
	target.Fluent = &v
	target.FluentNegated = false
	*out = append(*out, Change{Fact: target})
	return nil
}

func collectForAll(e *Effect, ctx condition.Context, bindings condition.Bindings, out *[]Change) error {
	matches := ctx.Facts.Find(*e.ForAllPattern)
	wildcardIdx := -1
	for i, a := range e.ForAllPattern.Arguments {
		if a.Kind == entity.BoundParameter && a.Value == e.ForAllParam.Name {
			wildcardIdx = i
		}
	}
	if wildcardIdx == -1 {
		return planerr.Invariant("effect: forall parameter %q not found in template", e.ForAllParam.Name)
	}
	for _, m := range matches {
		trial := bindings.Clone()
		trial[e.ForAllParam.Name] = m.Arguments[wildcardIdx]
		if err := collect(e.Left, ctx, trial, out); err != nil {
			return err
		}
	}
	return nil
}

// evalNumber mirrors condition.EvalNumber but accepts an Effect operand
// tree (Number/Fact/Plus/Minus), since arithmetic right-hand sides of
// Assign/Increase/Decrease/Multiply are built from Effect nodes rather
// than Condition nodes.
func evalNumber(e *Effect, ctx condition.Context, bindings condition.Bindings) (float64, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case KindNumber:
		return e.Number, true
	case KindFact:
		resolved := e.FactOpt.Fact.Clone(bindingsMap(bindings))
		stored, ok := ctx.Facts.Get(resolved)
		if !ok || stored.Fluent == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(stored.Fluent.Value, 64)
		return v, err == nil
	case KindNode:
		left, lok := evalNumber(e.Left, ctx, bindings)
		right, rok := evalNumber(e.Right, ctx, bindings)
		if !lok || !rok {
			return 0, false
		}
		switch e.Op {
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

func bindingsMap(b condition.Bindings) map[string]entity.Entity {
	return map[string]entity.Entity(b)
}

// CanSatisfyObjective asks whether any leaf fact e could add or remove
// would satisfy a leaf of goalCond (spec.md §4.3's
// can_satisfy_objective). It returns the first positive witness's
// refined bindings.
func CanSatisfyObjective(e *Effect, goalCond *condition.Condition, bindings condition.Bindings) (bool, condition.Bindings) {
	var found bool
	var foundBindings condition.Bindings
	e.ForEachFactPattern(func(fo fact.Optional) {
		if found {
			return
		}
		if condition.FindCandidateFromEffectFact(goalCond, fo, bindings, func(b condition.Bindings, _ fact.Optional) bool {
			found = true
			foundBindings = b
			return true
		}) {
			return
		}
	})
	if !found {
		return false, bindings
	}
	return true, foundBindings
}

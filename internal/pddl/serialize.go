package pddl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/ontology"
)

const indentUnit = "    "

// DomainToPDDL renders a domain.Domain and its ontology back to the
// PDDL dialect of spec.md §6. Indentation is four spaces; `and` nodes
// are flattened onto one line per clause rather than nested.
func DomainToPDDL(name string, store *ontology.Store, d *domain.Domain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(define (domain %s)\n", name)
	writeTypes(&b, store, 1)
	writeConstants(&b, store, 1)
	writePredicates(&b, store, 1)
	if facts := d.TimelessFacts(); len(facts) > 0 {
		writeLine(&b, 1, "(:timeless")
		for _, f := range facts {
			fmt.Fprintf(&b, "%s%s\n", indent(2), factToStr(f))
		}
		writeLine(&b, 1, ")")
	}

	ids := make([]string, 0)
	for _, a := range d.Actions() {
		ids = append(ids, a.ID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a, _ := d.Action(id)
		writeAction(&b, a, 1)
	}

	setIDs := make([]string, 0)
	for _, s := range d.EventSets() {
		setIDs = append(setIDs, s.ID)
	}
	sort.Strings(setIDs)
	for _, sid := range setIDs {
		for _, s := range d.EventSets() {
			if s.ID == sid {
				writeEventSet(&b, s, 1)
			}
		}
	}
	b.WriteString(")\n")
	return b.String()
}

func writeLine(b *strings.Builder, depth int, s string) {
	fmt.Fprintf(b, "%s%s\n", indent(depth), s)
}

func indent(depth int) string {
	return strings.Repeat(indentUnit, depth)
}

func writeTypes(b *strings.Builder, store *ontology.Store, depth int) {
	byParent := map[string][]string{}
	for _, t := range store.Types() {
		if t.Name == "object" || t.Name == ontology.NumberType {
			continue
		}
		parent := "object"
		if t.Parent != nil {
			parent = t.Parent.Name
		}
		byParent[parent] = append(byParent[parent], t.Name)
	}
	if len(byParent) == 0 {
		return
	}
	writeLine(b, depth, "(:types")
	parents := make([]string, 0, len(byParent))
	for p := range byParent {
		parents = append(parents, p)
	}
	sort.Strings(parents)
	for _, p := range parents {
		names := byParent[p]
		sort.Strings(names)
		fmt.Fprintf(b, "%s%s - %s\n", indent(depth+1), strings.Join(names, " "), p)
	}
	writeLine(b, depth, ")")
}

func writeConstants(b *strings.Builder, store *ontology.Store, depth int) {
	consts := store.Constants()
	if len(consts) == 0 {
		return
	}
	byType := map[string][]string{}
	for _, c := range consts {
		byType[c.Type.Name] = append(byType[c.Type.Name], c.Name)
	}
	writeLine(b, depth, "(:constants")
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		names := byType[t]
		sort.Strings(names)
		fmt.Fprintf(b, "%s%s - %s\n", indent(depth+1), strings.Join(names, " "), t)
	}
	writeLine(b, depth, ")")
}

func writePredicates(b *strings.Builder, store *ontology.Store, depth int) {
	var preds, funcs []*ontology.Predicate
	for _, p := range store.Predicates() {
		if p.IsFluent() {
			funcs = append(funcs, p)
		} else {
			preds = append(preds, p)
		}
	}
	writePredicateGroup(b, ":predicates", preds, depth)
	writePredicateGroup(b, ":functions", funcs, depth)
}

func writePredicateGroup(b *strings.Builder, keyword string, preds []*ontology.Predicate, depth int) {
	if len(preds) == 0 {
		return
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].Name < preds[j].Name })
	writeLine(b, depth, "("+keyword)
	for _, p := range preds {
		fmt.Fprintf(b, "%s(%s %s)\n", indent(depth+1), p.Name, paramsToStr(p.Parameters))
	}
	writeLine(b, depth, ")")
}

func paramsToStr(params []ontology.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("?%s - %s", p.Name, p.Type.Name)
	}
	return strings.Join(parts, " ")
}

func writeAction(b *strings.Builder, a *domain.Action, depth int) {
	durative := a.Duration != nil || a.OverAllCondition != nil
	if durative {
		writeDurativeAction(b, a, depth)
		return
	}
	writeLine(b, depth, fmt.Sprintf("(:action %s", a.ID))
	writeLine(b, depth+1, fmt.Sprintf(":parameters (%s)", paramsToStr(a.Parameters)))
	if a.Precondition != nil {
		writeLine(b, depth+1, ":precondition "+conditionToStr(a.Precondition))
	}
	if a.PreferInContext != nil {
		writeLine(b, depth+1, ":prefer-in-context "+conditionToStr(a.PreferInContext))
	}
	if a.HighImportanceOfNotRepeating {
		writeLine(b, depth+1, ":high-importance-of-not-repeating true")
	}
	if a.Effect.AtEnd != nil {
		writeLine(b, depth+1, ":effect "+effectToStr(a.Effect.AtEnd))
	}
	writeGoalTemplates(b, ":goals-to-add", a.Effect.GoalsToAdd, depth+1)
	writeGoalTemplates(b, ":goals-to-add-current-priority", a.Effect.GoalsToAddCurrentPriority, depth+1)
	writeLine(b, depth, ")")
}

func writeDurativeAction(b *strings.Builder, a *domain.Action, depth int) {
	writeLine(b, depth, fmt.Sprintf("(:durative-action %s", a.ID))
	writeLine(b, depth+1, fmt.Sprintf(":parameters (%s)", paramsToStr(a.Parameters)))
	if a.Duration != nil {
		writeLine(b, depth+1, fmt.Sprintf(":duration (= ?duration %s)", formatNumber(a.Duration.Value)))
	}
	writeLine(b, depth+1, "(:condition")
	if a.Precondition != nil {
		writeLine(b, depth+2, "(at start "+conditionToStr(a.Precondition)+")")
	}
	if a.OverAllCondition != nil {
		writeLine(b, depth+2, "(over all "+conditionToStr(a.OverAllCondition)+")")
	}
	writeLine(b, depth+1, ")")
	writeLine(b, depth+1, "(:effect")
	if a.Effect.AtStart != nil {
		writeLine(b, depth+2, "(at start "+effectToStr(a.Effect.AtStart)+")")
	}
	if a.Effect.AtEnd != nil {
		writeLine(b, depth+2, "(at end "+effectToStr(a.Effect.AtEnd)+")")
	}
	if a.Effect.PotentiallyAtEnd != nil {
		writeLine(b, depth+2, "; __POTENTIALLY")
		writeLine(b, depth+2, "(at end "+effectToStr(a.Effect.PotentiallyAtEnd)+")")
	}
	writeLine(b, depth+1, ")")
	writeGoalTemplates(b, ":goals-to-add", a.Effect.GoalsToAdd, depth+1)
	writeGoalTemplates(b, ":goals-to-add-current-priority", a.Effect.GoalsToAddCurrentPriority, depth+1)
	writeLine(b, depth, ")")
}

func writeGoalTemplates(b *strings.Builder, keyword string, templates []domain.GoalTemplate, depth int) {
	if len(templates) == 0 {
		return
	}
	writeLine(b, depth, keyword+" (")
	for _, t := range templates {
		persist := ""
		if t.Persistent {
			persist = "persist "
		}
		fmt.Fprintf(b, "%s(priority %d %s%s)\n", indent(depth+1), t.Priority, persist, conditionToStr(t.Objective))
	}
	writeLine(b, depth, ")")
}

func writeEventSet(b *strings.Builder, set *domain.SetOfEvents, depth int) {
	writeLine(b, depth, fmt.Sprintf("(:event %s", set.ID))
	writeLine(b, depth+1, ":events (")
	ids := make([]string, 0, len(set.Events))
	for id := range set.Events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := set.Events[id]
		writeLine(b, depth+2, fmt.Sprintf("(:event %s", e.ID))
		writeLine(b, depth+3, fmt.Sprintf(":parameters (%s)", paramsToStr(e.Parameters)))
		if e.Precondition != nil {
			writeLine(b, depth+3, ":precondition "+conditionToStr(e.Precondition))
		}
		if e.Effect != nil {
			writeLine(b, depth+3, ":effect "+effectToStr(e.Effect))
		}
		writeGoalTemplates(b, ":goals-to-add", e.GoalsToAdd, depth+3)
		writeLine(b, depth+2, ")")
	}
	writeLine(b, depth+1, ")")
	writeLine(b, depth, ")")
}

// conditionToStr renders a Condition tree with `and`/`or` children
// flattened onto the same parenthesized form rather than nested
// pairwise.
func conditionToStr(c *condition.Condition) string {
	if c == nil {
		return "()"
	}
	switch c.Kind {
	case condition.KindFact:
		if c.FactOpt.IsNegated {
			return "(not " + factToStr(c.FactOpt.Fact) + ")"
		}
		return factToStr(c.FactOpt.Fact)
	case condition.KindNumber:
		return formatNumber(c.Number)
	case condition.KindNot:
		return "(not " + conditionToStr(c.Child) + ")"
	case condition.KindExists:
		return fmt.Sprintf("(exists (?%s - %s) %s)", c.Param.Name, c.Param.Type.Name, conditionToStr(c.Child))
	case condition.KindForall:
		return fmt.Sprintf("(forall (?%s - %s) %s)", c.Param.Name, c.Param.Type.Name, conditionToStr(c.Child))
	case condition.KindNode:
		switch c.Op {
		case condition.OpAnd:
			return "(and " + strings.Join(flattenCondition(c, condition.OpAnd), " ") + ")"
		case condition.OpOr:
			return "(or " + strings.Join(flattenCondition(c, condition.OpOr), " ") + ")"
		case condition.OpImply:
			return fmt.Sprintf("(imply %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpEquality:
			return fmt.Sprintf("(= %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpSuperior:
			return fmt.Sprintf("(> %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpSuperiorOrEqual:
			return fmt.Sprintf("(>= %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpInferior:
			return fmt.Sprintf("(< %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpInferiorOrEqual:
			return fmt.Sprintf("(<= %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpPlus:
			return fmt.Sprintf("(+ %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		case condition.OpMinus:
			return fmt.Sprintf("(- %s %s)", conditionToStr(c.Left), conditionToStr(c.Right))
		default:
			return "()"
		}
	default:
		return "()"
	}
}

func flattenCondition(c *condition.Condition, op condition.Op) []string {
	var out []string
	var walk func(n *condition.Condition)
	walk = func(n *condition.Condition) {
		if n == nil {
			return
		}
		if n.Kind == condition.KindNode && n.Op == op {
			walk(n.Left)
			walk(n.Right)
			return
		}
		out = append(out, conditionToStr(n))
	}
	walk(c)
	return out
}

func effectToStr(e *effect.Effect) string {
	if e == nil {
		return "()"
	}
	switch e.Kind {
	case effect.KindFact:
		if e.FactOpt.IsNegated {
			return "(not " + factToStr(e.FactOpt.Fact) + ")"
		}
		return factToStr(e.FactOpt.Fact)
	case effect.KindNumber:
		return formatNumber(e.Number)
	case effect.KindNode:
		switch e.Op {
		case effect.OpAnd:
			return "(and " + strings.Join(flattenEffect(e), " ") + ")"
		case effect.OpAssign:
			return fmt.Sprintf("(assign %s %s)", factToStr(e.Left.FactOpt.Fact), effectToStr(e.Right))
		case effect.OpIncrease:
			return fmt.Sprintf("(increase %s %s)", factToStr(e.Left.FactOpt.Fact), effectToStr(e.Right))
		case effect.OpDecrease:
			return fmt.Sprintf("(decrease %s %s)", factToStr(e.Left.FactOpt.Fact), effectToStr(e.Right))
		case effect.OpMultiply:
			return fmt.Sprintf("(* %s %s)", factToStr(e.Left.FactOpt.Fact), effectToStr(e.Right))
		case effect.OpForAll:
			return fmt.Sprintf("(forall (?%s - %s) %s %s)", e.ForAllParam.Name, e.ForAllParam.Type.Name, factToStr(*e.ForAllPattern), effectToStr(e.Left))
		case effect.OpWhen:
			return fmt.Sprintf("(when %s %s)", conditionToStr(e.WhenCond), effectToStr(e.Left))
		case effect.OpPlus:
			return fmt.Sprintf("(+ %s %s)", effectToStr(e.Left), effectToStr(e.Right))
		case effect.OpMinus:
			return fmt.Sprintf("(- %s %s)", effectToStr(e.Left), effectToStr(e.Right))
		}
	}
	return "()"
}

func flattenEffect(e *effect.Effect) []string {
	var out []string
	var walk func(n *effect.Effect)
	walk = func(n *effect.Effect) {
		if n == nil {
			return
		}
		if n.Kind == effect.KindNode && n.Op == effect.OpAnd {
			walk(n.Left)
			walk(n.Right)
			return
		}
		out = append(out, effectToStr(n))
	}
	walk(e)
	return out
}

func factToStr(f fact.Fact) string {
	args := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = entityToStr(a)
	}
	call := fmt.Sprintf("(%s %s)", f.Predicate.Name, strings.Join(args, " "))
	if f.Fluent == nil {
		return call
	}
	if f.FluentNegated {
		return fmt.Sprintf("(not (= %s %s))", call, entityToStr(*f.Fluent))
	}
	return fmt.Sprintf("(= %s %s)", call, entityToStr(*f.Fluent))
}

func entityToStr(e entity.Entity) string {
	switch e.Kind {
	case entity.BoundParameter:
		return "?" + e.Value
	case entity.AnyValue:
		return "undefined"
	default:
		return e.Value
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ProblemToPDDL renders a `(define (problem ...) (:domain ...) ...)`
// form: objects, :init facts, and the :goal clause (a single goal is
// written bare; any other number of goals is wrapped in
// `(and __PRIORITIZED ...)`).
func ProblemToPDDL(problemName, domainName string, objects []ontology.Constant, init []fact.Fact, goals []*goal.Goal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(define (problem %s)\n", problemName)
	writeLine(&b, 1, fmt.Sprintf("(:domain %s)", domainName))

	if len(objects) > 0 {
		byType := map[string][]string{}
		for _, c := range objects {
			byType[c.Type.Name] = append(byType[c.Type.Name], c.Name)
		}
		writeLine(&b, 1, "(:objects")
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			names := byType[t]
			sort.Strings(names)
			fmt.Fprintf(&b, "%s%s - %s\n", indent(2), strings.Join(names, " "), t)
		}
		writeLine(&b, 1, ")")
	}

	writeLine(&b, 1, "(:init")
	for _, f := range init {
		fmt.Fprintf(&b, "%s%s\n", indent(2), factToStr(f))
	}
	writeLine(&b, 1, ")")

	writeLine(&b, 1, "(:goal")
	writeGoalClause(&b, goals, 2)
	writeLine(&b, 1, ")")

	b.WriteString(")\n")
	return b.String()
}

func writeGoalClause(b *strings.Builder, goals []*goal.Goal, depth int) {
	if len(goals) == 1 {
		writeLine(b, depth, goalToStr(goals[0]))
		return
	}
	writeLine(b, depth, "(and __PRIORITIZED")
	for _, g := range goals {
		writeLine(b, depth+1, goalToStr(g))
	}
	writeLine(b, depth, ")")
}

func goalToStr(g *goal.Goal) string {
	s := conditionToStr(g.Objective)
	if g.OneStepTowards {
		s = "(oneStepTowards " + s + ")"
	}
	if g.Persistent {
		s = "(persist " + s + ")"
	}
	return s
}

// PlanToPDDL renders a plan as a flat PDDL `(plan (step1) (step2) ...)`
// listing, one parenthesized action call per step.
func PlanToPDDL(steps []Step) string {
	var b strings.Builder
	b.WriteString("(plan\n")
	for _, st := range steps {
		writeLine(&b, 1, stepToPDDL(st))
	}
	b.WriteString(")\n")
	return b.String()
}

// ParallelPlanToPDDL renders a parallel plan as `(parallel-plan (group
// (step1) (step2)) ...)`, one (possibly multi-step) group per line.
func ParallelPlanToPDDL(groups [][]Step) string {
	var b strings.Builder
	b.WriteString("(parallel-plan\n")
	for _, g := range groups {
		parts := make([]string, len(g))
		for i, st := range g {
			parts[i] = stepToPDDL(st)
		}
		writeLine(&b, 1, "(group "+strings.Join(parts, " ")+")")
	}
	b.WriteString(")\n")
	return b.String()
}

// Step is the minimal action-call shape PlanToPDDL/ParallelPlanToPDDL
// need, decoupling this package from internal/planner.
type Step struct {
	ActionID string
	Bindings map[string]entity.Entity
}

func stepToPDDL(st Step) string {
	keys := make([]string, 0, len(st.Bindings))
	for k := range st.Bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = entityToStr(st.Bindings[k])
	}
	if len(args) == 0 {
		return "(" + st.ActionID + ")"
	}
	return fmt.Sprintf("(%s %s)", st.ActionID, strings.Join(args, " "))
}

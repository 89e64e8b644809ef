package pddl

import (
	"fmt"

	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
)

// ParseDomain parses a `(define (domain NAME) ...)` form into an
// ontology.Store and a domain.Domain, per spec.md §6's accepted clause
// set.
func ParseDomain(src string) (*ontology.Store, *domain.Domain, error) {
	exprs, err := Parse(src)
	if err != nil {
		return nil, nil, err
	}
	if len(exprs) == 0 || exprs[0].Head() != "define" {
		return nil, nil, planerr.Parse("expected (define (domain ...) ...)")
	}
	top := exprs[0].List[1:]
	if len(top) == 0 || top[0].Head() != "domain" {
		return nil, nil, planerr.Parse("expected (domain NAME) as first clause")
	}
	clauses := top[1:]

	store := ontology.NewStore()
	for _, c := range clauses {
		if c.Head() == ":types" {
			if err := parseTypeHierarchy(c, store); err != nil {
				return nil, nil, err
			}
		}
	}
	for _, c := range clauses {
		if c.Head() == ":constants" {
			if err := parseConstants(c, store); err != nil {
				return nil, nil, err
			}
		}
	}
	for _, c := range clauses {
		switch c.Head() {
		case ":predicates":
			if err := parsePredicates(c, store, false); err != nil {
				return nil, nil, err
			}
		case ":functions":
			if err := parsePredicates(c, store, true); err != nil {
				return nil, nil, err
			}
		}
	}

	d := domain.New(store)
	s := newScope(store)

	for _, c := range clauses {
		switch c.Head() {
		case ":timeless":
			facts, err := parseGroundFacts(c.List[1:], s)
			if err != nil {
				return nil, nil, err
			}
			d.SetTimelessFacts(facts)
		case ":axiom":
			ax, err := parseAxiom(c, s)
			if err != nil {
				return nil, nil, err
			}
			d.AddDerivedPredicate(ax)
		case ":action":
			a, err := parseAction(c, s)
			if err != nil {
				return nil, nil, err
			}
			d.AddAction(a)
		case ":durative-action":
			a, err := parseDurativeAction(c, s)
			if err != nil {
				return nil, nil, err
			}
			d.AddAction(a)
		case ":event":
			set, err := parseEventSet(c, s)
			if err != nil {
				return nil, nil, err
			}
			d.AddEventSet(set)
		}
	}
	return store, d, nil
}

func parseConstants(c *SExpr, store *ontology.Store) error {
	for _, g := range groupByDash(atomsOf(c.List[1:])) {
		t, ok := store.Type(g.TypeName)
		if !ok {
			return planerr.Reference("unknown constant type %q", g.TypeName)
		}
		for _, n := range g.Names {
			if err := store.AddConstant(&ontology.Constant{Name: n, Type: t}); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseGroundFacts parses each item as a ground fact, supporting both a
// bare predicate call and `(= (pred args) value)` fluent assignment.
func parseGroundFacts(items []*SExpr, s scope) ([]fact.Fact, error) {
	out := make([]fact.Fact, 0, len(items))
	for _, it := range items {
		f, err := parseGroundFactWithFluent(it, s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func parseGroundFactWithFluent(se *SExpr, s scope) (fact.Fact, error) {
	if se.Head() == "=" {
		call := se.List[1]
		value := se.List[2].Atom
		base, err := s.parseFactCall(call)
		if err != nil {
			return fact.Fact{}, err
		}
		pred := base.Predicate
		args := base.Arguments
		v := s.entity(value)
		return fact.New(pred, args, fact.WithFluent(v, false))
	}
	return s.parseFactCall(se)
}

func parseAxiom(c *SExpr, s scope) (*domain.DerivedPredicate, error) {
	name := c.List[1].Atom
	params, err := parseTypedParams(c.List[2], s.store)
	if err != nil {
		return nil, err
	}
	inner := s.withParams(params)
	body, err := inner.parseCondition(c.List[3])
	if err != nil {
		return nil, err
	}
	return &domain.DerivedPredicate{Name: name, Parameters: params, Body: body}, nil
}

// clauseMap groups an action/event body's keyword-prefixed clauses
// (`:parameters`, `:precondition`, ...) by keyword, the PDDL convention
// of an unordered tail of `:keyword value` pairs.
func clauseMap(items []*SExpr) map[string]*SExpr {
	m := make(map[string]*SExpr, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		m[items[i].Atom] = items[i+1]
	}
	return m
}

func parseAction(c *SExpr, s scope) (*domain.Action, error) {
	name := c.List[1].Atom
	clauses := clauseMap(c.List[2:])

	params, err := parseTypedParams(clauses[":parameters"], s.store)
	if err != nil {
		return nil, err
	}
	inner := s.withParams(params)

	a := &domain.Action{ID: name, Parameters: params}
	if pre, ok := clauses[":precondition"]; ok {
		a.Precondition, err = inner.parseCondition(pre)
		if err != nil {
			return nil, err
		}
	}
	if over, ok := clauses[":over-all"]; ok {
		a.OverAllCondition, err = inner.parseCondition(over)
		if err != nil {
			return nil, err
		}
	}
	if pref, ok := clauses[":prefer-in-context"]; ok {
		a.PreferInContext, err = inner.parseCondition(pref)
		if err != nil {
			return nil, err
		}
	}
	if _, ok := clauses[":high-importance-of-not-repeating"]; ok {
		a.HighImportanceOfNotRepeating = true
	}
	if eff, ok := clauses[":effect"]; ok {
		e, err := inner.parseEffect(eff)
		if err != nil {
			return nil, err
		}
		a.Effect.AtEnd = e
	}
	if g, ok := clauses[":goals-to-add"]; ok {
		a.Effect.GoalsToAdd, err = parseGoalTemplates(g, inner)
		if err != nil {
			return nil, err
		}
	}
	if g, ok := clauses[":goals-to-add-current-priority"]; ok {
		a.Effect.GoalsToAddCurrentPriority, err = parseGoalTemplates(g, inner)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// parseGoalTemplates reads `((priority N [persist] COND) ...)`.
func parseGoalTemplates(se *SExpr, s scope) ([]domain.GoalTemplate, error) {
	out := make([]domain.GoalTemplate, 0, len(se.List))
	for _, item := range se.List {
		priority := 0
		persistent := false
		condIdx := 0
		toks := item.List
		if len(toks) > 0 && toks[0].Atom == "priority" {
			fmt.Sscanf(toks[1].Atom, "%d", &priority)
			condIdx = 2
		}
		if condIdx < len(toks) && toks[condIdx].Atom == "persist" {
			persistent = true
			condIdx++
		}
		cond, err := s.parseCondition(toks[condIdx])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.GoalTemplate{Objective: cond, Priority: priority, Persistent: persistent})
	}
	return out, nil
}

// parseDurativeAction handles `:duration`/`:condition`/`:effect` with
// at-start/over-all/at-end phases, and the `__POTENTIALLY` tag on an
// `(at end E)` effect clause.
func parseDurativeAction(c *SExpr, s scope) (*domain.Action, error) {
	name := c.List[1].Atom
	clauses := clauseMap(c.List[2:])

	params, err := parseTypedParams(clauses[":parameters"], s.store)
	if err != nil {
		return nil, err
	}
	inner := s.withParams(params)

	a := &domain.Action{ID: name, Parameters: params}

	if dur, ok := clauses[":duration"]; ok {
		// (= ?duration N)
		if len(dur.List) == 3 {
			var v float64
			fmt.Sscanf(dur.List[2].Atom, "%g", &v)
			a.Duration = &domain.DurationExpr{Value: v}
		}
	}

	if cond, ok := clauses[":condition"]; ok {
		for _, phase := range cond.List[1:] {
			if phase.IsAtom() || len(phase.List) < 2 {
				continue
			}
			switch phase.List[0].Atom {
			case "at":
				if phase.List[1].Atom == "start" {
					a.Precondition, err = inner.parseCondition(phase.List[2])
					if err != nil {
						return nil, err
					}
				}
			case "over":
				if phase.List[1].Atom == "all" {
					a.OverAllCondition, err = inner.parseCondition(phase.List[2])
					if err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if eff, ok := clauses[":effect"]; ok {
		potentiallyNext := false
		for _, phase := range eff.List[1:] {
			if phase.IsAtom() && phase.Atom == "__POTENTIALLY" {
				potentiallyNext = true
				continue
			}
			if phase.IsAtom() || len(phase.List) < 2 || phase.List[0].Atom != "at" {
				potentiallyNext = false
				continue
			}
			e, err := inner.parseEffect(phase.List[2])
			if err != nil {
				return nil, err
			}
			switch {
			case phase.List[1].Atom == "start":
				a.Effect.AtStart = e
			case potentiallyNext:
				a.Effect.PotentiallyAtEnd = e
			default:
				a.Effect.AtEnd = e
			}
			potentiallyNext = false
		}
	}
	return a, nil
}

func parseEventSet(c *SExpr, s scope) (*domain.SetOfEvents, error) {
	setID := c.List[1].Atom
	clauses := clauseMap(c.List[2:])
	set := &domain.SetOfEvents{ID: setID, Events: make(map[string]*domain.Event)}

	eventsClause, ok := clauses[":events"]
	if !ok {
		return set, nil
	}
	for _, item := range eventsClause.List {
		ev, err := parseSingleEvent(setID, item, s)
		if err != nil {
			return nil, err
		}
		set.Events[ev.ID] = ev
	}
	return set, nil
}

func parseSingleEvent(setID string, c *SExpr, s scope) (*domain.Event, error) {
	name := c.List[1].Atom
	clauses := clauseMap(c.List[2:])
	params, err := parseTypedParams(clauses[":parameters"], s.store)
	if err != nil {
		return nil, err
	}
	inner := s.withParams(params)

	ev := &domain.Event{SetID: setID, ID: name, Parameters: params}
	if pre, ok := clauses[":precondition"]; ok {
		ev.Precondition, err = inner.parseCondition(pre)
		if err != nil {
			return nil, err
		}
	}
	if eff, ok := clauses[":effect"]; ok {
		ev.Effect, err = inner.parseEffect(eff)
		if err != nil {
			return nil, err
		}
	}
	if g, ok := clauses[":goals-to-add"]; ok {
		ev.GoalsToAdd, err = parseGoalTemplates(g, inner)
		if err != nil {
			return nil, err
		}
	}
	return ev, nil
}

package domain

import (
	"github.com/google/uuid"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
)

// DerivedPredicate is an axiom (spec_full.md §4.a): a named Condition
// evaluated on demand instead of stored as a fact.
type DerivedPredicate struct {
	Name       string
	Parameters []ontology.Parameter
	Body       *condition.Condition
}

// Domain is the immutable-after-construction bundle of actions,
// sets-of-events, timeless facts, derived predicates and the
// precomputed successor graph of spec.md §3/§4.5. Every edit
// regenerates UUID, invalidating any WorldStateCache keyed on it.
type Domain struct {
	UUID string

	Ontology *ontology.Store

	actions           map[string]*Action
	eventSets         map[string]*SetOfEvents
	timelessFacts     []fact.Fact
	derivedPredicates map[string]*DerivedPredicate

	// actionsReferencingFact[predicateName] = action ids whose
	// precondition mentions that predicate (positively or negatively).
	actionsReferencingFact map[string][]string

	// actionsWithEffectOnFact[predicateName] = action ids whose effect
	// can assert or retract that predicate, i.e. the predecessor set a
	// regression search seeds candidates from (spec.md §4.7 step 2).
	actionsWithEffectOnFact map[string][]string

	successors               map[string][]string
	successorsWithoutInterest map[string]map[string]bool
}

// New returns an empty Domain over the given ontology.
func New(o *ontology.Store) *Domain {
	d := &Domain{
		Ontology:          o,
		actions:           make(map[string]*Action),
		eventSets:         make(map[string]*SetOfEvents),
		derivedPredicates: make(map[string]*DerivedPredicate),
	}
	d.rebuild()
	return d
}

// AddAction registers or replaces an action and rebuilds the successor
// graph.
func (d *Domain) AddAction(a *Action) {
	d.actions[a.ID] = a
	d.rebuild()
}

// RemoveAction deletes an action by id and rebuilds the successor graph.
func (d *Domain) RemoveAction(id string) {
	delete(d.actions, id)
	d.rebuild()
}

// Action looks up an action by id.
func (d *Domain) Action(id string) (*Action, bool) {
	a, ok := d.actions[id]
	return a, ok
}

// Actions returns every registered action.
func (d *Domain) Actions() []*Action {
	out := make([]*Action, 0, len(d.actions))
	for _, a := range d.actions {
		out = append(out, a)
	}
	return out
}

// AddEventSet registers or replaces a named SetOfEvents (spec.md §6
// add_event_set) and rebuilds the successor graph.
func (d *Domain) AddEventSet(set *SetOfEvents) {
	d.eventSets[set.ID] = set
	d.rebuild()
}

// RemoveEventSet deletes a named SetOfEvents (spec.md §6
// remove_event_set) and rebuilds the successor graph.
func (d *Domain) RemoveEventSet(id string) {
	delete(d.eventSets, id)
	d.rebuild()
}

// EventSets returns every registered set of events.
func (d *Domain) EventSets() []*SetOfEvents {
	out := make([]*SetOfEvents, 0, len(d.eventSets))
	for _, s := range d.eventSets {
		out = append(out, s)
	}
	return out
}

// AllEvents flattens every event across every registered set.
func (d *Domain) AllEvents() []*Event {
	var out []*Event
	for _, s := range d.eventSets {
		for _, e := range s.Events {
			out = append(out, e)
		}
	}
	return out
}

// SetTimelessFacts replaces the domain's timeless facts (always true,
// never stored in a WorldState's mutable index).
func (d *Domain) SetTimelessFacts(facts []fact.Fact) {
	d.timelessFacts = facts
}

// TimelessFacts returns the domain's timeless facts.
func (d *Domain) TimelessFacts() []fact.Fact {
	return d.timelessFacts
}

// AddDerivedPredicate registers an axiom.
func (d *Domain) AddDerivedPredicate(p *DerivedPredicate) {
	d.derivedPredicates[p.Name] = p
}

// DerivedPredicate looks up an axiom's body by predicate name,
// satisfying condition.DerivedLookup.
func (d *Domain) DerivedPredicate(name string) (*condition.Condition, bool) {
	p, ok := d.derivedPredicates[name]
	if !ok {
		return nil, false
	}
	return p.Body, true
}

// Successors returns the node keys of actions/events whose precondition
// overlaps nodeKey's effect (spec.md §4.5).
func (d *Domain) Successors(nodeKey string) []string {
	return d.successors[nodeKey]
}

// SuccessorsWithoutInterest returns the subset of Successors(nodeKey)
// known to be pointless to explore (contradictory precondition, or an
// effect that cannot refine anything nodeKey's effect claims).
func (d *Domain) SuccessorsWithoutInterest(nodeKey string) map[string]bool {
	return d.successorsWithoutInterest[nodeKey]
}

// ActionsReferencingPredicate returns the ids of actions whose
// precondition mentions predicateName, used to seed per-goal predecessor
// search.
func (d *Domain) ActionsReferencingPredicate(predicateName string) []string {
	return d.actionsReferencingFact[predicateName]
}

// ActionsWithEffectOnPredicate returns the ids of actions whose effect
// can assert or retract predicateName. The planner's regression search
// (internal/planner/search.go) seeds its candidate set per goal from
// this index instead of scanning every registered action.
func (d *Domain) ActionsWithEffectOnPredicate(predicateName string) []string {
	return d.actionsWithEffectOnFact[predicateName]
}

// ActionKey and EventKey build the node keys used throughout the
// successor graph and search trace guards.
func ActionKey(id string) string { return actionKey(id) }
func EventKey(setID, id string) string { return "event:" + setID + ":" + id }

// rebuild recomputes the successor graph from scratch and regenerates
// UUID, invalidating any cache keyed on the previous one.
func (d *Domain) rebuild() {
	d.UUID = uuid.NewString()
	d.actionsReferencingFact = make(map[string][]string)
	d.actionsWithEffectOnFact = make(map[string][]string)
	d.successors = make(map[string][]string)
	d.successorsWithoutInterest = make(map[string]map[string]bool)

	type node struct {
		key          string
		preconds     []fact.Optional
		overAll      []fact.Optional
		effects      []fact.Optional
		precondition *condition.Condition
	}

	var nodes []node
	for _, a := range d.actions {
		n := node{key: actionKey(a.ID), precondition: a.Precondition}
		collectPatterns(a.Precondition, &n.preconds)
		collectPatterns(a.OverAllCondition, &n.overAll)
		collectEffectPatterns(a.Effect.Combined(), &n.effects)
		nodes = append(nodes, n)
		for _, p := range n.preconds {
			predName := p.Fact.Predicate.Name
			d.actionsReferencingFact[predName] = append(d.actionsReferencingFact[predName], a.ID)
		}
		for _, e := range n.effects {
			predName := e.Fact.Predicate.Name
			d.actionsWithEffectOnFact[predName] = append(d.actionsWithEffectOnFact[predName], a.ID)
		}
	}
	for _, e := range d.AllEvents() {
		n := node{key: e.Key(), precondition: e.Precondition}
		collectPatterns(e.Precondition, &n.preconds)
		collectEffectPatterns(e.Effect, &n.effects)
		nodes = append(nodes, n)
	}

	for _, x := range nodes {
		for _, y := range nodes {
			if x.key == y.key {
				continue
			}
			if !effectOverlapsPrecondition(x.effects, y.preconds) {
				continue
			}
			d.successors[x.key] = append(d.successors[x.key], y.key)
			if isWithoutInterest(x, y) {
				if d.successorsWithoutInterest[x.key] == nil {
					d.successorsWithoutInterest[x.key] = make(map[string]bool)
				}
				d.successorsWithoutInterest[x.key][y.key] = true
			}
		}
	}
}

func collectPatterns(c *condition.Condition, out *[]fact.Optional) {
	c.ForEachFactPattern(func(fo fact.Optional) {
		*out = append(*out, fo)
	})
}

func collectEffectPatterns(e interface {
	ForEachFactPattern(func(fact.Optional))
}, out *[]fact.Optional) {
	if e == nil {
		return
	}
	e.ForEachFactPattern(func(fo fact.Optional) {
		*out = append(*out, fo)
	})
}

// effectOverlapsPrecondition reports whether some effect pattern names
// the same predicate as some precondition pattern, positively or
// negatively (a coarse, name-based unification: exact wildcard
// unification would need parameter-namespace renaming across two
// independent actions, which only tightens pruning, never correctness —
// see DESIGN.md).
func effectOverlapsPrecondition(effects, preconds []fact.Optional) bool {
	for _, e := range effects {
		for _, p := range preconds {
			if e.Fact.Predicate.Name == p.Fact.Predicate.Name {
				return true
			}
		}
	}
	return false
}

// isWithoutInterest flags y as a pointless successor of x when y's
// precondition directly contradicts x's effect (spec.md §4.5's
// "impossible succession").
func isWithoutInterest(x, y struct {
	key          string
	preconds     []fact.Optional
	overAll      []fact.Optional
	effects      []fact.Optional
	precondition *condition.Condition
}) bool {
	if y.precondition == nil {
		return false
	}
	for _, e := range x.effects {
		if y.precondition.HasAContradictionWith(e, false) {
			return true
		}
	}
	return false
}

// ValidateReference returns an error if actionID names no known action
// (spec.md §7's Reference error).
func (d *Domain) ValidateReference(actionID string) error {
	if _, ok := d.actions[actionID]; !ok {
		return planerr.Reference("unknown action id %q", actionID)
	}
	return nil
}

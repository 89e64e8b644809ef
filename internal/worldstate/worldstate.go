// Package worldstate implements the mutable current-facts store of
// spec.md §4.3/§4.4: a SetOfFacts plus the observer notification loop
// that fires Domain events to a fixed point after every modification.
package worldstate

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/planerr"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/setoffacts"
)

// maxEventRounds bounds the fixed-point event loop so a badly-written
// domain (an event whose own effect re-triggers its own precondition)
// cannot hang a tick forever.
const maxEventRounds = 64

// Observer is notified of every change a Modify/ProcessEvents round
// settles on, mirroring spec.md §4.4's on_facts_added/on_facts_removed/
// on_punctual_facts hooks. Implementations must return quickly: they run
// synchronously inside the world's modification call.
type Observer interface {
	OnFactsAdded(added []fact.Fact)
	OnFactsRemoved(removed []fact.Fact)
	OnPunctualFacts(punctual []fact.Fact)
}

// WorldState is the current set of true facts for one Domain, plus the
// event-firing loop that keeps it consistent after every change.
type WorldState struct {
	domain *domain.Domain
	facts  *setoffacts.SetOfFacts

	observers []Observer
	cache     *Cache

	// Logger receives structured event/cache notifications. Defaults to
	// the global logger; set directly to an embedder's own logger.
	Logger *zerolog.Logger

	// Metrics receives an EventsFired increment per fired event when
	// non-nil, wired by SetMetrics (the planner package does this in
	// NewProblem).
	Metrics *plannermetrics.Metrics
}

// SetMetrics wires m's EventsFired counter into this world's event
// loop. A nil m disables emission.
func (ws *WorldState) SetMetrics(m *plannermetrics.Metrics) {
	ws.Metrics = m
}

// New returns an empty WorldState over d, seeded with d's timeless
// facts (always present, never removable).
func New(d *domain.Domain) *WorldState {
	ws := &WorldState{
		domain: d,
		facts:  setoffacts.New(d.Ontology),
		cache:  NewCache(),
		Logger: &log.Logger,
	}
	for _, f := range d.TimelessFacts() {
		_ = ws.facts.Insert(f, false)
	}
	return ws
}

// AddObserver registers obs to be notified of future changes.
func (ws *WorldState) AddObserver(obs Observer) {
	ws.observers = append(ws.observers, obs)
}

// Find, Contains and Get satisfy condition.FactSource.
func (ws *WorldState) Find(pattern fact.Fact) []fact.Fact { return ws.facts.Find(pattern) }
func (ws *WorldState) Contains(f fact.Fact) bool          { return ws.facts.Contains(f) }
func (ws *WorldState) Get(f fact.Fact) (fact.Fact, bool)  { return ws.facts.Get(f) }

// Context builds a condition.Context rooted at this world, with no
// punctual facts in scope (used for steady-state reads between ticks).
func (ws *WorldState) Context() condition.Context {
	return condition.Context{Facts: ws, Derived: ws.domain.DerivedPredicate}
}

// AddFacts inserts ground facts directly (bypassing effect evaluation),
// used to seed a problem's initial state. Punctual facts (I3) are
// rejected.
func (ws *WorldState) AddFacts(facts []fact.Fact) error {
	var added []fact.Fact
	for _, f := range facts {
		if f.IsPunctual() {
			return planerr.Invariant("worldstate: punctual fact %s cannot be stored", f.Name())
		}
		if err := ws.insertWithFluentReplace(f); err != nil {
			return err
		}
		added = append(added, f)
	}
	ws.notifyAdded(added)
	ws.invalidateCache()
	return ws.ProcessEvents()
}

// RemoveFacts deletes ground facts, notifying observers for the ones
// actually present.
func (ws *WorldState) RemoveFacts(facts []fact.Fact) error {
	var removed []fact.Fact
	for _, f := range facts {
		ok, err := ws.facts.Remove(f)
		if err != nil {
			return err
		}
		if ok {
			removed = append(removed, f)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	ws.notifyRemoved(removed)
	ws.invalidateCache()
	return ws.ProcessEvents()
}

// Modify applies a batch of effect.Change (add/remove) atomically with
// respect to observer notification: every add/remove in the batch is
// applied before observers are told about any of it, then events are
// fired to a fixed point (spec.md §4.4).
func (ws *WorldState) Modify(changes []effect.Change) error {
	var added, removed []fact.Fact
	for _, c := range changes {
		if c.Remove {
			ok, err := ws.facts.Remove(c.Fact)
			if err != nil {
				return err
			}
			if ok {
				removed = append(removed, c.Fact)
			}
			continue
		}
		if c.Fact.IsPunctual() {
			// Punctual facts never enter the SetOfFacts; they are only
			// ever observed transiently within the round that produced
			// them (spec.md I3).
			ws.notifyPunctual([]fact.Fact{c.Fact})
			continue
		}
		if err := ws.insertWithFluentReplace(c.Fact); err != nil {
			return err
		}
		added = append(added, c.Fact)
	}
	if len(added) > 0 {
		ws.notifyAdded(added)
	}
	if len(removed) > 0 {
		ws.notifyRemoved(removed)
	}
	if len(added) > 0 || len(removed) > 0 {
		ws.invalidateCache()
	}
	return ws.ProcessEvents()
}

// insertWithFluentReplace enforces the at-most-one-value-per-fluent
// invariant: inserting f(x)=v when f(x)=v' is already stored first
// removes the stale value, so Contains/Find never see two
// simultaneous values for the same fluent call.
func (ws *WorldState) insertWithFluentReplace(f fact.Fact) error {
	if f.Predicate.IsFluent() {
		if old, ok := ws.facts.Get(f); ok {
			if _, err := ws.facts.Remove(old); err != nil {
				return err
			}
		}
	}
	return ws.facts.Insert(f, true)
}

// ProcessEvents fires every Domain event whose precondition holds,
// repeating until no event's precondition changed truth value in the
// previous round (a round cap guards against ill-formed domains). A
// cycle that never settles within maxEventRounds is reported through
// the package logger, not returned as an error: the one-fire-per-round
// rule already prevents the loop from hanging, and the world is left
// in whatever state the last round produced.
func (ws *WorldState) ProcessEvents() error {
	for round := 0; round < maxEventRounds; round++ {
		fired := false
		for _, ev := range ws.domain.AllEvents() {
			ok, bindings := condition.IsTrue(ev.Precondition, ws.Context(), condition.Bindings{})
			if !ok {
				continue
			}
			changes, err := effect.Collect(ev.Effect, ws.Context(), bindings)
			if err != nil {
				return planerr.Wrap(planerr.KindInvariant, "worldstate: event "+ev.Key(), err)
			}
			if len(changes) == 0 {
				continue
			}
			if err := ws.applyRaw(changes); err != nil {
				return err
			}
			logging.LogEventFired(ws.Logger, ws.domain.UUID, ev.Key(), round)
			if ws.Metrics != nil {
				ws.Metrics.EventsFired.WithLabelValues(ev.Key()).Inc()
			}
			fired = true
		}
		if !fired {
			return nil
		}
	}
	log.Warn().
		Str("domain_uuid", ws.domain.UUID).
		Int("max_rounds", maxEventRounds).
		Msg("worldstate: event loop did not reach a fixed point")
	return nil
}

// applyRaw applies changes without re-entering ProcessEvents (the
// caller's loop already iterates), still notifying observers so a
// streaming consumer sees every round's deltas.
func (ws *WorldState) applyRaw(changes []effect.Change) error {
	var added, removed []fact.Fact
	for _, c := range changes {
		if c.Remove {
			ok, err := ws.facts.Remove(c.Fact)
			if err != nil {
				return err
			}
			if ok {
				removed = append(removed, c.Fact)
			}
			continue
		}
		if c.Fact.IsPunctual() {
			ws.notifyPunctual([]fact.Fact{c.Fact})
			continue
		}
		if err := ws.insertWithFluentReplace(c.Fact); err != nil {
			return err
		}
		added = append(added, c.Fact)
	}
	if len(added) > 0 {
		ws.notifyAdded(added)
	}
	if len(removed) > 0 {
		ws.notifyRemoved(removed)
	}
	if len(added) > 0 || len(removed) > 0 {
		ws.invalidateCache()
	}
	return nil
}

func (ws *WorldState) notifyAdded(facts []fact.Fact) {
	for _, o := range ws.observers {
		o.OnFactsAdded(facts)
	}
}

func (ws *WorldState) notifyRemoved(facts []fact.Fact) {
	for _, o := range ws.observers {
		o.OnFactsRemoved(facts)
	}
}

func (ws *WorldState) notifyPunctual(facts []fact.Fact) {
	for _, o := range ws.observers {
		o.OnPunctualFacts(facts)
	}
}

// Len returns the number of ground facts currently stored.
func (ws *WorldState) Len() int { return ws.facts.Len() }

// Cache exposes this world's WorldStateCache so the planner package can
// consult reachability without importing setoffacts directly.
func (ws *WorldState) Cache() *Cache { return ws.cache }

func (ws *WorldState) invalidateCache() {
	if ws.cache.Invalidate(ws.domain.UUID) {
		logging.LogCacheInvalidated(ws.Logger, ws.domain.UUID)
	}
}

// Package eventbus relays WorldState fact-change notifications onto
// NATS, the way the teacher's internal/nats.EventListener bridges a
// service's domain events onto subjects other services subscribe to.
// A Relay implements worldstate.Observer, so it registers alongside any
// in-process observer required by spec.md §4.4 rather than replacing
// it: WhatChanged is always delivered synchronously in-process first,
// and the NATS publish is best-effort on top of that.
package eventbus

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/fact"
)

// Publisher is the subset of *nats.Conn a Relay needs, mirroring the
// teacher's world.NATSPublisher seam so tests can substitute a mock
// instead of a live NATS server.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subjects published to, per spec_full.md's "planner.facts.<kind>"
// naming.
const (
	SubjectAdded    = "planner.facts.added"
	SubjectRemoved  = "planner.facts.removed"
	SubjectPunctual = "planner.facts.punctual"
)

// FactMessage is the JSON payload published for each fact in a batch.
type FactMessage struct {
	Predicate string   `json:"predicate"`
	Arguments []string `json:"arguments"`
	Fluent    *string  `json:"fluent,omitempty"`
}

// Relay publishes fact-change batches to NATS subjects. It never
// returns an error to the caller: a publish failure is logged, since a
// downstream subscriber outage must not block the synchronous
// planning/worldstate call chain it observes.
type Relay struct {
	nc Publisher
}

// New returns a Relay publishing through nc.
func New(nc Publisher) *Relay {
	return &Relay{nc: nc}
}

// OnFactsAdded satisfies worldstate.Observer.
func (r *Relay) OnFactsAdded(added []fact.Fact) { r.publish(SubjectAdded, added) }

// OnFactsRemoved satisfies worldstate.Observer.
func (r *Relay) OnFactsRemoved(removed []fact.Fact) { r.publish(SubjectRemoved, removed) }

// OnPunctualFacts satisfies worldstate.Observer.
func (r *Relay) OnPunctualFacts(punctual []fact.Fact) { r.publish(SubjectPunctual, punctual) }

func (r *Relay) publish(subject string, facts []fact.Fact) {
	if len(facts) == 0 {
		return
	}
	msgs := make([]FactMessage, len(facts))
	for i, f := range facts {
		args := make([]string, len(f.Arguments))
		for j, a := range f.Arguments {
			args[j] = a.Value
		}
		m := FactMessage{Predicate: f.Predicate.Name, Arguments: args}
		if f.Fluent != nil {
			v := f.Fluent.Value
			m.Fluent = &v
		}
		msgs[i] = m
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("eventbus: failed to marshal facts")
		return
	}
	if err := r.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("eventbus: failed to publish facts")
	}
}

// Package schedule is the continuous-simulation driver of
// spec_full.md §5.a: it is not part of the synchronous planning call
// chain, only an external caller that serializes
// ActionsToDoInParallelNow + step execution onto a cron-driven tick,
// the way the teacher's world.TickerManager serializes world ticks onto
// a single goroutine per world.
package schedule

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/planner"
)

// DefaultSpec is a cron spec ticking once a second, the closest
// robfig/cron equivalent of the teacher's 100ms registry ticker
// (cron's minimum granularity is seconds, not milliseconds).
const DefaultSpec = "@every 1s"

// Ticker runs one or more registered Problems forward on a shared cron
// schedule.
type Ticker struct {
	mu       sync.RWMutex
	cron     *cron.Cron
	problems map[string]*planner.Problem
	entryIDs map[string]cron.EntryID
	spec     string
}

// New returns a Ticker that has not started running yet.
func New(spec string) *Ticker {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Ticker{
		cron:     cron.New(),
		problems: make(map[string]*planner.Problem),
		entryIDs: make(map[string]cron.EntryID),
		spec:     spec,
	}
}

// Start begins invoking every registered Problem's tick on the cron
// schedule. Safe to call once; additional Problems can be registered
// with Register both before and after Start.
func (t *Ticker) Start() {
	t.cron.Start()
}

// Stop halts the cron scheduler and waits for any in-flight tick to
// finish.
func (t *Ticker) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

// Register adds p to the set of Problems advanced on every tick. It is
// an error to register the same id twice.
func (t *Ticker) Register(p *planner.Problem) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.problems[p.ID]; exists {
		return ErrAlreadyRegistered(p.ID)
	}
	t.problems[p.ID] = p

	id, err := t.cron.AddFunc(t.spec, func() { t.tick(p.ID) })
	if err != nil {
		delete(t.problems, p.ID)
		return err
	}
	t.entryIDs[p.ID] = id
	return nil
}

// Unregister stops advancing the Problem with the given id.
func (t *Ticker) Unregister(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entryID, ok := t.entryIDs[id]; ok {
		t.cron.Remove(entryID)
		delete(t.entryIDs, id)
	}
	delete(t.problems, id)
}

// tick runs one planning-and-execution round for the named Problem:
// ActionsToDoInParallelNow resolves the current parallel action set,
// each group's steps are executed in turn (WorldState's observer bus
// republishes the resulting WhatChanged as each step is applied), and
// AdvanceTick then updates every goal's inactivity counter against the
// post-execution world.
func (t *Ticker) tick(problemID string) {
	t.mu.RLock()
	p, ok := t.problems[problemID]
	t.mu.RUnlock()
	if !ok {
		return
	}

	for _, group := range p.ActionsToDoInParallelNow() {
		for _, step := range group.Steps {
			if err := p.ExecuteStep(step); err != nil {
				log.Error().
					Err(err).
					Str("problem_id", problemID).
					Str("action_id", step.ActionID).
					Msg("schedule: tick failed to execute step")
			}
		}
	}
	p.AdvanceTick()
}

// Package historical tracks how often each action has been chosen,
// both within one planning problem and (optionally) across problems,
// so the ranking in internal/planner can prefer less-recently-used
// actions among otherwise-equal candidates (spec.md §4.7.1).
package historical

import "container/list"

// maxGlobalEntries bounds the global counter's memory footprint: the
// least-recently-touched action id is evicted once the limit is hit.
const maxGlobalEntries = 4096

// Local is a per-problem usage counter, reset whenever a new Problem is
// built (spec.md's "local history of action usage").
type Local struct {
	counts map[string]int
}

// NewLocal returns an empty per-problem counter.
func NewLocal() *Local {
	return &Local{counts: make(map[string]int)}
}

// Count returns how many times actionID has been chosen this problem.
func (l *Local) Count(actionID string) int { return l.counts[actionID] }

// Record increments actionID's usage count.
func (l *Local) Record(actionID string) { l.counts[actionID]++ }

// Global is a process-wide, LRU-bounded usage counter shared across
// problems, used to break ties when several problems repeatedly favor
// the same action (spec.md's optional global history).
type Global struct {
	counts map[string]*list.Element
	order  *list.List // front = most recently touched
}

type globalEntry struct {
	actionID string
	count    int
}

// NewGlobal returns an empty global counter.
func NewGlobal() *Global {
	return &Global{
		counts: make(map[string]*list.Element),
		order:  list.New(),
	}
}

// Count returns actionID's global usage count (0 if never recorded).
func (g *Global) Count(actionID string) int {
	if el, ok := g.counts[actionID]; ok {
		return el.Value.(*globalEntry).count
	}
	return 0
}

// Record increments actionID's global usage count and marks it
// most-recently-touched, evicting the least-recently-touched entry if
// the table is at capacity.
func (g *Global) Record(actionID string) {
	if el, ok := g.counts[actionID]; ok {
		el.Value.(*globalEntry).count++
		g.order.MoveToFront(el)
		return
	}
	if g.order.Len() >= maxGlobalEntries {
		oldest := g.order.Back()
		if oldest != nil {
			delete(g.counts, oldest.Value.(*globalEntry).actionID)
			g.order.Remove(oldest)
		}
	}
	el := g.order.PushFront(&globalEntry{actionID: actionID, count: 1})
	g.counts[actionID] = el
}

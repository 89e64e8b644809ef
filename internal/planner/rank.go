package planner

import (
	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/fact"
)

// isMoreImportantThan implements spec.md §4.7.1's candidate ranking:
// among several actions whose effect could satisfy the current goal,
// pick the one a careful author would prefer, in this priority order:
//
//  1. an action marked HighImportanceOfNotRepeating that was used more
//     often in this problem is strongly disfavored;
//  2. the action satisfying more of its own PreferInContext atomic
//     facts in the current world is favored, ties broken by whichever
//     dissatisfies fewer of them;
//  3. among the rest, the action used less often in this problem is
//     favored (spreads repeated work across alternatives);
//  4. ties broken by the cross-problem global usage count, then by
//     action id for determinism.
func (p *Problem) isMoreImportantThan(a, b candidateInfo, ctx condition.Context) bool {
	aLocal := p.LocalHistory.Count(a.action.ID)
	bLocal := p.LocalHistory.Count(b.action.ID)

	aRepeatPenalty, bRepeatPenalty := 0, 0
	if a.action.HighImportanceOfNotRepeating {
		aRepeatPenalty = aLocal
	}
	if b.action.HighImportanceOfNotRepeating {
		bRepeatPenalty = bLocal
	}
	if aRepeatPenalty != bRepeatPenalty {
		return aRepeatPenalty < bRepeatPenalty
	}

	aSat, aDis := p.preferenceCounts(a, ctx)
	bSat, bDis := p.preferenceCounts(b, ctx)
	if aSat != bSat {
		return aSat > bSat
	}
	if aDis != bDis {
		return aDis < bDis
	}

	if aLocal != bLocal {
		return aLocal < bLocal
	}

	if p.GlobalHistory != nil {
		aGlobal := p.GlobalHistory.Count(a.action.ID)
		bGlobal := p.GlobalHistory.Count(b.action.ID)
		if aGlobal != bGlobal {
			return aGlobal < bGlobal
		}
	}

	return a.action.ID < b.action.ID
}

// preferenceCounts reports how many atomic facts in c's action's
// PreferInContext currently hold (satisfied) versus don't
// (dissatisfied), per spec.md §4.7.1 item 2. An action with no
// PreferInContext trivially satisfies zero of zero.
func (p *Problem) preferenceCounts(c candidateInfo, ctx condition.Context) (satisfied, dissatisfied int) {
	if c.action.PreferInContext == nil {
		return 0, 0
	}
	c.action.PreferInContext.ForEachFactPattern(func(fo fact.Optional) {
		leaf := condition.Fact(fo.Fact, fo.IsNegated)
		if ok, _ := condition.IsTrue(leaf, ctx, c.bindings); ok {
			satisfied++
		} else {
			dissatisfied++
		}
	})
	return satisfied, dissatisfied
}

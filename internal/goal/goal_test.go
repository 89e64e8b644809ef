package goal

import "testing"

func TestStack_GoalsOrderedByPriorityHighestFirst(t *testing.T) {
	s := NewStack()
	low := &Goal{Priority: 1}
	high := &Goal{Priority: 10}
	mid := &Goal{Priority: 5}
	s.AddAll([]*Goal{low, high, mid})

	got := s.Goals()
	if len(got) != 3 || got[0] != high || got[1] != mid || got[2] != low {
		t.Fatalf("expected [high,mid,low] order, got %+v", got)
	}
}

func TestStack_TiesKeepInsertionOrder(t *testing.T) {
	s := NewStack()
	first := &Goal{Priority: 1}
	second := &Goal{Priority: 1}
	third := &Goal{Priority: 1}
	s.AddAll([]*Goal{first, second, third})

	got := s.Goals()
	if got[0] != first || got[1] != second || got[2] != third {
		t.Fatalf("expected stable insertion order among equal priorities, got %+v", got)
	}
}

func TestStack_Remove(t *testing.T) {
	s := NewStack()
	a := &Goal{Priority: 1}
	b := &Goal{Priority: 2}
	s.AddAll([]*Goal{a, b})

	s.Remove(a)
	got := s.Goals()
	if len(got) != 1 || got[0] != b {
		t.Fatalf("expected only b to remain, got %+v", got)
	}
}

func TestStack_IterateAndRemoveNonPersistent_DropsSatisfiedNonPersistent(t *testing.T) {
	s := NewStack()
	satisfied := &Goal{Priority: 1, InactivityRounds: 4}
	unsatisfied := &Goal{Priority: 2}
	s.AddAll([]*Goal{satisfied, unsatisfied})

	s.IterateAndRemoveNonPersistent(func(g *Goal) bool { return g == satisfied })

	got := s.Goals()
	if len(got) != 1 || got[0] != unsatisfied {
		t.Fatalf("expected only the unsatisfied goal to remain, got %+v", got)
	}
	if satisfied.InactivityRounds != 0 {
		t.Fatalf("expected InactivityRounds reset on a goal the callback reports satisfied, got %d", satisfied.InactivityRounds)
	}
}

func TestStack_IterateAndRemoveNonPersistent_KeepsSatisfiedPersistent(t *testing.T) {
	s := NewStack()
	persistent := &Goal{Priority: 1, Persistent: true}
	s.Add(persistent)

	s.IterateAndRemoveNonPersistent(func(g *Goal) bool { return true })

	if s.Len() != 1 {
		t.Fatalf("expected the persistent goal to survive, stack has %d goals", s.Len())
	}
}

func TestStack_DropExpired_RemovesGoalPastItsInactivityDeadline(t *testing.T) {
	s := NewStack()
	expired := &Goal{Priority: 1, InactivityDeadline: 3, InactivityRounds: 4}
	withinDeadline := &Goal{Priority: 2, InactivityDeadline: 3, InactivityRounds: 3}
	noDeadline := &Goal{Priority: 3, InactivityRounds: 1000}
	persistentButExpired := &Goal{Priority: 4, Persistent: true, InactivityDeadline: 1, InactivityRounds: 2}
	s.AddAll([]*Goal{expired, withinDeadline, noDeadline, persistentButExpired})

	dropped := s.DropExpired()

	if len(dropped) != 2 {
		t.Fatalf("expected 2 goals dropped, got %d: %+v", len(dropped), dropped)
	}
	got := s.Goals()
	if len(got) != 2 || got[0] != noDeadline || got[1] != withinDeadline {
		t.Fatalf("expected [noDeadline, withinDeadline] to remain, got %+v", got)
	}
}

func TestStack_DropExpired_NoOpWhenNothingExceedsItsDeadline(t *testing.T) {
	s := NewStack()
	g := &Goal{Priority: 1, InactivityDeadline: 5, InactivityRounds: 5}
	s.Add(g)

	dropped := s.DropExpired()
	if len(dropped) != 0 {
		t.Fatalf("expected nothing dropped at exactly the deadline, got %+v", dropped)
	}
	if s.Len() != 1 {
		t.Fatalf("expected the goal to remain, stack has %d goals", s.Len())
	}
}

func TestStack_Len(t *testing.T) {
	s := NewStack()
	if s.Len() != 0 {
		t.Fatalf("expected empty stack to have length 0, got %d", s.Len())
	}
	s.Add(&Goal{Priority: 1})
	if s.Len() != 1 {
		t.Fatalf("expected length 1 after Add, got %d", s.Len())
	}
}

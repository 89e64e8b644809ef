package planner

import (
	"testing"

	"github.com/rs/zerolog"

	"mud-platform-backend/internal/logging"
)

func TestNewProblem_WarmsCacheWithEveryActionEffectPredicate(t *testing.T) {
	p, _, _ := doorWorld(t)
	if !p.World.Cache().EverSeen("open") {
		t.Fatal("expected NewProblem to warm the cache with every action effect's predicate")
	}
}

func TestNewProblem_DefaultsLoggerToGlobal(t *testing.T) {
	p, _, _ := doorWorld(t)
	if p.Logger == nil {
		t.Fatal("expected a non-nil default Logger")
	}
}

func TestSetLogger_Overrides(t *testing.T) {
	p, _, _ := doorWorld(t)
	nop := logging.Nop()
	p.SetLogger(nop)
	if p.Logger != nop {
		t.Fatal("expected SetLogger to replace Problem.Logger")
	}
}

func TestSetLogger_AcceptsAnyZerologLogger(t *testing.T) {
	p, _, _ := doorWorld(t)
	custom := zerolog.Nop()
	p.SetLogger(&custom)
	if p.Logger != &custom {
		t.Fatal("expected Logger to point at the custom logger")
	}
}

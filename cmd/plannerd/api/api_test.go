package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/domain"
	"mud-platform-backend/internal/effect"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/planerr"
	"mud-platform-backend/internal/planner"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/worldstate"
)

func newDoorProblem(t *testing.T) *planner.Problem {
	t.Helper()
	store := ontology.NewStore()
	openPred := &ontology.Predicate{Name: "open"}
	lockedPred := &ontology.Predicate{Name: "locked"}
	if err := store.AddPredicate(openPred); err != nil {
		t.Fatalf("AddPredicate(open): %v", err)
	}
	if err := store.AddPredicate(lockedPred); err != nil {
		t.Fatalf("AddPredicate(locked): %v", err)
	}
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New(open): %v", err)
	}
	lockedFact, err := fact.New(lockedPred, nil)
	if err != nil {
		t.Fatalf("fact.New(locked): %v", err)
	}

	d := domain.New(store)
	d.AddAction(&domain.Action{
		ID:           "open_door",
		Precondition: condition.Not(condition.Fact(lockedFact, false)),
		Effect:       domain.ActionEffect{AtEnd: effect.Fact(openFact, false)},
	})

	ws := worldstate.New(d)
	p := planner.NewProblem("door-problem", d, ws, historical.NewGlobal(), plannermetrics.NewMetrics())
	p.Goals.Add(&goal.Goal{Objective: condition.Fact(openFact, false), Priority: 5})
	return p
}

type fakeLookup struct {
	problems map[string]*planner.Problem
}

func (f *fakeLookup) Get(id string) (*planner.Problem, error) {
	p, ok := f.problems[id]
	if !ok {
		return nil, planerr.Reference("unknown problem %q", id)
	}
	return p, nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *planner.Problem) {
	t.Helper()
	p := newDoorProblem(t)
	lookup := &fakeLookup{problems: map[string]*planner.Problem{"door-problem": p}}
	h := NewProblemHandler(lookup)

	r := chi.NewRouter()
	r.Get("/problems/{id}/goals", h.Goals)
	r.Get("/problems/{id}/domain", h.Domain)
	r.Post("/problems/{id}/plan", h.Plan)
	r.Post("/problems/{id}/actions/{action}/start", h.StartAction)
	r.Post("/problems/{id}/actions/{action}/done", h.FinishAction)
	return r, p
}

func TestHealthLiveness_ReturnsAliveStatus(t *testing.T) {
	h := NewHealthHandler()
	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "alive" {
		t.Fatalf("expected status=alive, got %+v", body)
	}
}

func TestHealthReadiness_ReportsUptime(t *testing.T) {
	h := NewHealthHandler()
	rr := httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ready" || body["uptime"] == "" {
		t.Fatalf("expected ready status and a non-empty uptime, got %+v", body)
	}
}

func TestProblemHandler_Goals_ReturnsRegisteredGoal(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/problems/door-problem/goals", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var goals []goalResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &goals); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(goals) != 1 || goals[0].Priority != 5 {
		t.Fatalf("expected a single priority-5 goal, got %+v", goals)
	}
}

func TestProblemHandler_Goals_UnknownProblemIs404(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/problems/missing/goals", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown problem, got %d", rr.Code)
	}
}

func TestProblemHandler_Domain_ReportsUUIDAndActions(t *testing.T) {
	r, p := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/problems/door-problem/domain", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp domainResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.UUID != p.Domain.UUID {
		t.Fatalf("expected UUID %q, got %q", p.Domain.UUID, resp.UUID)
	}
	if len(resp.Actions) != 1 || resp.Actions[0] != "open_door" {
		t.Fatalf("expected [open_door], got %v", resp.Actions)
	}
}

func TestProblemHandler_Plan_ReturnsParallelGroups(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/problems/door-problem/plan", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var groups []planGroupResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &groups); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}

func TestProblemHandler_FinishAction_AppliesEffect(t *testing.T) {
	r, p := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/problems/door-problem/actions/open_door/done", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	openPred, _ := p.Domain.Ontology.Predicate("open")
	openFact, err := fact.New(openPred, nil)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if !p.World.Contains(openFact) {
		t.Fatal("expected FinishAction to apply open_door's effect")
	}
}

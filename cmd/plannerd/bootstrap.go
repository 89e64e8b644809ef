package main

import (
	"encoding/json"
	"net/http"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/fact"
	"mud-platform-backend/internal/goal"
	"mud-platform-backend/internal/historical"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/ontology"
	"mud-platform-backend/internal/pddl"
	"mud-platform-backend/internal/planerr"
	"mud-platform-backend/internal/planner"
	"mud-platform-backend/internal/plannermetrics"
	"mud-platform-backend/internal/schedule"
	"mud-platform-backend/internal/worldstate"

	"mud-platform-backend/cmd/plannerd/stream"
)

// BootstrapHandler builds and registers new Problems from a PDDL domain
// plus a JSON init/goal set, closing the gap between the HTTP query/
// mutate endpoints (api.ProblemHandler) and an actual running Problem:
// nothing else in this process creates one.
type BootstrapHandler struct {
	registry *Registry
	ticker   *schedule.Ticker
	hub      *stream.Hub
	history  *historical.Global
	metrics  *plannermetrics.Metrics
}

// NewBootstrapHandler returns a handler wiring every newly created
// Problem into registry, ticker, and hub the way main's own startup
// wires its own dependencies.
func NewBootstrapHandler(registry *Registry, ticker *schedule.Ticker, hub *stream.Hub, history *historical.Global, metrics *plannermetrics.Metrics) *BootstrapHandler {
	return &BootstrapHandler{registry: registry, ticker: ticker, hub: hub, history: history, metrics: metrics}
}

type factRequest struct {
	Predicate string   `json:"predicate"`
	Args      []string `json:"args"`
}

type goalRequest struct {
	Predicate  string   `json:"predicate"`
	Args       []string `json:"args"`
	Priority   int      `json:"priority"`
	Persistent bool     `json:"persistent"`

	// GroupID implements sometime-after style ordering (spec_full.md
	// §4.a): goals sharing a numerically-earlier GroupID must all be
	// satisfied before a goal in a later group is allowed to activate.
	// Empty means no ordering constraint.
	GroupID string `json:"group_id"`
}

type createProblemRequest struct {
	ID         string        `json:"id"`
	DomainPDDL string        `json:"domain_pddl"`
	Init       []factRequest `json:"init"`
	Goals      []goalRequest `json:"goals"`
}

// CreateProblem handles POST /api/problems: parses a PDDL domain
// definition, grounds the requested init facts and goals against it,
// and registers the resulting Problem with the registry, the ticker
// (so it advances every tick per spec_full.md §5.a), and the stream
// hub (so its fact changes are broadcast per spec_full.md §6.a).
func (h *BootstrapHandler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var req createProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBootstrapError(w, r, planerr.Parse("invalid request body: %v", err))
		return
	}
	if req.ID == "" {
		respondBootstrapError(w, r, planerr.Parse("id is required"))
		return
	}

	store, d, err := pddl.ParseDomain(req.DomainPDDL)
	if err != nil {
		respondBootstrapError(w, r, err)
		return
	}

	ws := worldstate.New(d)
	ws.AddObserver(stream.NewRelay(h.hub, req.ID))

	initFacts := make([]fact.Fact, 0, len(req.Init))
	for _, fr := range req.Init {
		f, err := buildFact(store, fr)
		if err != nil {
			respondBootstrapError(w, r, err)
			return
		}
		initFacts = append(initFacts, f)
	}
	if err := ws.AddFacts(initFacts); err != nil {
		respondBootstrapError(w, r, err)
		return
	}

	p := planner.NewProblem(req.ID, d, ws, h.history, h.metrics)
	for _, gr := range req.Goals {
		f, err := buildFact(store, factRequest{Predicate: gr.Predicate, Args: gr.Args})
		if err != nil {
			respondBootstrapError(w, r, err)
			return
		}
		p.Goals.Add(&goal.Goal{
			Objective:  condition.Fact(f, false),
			Priority:   gr.Priority,
			Persistent: gr.Persistent,
			GroupID:    gr.GroupID,
		})
	}

	if _, err := h.registry.Get(req.ID); err == nil {
		logging.LogWarning(r.Context(), "overwriting existing problem", map[string]interface{}{
			"problem_id": req.ID,
		})
	}
	h.registry.Put(p)
	if err := h.ticker.Register(p); err != nil {
		respondBootstrapError(w, r, err)
		return
	}

	logging.LogInfo(r.Context(), "problem created", map[string]interface{}{
		"problem_id":     p.ID,
		"domain_uuid":    d.UUID,
		"correlation_id": logging.GetCorrelationID(r.Context()),
	})
	writeJSONResponse(w, http.StatusCreated, map[string]string{"id": p.ID, "domain_uuid": d.UUID})
}

// respondBootstrapError logs err against the request's correlation id
// before writing the planerr response, mirroring api.respondError.
func respondBootstrapError(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(r.Context(), err, "problem creation failed", map[string]interface{}{
		"correlation_id": logging.GetCorrelationID(r.Context()),
	})
	planerr.RespondWithError(w, err)
}

func buildFact(store *ontology.Store, fr factRequest) (fact.Fact, error) {
	pred, ok := store.Predicate(fr.Predicate)
	if !ok {
		return fact.Fact{}, planerr.Reference("unknown predicate %q", fr.Predicate)
	}
	args := make([]entity.Entity, len(fr.Args))
	for i, a := range fr.Args {
		args[i] = entity.NewConcrete(a, nil)
	}
	return fact.New(pred, args)
}

func writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

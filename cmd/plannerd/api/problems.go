package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mud-platform-backend/internal/condition"
	"mud-platform-backend/internal/entity"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/planerr"
	"mud-platform-backend/internal/planner"
)

// respondError logs err against the request's correlation id (attached
// by logging.Middleware) before writing the planerr response, so a
// client-reported incident can be traced back to a specific log line.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(r.Context(), err, "request failed", map[string]interface{}{
		"correlation_id": logging.GetCorrelationID(r.Context()),
		"path":           r.URL.Path,
	})
	planerr.RespondWithError(w, err)
}

// stringBindingsToEntities converts the flat string map an HTTP caller
// supplies into the condition.Bindings a Step carries, as concrete
// entities (a caller drives a specific, already-chosen action
// instantiation, never a wildcard).
func stringBindingsToEntities(raw map[string]string) condition.Bindings {
	out := make(condition.Bindings, len(raw))
	for k, v := range raw {
		out[k] = entity.NewConcrete(v, nil)
	}
	return out
}

// ProblemLookup resolves a problem id, returning a Reference error
// (spec.md §7) when none is registered — satisfied by *main.Registry.
type ProblemLookup interface {
	Get(id string) (*planner.Problem, error)
}

// ProblemHandler exposes a registry of Problems over HTTP, grounded on
// the teacher's api.WorldHandler: a thin JSON wrapper around a
// repository-shaped dependency.
type ProblemHandler struct {
	problems ProblemLookup
}

// NewProblemHandler returns a handler backed by problems.
func NewProblemHandler(problems ProblemLookup) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

type planGroupResponse struct {
	Steps []stepResponse `json:"steps"`
}

type stepResponse struct {
	ActionID string            `json:"action_id"`
	Bindings map[string]string `json:"bindings"`
}

// Plan handles POST /problems/{id}/plan: runs
// ActionsToDoInParallelNow and returns the resulting parallel groups,
// without executing any step (spec.md §4.8's to_parallel_plan is a pure
// query over the current world).
func (h *ProblemHandler) Plan(w http.ResponseWriter, r *http.Request) {
	p, err := h.problems.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	groups := p.ActionsToDoInParallelNow()
	resp := make([]planGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = planGroupResponse{Steps: toStepResponses(g.Steps)}
	}

	writeJSON(w, http.StatusOK, resp)
}

func toStepResponses(steps []planner.Step) []stepResponse {
	out := make([]stepResponse, len(steps))
	for i, s := range steps {
		bindings := make(map[string]string, len(s.Bindings))
		for k, v := range s.Bindings {
			bindings[k] = v.Value
		}
		out[i] = stepResponse{ActionID: s.ActionID, Bindings: bindings}
	}
	return out
}

type actionRequest struct {
	Bindings map[string]string `json:"bindings"`
}

// StartAction handles POST /problems/{id}/actions/{action}/start: applies
// a durative action's at-start effect (spec_full.md §4.a).
func (h *ProblemHandler) StartAction(w http.ResponseWriter, r *http.Request) {
	h.runStep(w, r, func(p *planner.Problem, step planner.Step) error {
		return p.StartAction(step)
	})
}

// FinishAction handles POST /problems/{id}/actions/{action}/done: applies
// a durative action's at-end effect, or a non-durative action's full
// effect if StartAction was never called.
func (h *ProblemHandler) FinishAction(w http.ResponseWriter, r *http.Request) {
	h.runStep(w, r, func(p *planner.Problem, step planner.Step) error {
		return p.FinishAction(step)
	})
}

func (h *ProblemHandler) runStep(w http.ResponseWriter, r *http.Request, apply func(*planner.Problem, planner.Step) error) {
	p, err := h.problems.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req actionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	step := planner.Step{ActionID: chi.URLParam(r, "action"), Bindings: stringBindingsToEntities(req.Bindings)}

	if err := apply(p, step); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type goalResponse struct {
	Objective        string `json:"objective"`
	Priority         int    `json:"priority"`
	Persistent       bool   `json:"persistent"`
	InactivityRounds int    `json:"inactivity_rounds"`
}

// Goals handles GET /problems/{id}/goals: lists the active goal stack,
// highest priority first (spec.md §4.6's ordering invariant).
func (h *ProblemHandler) Goals(w http.ResponseWriter, r *http.Request) {
	p, err := h.problems.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	goals := p.Goals.Goals()
	resp := make([]goalResponse, len(goals))
	for i, g := range goals {
		resp[i] = goalResponse{
			Objective:        g.Objective.String(),
			Priority:         g.Priority,
			Persistent:       g.Persistent,
			InactivityRounds: g.InactivityRounds,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type domainResponse struct {
	UUID    string   `json:"uuid"`
	Actions []string `json:"actions"`
}

// Domain handles GET /problems/{id}/domain: reports the domain's current
// UUID and registered action ids, so a client can tell whether its
// cached successor-graph assumptions are stale (the UUID changes
// whenever an action or event set is added or removed, spec.md §4.5).
func (h *ProblemHandler) Domain(w http.ResponseWriter, r *http.Request) {
	p, err := h.problems.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	actions := p.Domain.Actions()
	ids := make([]string, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	writeJSON(w, http.StatusOK, domainResponse{UUID: p.Domain.UUID, Actions: ids})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

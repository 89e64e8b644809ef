// Package plannermetrics holds the prometheus collectors exported by a
// running planner, grounded on the teacher's internal/metrics package.
package plannermetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every prometheus collector the planner updates.
type Metrics struct {
	PlanDuration       *prometheus.HistogramVec
	GoalsSatisfied     *prometheus.CounterVec
	GoalsDropped       *prometheus.CounterVec
	EventsFired        *prometheus.CounterVec
	CacheHitRate       *prometheus.GaugeVec
	ActionHistoryCount *prometheus.GaugeVec
	ActiveGoals        *prometheus.GaugeVec
}

// NewMetrics initializes and returns a new Metrics struct.
func NewMetrics() *Metrics {
	return &Metrics{
		PlanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_plan_duration_seconds",
			Help:    "Wall time spent producing a plan for one problem",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"problem_id"}),
		GoalsSatisfied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_goals_satisfied_total",
			Help: "Total number of goals satisfied by a generated plan",
		}, []string{"problem_id"}),
		GoalsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_goals_dropped_total",
			Help: "Total number of goals given up on (unreachable or exceeded inactivity threshold)",
		}, []string{"problem_id"}),
		EventsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_events_fired_total",
			Help: "Total number of domain events whose precondition fired",
		}, []string{"event_key"}),
		CacheHitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_reachability_cache_hit_rate",
			Help: "Fraction of reachability lookups served from the WorldStateCache",
		}, []string{"problem_id"}),
		ActionHistoryCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_action_history_count",
			Help: "Current historical usage count recorded for an action",
		}, []string{"action_id"}),
		ActiveGoals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_active_goals",
			Help: "Number of goals currently on a problem's goal stack",
		}, []string{"problem_id"}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.PlanDuration,
		m.GoalsSatisfied,
		m.GoalsDropped,
		m.EventsFired,
		m.CacheHitRate,
		m.ActionHistoryCount,
		m.ActiveGoals,
	)
}

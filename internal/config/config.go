// Package config provides externalized planner tuning values, the way
// the teacher's internal/combat/config externalizes damage-calculation
// coefficients: a JSON-tagged struct, a Default() constructor matching
// the hardcoded values used elsewhere in the port, and a loader that
// applies PLANNER_-prefixed environment overrides on top of a file.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the values spec.md §5 leaves as tuning knobs: the
// scheduler's tick interval, the regression search's lookahead depth
// cap, and the repetition thresholds guarding against cyclic plans.
type Config struct {
	// TickSpec is a robfig/cron schedule spec consumed by
	// internal/schedule.New (e.g. "@every 1s").
	TickSpec string `json:"tick_spec" yaml:"tick_spec"`

	// MaxLookaheadDepth bounds planner.Problem.MaxLookaheadDepth.
	MaxLookaheadDepth int `json:"max_lookahead_depth" yaml:"max_lookahead_depth"`

	// MaxRepetitionsPerGoal bounds how many times plan_for_every_goals
	// may reuse the same instantiated action across one multi-goal
	// round (spec.md §5's "seen the same instantiated action twice"
	// counter, default <=10).
	MaxRepetitionsPerGoal int `json:"max_repetitions_per_goal" yaml:"max_repetitions_per_goal"`

	// MaxRepetitionsSingleGoal bounds the same counter within a single
	// goal's regression recursion (spec.md default <=1).
	MaxRepetitionsSingleGoal int `json:"max_repetitions_single_goal" yaml:"max_repetitions_single_goal"`
}

// Default returns a Config matching the hardcoded constants used
// elsewhere in this module (planner.defaultMaxLookaheadDepth,
// schedule.DefaultSpec).
func Default() *Config {
	return &Config{
		TickSpec:                 "@every 1s",
		MaxLookaheadDepth:        24,
		MaxRepetitionsPerGoal:    10,
		MaxRepetitionsSingleGoal: 1,
	}
}

// LoadFromFile reads a JSON or YAML config file (dispatched on
// extension; unrecognized extensions are treated as JSON) over
// Default(), then applies PLANNER_-prefixed environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// FromEnv returns Default() with PLANNER_-prefixed environment
// overrides applied, for callers with no config file.
func FromEnv() *Config {
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg
}

func isYAML(path string) bool {
	for _, suffix := range []string{".yaml", ".yml"} {
		if len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("PLANNER_TICK_SPEC"); ok {
		cfg.TickSpec = v
	}
	if v, ok := envInt("PLANNER_MAX_LOOKAHEAD_DEPTH"); ok {
		cfg.MaxLookaheadDepth = v
	}
	if v, ok := envInt("PLANNER_MAX_REPETITIONS_PER_GOAL"); ok {
		cfg.MaxRepetitionsPerGoal = v
	}
	if v, ok := envInt("PLANNER_MAX_REPETITIONS_SINGLE_GOAL"); ok {
		cfg.MaxRepetitionsSingleGoal = v
	}
}

func envInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Package metrics defines the sink interfaces used to record assignment
// progress. Concrete sinks (Prometheus, InfluxDB) live under infra/metrics
// and can be combined with a multi sink; the factory helpers build whatever
// the configuration asks for.
package metrics

import (
	"time"

	"github.com/transitworks/paxassign/core/factory"
)

// IterationResult summarizes one assignment iteration.
type IterationResult struct {
	Iteration   int
	Requests    int
	PathsFound  int
	Arrived     int
	Bumped      int
	CapacityGap float64
	SearchTime  time.Duration
	SimTime     time.Duration
}

// SearchStats are the per-(iteration, trip-list id) performance counters
// returned by the search capability.
type SearchStats struct {
	Iteration           int
	TripListID          int
	LabelIterations     int
	MaxStopProcessCount int
	LabelTime           time.Duration
	EnumTime            time.Duration
}

// AssignmentSink records iteration results for observability purposes.
type AssignmentSink interface {
	RecordIteration(res IterationResult) error
}

// SearchRecorder is implemented by sinks that also keep per-request search
// performance counters.
type SearchRecorder interface {
	RecordSearch(stats []SearchStats) error
}

// Config selects and configures the metrics sinks. PromAddr, when set,
// exposes a /metrics endpoint for the run's lifetime.
type Config struct {
	Sinks    []factory.ModuleConfig `json:"sinks"`
	PromAddr string                 `json:"prom_addr"`
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordIteration(IterationResult) error { return nil }
func (NopSink) RecordSearch([]SearchStats) error      { return nil }

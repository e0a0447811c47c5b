package config

import (
	"fmt"
	"time"

	"github.com/transitworks/paxassign/core/model"
)

// AssignmentConfig holds the iteration and path search settings.
type AssignmentConfig struct {
	// Mode selects how passengers are assigned to paths.
	Mode string `json:"mode" validate:"required,oneof=simulation-only deterministic stochastic"`
	// MaxIterations bounds the assignment loop.
	MaxIterations int `json:"max_iterations" validate:"min=1"`
	// Simulate loads chosen paths onto vehicles. Defaults to true.
	Simulate *bool `json:"simulate"`
	// CapacityConstraint enables bumping at over-capacity segments.
	CapacityConstraint bool `json:"capacity_constraint"`
	// BumpOneAtATime evicts from a single segment per resolver pass.
	BumpOneAtATime bool `json:"bump_one_at_a_time"`
	// Workers caps the search worker count; 0 means one per CPU.
	Workers int `json:"workers" validate:"min=0"`
	// Seed feeds the stochastic path choice sampler.
	Seed uint64 `json:"seed"`
	// ServiceDate is the run day in 2006-01-02 form; its midnight anchors
	// all time-of-day values.
	ServiceDate string `json:"service_date" validate:"required"`

	// Path search parameters.
	TimeWindowMin       float64 `json:"time_window_min" validate:"min=0"`
	BumpBufferMin       float64 `json:"bump_buffer_min" validate:"min=0"`
	PathsetSize         int     `json:"pathset_size" validate:"min=0"`
	Dispersion          float64 `json:"dispersion"`
	MaxStopProcessCount int     `json:"max_stop_process_count" validate:"min=0"`
}

// SetDefaults applies sane defaults.
func (c *AssignmentConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 1
	}
	if c.Simulate == nil {
		t := true
		c.Simulate = &t
	}
	if c.TimeWindowMin == 0 {
		c.TimeWindowMin = 30
	}
	if c.BumpBufferMin == 0 {
		c.BumpBufferMin = 5
	}
	if c.PathsetSize == 0 {
		c.PathsetSize = 50
	}
	if c.Dispersion == 0 {
		c.Dispersion = 1.0
	}
}

// Validate checks the fields the struct tags cannot express.
func (c AssignmentConfig) Validate() error {
	if !model.AssignmentMode(c.Mode).Valid() {
		return fmt.Errorf("unknown assignment mode %s", c.Mode)
	}
	if _, err := c.Midnight(); err != nil {
		return err
	}
	return nil
}

// Midnight returns the reference midnight of the service date.
func (c AssignmentConfig) Midnight() (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", c.ServiceDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid service_date %q: %w", c.ServiceDate, err)
	}
	return d, nil
}

// SimulateEnabled reports the effective simulate flag.
func (c AssignmentConfig) SimulateEnabled() bool {
	return c.Simulate == nil || *c.Simulate
}

// FeedConfig locates the input directories.
type FeedConfig struct {
	NetworkDir string `json:"network_dir" validate:"required"`
	DemandDir  string `json:"demand_dir" validate:"required"`
}

// OutputConfig locates the run outputs.
type OutputConfig struct {
	Dir string `json:"dir"`
	// PerfDB, when set, stores search performance counters in SQLite.
	PerfDB string `json:"perf_db"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}
}

// LoggingConfig defines the log verbosity.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

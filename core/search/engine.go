package search

import (
	"time"

	"github.com/transitworks/paxassign/core/model"
)

// Params are the global search parameters pushed into every engine instance
// exactly once, before the first request.
type Params struct {
	TimeWindow          time.Duration
	BumpBuffer          time.Duration
	PathsetSize         int
	Dispersion          float64
	MaxStopProcessCount int
}

// Request carries the per-passenger inputs of one synchronous search call.
type Request struct {
	Iteration   int
	PersonID    string
	TripListID  int
	Stochastic  bool
	UserClass   string
	AccessMode  string
	TransitMode string
	EgressMode  string
	OriginTAZ   int
	DestTAZ     int
	Outbound    bool
	PrefTimeMin float64
	Trace       bool
}

// BumpWaitEntry is one row of the bump-wait table forwarded to engines before
// iteration 2 and later, so labeling can account for passengers who could not
// board. EarliestMin is minutes after the reference midnight.
type BumpWaitEntry struct {
	Key         model.SegmentKey
	EarliestMin float64
}

// PerfStats are the four scalar counters returned by every search call.
type PerfStats struct {
	LabelIterations     int
	MaxStopProcessCount int
	LabelTime           time.Duration
	EnumTime            time.Duration
}

// RawResult is the dense numeric output of the search capability: two
// row-aligned attribute tables plus one cost/probability row per path.
//
// IntAttrs columns: path index, stop id, mode sentinel, trip id,
// successor/predecessor stop, sequence, successor sequence.
// FloatAttrs columns: label, departure/arrival offset, link time, cost,
// arrival/departure offset. All time offsets are minutes after the reference
// midnight.
type RawResult struct {
	PathCosts  [][2]float64
	IntAttrs   [][7]int
	FloatAttrs [][5]float64
	Perf       PerfStats
}

// Engine is the external label-setting search capability. One instance is
// created per worker; Initialize hands it a private copy of the network
// supply, never shared with other workers.
type Engine interface {
	Initialize(supply *model.Supply, params Params) error
	// SetBumpWait replaces the engine's view of the bump-wait table. Called
	// before searching on every iteration after the first.
	SetBumpWait(entries []BumpWaitEntry)
	// FindPathset runs one synchronous search. Implementations must not
	// retain req or the returned tables across calls.
	FindPathset(req Request) (RawResult, error)
}

// EngineFactory builds an independent engine per worker. Implementations must
// not share mutable state between the engines they create.
type EngineFactory interface {
	New(workerID int) (Engine, error)
}

package model

import "time"

// Direction indicates whether a trip request is anchored on its departure
// or its arrival time.
type Direction int

const (
	// Outbound trips are anchored on the preferred arrival time and searched
	// backwards from the destination.
	Outbound Direction = iota
	// Inbound trips are anchored on the preferred departure time and searched
	// forwards from the origin.
	Inbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// AssignmentMode selects how passengers are assigned to paths.
type AssignmentMode string

const (
	// ModeSimulationOnly loads previously chosen paths without searching.
	ModeSimulationOnly AssignmentMode = "simulation-only"
	// ModeDeterministic assigns each passenger to the least-cost path.
	ModeDeterministic AssignmentMode = "deterministic"
	// ModeStochastic samples a path from the pathset by selection probability.
	ModeStochastic AssignmentMode = "stochastic"
)

// Valid reports whether m is a known assignment mode.
func (m AssignmentMode) Valid() bool {
	switch m {
	case ModeSimulationOnly, ModeDeterministic, ModeStochastic:
		return true
	}
	return false
}

// TripRequest is one passenger trip from the demand input. Requests are
// created once during feed loading and never mutated afterwards; the
// per-iteration state lives in the request's Pathset.
type TripRequest struct {
	PersonID    string
	TripListID  int
	OriginTAZ   int
	DestTAZ     int
	UserClass   string
	AccessMode  string
	TransitMode string
	EgressMode  string
	Direction   Direction
	// PrefTime is the preferred departure (inbound) or arrival (outbound)
	// time as minutes after the reference midnight.
	PrefTime float64
	// EarliestDep and LatestArr bound the time window for path generation.
	EarliestDep time.Time
	LatestArr   time.Time
	Trace       bool
}

// GoesSomewhere reports whether origin and destination differ; requests that
// go nowhere are skipped by the search dispatcher.
func (r TripRequest) GoesSomewhere() bool {
	return r.OriginTAZ != r.DestTAZ
}

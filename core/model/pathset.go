package model

import "time"

// LegKind identifies the variant of a path leg.
type LegKind int

const (
	LegAccess LegKind = iota
	LegEgress
	LegTransfer
	// LegGenericTransit is a transit ride whose vehicle trip is not yet
	// resolved; deterministic searches always resolve to LegScheduledTrip.
	LegGenericTransit
	LegScheduledTrip
)

func (k LegKind) String() string {
	switch k {
	case LegAccess:
		return "access"
	case LegEgress:
		return "egress"
	case LegTransfer:
		return "transfer"
	case LegGenericTransit:
		return "transit"
	case LegScheduledTrip:
		return "trip"
	}
	return "unknown"
}

// Leg is one link/state record of a candidate path. Exactly one variant is
// encoded via Kind; TripID is only meaningful for LegScheduledTrip.
type Leg struct {
	Kind    LegKind
	StopID  int
	TripID  int
	Seq     int
	SeqNext int
	// NextStopID is the successor (outbound) or predecessor (inbound) stop.
	NextStopID int
	// Depart and Arrive are absolute clock times resolved against the
	// reference midnight.
	Depart   time.Time
	Arrive   time.Time
	LinkTime time.Duration
	Cost     float64
}

// Path is a single candidate path with its generalized cost and, for
// stochastic assignment, its selection probability.
type Path struct {
	Cost        float64
	Probability float64
	Legs        []Leg
}

// Pathset holds the candidate paths for one trip request. It is created at
// iteration 1 and its contents are overwritten, never recreated, whenever the
// request is searched again.
type Pathset struct {
	Request *TripRequest
	Paths   []Path
	// ChosenIdx is the index of the path chosen this iteration, -1 if none.
	ChosenIdx int
}

// NewPathset returns an empty pathset for the request.
func NewPathset(req *TripRequest) *Pathset {
	return &Pathset{Request: req, ChosenIdx: -1}
}

// Found reports whether the last search produced at least one path.
func (ps *Pathset) Found() bool { return len(ps.Paths) > 0 }

// Replace overwrites the pathset contents with the given paths and resets
// the chosen path.
func (ps *Pathset) Replace(paths []Path) {
	ps.Paths = paths
	ps.ChosenIdx = -1
}

// Chosen returns the chosen path, or nil if no path has been chosen.
func (ps *Pathset) Chosen() *Path {
	if ps.ChosenIdx < 0 || ps.ChosenIdx >= len(ps.Paths) {
		return nil
	}
	return &ps.Paths[ps.ChosenIdx]
}

package model

import (
	"sort"
	"time"
)

// StopTime is one scheduled visit of a vehicle trip at a stop. The schedule
// rows are read-only input; simulated boards, alights and onboard counts live
// on loading.VehicleLoad copies, never here.
type StopTime struct {
	TripID    int
	StopID    int
	Seq       int
	Arrival   time.Time
	Departure time.Time
	// Capacity is the total vehicle capacity at this stop, 0 if unconfigured.
	Capacity int
}

// Schedule is the full vehicle stop-time table, ordered by trip then
// ascending stop sequence.
type Schedule struct {
	StopTimes []StopTime
}

// NewSchedule copies and orders the rows by (trip, sequence).
func NewSchedule(rows []StopTime) *Schedule {
	st := make([]StopTime, len(rows))
	copy(st, rows)
	sort.SliceStable(st, func(i, j int) bool {
		if st[i].TripID != st[j].TripID {
			return st[i].TripID < st[j].TripID
		}
		return st[i].Seq < st[j].Seq
	})
	return &Schedule{StopTimes: st}
}

// HasCapacity reports whether any row carries a configured vehicle capacity.
func (s *Schedule) HasCapacity() bool {
	for _, st := range s.StopTimes {
		if st.Capacity > 0 {
			return true
		}
	}
	return false
}

// Lookup returns the stop-time row for (trip, stop, seq), or false.
func (s *Schedule) Lookup(tripID, stopID, seq int) (StopTime, bool) {
	for _, st := range s.StopTimes {
		if st.TripID == tripID && st.StopID == stopID && st.Seq == seq {
			return st, true
		}
	}
	return StopTime{}, false
}

// Supply is the immutable network-supply view pushed into each search engine
// instance. The three index slices are row-aligned with the two time slices;
// times are minutes after the reference midnight.
type Supply struct {
	TripIDs    []int
	Seqs       []int
	StopIDs    []int
	ArrivalMin []float64
	DepartMin  []float64
}

// BuildSupply flattens the schedule into row-aligned supply arrays relative
// to the given reference midnight.
func (s *Schedule) BuildSupply(midnight time.Time) *Supply {
	n := len(s.StopTimes)
	sup := &Supply{
		TripIDs:    make([]int, n),
		Seqs:       make([]int, n),
		StopIDs:    make([]int, n),
		ArrivalMin: make([]float64, n),
		DepartMin:  make([]float64, n),
	}
	for i, st := range s.StopTimes {
		sup.TripIDs[i] = st.TripID
		sup.Seqs[i] = st.Seq
		sup.StopIDs[i] = st.StopID
		sup.ArrivalMin[i] = st.Arrival.Sub(midnight).Minutes()
		sup.DepartMin[i] = st.Departure.Sub(midnight).Minutes()
	}
	return sup
}

// Clone returns an independent copy of the supply so that each search worker
// owns its data outright.
func (s *Supply) Clone() *Supply {
	c := &Supply{
		TripIDs:    make([]int, len(s.TripIDs)),
		Seqs:       make([]int, len(s.Seqs)),
		StopIDs:    make([]int, len(s.StopIDs)),
		ArrivalMin: make([]float64, len(s.ArrivalMin)),
		DepartMin:  make([]float64, len(s.DepartMin)),
	}
	copy(c.TripIDs, s.TripIDs)
	copy(c.Seqs, s.Seqs)
	copy(c.StopIDs, s.StopIDs)
	copy(c.ArrivalMin, s.ArrivalMin)
	copy(c.DepartMin, s.DepartMin)
	return c
}

// Package loading simulates passenger loads on scheduled vehicles. Given the
// chosen passenger links of an iteration it computes per-stop boards, alights
// and onboard counts for every vehicle trip.
package loading

import (
	"fmt"

	"github.com/transitworks/paxassign/core/model"
)

// VehicleLoad is one stop-time row with its simulated counts for the current
// iteration. The schedule row itself is never mutated.
type VehicleLoad struct {
	model.StopTime
	Boards  int
	Alights int
	Onboard int
}

// Key returns the row's segment key.
func (v VehicleLoad) Key() model.SegmentKey {
	return model.SegmentKey{TripID: v.TripID, StopID: v.StopID, Seq: v.Seq}
}

// Simulator puts passenger links onto the vehicle schedule.
type Simulator struct {
	schedule *model.Schedule
	index    map[model.SegmentKey]model.StopTime
}

// NewSimulator wraps the full stop-time schedule.
func NewSimulator(schedule *model.Schedule) *Simulator {
	index := make(map[model.SegmentKey]model.StopTime, len(schedule.StopTimes))
	for _, st := range schedule.StopTimes {
		index[model.SegmentKey{TripID: st.TripID, StopID: st.StopID, Seq: st.Seq}] = st
	}
	return &Simulator{schedule: schedule, index: index}
}

// Load counts boards and alights per (trip, stop, sequence) and accumulates
// the onboard count in ascending sequence order within each trip, seeded at
// zero before the first stop. Segments with no links count zero. The result
// has one row per schedule row, in schedule order.
func (s *Simulator) Load(links []model.PassengerLink) []VehicleLoad {
	boards := make(map[model.SegmentKey]int)
	alights := make(map[model.SegmentKey]int)
	for _, l := range links {
		boards[l.BoardKey()]++
		alights[l.AlightKey()]++
	}

	loads := make([]VehicleLoad, len(s.schedule.StopTimes))
	onboard := 0
	prevTrip := 0
	for i, st := range s.schedule.StopTimes {
		if i == 0 || st.TripID != prevTrip {
			onboard = 0
			prevTrip = st.TripID
		}
		key := model.SegmentKey{TripID: st.TripID, StopID: st.StopID, Seq: st.Seq}
		b := boards[key]
		a := alights[key]
		onboard += b - a
		loads[i] = VehicleLoad{StopTime: st, Boards: b, Alights: a, Onboard: onboard}
	}
	return loads
}

// CheckConservation verifies that every trip's boards balance its alights and
// that no onboard count is negative. The loading invariant only holds for
// links whose board and alight segments both exist in the schedule.
func CheckConservation(loads []VehicleLoad) error {
	boardSum := make(map[int]int)
	alightSum := make(map[int]int)
	for _, v := range loads {
		if v.Onboard < 0 {
			return fmt.Errorf("trip %d stop %d seq %d: negative onboard %d", v.TripID, v.StopID, v.Seq, v.Onboard)
		}
		boardSum[v.TripID] += v.Boards
		alightSum[v.TripID] += v.Alights
	}
	for trip, b := range boardSum {
		if a := alightSum[trip]; a != b {
			return fmt.Errorf("trip %d: %d boards but %d alights", trip, b, a)
		}
	}
	return nil
}

// PassengerTimes stamps board and alight times on the links from the vehicle
// schedule: the vehicle's departure at the boarding stop is the board time,
// its arrival at the alighting stop the alight time. Links referencing
// unknown schedule rows are returned unchanged.
func (s *Simulator) PassengerTimes(links []model.PassengerLink) []model.PassengerLink {
	out := make([]model.PassengerLink, len(links))
	for i, l := range links {
		if st, ok := s.index[l.BoardKey()]; ok {
			l.BoardTime = st.Departure
		}
		if st, ok := s.index[l.AlightKey()]; ok {
			l.AlightTime = st.Arrival
		}
		out[i] = l
	}
	return out
}

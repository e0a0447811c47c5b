package model

import "time"

// SegmentKey identifies one (trip, stop, sequence) boarding point. It keys
// the bump-wait table and vehicle load rows.
type SegmentKey struct {
	TripID int
	StopID int
	Seq    int
}

// PassengerLink is one boarding/alighting leg of a chosen path. Links are
// derived from the chosen paths each iteration and consumed by the loading
// simulator and the bump resolver.
type PassengerLink struct {
	PersonID   string
	TripListID int
	TripID     int
	BoardStop  int
	BoardSeq   int
	AlightStop int
	AlightSeq  int
	// PaxArrival is when the passenger reaches the boarding stop, used to
	// order evictions at over-capacity segments.
	PaxArrival time.Time
	BoardTime  time.Time
	AlightTime time.Time
}

// BoardKey returns the boarding segment of the link.
func (l PassengerLink) BoardKey() SegmentKey {
	return SegmentKey{TripID: l.TripID, StopID: l.BoardStop, Seq: l.BoardSeq}
}

// AlightKey returns the alighting segment of the link.
func (l PassengerLink) AlightKey() SegmentKey {
	return SegmentKey{TripID: l.TripID, StopID: l.AlightStop, Seq: l.AlightSeq}
}

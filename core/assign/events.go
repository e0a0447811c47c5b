package assign

import "time"

// Event is published on the controller's bus after each phase of interest.
type Event interface{ event() }

// IterationEvent reports a completed iteration.
type IterationEvent struct {
	Iteration   int
	PathsFound  int
	Arrived     int
	Bumped      int
	CapacityGap float64
	Elapsed     time.Duration
}

// BumpEvent reports one resolver pass that evicted passengers.
type BumpEvent struct {
	Iteration int
	Pass      int
	Evicted   int
}

func (IterationEvent) event() {}
func (BumpEvent) event()      {}

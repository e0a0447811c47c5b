// Package bump detects over-capacity vehicle segments and evicts passengers
// in deterministic priority order, persisting who was bumped and when for the
// following iterations.
package bump

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/transitworks/paxassign/core/model"
)

// RunContext is the only mutable state that survives across iterations of an
// assignment run. It is owned by the iteration controller and threaded by
// reference into the resolver and the search dispatcher, never touched by
// workers. Reset happens once, at run start.
type RunContext struct {
	RunID uuid.UUID

	// BumpWait maps each boarding segment to the earliest arrival time among
	// passengers evicted there. It accumulates monotonically within a run;
	// the latest write for a key wins.
	BumpWait map[model.SegmentKey]time.Time

	// BumpedPersons and BumpedTripLists hold who was evicted during the
	// current iteration's loading passes. The controller reads them to scope
	// the next iteration's search.
	BumpedPersons   map[string]struct{}
	BumpedTripLists map[int]struct{}
}

// NewRunContext returns a fresh context with a random run id.
func NewRunContext() *RunContext {
	return &RunContext{
		RunID:           uuid.New(),
		BumpWait:        make(map[model.SegmentKey]time.Time),
		BumpedPersons:   make(map[string]struct{}),
		BumpedTripLists: make(map[int]struct{}),
	}
}

// ResetBumped clears the bumped sets. Called at the start of each iteration's
// loading pass; the bump-wait table is deliberately left untouched.
func (c *RunContext) ResetBumped() {
	c.BumpedPersons = make(map[string]struct{})
	c.BumpedTripLists = make(map[int]struct{})
}

// recordEviction registers one evicted passenger link.
func (c *RunContext) recordEviction(l model.PassengerLink) {
	c.BumpedPersons[l.PersonID] = struct{}{}
	c.BumpedTripLists[l.TripListID] = struct{}{}
}

// recordWait merges the earliest evicted arrival for a segment into the
// bump-wait table, overwriting any prior entry for the key.
func (c *RunContext) recordWait(key model.SegmentKey, earliest time.Time) {
	c.BumpWait[key] = earliest
}

// WaitEntries returns the bump-wait table as a deterministically ordered
// slice of (segment, arrival) pairs.
func (c *RunContext) WaitEntries() []WaitEntry {
	entries := make([]WaitEntry, 0, len(c.BumpWait))
	for k, t := range c.BumpWait {
		entries = append(entries, WaitEntry{Key: k, Earliest: t})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.StopID < b.StopID
	})
	return entries
}

// WaitEntry is one bump-wait row.
type WaitEntry struct {
	Key      model.SegmentKey
	Earliest time.Time
}

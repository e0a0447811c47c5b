package bump

import (
	"sort"
	"time"

	"github.com/transitworks/paxassign/core/loading"
	"github.com/transitworks/paxassign/core/logger"
	"github.com/transitworks/paxassign/core/model"
)

// Policy selects how many over-capacity segments one resolver pass fixes.
type Policy int

const (
	// Batch resolves every affected trip's first over-capacity segment in a
	// single pass.
	Batch Policy = iota
	// OneAtATime resolves only the globally earliest-arriving over-capacity
	// segment, requiring the caller to reload and call again until clean.
	// Slower, but bumping one segment can relieve others.
	OneAtATime
)

// Result reports one resolver pass.
type Result struct {
	// Resolved is true when no segment was over capacity; Links is then the
	// input set, unchanged.
	Resolved bool
	Links    []model.PassengerLink
	Evicted  int
}

// Resolver evicts passengers from over-capacity vehicle segments.
type Resolver struct {
	policy Policy
	log    logger.Logger
}

// NewResolver builds a resolver with the given policy.
func NewResolver(policy Policy, log logger.Logger) *Resolver {
	return &Resolver{policy: policy, log: log}
}

// candidate is one passenger link boarding at a selected segment, carrying
// the segment's vehicle arrival and its overcap count for ordering.
type candidate struct {
	link    model.PassengerLink
	rowArr  time.Time
	overcap int
}

// Resolve removes just enough passengers to clear every segment selected by
// the policy, records the evictions in the run context and returns the
// filtered link set. Boarding past a trip's first over-capacity segment is
// infeasible, so only first segments are considered.
func (r *Resolver) Resolve(run *RunContext, links []model.PassengerLink, loads []loading.VehicleLoad) Result {
	selected := r.selectSegments(loads)
	if len(selected) == 0 {
		r.log.Infof("no overcapacity vehicles")
		return Result{Resolved: true, Links: links}
	}

	need := 0
	for _, row := range selected {
		need += row.Onboard - row.Capacity
	}
	r.log.Infof("need to bump %d passengers from %d stops", need, len(selected))

	candidates := gatherBoarding(links, selected)
	sortCandidates(candidates)

	// Zero-based rank within each (trip, sequence, stop) group; every
	// candidate ranked below the group's overcap is evicted. A passenger
	// boarding twice at selected segments is evicted once.
	rank := make(map[model.SegmentKey]int)
	evicted := make(map[int]struct{})
	var evictedRows []candidate
	for _, c := range candidates {
		key := c.link.BoardKey()
		i := rank[key]
		rank[key] = i + 1
		if i >= c.overcap {
			continue
		}
		if _, dup := evicted[c.link.TripListID]; dup {
			continue
		}
		evicted[c.link.TripListID] = struct{}{}
		evictedRows = append(evictedRows, c)
		run.recordEviction(c.link)
	}

	r.recordWaits(run, evictedRows)

	// Drop every link of each evicted passenger's path, not just the
	// offending boarding.
	kept := links[:0:0]
	for _, l := range links {
		if _, out := evicted[l.TripListID]; !out {
			kept = append(kept, l)
		}
	}
	r.log.Infof("bumped %d passengers; links %d -> %d", len(evicted), len(links), len(kept))
	return Result{Resolved: false, Links: kept, Evicted: len(evicted)}
}

// selectSegments finds each affected trip's first over-capacity segment and
// restricts them per the policy. Loads arrive in ascending sequence order per
// trip. Rows without a configured capacity never bump.
func (r *Resolver) selectSegments(loads []loading.VehicleLoad) []loading.VehicleLoad {
	var firsts []loading.VehicleLoad
	seen := make(map[int]struct{})
	for _, v := range loads {
		if v.Capacity <= 0 || v.Onboard <= v.Capacity {
			continue
		}
		if _, ok := seen[v.TripID]; ok {
			continue
		}
		seen[v.TripID] = struct{}{}
		firsts = append(firsts, v)
	}
	if len(firsts) == 0 || r.policy == Batch {
		return firsts
	}
	// One at a time: the single globally earliest-arriving segment. The
	// stable full key keeps resolution deterministic on exact arrival ties.
	sort.SliceStable(firsts, func(i, j int) bool {
		a, b := firsts[i], firsts[j]
		if !a.Arrival.Equal(b.Arrival) {
			return a.Arrival.Before(b.Arrival)
		}
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.StopID < b.StopID
	})
	return firsts[:1]
}

func gatherBoarding(links []model.PassengerLink, selected []loading.VehicleLoad) []candidate {
	rows := make(map[model.SegmentKey]loading.VehicleLoad, len(selected))
	for _, v := range selected {
		rows[v.Key()] = v
	}
	var cands []candidate
	for _, l := range links {
		if v, ok := rows[l.BoardKey()]; ok {
			cands = append(cands, candidate{link: l, rowArr: v.Arrival, overcap: v.Onboard - v.Capacity})
		}
	}
	return cands
}

// sortCandidates orders by vehicle arrival, trip, sequence and stop
// ascending, then passenger arrival-at-stop and trip-list id descending:
// earliest-arriving passengers are retained, later arrivals with higher
// trip-list ids go first.
func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if !a.rowArr.Equal(b.rowArr) {
			return a.rowArr.Before(b.rowArr)
		}
		if a.link.TripID != b.link.TripID {
			return a.link.TripID < b.link.TripID
		}
		if a.link.BoardSeq != b.link.BoardSeq {
			return a.link.BoardSeq < b.link.BoardSeq
		}
		if a.link.BoardStop != b.link.BoardStop {
			return a.link.BoardStop < b.link.BoardStop
		}
		if !a.link.PaxArrival.Equal(b.link.PaxArrival) {
			return a.link.PaxArrival.After(b.link.PaxArrival)
		}
		return a.link.TripListID > b.link.TripListID
	})
}

// recordWaits stores, per segment with at least one eviction, the earliest
// arrival time among its evicted passengers.
func (r *Resolver) recordWaits(run *RunContext, evictedRows []candidate) {
	earliest := make(map[model.SegmentKey]time.Time)
	for _, c := range evictedRows {
		key := c.link.BoardKey()
		if cur, ok := earliest[key]; !ok || c.link.PaxArrival.Before(cur) {
			earliest[key] = c.link.PaxArrival
		}
	}
	for key, t := range earliest {
		run.recordWait(key, t)
	}
}

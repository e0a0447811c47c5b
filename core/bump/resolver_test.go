package bump

import (
	"testing"
	"time"

	"github.com/transitworks/paxassign/core/loading"
	"github.com/transitworks/paxassign/core/logger"
	"github.com/transitworks/paxassign/core/model"
)

var midnight = time.Date(2016, 3, 15, 0, 0, 0, 0, time.UTC)

func at(min int) time.Time { return midnight.Add(time.Duration(min) * time.Minute) }

type nopLog struct{}

func (nopLog) Debugf(string, ...any)         {}
func (nopLog) Debugw(string, map[string]any) {}
func (nopLog) Infof(string, ...any)          {}
func (nopLog) Warnf(string, ...any)          {}
func (nopLog) Errorf(string, ...any)         {}

var _ logger.Logger = nopLog{}

func link(person string, tripList, trip, boardStop, boardSeq, alightStop, alightSeq, arrMin int) model.PassengerLink {
	return model.PassengerLink{
		PersonID:   person,
		TripListID: tripList,
		TripID:     trip,
		BoardStop:  boardStop,
		BoardSeq:   boardSeq,
		AlightStop: alightStop,
		AlightSeq:  alightSeq,
		PaxArrival: at(arrMin),
	}
}

func twoStopTrip(trip, capacity int, arrMin int) []model.StopTime {
	return []model.StopTime{
		{TripID: trip, StopID: 1, Seq: 1, Arrival: at(arrMin), Departure: at(arrMin + 1), Capacity: capacity},
		{TripID: trip, StopID: 2, Seq: 2, Arrival: at(arrMin + 10), Departure: at(arrMin + 11), Capacity: capacity},
	}
}

func loadsFor(rows []model.StopTime, links []model.PassengerLink) []loading.VehicleLoad {
	return loading.NewSimulator(model.NewSchedule(rows)).Load(links)
}

func TestResolveEvictsLatestArrival(t *testing.T) {
	// Capacity 2, three boardings arriving 08:00, 08:05 and 08:02: the
	// 08:05 passenger is evicted and the segment's bump wait becomes 08:05.
	rows := twoStopTrip(10, 2, 480)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 485),
		link("p3", 3, 10, 1, 1, 2, 2, 482),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))

	if res.Resolved {
		t.Fatal("pass with overcap must not report resolved")
	}
	if res.Evicted != 1 || len(res.Links) != 2 {
		t.Fatalf("evicted %d, kept %d links", res.Evicted, len(res.Links))
	}
	if _, bumped := run.BumpedPersons["p2"]; !bumped {
		t.Error("latest arriving passenger should be bumped")
	}
	if _, bumped := run.BumpedTripLists[2]; !bumped {
		t.Error("trip-list id 2 should be in the bumped set")
	}
	key := model.SegmentKey{TripID: 10, StopID: 1, Seq: 1}
	if w, ok := run.BumpWait[key]; !ok || !w.Equal(at(485)) {
		t.Errorf("bump wait = %v, want %v", w, at(485))
	}

	// Reloading the kept links clears the segment.
	res2 := NewResolver(Batch, nopLog{}).Resolve(run, res.Links, loadsFor(rows, res.Links))
	if !res2.Resolved {
		t.Fatal("second pass should be clean")
	}
}

func TestResolveTieBreaksByTripListID(t *testing.T) {
	rows := twoStopTrip(10, 1, 480)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 480),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))

	if res.Evicted != 1 {
		t.Fatalf("evicted %d", res.Evicted)
	}
	// Equal passenger arrivals: the higher trip-list id goes first.
	if _, bumped := run.BumpedTripLists[2]; !bumped {
		t.Error("tie should evict the higher trip-list id")
	}
	if _, kept := run.BumpedTripLists[1]; kept {
		t.Error("trip-list 1 should be retained")
	}
}

func TestResolveRemovesWholePath(t *testing.T) {
	rows := append(twoStopTrip(10, 1, 480), twoStopTrip(20, 10, 520)...)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 481),
		// The bumped passenger's transfer onto trip 20 must go too.
		link("p2", 2, 20, 1, 1, 2, 2, 500),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))

	if len(res.Links) != 1 || res.Links[0].PersonID != "p1" {
		t.Fatalf("expected only p1's link to survive, got %+v", res.Links)
	}
}

func TestResolveDedupesPassenger(t *testing.T) {
	// One passenger boards two over-capacity segments; they count once.
	rows := append(twoStopTrip(10, 1, 480), twoStopTrip(20, 1, 520)...)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 485),
		link("p1", 1, 20, 1, 1, 2, 2, 520),
		link("p2", 2, 20, 1, 1, 2, 2, 525),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))

	if res.Evicted != 1 {
		t.Fatalf("same passenger at two segments must evict once, got %d", res.Evicted)
	}
	if len(run.BumpedPersons) != 1 {
		t.Fatalf("bumped persons = %v", run.BumpedPersons)
	}
}

func TestResolveUnconfiguredCapacityNeverBumps(t *testing.T) {
	rows := twoStopTrip(10, 0, 480)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 485),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))
	if !res.Resolved || res.Evicted != 0 {
		t.Fatalf("capacity 0 must never bump: %+v", res)
	}
}

func TestResolveBatchHitsEveryTrip(t *testing.T) {
	rows := append(twoStopTrip(10, 1, 480), twoStopTrip(20, 1, 520)...)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 485),
		link("p3", 3, 20, 1, 1, 2, 2, 520),
		link("p4", 4, 20, 1, 1, 2, 2, 525),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))
	if res.Evicted != 2 {
		t.Fatalf("batch should clear both trips in one pass, evicted %d", res.Evicted)
	}
}

func TestResolveOneAtATime(t *testing.T) {
	rows := append(twoStopTrip(10, 1, 480), twoStopTrip(20, 1, 470)...)
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 2, 2, 480),
		link("p2", 2, 10, 1, 1, 2, 2, 485),
		link("p3", 3, 20, 1, 1, 2, 2, 470),
		link("p4", 4, 20, 1, 1, 2, 2, 475),
	}
	run := NewRunContext()
	r := NewResolver(OneAtATime, nopLog{})
	res := r.Resolve(run, links, loadsFor(rows, links))

	// Trip 20's segment arrives earlier; only it is resolved this pass.
	if res.Evicted != 1 {
		t.Fatalf("one-at-a-time must evict from a single segment, got %d", res.Evicted)
	}
	if _, bumped := run.BumpedTripLists[4]; !bumped {
		t.Fatalf("expected trip 20's later passenger (trip-list 4) first, got %v", run.BumpedTripLists)
	}

	// Caller reloads and resolves again until clean.
	res = r.Resolve(run, res.Links, loadsFor(rows, res.Links))
	if res.Evicted != 1 {
		t.Fatalf("second pass should clear trip 10, got %d", res.Evicted)
	}
	res = r.Resolve(run, res.Links, loadsFor(rows, res.Links))
	if !res.Resolved {
		t.Fatal("third pass should be clean")
	}
}

func TestResolveBumpsOnlyFirstOvercapSegment(t *testing.T) {
	// Boarding beyond the first over-capacity segment is infeasible; later
	// segments are ignored this pass.
	rows := []model.StopTime{
		{TripID: 10, StopID: 1, Seq: 1, Arrival: at(480), Departure: at(481), Capacity: 1},
		{TripID: 10, StopID: 2, Seq: 2, Arrival: at(490), Departure: at(491), Capacity: 1},
		{TripID: 10, StopID: 3, Seq: 3, Arrival: at(500), Departure: at(501), Capacity: 1},
	}
	links := []model.PassengerLink{
		link("p1", 1, 10, 1, 1, 3, 3, 480),
		link("p2", 2, 10, 1, 1, 3, 3, 482),
		link("p3", 3, 10, 2, 2, 3, 3, 490),
	}
	run := NewRunContext()
	res := NewResolver(Batch, nopLog{}).Resolve(run, links, loadsFor(rows, links))

	// Only the seq-1 segment is selected even though seq 2 is also over.
	if _, bumped := run.BumpedTripLists[3]; bumped {
		t.Fatal("seq-2 boarding must not be bumped on the first pass")
	}
	if _, bumped := run.BumpedTripLists[2]; !bumped {
		t.Fatalf("expected later seq-1 boarder to be bumped, got %v", run.BumpedTripLists)
	}
	if res.Evicted != 1 {
		t.Fatalf("evicted %d", res.Evicted)
	}
}

func TestRunContextResetKeepsBumpWait(t *testing.T) {
	run := NewRunContext()
	key := model.SegmentKey{TripID: 10, StopID: 1, Seq: 1}
	run.recordEviction(link("p1", 1, 10, 1, 1, 2, 2, 480))
	run.recordWait(key, at(480))

	run.ResetBumped()
	if len(run.BumpedPersons) != 0 || len(run.BumpedTripLists) != 0 {
		t.Error("bumped sets must clear on reset")
	}
	if _, ok := run.BumpWait[key]; !ok {
		t.Error("bump wait must survive the reset")
	}

	// Latest write per key wins.
	run.recordWait(key, at(490))
	entries := run.WaitEntries()
	if len(entries) != 1 || !entries[0].Earliest.Equal(at(490)) {
		t.Errorf("entries = %+v", entries)
	}
}

func TestWaitEntriesOrdered(t *testing.T) {
	run := NewRunContext()
	run.recordWait(model.SegmentKey{TripID: 20, StopID: 1, Seq: 1}, at(500))
	run.recordWait(model.SegmentKey{TripID: 10, StopID: 2, Seq: 2}, at(490))
	run.recordWait(model.SegmentKey{TripID: 10, StopID: 1, Seq: 1}, at(480))

	entries := run.WaitEntries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Key.TripID != 10 || entries[0].Key.Seq != 1 || entries[2].Key.TripID != 20 {
		t.Errorf("entries not ordered: %+v", entries)
	}
}

package search

import (
	"testing"
	"time"

	"github.com/transitworks/paxassign/core/model"
)

func TestDecodePathset(t *testing.T) {
	raw := RawResult{
		PathCosts: [][2]float64{{42, 0.75}, {50, 0.25}},
		IntAttrs: [][7]int{
			{0, 100, modeAccess, -1, 1, 0, 1},
			{0, 1, 7, 10, 3, 1, 3},
			{0, 3, modeEgress, -1, 200, 3, 0},
			{1, 100, modeAccess, -1, 1, 0, 1},
			{1, 1, modeGenericTransit, -1, 3, 1, 3},
			{1, 3, modeTransfer, -1, 4, 3, 4},
		},
		FloatAttrs: [][5]float64{
			{42, 475, 5, 5, 480},
			{42, 481, 19, 19, 500},
			{42, 500, 3, 3, 503},
			{50, 475, 5, 5, 480},
			{50, 481, 25, 25, 506},
			{50, 506, 2, 2, 508},
		},
	}

	paths, err := DecodePathset(raw, testMidnight, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0].Cost != 42 || paths[0].Probability != 0 {
		t.Errorf("deterministic decode must ignore the probability column: %+v", paths[0])
	}
	if len(paths[0].Legs) != 3 || len(paths[1].Legs) != 3 {
		t.Fatalf("legs not grouped by path index")
	}

	legs := paths[0].Legs
	if legs[0].Kind != model.LegAccess || legs[2].Kind != model.LegEgress {
		t.Errorf("sentinel decode wrong: %v, %v", legs[0].Kind, legs[2].Kind)
	}
	trip := legs[1]
	if trip.Kind != model.LegScheduledTrip || trip.TripID != 10 {
		t.Errorf("positive mode should decode as scheduled trip: %+v", trip)
	}
	if want := testMidnight.Add(481 * time.Minute); !trip.Depart.Equal(want) {
		t.Errorf("depart = %v, want %v", trip.Depart, want)
	}
	if want := testMidnight.Add(500 * time.Minute); !trip.Arrive.Equal(want) {
		t.Errorf("arrive = %v, want %v", trip.Arrive, want)
	}
	if trip.LinkTime != 19*time.Minute {
		t.Errorf("link time = %v", trip.LinkTime)
	}
	if k := paths[1].Legs[1].Kind; k != model.LegGenericTransit {
		t.Errorf("generic transit sentinel decoded as %v", k)
	}
	if id := paths[1].Legs[1].TripID; id != 0 {
		t.Errorf("non-trip legs must not carry a trip id, got %d", id)
	}
}

func TestDecodePathsetStochastic(t *testing.T) {
	raw := RawResult{PathCosts: [][2]float64{{42, 0.6}}}
	paths, err := DecodePathset(raw, testMidnight, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if paths[0].Probability != 0.6 {
		t.Errorf("probability = %v", paths[0].Probability)
	}

	raw.PathCosts[0][1] = 0
	if _, err := DecodePathset(raw, testMidnight, true); err == nil {
		t.Fatal("stochastic decode must require a selection probability")
	}
}

func TestDecodePathsetMisaligned(t *testing.T) {
	raw := RawResult{
		PathCosts:  [][2]float64{{1, 0}},
		IntAttrs:   [][7]int{{0, 1, modeAccess, -1, 2, 0, 1}},
		FloatAttrs: nil,
	}
	if _, err := DecodePathset(raw, testMidnight, false); err == nil {
		t.Fatal("expected row-alignment error")
	}
}

func TestDecodePathsetUnknownPath(t *testing.T) {
	raw := RawResult{
		PathCosts:  [][2]float64{{1, 0}},
		IntAttrs:   [][7]int{{3, 1, modeAccess, -1, 2, 0, 1}},
		FloatAttrs: [][5]float64{{1, 0, 0, 0, 0}},
	}
	if _, err := DecodePathset(raw, testMidnight, false); err == nil {
		t.Fatal("expected unknown path index error")
	}
}

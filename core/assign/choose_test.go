package assign

import (
	"testing"

	"github.com/transitworks/paxassign/core/model"
)

func pathsetWithCosts(id int, costs ...float64) *model.Pathset {
	ps := model.NewPathset(&model.TripRequest{PersonID: "p", TripListID: id})
	paths := make([]model.Path, len(costs))
	for i, c := range costs {
		paths[i] = model.Path{Cost: c}
	}
	ps.Replace(paths)
	return ps
}

func TestChooseLeastCost(t *testing.T) {
	c := newChooser(false, 0)
	ps := pathsetWithCosts(1, 12, 8, 15)
	empty := model.NewPathset(&model.TripRequest{TripListID: 2})

	chosen := c.choose([]*model.Pathset{ps, empty})

	if chosen != 1 {
		t.Fatalf("chosen = %d, want 1", chosen)
	}
	if ps.ChosenIdx != 1 {
		t.Errorf("ChosenIdx = %d, want the least-cost path 1", ps.ChosenIdx)
	}
	if empty.ChosenIdx != -1 {
		t.Errorf("empty pathset ChosenIdx = %d, want -1", empty.ChosenIdx)
	}
}

func TestChooseStochasticByProbability(t *testing.T) {
	c := newChooser(true, 42)
	ps := pathsetWithCosts(1, 10, 20)
	ps.Paths[0].Probability = 0
	ps.Paths[1].Probability = 1

	for i := 0; i < 20; i++ {
		c.choose([]*model.Pathset{ps})
		if ps.ChosenIdx != 1 {
			t.Fatalf("draw %d picked path %d, want the only path with mass", i, ps.ChosenIdx)
		}
	}
}

func TestChooseStochasticReproducible(t *testing.T) {
	build := func() []*model.Pathset {
		out := make([]*model.Pathset, 8)
		for i := range out {
			ps := pathsetWithCosts(i+1, 10, 11, 12, 13)
			for j := range ps.Paths {
				ps.Paths[j].Probability = 0.25
			}
			out[i] = ps
		}
		return out
	}

	a, b := build(), build()
	newChooser(true, 7).choose(a)
	newChooser(true, 7).choose(b)
	for i := range a {
		if a[i].ChosenIdx != b[i].ChosenIdx {
			t.Errorf("pathset %d: seeds diverge, %d vs %d", i, a[i].ChosenIdx, b[i].ChosenIdx)
		}
	}
}

func TestChooseStochasticZeroMassFallsBack(t *testing.T) {
	c := newChooser(true, 1)
	ps := pathsetWithCosts(1, 9, 4, 6)

	c.choose([]*model.Pathset{ps})

	if ps.ChosenIdx != 1 {
		t.Errorf("ChosenIdx = %d, want least-cost fallback 1", ps.ChosenIdx)
	}
}

func TestLinksFromPathsets(t *testing.T) {
	ps := model.NewPathset(&model.TripRequest{PersonID: "alice", TripListID: 3})
	ps.Replace([]model.Path{{Cost: 10, Legs: []model.Leg{
		{Kind: model.LegAccess, StopID: 100, NextStopID: 1},
		{Kind: model.LegScheduledTrip, TripID: 10, StopID: 1, Seq: 1,
			NextStopID: 2, SeqNext: 2, Depart: at(481), Arrive: at(490)},
		{Kind: model.LegEgress, StopID: 2, NextStopID: 200},
	}}})
	ps.ChosenIdx = 0
	unchosen := model.NewPathset(&model.TripRequest{TripListID: 4})

	links := linksFromPathsets([]*model.Pathset{ps, unchosen})

	if len(links) != 1 {
		t.Fatalf("links = %d, want one per scheduled-trip leg", len(links))
	}
	l := links[0]
	if l.PersonID != "alice" || l.TripListID != 3 || l.TripID != 10 {
		t.Errorf("unexpected identity: %+v", l)
	}
	if l.BoardStop != 1 || l.BoardSeq != 1 || l.AlightStop != 2 || l.AlightSeq != 2 {
		t.Errorf("unexpected segment: %+v", l)
	}
	if !l.PaxArrival.Equal(at(481)) {
		t.Errorf("PaxArrival = %v, want the leg departure %v", l.PaxArrival, at(481))
	}
}

package assign

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/transitworks/paxassign/core/model"
)

// chooser picks one path per pathset for the current iteration.
type chooser struct {
	stochastic bool
	src        rand.Source
}

func newChooser(stochastic bool, seed uint64) *chooser {
	return &chooser{stochastic: stochastic, src: rand.NewSource(seed)}
}

// choose sets ChosenIdx on every pathset that found paths and returns how
// many passengers have a chosen path. Deterministic assignment takes the
// least-cost path; stochastic assignment samples by selection probability.
func (c *chooser) choose(pathsets []*model.Pathset) int {
	chosen := 0
	for _, ps := range pathsets {
		if !ps.Found() {
			ps.ChosenIdx = -1
			continue
		}
		if c.stochastic {
			ps.ChosenIdx = c.sample(ps.Paths)
		} else {
			ps.ChosenIdx = leastCost(ps.Paths)
		}
		if ps.ChosenIdx >= 0 {
			chosen++
		}
	}
	return chosen
}

func leastCost(paths []model.Path) int {
	best := 0
	for i := 1; i < len(paths); i++ {
		if paths[i].Cost < paths[best].Cost {
			best = i
		}
	}
	return best
}

func (c *chooser) sample(paths []model.Path) int {
	weights := make([]float64, len(paths))
	total := 0.0
	for i, p := range paths {
		weights[i] = p.Probability
		total += p.Probability
	}
	if total <= 0 {
		return leastCost(paths)
	}
	w := sampleuv.NewWeighted(weights, c.src)
	idx, ok := w.Take()
	if !ok {
		return leastCost(paths)
	}
	return idx
}

// linksFromPathsets derives the iteration's passenger links from the chosen
// paths: one link per scheduled-trip leg. The leg's departure-side time is
// the passenger's arrival at the boarding stop.
func linksFromPathsets(pathsets []*model.Pathset) []model.PassengerLink {
	var links []model.PassengerLink
	for _, ps := range pathsets {
		path := ps.Chosen()
		if path == nil {
			continue
		}
		for _, leg := range path.Legs {
			if leg.Kind != model.LegScheduledTrip {
				continue
			}
			links = append(links, model.PassengerLink{
				PersonID:   ps.Request.PersonID,
				TripListID: ps.Request.TripListID,
				TripID:     leg.TripID,
				BoardStop:  leg.StopID,
				BoardSeq:   leg.Seq,
				AlightStop: leg.NextStopID,
				AlightSeq:  leg.SeqNext,
				PaxArrival: leg.Depart,
			})
		}
	}
	return links
}

package search

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/transitworks/paxassign/core/model"
)

// ScheduleEngine is a built-in search capability producing direct
// single-vehicle itineraries from the supply arrays. Zones board at the stop
// sharing their numeric id. It stands in where no external hyperpath engine
// is plugged in; the dispatcher and workers treat it like any other Engine.
type ScheduleEngine struct {
	supply   *model.Supply
	params   Params
	bumpWait map[model.SegmentKey]float64
	ready    bool
}

// ScheduleEngineFactory builds one independent ScheduleEngine per worker.
type ScheduleEngineFactory struct{}

func (ScheduleEngineFactory) New(workerID int) (Engine, error) {
	return &ScheduleEngine{}, nil
}

// Initialize stores the private supply copy and global parameters.
func (e *ScheduleEngine) Initialize(supply *model.Supply, params Params) error {
	if e.ready {
		return errors.New("engine already initialized")
	}
	if supply == nil {
		return errors.New("nil supply")
	}
	e.supply = supply
	e.params = params
	e.ready = true
	return nil
}

// SetBumpWait replaces the engine's bump-wait view.
func (e *ScheduleEngine) SetBumpWait(entries []BumpWaitEntry) {
	e.bumpWait = make(map[model.SegmentKey]float64, len(entries))
	for _, en := range entries {
		e.bumpWait[en.Key] = en.EarliestMin
	}
}

type itinerary struct {
	tripID     int
	boardStop  int
	boardSeq   int
	alightStop int
	alightSeq  int
	departMin  float64
	arriveMin  float64
	cost       float64
}

// FindPathset scans every trip for a boarding at the origin stop followed by
// an alighting at the destination stop inside the request's time window.
// Boardings whose vehicle was already full by the passenger's arrival, per
// the bump-wait table, are skipped.
func (e *ScheduleEngine) FindPathset(req Request) (RawResult, error) {
	if !e.ready {
		return RawResult{}, errors.New("engine not initialized")
	}

	labelStart := time.Now()
	window := e.params.TimeWindow.Minutes()
	buffer := e.params.BumpBuffer.Minutes()

	var cands []itinerary
	rows := 0
	sup := e.supply
	for i := 0; i < len(sup.TripIDs); i++ {
		rows++
		if sup.StopIDs[i] != req.OriginTAZ {
			continue
		}
		trip := sup.TripIDs[i]
		departMin := sup.DepartMin[i]
		if w, ok := e.bumpWait[model.SegmentKey{TripID: trip, StopID: sup.StopIDs[i], Seq: sup.Seqs[i]}]; ok {
			// The vehicle filled up at w; arriving at departure time is too late.
			if departMin >= w-buffer {
				continue
			}
		}
		for j := i + 1; j < len(sup.TripIDs) && sup.TripIDs[j] == trip; j++ {
			rows++
			if sup.StopIDs[j] != req.DestTAZ {
				continue
			}
			arriveMin := sup.ArrivalMin[j]
			var dev float64
			if req.Outbound {
				dev = req.PrefTimeMin - arriveMin
				if dev < 0 || dev > window {
					continue
				}
			} else {
				dev = departMin - req.PrefTimeMin
				if dev < 0 || dev > window {
					continue
				}
			}
			cands = append(cands, itinerary{
				tripID:     trip,
				boardStop:  sup.StopIDs[i],
				boardSeq:   sup.Seqs[i],
				alightStop: sup.StopIDs[j],
				alightSeq:  sup.Seqs[j],
				departMin:  departMin,
				arriveMin:  arriveMin,
				cost:       (arriveMin - departMin) + dev,
			})
			break
		}
	}
	labelTime := time.Since(labelStart)
	enumStart := time.Now()

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].cost < cands[j].cost })
	if e.params.PathsetSize > 0 && len(cands) > e.params.PathsetSize {
		cands = cands[:e.params.PathsetSize]
	}

	res := RawResult{
		Perf: PerfStats{
			LabelIterations:     rows,
			MaxStopProcessCount: 1,
			LabelTime:           labelTime,
		},
	}
	if len(cands) == 0 {
		res.Perf.EnumTime = time.Since(enumStart)
		return res, nil
	}

	probs := e.probabilities(cands, req.Stochastic)
	for p, it := range cands {
		res.PathCosts = append(res.PathCosts, [2]float64{it.cost, probs[p]})
		res.IntAttrs = append(res.IntAttrs,
			[7]int{p, req.OriginTAZ, modeAccess, -1, it.boardStop, 0, it.boardSeq},
			[7]int{p, it.boardStop, 1, it.tripID, it.alightStop, it.boardSeq, it.alightSeq},
			[7]int{p, it.alightStop, modeEgress, -1, req.DestTAZ, it.alightSeq, 0},
		)
		ride := it.arriveMin - it.departMin
		res.FloatAttrs = append(res.FloatAttrs,
			[5]float64{it.cost, it.departMin, 0, 0, it.departMin},
			[5]float64{it.cost, it.departMin, ride, ride, it.arriveMin},
			[5]float64{it.cost, it.arriveMin, 0, 0, it.arriveMin},
		)
	}
	res.Perf.EnumTime = time.Since(enumStart)
	return res, nil
}

// probabilities computes logit selection shares over path costs. In
// deterministic mode every probability is zero; the caller ignores them.
func (e *ScheduleEngine) probabilities(cands []itinerary, stochastic bool) []float64 {
	probs := make([]float64, len(cands))
	if !stochastic {
		return probs
	}
	theta := e.params.Dispersion
	if theta <= 0 {
		theta = 1
	}
	sum := 0.0
	for i, it := range cands {
		probs[i] = math.Exp(-theta * it.cost)
		sum += probs[i]
	}
	if sum <= 0 {
		// Numerically dead costs; fall back to a uniform share.
		for i := range probs {
			probs[i] = 1 / float64(len(probs))
		}
		return probs
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

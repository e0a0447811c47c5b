package search

import (
	"fmt"
	"time"

	"github.com/transitworks/paxassign/core/model"
)

// Mode sentinels used by the search capability in the integer attribute
// table. Any other value is a scheduled transit leg.
const (
	modeAccess         = -100
	modeEgress         = -101
	modeTransfer       = -102
	modeGenericTransit = -103
)

func legKind(mode int) model.LegKind {
	switch mode {
	case modeAccess:
		return model.LegAccess
	case modeEgress:
		return model.LegEgress
	case modeTransfer:
		return model.LegTransfer
	case modeGenericTransit:
		return model.LegGenericTransit
	}
	return model.LegScheduledTrip
}

// DecodePathset translates the dense numeric result tables into path records.
// Rows are grouped by path index; relative minute offsets become absolute
// clock times against the reference midnight. In stochastic mode the label is
// an abstract score and every path must carry an explicit selection
// probability; in deterministic mode label and cost are elapsed durations and
// the probability column is ignored.
func DecodePathset(raw RawResult, midnight time.Time, stochastic bool) ([]model.Path, error) {
	paths := make([]model.Path, len(raw.PathCosts))
	for i, pc := range raw.PathCosts {
		paths[i].Cost = pc[0]
		if stochastic {
			if pc[1] <= 0 {
				return nil, fmt.Errorf("path %d: stochastic result missing selection probability", i)
			}
			paths[i].Probability = pc[1]
		}
	}

	if len(raw.IntAttrs) != len(raw.FloatAttrs) {
		return nil, fmt.Errorf("attribute tables not row-aligned: %d int rows, %d float rows",
			len(raw.IntAttrs), len(raw.FloatAttrs))
	}

	for row := range raw.IntAttrs {
		ints := raw.IntAttrs[row]
		floats := raw.FloatAttrs[row]
		pathNum := ints[0]
		if pathNum < 0 || pathNum >= len(paths) {
			return nil, fmt.Errorf("row %d references unknown path %d", row, pathNum)
		}
		leg := model.Leg{
			Kind:       legKind(ints[2]),
			StopID:     ints[1],
			NextStopID: ints[4],
			Seq:        ints[5],
			SeqNext:    ints[6],
			Depart:     midnight.Add(minutes(floats[1])),
			Arrive:     midnight.Add(minutes(floats[4])),
			LinkTime:   minutes(floats[2]),
			Cost:       floats[3],
		}
		if leg.Kind == model.LegScheduledTrip {
			leg.TripID = ints[3]
		}
		paths[pathNum].Legs = append(paths[pathNum].Legs, leg)
	}
	return paths, nil
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

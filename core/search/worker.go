package search

import (
	"context"

	"github.com/transitworks/paxassign/core/model"
)

type msgKind int

const (
	msgStarting msgKind = iota
	msgCompleted
	msgFailed
	msgDone
)

type workerMsg struct {
	worker     int
	kind       msgKind
	tripListID int
	personID   string
	paths      []model.Path
	perf       PerfStats
	err        error
}

type taskRef struct {
	tripListID int
	personID   string
}

// newEngine builds and initializes one engine with its own copy of the
// supply, then forwards the bump-wait table on iterations after the first.
func (d *Dispatcher) newEngine(workerID, iteration int, bumpWait []BumpWaitEntry) (Engine, error) {
	eng, err := d.factory.New(workerID)
	if err != nil {
		return nil, err
	}
	if err := eng.Initialize(d.supply.Clone(), d.cfg.Params); err != nil {
		return nil, err
	}
	if iteration > 1 && len(bumpWait) > 0 {
		eng.SetBumpWait(bumpWait)
	}
	return eng, nil
}

// runWorker is one persistent pool worker. It announces each task before
// starting it, reports a completion or a per-task failure, and sends the done
// marker only when it drains the task channel cleanly. A panic escapes the
// task loop without a completion message; the dispatcher treats the in-flight
// task as lost.
func (d *Dispatcher) runWorker(ctx context.Context, id, iteration int, bumpWait []BumpWaitEntry, tasks <-chan *model.Pathset, results chan<- workerMsg, exited chan<- int) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("worker %d panicked: %v", id, r)
		}
		exited <- id
	}()

	eng, err := d.newEngine(id, iteration, bumpWait)
	if err != nil {
		d.log.Errorf("worker %d failed to initialize: %v", id, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ps, ok := <-tasks:
			if !ok {
				results <- workerMsg{worker: id, kind: msgDone}
				return
			}
			req := ps.Request
			results <- workerMsg{worker: id, kind: msgStarting, tripListID: req.TripListID, personID: req.PersonID}

			raw, err := eng.FindPathset(engineRequest(iteration, d.cfg.Stochastic, req))
			var paths []model.Path
			if err == nil {
				paths, err = DecodePathset(raw, d.cfg.Midnight, d.cfg.Stochastic)
			}
			if err != nil {
				// Report the failure and quit: a worker does not take
				// further tasks after an exception.
				results <- workerMsg{worker: id, kind: msgFailed, tripListID: req.TripListID, personID: req.PersonID, err: err}
				return
			}
			results <- workerMsg{worker: id, kind: msgCompleted, tripListID: req.TripListID, personID: req.PersonID, paths: paths, perf: raw.Perf}
		}
	}
}

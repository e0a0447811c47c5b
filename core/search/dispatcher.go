package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/transitworks/paxassign/core/logger"
	"github.com/transitworks/paxassign/core/model"
)

// ErrWorkerCrash marks a request whose worker exited before sending a
// completion. The pathset counts as not-found for the iteration; the task is
// not reassigned.
var ErrWorkerCrash = errors.New("worker exited before completing task")

// ErrLost marks a request that was submitted but never picked up by any live
// worker.
var ErrLost = errors.New("task never processed by a live worker")

// resultPoll bounds each wait on the result channel. An empty read within
// the bound means "not ready yet", never failure.
const resultPoll = 30 * time.Second

// Outcome is one pathset-result per request. Paths is nil when the search
// failed or the worker crashed; Err then says why.
type Outcome struct {
	TripListID int
	PersonID   string
	Paths      []model.Path
	Perf       PerfStats
	Err        error
}

// Config holds the dispatcher's run-level settings.
type Config struct {
	// Workers requests a fixed pool size; values below 1 default to host
	// parallelism. The effective count also shrinks with the request count.
	Workers    int
	Stochastic bool
	Params     Params
	// Midnight is the reference against which result time offsets resolve.
	Midnight time.Time
}

// Dispatcher fans per-passenger search requests out to a pool of persistent
// workers and fans their results back in. With an effective worker count of
// one it runs every request sequentially in the caller.
type Dispatcher struct {
	cfg     Config
	factory EngineFactory
	supply  *model.Supply
	log     logger.Logger
	poll    time.Duration
}

// NewDispatcher builds a dispatcher. Each worker receives its own clone of
// supply during initialization.
func NewDispatcher(cfg Config, factory EngineFactory, supply *model.Supply, log logger.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, factory: factory, supply: supply, log: log, poll: resultPoll}
}

// WorkerCount resolves the effective pool size for a request count.
// Configured values below 1 mean host parallelism; when requests are few the
// count shrinks toward requests/3, since per-worker startup is not free.
func WorkerCount(configured, requests int) int {
	n := configured
	if n < 1 {
		n = runtime.NumCPU()
	}
	if requests < n*3 {
		n = requests / 3
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run searches every pathset's request and returns one outcome per request.
// Outcome order is unrelated to submission order. Run returns an error only
// for cancellation or a failure to start the pool; per-request failures are
// reported in the outcomes.
func (d *Dispatcher) Run(ctx context.Context, iteration int, pathsets []*model.Pathset, bumpWait []BumpWaitEntry) ([]Outcome, error) {
	if len(pathsets) == 0 {
		return nil, nil
	}
	workers := WorkerCount(d.cfg.Workers, len(pathsets))
	if workers <= 1 {
		return d.runSequential(ctx, iteration, pathsets, bumpWait)
	}
	return d.runPool(ctx, iteration, workers, pathsets, bumpWait)
}

func (d *Dispatcher) runSequential(ctx context.Context, iteration int, pathsets []*model.Pathset, bumpWait []BumpWaitEntry) ([]Outcome, error) {
	eng, err := d.newEngine(0, iteration, bumpWait)
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	outcomes := make([]Outcome, 0, len(pathsets))
	for _, ps := range pathsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := ps.Request
		out := Outcome{TripListID: req.TripListID, PersonID: req.PersonID}
		raw, err := eng.FindPathset(engineRequest(iteration, d.cfg.Stochastic, req))
		if err == nil {
			out.Paths, err = DecodePathset(raw, d.cfg.Midnight, d.cfg.Stochastic)
			out.Perf = raw.Perf
		}
		if err != nil {
			d.log.Errorf("search failed for person %s trip %d: %v", req.PersonID, req.TripListID, err)
			out.Err = err
			out.Paths = nil
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (d *Dispatcher) runPool(ctx context.Context, iteration, workers int, pathsets []*model.Pathset, bumpWait []BumpWaitEntry) ([]Outcome, error) {
	tasks := make(chan *model.Pathset, len(pathsets))
	// Buffered so workers never block on reporting; every task yields at
	// most two messages plus one done marker per worker.
	results := make(chan workerMsg, 2*len(pathsets)+workers)
	exited := make(chan int, workers)

	for id := 1; id <= workers; id++ {
		d.log.Infof("starting search worker %2d", id)
		go d.runWorker(ctx, id, iteration, bumpWait, tasks, results, exited)
	}
	for _, ps := range pathsets {
		tasks <- ps
	}
	// Closing the task channel is the "no more work" marker.
	close(tasks)

	byID := make(map[int]Outcome, len(pathsets))
	workingOn := make(map[int]taskRef, workers)
	active := workers
	for active > 0 {
		select {
		case <-ctx.Done():
			// Workers observe the same context and stop on their own;
			// the run aborts with no partial salvage.
			return nil, ctx.Err()
		case msg := <-results:
			d.applyMsg(msg, byID, workingOn)
		case <-exited:
			active--
			// Completions may still sit in the buffer; crash detection
			// happens after the pool drains.
		case <-time.After(d.poll):
			d.log.Debugf("no worker results for %s; still waiting on %d workers", d.poll, active)
		}
	}
	for {
		select {
		case msg := <-results:
			d.applyMsg(msg, byID, workingOn)
			continue
		default:
		}
		break
	}

	// A task still marked in-flight after its worker exited was lost to a
	// crash: count the pathset as not-found, do not reassign.
	for id, ref := range workingOn {
		if _, ok := byID[ref.tripListID]; ok {
			continue
		}
		d.log.Errorf("worker %d crashed while working on person %s trip %d", id, ref.personID, ref.tripListID)
		byID[ref.tripListID] = Outcome{TripListID: ref.tripListID, PersonID: ref.personID, Err: ErrWorkerCrash}
	}

	outcomes := make([]Outcome, 0, len(pathsets))
	for _, ps := range pathsets {
		out, ok := byID[ps.Request.TripListID]
		if !ok {
			out = Outcome{TripListID: ps.Request.TripListID, PersonID: ps.Request.PersonID, Err: ErrLost}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (d *Dispatcher) applyMsg(msg workerMsg, byID map[int]Outcome, workingOn map[int]taskRef) {
	switch msg.kind {
	case msgStarting:
		workingOn[msg.worker] = taskRef{tripListID: msg.tripListID, personID: msg.personID}
	case msgCompleted:
		delete(workingOn, msg.worker)
		byID[msg.tripListID] = Outcome{TripListID: msg.tripListID, PersonID: msg.personID, Paths: msg.paths, Perf: msg.perf}
	case msgFailed:
		delete(workingOn, msg.worker)
		d.log.Errorf("search failed for person %s trip %d: %v", msg.personID, msg.tripListID, msg.err)
		byID[msg.tripListID] = Outcome{TripListID: msg.tripListID, PersonID: msg.personID, Err: msg.err}
	case msgDone:
		d.log.Debugf("worker %d finished", msg.worker)
	}
}

func engineRequest(iteration int, stochastic bool, req *model.TripRequest) Request {
	return Request{
		Iteration:   iteration,
		PersonID:    req.PersonID,
		TripListID:  req.TripListID,
		Stochastic:  stochastic,
		UserClass:   req.UserClass,
		AccessMode:  req.AccessMode,
		TransitMode: req.TransitMode,
		EgressMode:  req.EgressMode,
		OriginTAZ:   req.OriginTAZ,
		DestTAZ:     req.DestTAZ,
		Outbound:    req.Direction == model.Outbound,
		PrefTimeMin: req.PrefTime,
		Trace:       req.Trace,
	}
}

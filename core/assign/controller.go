// Package assign drives the iterative assignment loop: search pathsets,
// load passengers onto vehicles, bump over-capacity boardings and repeat
// until the capacity gap converges or the iteration budget runs out.
package assign

import (
	"context"
	"fmt"
	"time"

	"github.com/transitworks/paxassign/core/bump"
	"github.com/transitworks/paxassign/core/loading"
	"github.com/transitworks/paxassign/core/logger"
	"github.com/transitworks/paxassign/core/metrics"
	"github.com/transitworks/paxassign/core/model"
	"github.com/transitworks/paxassign/core/search"
	"github.com/transitworks/paxassign/internal/eventbus"
)

// capacityGapEpsilon is the convergence threshold on the capacity gap
// percentage.
const capacityGapEpsilon = 0.001

// Config holds the run-level assignment settings.
type Config struct {
	MaxIterations int
	Mode          model.AssignmentMode
	// Simulate loads chosen paths onto vehicles; without it passengers are
	// assigned to paths only and the run halts after one iteration.
	Simulate           bool
	CapacityConstraint bool
	Seed               uint64
	// Midnight is the reference midnight for the run day.
	Midnight time.Time
}

// Reporter receives the per-iteration outputs.
type Reporter interface {
	WriteLoadProfile(iteration int, loads []loading.VehicleLoad) error
	WritePathTimes(iteration int, links []model.PassengerLink) error
}

// NopReporter discards all outputs.
type NopReporter struct{}

func (NopReporter) WriteLoadProfile(int, []loading.VehicleLoad) error { return nil }
func (NopReporter) WritePathTimes(int, []model.PassengerLink) error   { return nil }

// Controller owns the iteration state machine and the run-lifetime context.
type Controller struct {
	cfg        Config
	requests   []*model.TripRequest
	schedule   *model.Schedule
	dispatcher *search.Dispatcher
	sim        *loading.Simulator
	resolver   *bump.Resolver
	run        *bump.RunContext
	choose     *chooser

	// pathsets are created at iteration 1 and persist for the run; order
	// keeps the trip-list input order for deterministic walks.
	pathsets map[int]*model.Pathset
	order    []int

	sink     metrics.AssignmentSink
	reporter Reporter
	bus      *eventbus.TypedBus[Event]
	log      logger.Logger
}

// NewController wires the assignment loop. Nil sink, reporter or bus default
// to no-ops.
func NewController(cfg Config, requests []*model.TripRequest, schedule *model.Schedule, dispatcher *search.Dispatcher, resolver *bump.Resolver, sink metrics.AssignmentSink, reporter Reporter, bus *eventbus.TypedBus[Event], log logger.Logger) *Controller {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if bus == nil {
		bus = eventbus.NewTyped[Event]()
	}
	return &Controller{
		cfg:        cfg,
		requests:   requests,
		schedule:   schedule,
		dispatcher: dispatcher,
		sim:        loading.NewSimulator(schedule),
		resolver:   resolver,
		run:        bump.NewRunContext(),
		choose:     newChooser(cfg.Mode == model.ModeStochastic, cfg.Seed),
		pathsets:   make(map[int]*model.Pathset),
		sink:       sink,
		reporter:   reporter,
		bus:        bus,
		log:        log,
	}
}

// RunContext exposes the run-lifetime bump state.
func (c *Controller) RunContext() *bump.RunContext { return c.run }

// Pathset returns the pathset of a trip-list id, nil before iteration 1.
func (c *Controller) Pathset(tripListID int) *model.Pathset { return c.pathsets[tripListID] }

// Events returns the bus carrying iteration and bump events.
func (c *Controller) Events() *eventbus.TypedBus[Event] { return c.bus }

// Preload installs externally chosen pathsets, one per trip-list id. Used by
// simulation-only runs, which never search.
func (c *Controller) Preload(paths map[int][]model.Path) {
	for _, req := range c.requests {
		p, ok := paths[req.TripListID]
		if !ok {
			continue
		}
		ps := model.NewPathset(req)
		ps.Replace(p)
		c.pathsets[req.TripListID] = ps
		c.order = append(c.order, req.TripListID)
	}
}

// Run executes iterations until the halt condition is met or ctx is
// cancelled. Cancellation aborts the whole run; there is no partial salvage.
func (c *Controller) Run(ctx context.Context) error {
	if !c.cfg.Mode.Valid() {
		return fmt.Errorf("invalid assignment mode %q", c.cfg.Mode)
	}
	if c.cfg.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.cfg.MaxIterations)
	}

	// Iteration 0 load profile: the empty schedule before anyone boards.
	if err := c.reporter.WriteLoadProfile(0, c.sim.Load(nil)); err != nil {
		return fmt.Errorf("write load profile: %w", err)
	}

	for iteration := 1; iteration <= c.cfg.MaxIterations; iteration++ {
		start := time.Now()
		c.log.Infof("***************************** iteration %d *****************************", iteration)

		searchTime, err := c.searchPhase(ctx, iteration)
		if err != nil {
			return fmt.Errorf("iteration %d search: %w", iteration, err)
		}

		assigned := c.choose.choose(c.orderedPathsets())
		simStart := time.Now()
		arrived, links, loads, err := c.simulate(ctx, iteration, assigned)
		if err != nil {
			return fmt.Errorf("iteration %d simulation: %w", iteration, err)
		}

		bumped := assigned - arrived
		gap := 0.0
		if assigned > 0 {
			gap = 100.0 * float64(bumped) / float64(assigned)
		}
		c.log.Infof("  total assigned passengers: %10d", assigned)
		c.log.Infof("  arrived passengers:        %10d", arrived)
		c.log.Infof("  missed passengers:         %10d", bumped)
		c.log.Infof("  capacity gap:              %10.5f", gap)

		if err := c.reporter.WriteLoadProfile(iteration, loads); err != nil {
			return fmt.Errorf("write load profile: %w", err)
		}
		if c.cfg.Simulate {
			if err := c.reporter.WritePathTimes(iteration, links); err != nil {
				return fmt.Errorf("write path times: %w", err)
			}
		}
		res := metrics.IterationResult{
			Iteration:   iteration,
			Requests:    len(c.order),
			PathsFound:  assigned,
			Arrived:     arrived,
			Bumped:      bumped,
			CapacityGap: gap,
			SearchTime:  searchTime,
			SimTime:     time.Since(simStart),
		}
		if err := c.sink.RecordIteration(res); err != nil {
			c.log.Warnf("metrics sink: %v", err)
		}
		c.bus.Publish(IterationEvent{
			Iteration:   iteration,
			PathsFound:  assigned,
			Arrived:     arrived,
			Bumped:      bumped,
			CapacityGap: gap,
			Elapsed:     time.Since(start),
		})

		if gap < capacityGapEpsilon || c.cfg.Mode != model.ModeDeterministic {
			break
		}
	}
	return nil
}

// searchPhase scopes and runs the pathfinding for one iteration. Iteration 1
// searches every request; later iterations only the trip-list ids bumped in
// the previous iteration, carrying all other pathsets forward unchanged.
func (c *Controller) searchPhase(ctx context.Context, iteration int) (time.Duration, error) {
	if c.cfg.Mode == model.ModeSimulationOnly {
		c.log.Infof("simulation only, skipping path search")
		return 0, nil
	}

	var scope []*model.Pathset
	if iteration == 1 {
		for _, req := range c.requests {
			if !req.GoesSomewhere() {
				continue
			}
			ps := model.NewPathset(req)
			c.pathsets[req.TripListID] = ps
			c.order = append(c.order, req.TripListID)
			scope = append(scope, ps)
		}
	} else {
		for _, id := range c.order {
			if _, bumped := c.run.BumpedTripLists[id]; bumped {
				scope = append(scope, c.pathsets[id])
			}
		}
	}
	c.log.Infof("searching %d of %d requests", len(scope), len(c.order))

	start := time.Now()
	outcomes, err := c.dispatcher.Run(ctx, iteration, scope, c.waitEntries())
	if err != nil {
		return 0, err
	}

	stats := make([]metrics.SearchStats, 0, len(outcomes))
	for _, out := range outcomes {
		ps := c.pathsets[out.TripListID]
		if out.Err != nil {
			// Worker crash or search exception: not-found this iteration.
			ps.Replace(nil)
			continue
		}
		ps.Replace(out.Paths)
		stats = append(stats, metrics.SearchStats{
			Iteration:           iteration,
			TripListID:          out.TripListID,
			LabelIterations:     out.Perf.LabelIterations,
			MaxStopProcessCount: out.Perf.MaxStopProcessCount,
			LabelTime:           out.Perf.LabelTime,
			EnumTime:            out.Perf.EnumTime,
		})
	}
	if rec, ok := c.sink.(metrics.SearchRecorder); ok && len(stats) > 0 {
		if err := rec.RecordSearch(stats); err != nil {
			c.log.Warnf("metrics sink: %v", err)
		}
	}
	return time.Since(start), nil
}

// simulate loads the chosen paths onto vehicles and, when capacity
// constraints apply, alternates resolver passes with reloads until a pass
// reports no overcapacity.
func (c *Controller) simulate(ctx context.Context, iteration, assigned int) (arrived int, links []model.PassengerLink, loads []loading.VehicleLoad, err error) {
	if !c.cfg.Simulate {
		return assigned, nil, c.sim.Load(nil), nil
	}

	links = c.sim.PassengerTimes(linksFromPathsets(c.orderedPathsets()))
	c.run.ResetBumped()

	pass := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, nil, nil, err
		}
		loads = c.sim.Load(links)
		if err := loading.CheckConservation(loads); err != nil {
			return 0, nil, nil, fmt.Errorf("load conservation: %w", err)
		}
		if !c.cfg.CapacityConstraint || !c.schedule.HasCapacity() {
			break
		}
		res := c.resolver.Resolve(c.run, links, loads)
		if res.Resolved {
			break
		}
		pass++
		c.log.Infof("        capacity pass %d complete", pass)
		c.bus.Publish(BumpEvent{Iteration: iteration, Pass: pass, Evicted: res.Evicted})
		links = res.Links
	}
	return assigned - len(c.run.BumpedTripLists), links, loads, nil
}

func (c *Controller) orderedPathsets() []*model.Pathset {
	out := make([]*model.Pathset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pathsets[id])
	}
	return out
}

// waitEntries converts the bump-wait table into the minute-offset rows the
// search capability consumes.
func (c *Controller) waitEntries() []search.BumpWaitEntry {
	waits := c.run.WaitEntries()
	entries := make([]search.BumpWaitEntry, len(waits))
	for i, w := range waits {
		entries[i] = search.BumpWaitEntry{Key: w.Key, EarliestMin: w.Earliest.Sub(c.cfg.Midnight).Minutes()}
	}
	return entries
}

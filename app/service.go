// Package app wires the configuration, feed, search dispatcher and iteration
// controller into a runnable assignment service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/transitworks/paxassign/config"
	"github.com/transitworks/paxassign/core/assign"
	"github.com/transitworks/paxassign/core/bump"
	coremetrics "github.com/transitworks/paxassign/core/metrics"
	"github.com/transitworks/paxassign/core/model"
	"github.com/transitworks/paxassign/core/search"
	"github.com/transitworks/paxassign/infra/feed"
	"github.com/transitworks/paxassign/infra/logger"
	"github.com/transitworks/paxassign/infra/metrics"
	"github.com/transitworks/paxassign/infra/perf"
	"github.com/transitworks/paxassign/infra/report"
	"github.com/transitworks/paxassign/internal/eventbus"
)

// Service owns one assignment run from feed load to final report.
type Service struct {
	Controller *assign.Controller

	cfg      *config.Config
	reporter *report.CSVReporter
	perf     *perf.SQLiteStore
	log      logger.Logger
	promAddr string
}

// New creates a Service from the configuration. It loads the feed eagerly so
// input problems surface before any iteration starts.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	applyLogLevel(cfg.Logging.Level)

	midnight, err := cfg.Assignment.Midnight()
	if err != nil {
		return nil, err
	}
	f, err := feed.Load(cfg.Feed.NetworkDir, cfg.Feed.DemandDir, midnight)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	logg.Infof("loaded %d trip requests, %d stop times", len(f.Requests), len(f.Schedule.StopTimes))

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	var store *perf.SQLiteStore
	if cfg.Output.PerfDB != "" {
		store, err = perf.NewSQLiteStore(cfg.Output.PerfDB)
		if err != nil {
			return nil, fmt.Errorf("perf store: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, store)
	}

	reporter, err := report.NewCSVReporter(cfg.Output.Dir, midnight)
	if err != nil {
		return nil, err
	}
	if err := cfg.Write(cfg.Output.Dir); err != nil {
		return nil, fmt.Errorf("write effective config: %w", err)
	}

	mode := model.AssignmentMode(cfg.Assignment.Mode)
	params := search.Params{
		TimeWindow:          minutes(cfg.Assignment.TimeWindowMin),
		BumpBuffer:          minutes(cfg.Assignment.BumpBufferMin),
		PathsetSize:         cfg.Assignment.PathsetSize,
		Dispersion:          cfg.Assignment.Dispersion,
		MaxStopProcessCount: cfg.Assignment.MaxStopProcessCount,
	}
	dispatcher := search.NewDispatcher(search.Config{
		Workers:    cfg.Assignment.Workers,
		Stochastic: mode == model.ModeStochastic,
		Params:     params,
		Midnight:   midnight,
	}, search.ScheduleEngineFactory{}, f.Schedule.BuildSupply(midnight), logger.New("search"))

	policy := bump.Batch
	if cfg.Assignment.BumpOneAtATime {
		policy = bump.OneAtATime
	}
	resolver := bump.NewResolver(policy, logger.New("bump"))

	controller := assign.NewController(assign.Config{
		MaxIterations:      cfg.Assignment.MaxIterations,
		Mode:               mode,
		Simulate:           cfg.Assignment.SimulateEnabled(),
		CapacityConstraint: cfg.Assignment.CapacityConstraint,
		Seed:               cfg.Assignment.Seed,
		Midnight:           midnight,
	}, f.Requests, f.Schedule, dispatcher, resolver, sink, reporter, eventbus.NewTyped[assign.Event](), logg)

	return &Service{
		Controller: controller,
		cfg:        cfg,
		reporter:   reporter,
		perf:       store,
		log:        logg,
		promAddr:   cfg.Metrics.PromAddr,
	}, nil
}

// Run executes the assignment and blocks until it converges, exhausts its
// iteration budget or the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	return s.Controller.Run(ctx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.reporter.Close()
	if s.perf != nil {
		if err2 := s.perf.Close(); err == nil {
			err = err2
		}
	}
	return err
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

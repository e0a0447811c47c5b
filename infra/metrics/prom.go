package metrics

import (
	coremetrics "github.com/transitworks/paxassign/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records assignment progress in Prometheus metrics.
type PromSink struct {
	iterations prometheus.Counter
	passengers *prometheus.GaugeVec
	gap        prometheus.Gauge
	searchTime prometheus.Histogram
	simTime    prometheus.Histogram
}

// NewPromSink registers assignment metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// StartPromServer.
func NewPromSink() (coremetrics.AssignmentSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.AssignmentSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	iterations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_iterations_total",
		Help: "Total number of completed assignment iterations",
	})
	passengers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assignment_passengers",
		Help: "Passenger counts of the latest iteration",
	}, []string{"status"})
	gap := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assignment_capacity_gap_percent",
		Help: "Capacity gap of the latest iteration",
	})
	searchTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_search_seconds",
		Help:    "Wall time spent in path search per iteration",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	simTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_simulation_seconds",
		Help:    "Wall time spent loading and bumping per iteration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	if err := reg.Register(iterations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			iterations = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(passengers); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			passengers = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(gap); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gap = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(searchTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			searchTime = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(simTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			simTime = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		iterations: iterations,
		passengers: passengers,
		gap:        gap,
		searchTime: searchTime,
		simTime:    simTime,
	}, nil
}

// RecordIteration updates the counters and gauges for one iteration.
func (s *PromSink) RecordIteration(r coremetrics.IterationResult) error {
	s.iterations.Inc()
	s.passengers.WithLabelValues("assigned").Set(float64(r.PathsFound))
	s.passengers.WithLabelValues("arrived").Set(float64(r.Arrived))
	s.passengers.WithLabelValues("bumped").Set(float64(r.Bumped))
	s.gap.Set(r.CapacityGap)
	s.searchTime.Observe(r.SearchTime.Seconds())
	s.simTime.Observe(r.SimTime.Seconds())
	return nil
}

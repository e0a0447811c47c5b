package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/transitworks/paxassign/core/metrics"
)

func TestPromSink_RecordIteration(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	ps := sink.(*PromSink)

	res := coremetrics.IterationResult{
		Iteration:   1,
		Requests:    10,
		PathsFound:  9,
		Arrived:     7,
		Bumped:      2,
		CapacityGap: 22.2,
		SearchTime:  time.Second,
	}
	if err := sink.RecordIteration(res); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordIteration(coremetrics.IterationResult{Iteration: 2, PathsFound: 9, Arrived: 9}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if got := testutil.ToFloat64(ps.iterations); got != 2 {
		t.Errorf("iterations counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(ps.passengers.WithLabelValues("arrived")); got != 9 {
		t.Errorf("arrived gauge = %v, want 9", got)
	}
	if got := testutil.ToFloat64(ps.passengers.WithLabelValues("bumped")); got != 0 {
		t.Errorf("bumped gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(ps.gap); got != 0 {
		t.Errorf("gap gauge = %v, want 0", got)
	}
}

func TestPromSink_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Re-registering on the same registry reuses the existing collectors.
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second: %v", err)
	}
}

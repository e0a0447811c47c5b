package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coremetrics "github.com/transitworks/paxassign/core/metrics"
)

func TestInfluxSink_RecordIteration(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	res := coremetrics.IterationResult{
		Iteration:   1,
		Requests:    5,
		PathsFound:  4,
		Arrived:     3,
		Bumped:      1,
		CapacityGap: 25,
		SearchTime:  2 * time.Second,
	}
	if err := sink.RecordIteration(res); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.HasPrefix(body, "assignment_iteration,component=assignment,iteration=1 ") {
		t.Errorf("unexpected measurement or tags: %s", body)
	}
	for _, field := range []string{"paths_found=4i", "arrived=3i", "bumped=1i", "capacity_gap=25", "search_ms=2000i"} {
		if !strings.Contains(body, field) {
			t.Errorf("missing field %s in body: %s", field, body)
		}
	}
}

func TestInfluxSink_RecordSearch(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	stats := []coremetrics.SearchStats{
		{Iteration: 2, TripListID: 11, LabelIterations: 40, LabelTime: 30 * time.Millisecond},
		{Iteration: 2, TripListID: 12, LabelIterations: 7},
	}
	if err := sink.RecordSearch(stats); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 points, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "trip_list_id=11") || !strings.Contains(bodies[0], "label_iterations=40i") {
		t.Errorf("unexpected first point: %s", bodies[0])
	}
	if !strings.Contains(bodies[1], "trip_list_id=12") {
		t.Errorf("unexpected second point: %s", bodies[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

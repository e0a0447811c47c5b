package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/transitworks/paxassign/core/metrics"
	"github.com/transitworks/paxassign/infra/logger"
)

// InfluxSink writes assignment progress to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.AssignmentSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordIteration writes the iteration summary as a single point.
func (s *InfluxSink) RecordIteration(r coremetrics.IterationResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_iteration").
		AddTag("iteration", strconv.Itoa(r.Iteration)).
		AddTag("component", "assignment").
		AddField("requests", r.Requests).
		AddField("paths_found", r.PathsFound).
		AddField("arrived", r.Arrived).
		AddField("bumped", r.Bumped).
		AddField("capacity_gap", round3(r.CapacityGap)).
		AddField("search_ms", r.SearchTime.Milliseconds()).
		AddField("sim_ms", r.SimTime.Milliseconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSearch writes one point per searched request.
func (s *InfluxSink) RecordSearch(stats []coremetrics.SearchStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, st := range stats {
		p := write.NewPointWithMeasurement("search_perf").
			AddTag("iteration", strconv.Itoa(st.Iteration)).
			AddTag("trip_list_id", strconv.Itoa(st.TripListID)).
			AddTag("component", "path_search").
			AddField("label_iterations", st.LabelIterations).
			AddField("max_stop_process_count", st.MaxStopProcessCount).
			AddField("label_ms", st.LabelTime.Milliseconds()).
			AddField("enum_ms", st.EnumTime.Milliseconds()).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

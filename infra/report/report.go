// Package report writes the per-iteration assignment outputs as CSV files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/transitworks/paxassign/core/loading"
	"github.com/transitworks/paxassign/core/model"
)

const (
	loadProfileFile = "veh_loads.csv"
	pathTimesFile   = "pax_times.csv"
)

type loadProfileRow struct {
	Iteration int    `csv:"iteration"`
	TripID    int    `csv:"trip_id_num"`
	StopID    int    `csv:"stop_id_num"`
	Seq       int    `csv:"stop_sequence"`
	Arrival   string `csv:"arrival_time"`
	Departure string `csv:"departure_time"`
	Boards    int    `csv:"boards"`
	Alights   int    `csv:"alights"`
	Onboard   int    `csv:"onboard"`
}

type pathTimesRow struct {
	Iteration  int    `csv:"iteration"`
	PersonID   string `csv:"person_id"`
	TripListID int    `csv:"trip_list_id_num"`
	TripID     int    `csv:"trip_id_num"`
	BoardStop  int    `csv:"board_stop_num"`
	BoardSeq   int    `csv:"board_sequence"`
	AlightStop int    `csv:"alight_stop_num"`
	AlightSeq  int    `csv:"alight_sequence"`
	PaxArrival string `csv:"pax_arrival_time"`
	BoardTime  string `csv:"board_time"`
	AlightTime string `csv:"alight_time"`
}

// CSVReporter appends one block of rows per iteration to the output files,
// each row tagged with its iteration number.
type CSVReporter struct {
	midnight time.Time

	loads *os.File
	times *os.File

	loadsHeader bool
	timesHeader bool
}

// NewCSVReporter creates the output directory and truncates any files from a
// previous run.
func NewCSVReporter(dir string, midnight time.Time) (*CSVReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	loads, err := os.Create(filepath.Join(dir, loadProfileFile))
	if err != nil {
		return nil, fmt.Errorf("create load profile: %w", err)
	}
	times, err := os.Create(filepath.Join(dir, pathTimesFile))
	if err != nil {
		_ = loads.Close()
		return nil, fmt.Errorf("create path times: %w", err)
	}
	return &CSVReporter{midnight: midnight, loads: loads, times: times}, nil
}

// WriteLoadProfile appends the vehicle loads of one iteration.
func (r *CSVReporter) WriteLoadProfile(iteration int, loads []loading.VehicleLoad) error {
	rows := make([]loadProfileRow, len(loads))
	for i, l := range loads {
		rows[i] = loadProfileRow{
			Iteration: iteration,
			TripID:    l.TripID,
			StopID:    l.StopID,
			Seq:       l.Seq,
			Arrival:   r.clock(l.Arrival),
			Departure: r.clock(l.Departure),
			Boards:    l.Boards,
			Alights:   l.Alights,
			Onboard:   l.Onboard,
		}
	}
	if err := r.append(r.loads, &r.loadsHeader, rows); err != nil {
		return fmt.Errorf("write load profile: %w", err)
	}
	return nil
}

// WritePathTimes appends the boarding links of one iteration.
func (r *CSVReporter) WritePathTimes(iteration int, links []model.PassengerLink) error {
	rows := make([]pathTimesRow, len(links))
	for i, l := range links {
		rows[i] = pathTimesRow{
			Iteration:  iteration,
			PersonID:   l.PersonID,
			TripListID: l.TripListID,
			TripID:     l.TripID,
			BoardStop:  l.BoardStop,
			BoardSeq:   l.BoardSeq,
			AlightStop: l.AlightStop,
			AlightSeq:  l.AlightSeq,
			PaxArrival: r.clock(l.PaxArrival),
			BoardTime:  r.clock(l.BoardTime),
			AlightTime: r.clock(l.AlightTime),
		}
	}
	if err := r.append(r.times, &r.timesHeader, rows); err != nil {
		return fmt.Errorf("write path times: %w", err)
	}
	return nil
}

// Close flushes and closes the output files.
func (r *CSVReporter) Close() error {
	err := r.loads.Close()
	if err2 := r.times.Close(); err == nil {
		err = err2
	}
	return err
}

func (r *CSVReporter) append(f *os.File, wroteHeader *bool, rows any) error {
	if !*wroteHeader {
		*wroteHeader = true
		return gocsv.MarshalFile(rows, f)
	}
	return gocsv.MarshalWithoutHeaders(rows, f)
}

// clock renders an absolute time as HH:MM:SS past the reference midnight.
// Zero times render empty.
func (r *CSVReporter) clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	total := int(t.Sub(r.midnight) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

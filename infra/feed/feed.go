// Package feed reads the network and demand CSV inputs into the model
// types. Feed errors are fatal: a run never starts on partial input.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/transitworks/paxassign/core/model"
)

const (
	tripListFile  = "trip_list.txt"
	stopTimesFile = "stop_times.txt"
	stopsFile     = "stops.txt"
	zonesFile     = "zones.txt"
)

// Stop is one boarding location from the network input.
type Stop struct {
	ID   int    `csv:"stop_id_num"`
	Name string `csv:"stop_name"`
}

// Zone is one travel analysis zone from the network input.
type Zone struct {
	ID int `csv:"zone_id_num"`
}

type tripListRow struct {
	PersonID    string    `csv:"person_id"`
	TripListID  int       `csv:"trip_list_id_num"`
	OriginTAZ   int       `csv:"o_taz_num"`
	DestTAZ     int       `csv:"d_taz_num"`
	UserClass   string    `csv:"user_class"`
	AccessMode  string    `csv:"access_mode"`
	TransitMode string    `csv:"transit_mode"`
	EgressMode  string    `csv:"egress_mode"`
	TimeTarget  string    `csv:"time_target"`
	Departure   ClockTime `csv:"departure_time"`
	Arrival     ClockTime `csv:"arrival_time"`
	Trace       bool      `csv:"trace"`
}

type stopTimeRow struct {
	TripID    int       `csv:"trip_id_num"`
	StopID    int       `csv:"stop_id_num"`
	Seq       int       `csv:"stop_sequence"`
	Arrival   ClockTime `csv:"arrival_time"`
	Departure ClockTime `csv:"departure_time"`
	Capacity  int       `csv:"capacity"`
}

// Feed holds the loaded inputs for one assignment run.
type Feed struct {
	Requests []*model.TripRequest
	Schedule *model.Schedule
	Stops    []Stop
	Zones    []Zone

	midnight time.Time
}

// Load reads the network and demand directories. The reference midnight
// anchors all time-of-day fields.
func Load(networkDir, demandDir string, midnight time.Time) (*Feed, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	f := &Feed{midnight: midnight}
	if err := f.loadTripList(filepath.Join(demandDir, tripListFile)); err != nil {
		return nil, err
	}
	if err := f.loadStopTimes(filepath.Join(networkDir, stopTimesFile)); err != nil {
		return nil, err
	}
	if err := f.loadStops(filepath.Join(networkDir, stopsFile)); err != nil {
		return nil, err
	}
	if err := f.loadZones(filepath.Join(networkDir, zonesFile)); err != nil {
		return nil, err
	}
	return f, nil
}

// Midnight returns the reference midnight the feed was anchored on.
func (f *Feed) Midnight() time.Time { return f.midnight }

func (f *Feed) loadTripList(path string) error {
	var rows []*tripListRow
	if err := readCSV(path, &rows); err != nil {
		return err
	}
	f.Requests = make([]*model.TripRequest, 0, len(rows))
	for i, row := range rows {
		req, err := f.request(row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", tripListFile, i+1, err)
		}
		f.Requests = append(f.Requests, req)
	}
	return nil
}

func (f *Feed) request(row *tripListRow) (*model.TripRequest, error) {
	req := &model.TripRequest{
		PersonID:    row.PersonID,
		TripListID:  row.TripListID,
		OriginTAZ:   row.OriginTAZ,
		DestTAZ:     row.DestTAZ,
		UserClass:   row.UserClass,
		AccessMode:  row.AccessMode,
		TransitMode: row.TransitMode,
		EgressMode:  row.EgressMode,
		Trace:       row.Trace,
	}
	switch strings.ToLower(row.TimeTarget) {
	case "arrival":
		if !row.Arrival.IsSet() {
			return nil, fmt.Errorf("trip %d targets arrival without arrival_time", row.TripListID)
		}
		req.Direction = model.Outbound
		req.PrefTime = row.Arrival.Minutes()
	case "departure":
		if !row.Departure.IsSet() {
			return nil, fmt.Errorf("trip %d targets departure without departure_time", row.TripListID)
		}
		req.Direction = model.Inbound
		req.PrefTime = row.Departure.Minutes()
	default:
		return nil, fmt.Errorf("trip %d has unknown time_target %q", row.TripListID, row.TimeTarget)
	}
	if row.Departure.IsSet() {
		req.EarliestDep = row.Departure.Resolve(f.midnight)
	}
	if row.Arrival.IsSet() {
		req.LatestArr = row.Arrival.Resolve(f.midnight)
	}
	return req, nil
}

func (f *Feed) loadStopTimes(path string) error {
	var rows []*stopTimeRow
	if err := readCSV(path, &rows); err != nil {
		return err
	}
	stopTimes := make([]model.StopTime, 0, len(rows))
	for i, row := range rows {
		if !row.Arrival.IsSet() || !row.Departure.IsSet() {
			return fmt.Errorf("%s row %d: trip %d stop %d missing arrival or departure time",
				stopTimesFile, i+1, row.TripID, row.StopID)
		}
		stopTimes = append(stopTimes, model.StopTime{
			TripID:    row.TripID,
			StopID:    row.StopID,
			Seq:       row.Seq,
			Arrival:   row.Arrival.Resolve(f.midnight),
			Departure: row.Departure.Resolve(f.midnight),
			Capacity:  row.Capacity,
		})
	}
	f.Schedule = model.NewSchedule(stopTimes)
	return nil
}

func (f *Feed) loadStops(path string) error {
	return readCSV(path, &f.Stops)
}

func (f *Feed) loadZones(path string) error {
	return readCSV(path, &f.Zones)
}

func readCSV(path string, out any) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open feed file: %w", err)
	}
	defer func() { _ = fh.Close() }()
	if err := gocsv.Unmarshal(fh, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

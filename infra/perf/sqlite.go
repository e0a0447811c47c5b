package perf

import (
	"database/sql"
	"time"

	"github.com/transitworks/paxassign/core/metrics"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists per-iteration summaries and per-request search
// counters in a SQLite database, one file per run.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS iteration (
        iteration INTEGER PRIMARY KEY,
        requests INTEGER,
        paths_found INTEGER,
        arrived INTEGER,
        bumped INTEGER,
        capacity_gap REAL,
        search_ms INTEGER,
        sim_ms INTEGER
    );
    CREATE TABLE IF NOT EXISTS search_perf (
        iteration INTEGER,
        trip_list_id INTEGER,
        label_iterations INTEGER,
        max_stop_process_count INTEGER,
        label_ms INTEGER,
        enum_ms INTEGER,
        PRIMARY KEY(iteration, trip_list_id)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// RecordIteration inserts or replaces the iteration summary row.
func (s *SQLiteStore) RecordIteration(r metrics.IterationResult) error {
	_, err := s.db.Exec(`INSERT INTO iteration
        (iteration, requests, paths_found, arrived, bumped, capacity_gap, search_ms, sim_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(iteration) DO UPDATE SET
            requests = excluded.requests,
            paths_found = excluded.paths_found,
            arrived = excluded.arrived,
            bumped = excluded.bumped,
            capacity_gap = excluded.capacity_gap,
            search_ms = excluded.search_ms,
            sim_ms = excluded.sim_ms`,
		r.Iteration, r.Requests, r.PathsFound, r.Arrived, r.Bumped, r.CapacityGap,
		r.SearchTime.Milliseconds(), r.SimTime.Milliseconds())
	return err
}

// RecordSearch inserts the per-request counters, replacing any earlier rows
// for the same iteration and trip-list id.
func (s *SQLiteStore) RecordSearch(stats []metrics.SearchStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, st := range stats {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO search_perf
            (iteration, trip_list_id, label_iterations, max_stop_process_count, label_ms, enum_ms)
            VALUES (?, ?, ?, ?, ?, ?)`,
			st.Iteration, st.TripListID, st.LabelIterations, st.MaxStopProcessCount,
			st.LabelTime.Milliseconds(), st.EnumTime.Milliseconds()); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Iterations returns the stored summaries ordered by iteration.
func (s *SQLiteStore) Iterations() ([]metrics.IterationResult, error) {
	rows, err := s.db.Query(`SELECT iteration, requests, paths_found, arrived, bumped,
        capacity_gap, search_ms, sim_ms FROM iteration ORDER BY iteration`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []metrics.IterationResult
	for rows.Next() {
		var r metrics.IterationResult
		var searchMS, simMS int64
		if err := rows.Scan(&r.Iteration, &r.Requests, &r.PathsFound, &r.Arrived,
			&r.Bumped, &r.CapacityGap, &searchMS, &simMS); err != nil {
			return nil, err
		}
		r.SearchTime = time.Duration(searchMS) * time.Millisecond
		r.SimTime = time.Duration(simMS) * time.Millisecond
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SearchPerf returns the stored counters of one iteration ordered by
// trip-list id.
func (s *SQLiteStore) SearchPerf(iteration int) ([]metrics.SearchStats, error) {
	rows, err := s.db.Query(`SELECT iteration, trip_list_id, label_iterations,
        max_stop_process_count, label_ms, enum_ms
        FROM search_perf WHERE iteration = ? ORDER BY trip_list_id`, iteration)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []metrics.SearchStats
	for rows.Next() {
		var st metrics.SearchStats
		var labelMS, enumMS int64
		if err := rows.Scan(&st.Iteration, &st.TripListID, &st.LabelIterations,
			&st.MaxStopProcessCount, &labelMS, &enumMS); err != nil {
			return nil, err
		}
		st.LabelTime = time.Duration(labelMS) * time.Millisecond
		st.EnumTime = time.Duration(enumMS) * time.Millisecond
		res = append(res, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

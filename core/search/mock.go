package search

import (
	"fmt"
	"sync"

	"github.com/transitworks/paxassign/core/model"
)

// MockEngine returns scripted raw results keyed by trip-list id. It records
// the bump-wait tables it receives so tests can assert the per-iteration
// setup call.
type MockEngine struct {
	mu       sync.Mutex
	Results  map[int]RawResult
	Errs     map[int]error
	PanicOn  map[int]bool
	BumpWait [][]BumpWaitEntry
	Calls    []Request

	initialized bool
	supply      *model.Supply
}

// Initialize records the private supply copy handed to this engine.
func (m *MockEngine) Initialize(supply *model.Supply, _ Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return fmt.Errorf("engine initialized twice")
	}
	m.initialized = true
	m.supply = supply
	return nil
}

// Supply returns the supply instance this engine was initialized with.
func (m *MockEngine) Supply() *model.Supply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supply
}

// SetBumpWait appends the received table to BumpWait.
func (m *MockEngine) SetBumpWait(entries []BumpWaitEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]BumpWaitEntry, len(entries))
	copy(cp, entries)
	m.BumpWait = append(m.BumpWait, cp)
}

// FindPathset replays the scripted result for the request's trip-list id.
// Unscripted requests yield an empty result.
func (m *MockEngine) FindPathset(req Request) (RawResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.PanicOn[req.TripListID] {
		panic(fmt.Sprintf("scripted panic for trip %d", req.TripListID))
	}
	if err, ok := m.Errs[req.TripListID]; ok {
		return RawResult{}, err
	}
	if res, ok := m.Results[req.TripListID]; ok {
		return res, nil
	}
	return RawResult{}, nil
}

// MockFactory builds one MockEngine per worker, all sharing the same scripts.
type MockFactory struct {
	mu      sync.Mutex
	Results map[int]RawResult
	Errs    map[int]error
	PanicOn map[int]bool
	Engines []*MockEngine
}

// New builds a fresh engine carrying the factory's scripted results.
func (f *MockFactory) New(int) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eng := &MockEngine{Results: f.Results, Errs: f.Errs, PanicOn: f.PanicOn}
	f.Engines = append(f.Engines, eng)
	return eng, nil
}

package metrics

import "github.com/transitworks/paxassign/core/factory"

var sinkRegistry = factory.NewRegistry[AssignmentSink]()

// RegisterSink adds an assignment sink factory identified by name.
func RegisterSink(name string, f factory.Factory[AssignmentSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewSink creates an AssignmentSink from the provided configuration. No
// configuration yields a NopSink; multiple entries are fanned out.
func NewSink(cfgs []factory.ModuleConfig) (AssignmentSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]AssignmentSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []AssignmentSink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...AssignmentSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordIteration forwards to every sink, returning the first error.
func (m *MultiSink) RecordIteration(res IterationResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordIteration(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordSearch forwards to sinks that keep search counters.
func (m *MultiSink) RecordSearch(stats []SearchStats) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SearchRecorder); ok {
			if err := rec.RecordSearch(stats); err != nil {
				return err
			}
		}
	}
	return nil
}

package metrics

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlanError forwards rejected evaluations when supported by the sink.
func (m *MultiSink) RecordPlanError(ev PlanErrorEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PlanErrorRecorder); ok {
			if err := rec.RecordPlanError(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSetpoint forwards setpoint events when supported by the sink.
func (m *MultiSink) RecordSetpoint(ev SetpointEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SetpointRecorder); ok {
			if err := rec.RecordSetpoint(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

package history

import (
	"context"

	"github.com/kilianp07/chargeplan/core/metrics"
)

// Sink records plan events into a Store.
type Sink struct {
	store Store
}

// NewSink wraps store as a metrics sink.
func NewSink(store Store) *Sink { return &Sink{store: store} }

// RecordPlan implements metrics.MetricsSink.
func (s *Sink) RecordPlan(ev metrics.PlanEvent) error {
	return s.store.Append(context.Background(), FromPlan(ev))
}

// RecordPlanError implements metrics.PlanErrorRecorder.
func (s *Sink) RecordPlanError(ev metrics.PlanErrorEvent) error {
	return s.store.Append(context.Background(), FromError(ev))
}

// Close closes the underlying store.
func (s *Sink) Close() error { return s.store.Close() }

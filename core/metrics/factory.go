package metrics

import (
	"fmt"

	"github.com/kilianp07/chargeplan/core/factory"
)

// Built-in sink types. The implementations register themselves from
// infra/metrics.
const (
	SinkNop        = "nop"
	SinkPrometheus = "prometheus"
	SinkInflux     = "influx"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// MustRegisterMetricsSink panics when name is already taken.
func MustRegisterMetricsSink(name string, f factory.Factory[MetricsSink]) {
	sinkRegistry.MustRegister(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the sinks listed in the metrics section. No entries
// yields a NopSink and several entries are fanned out through a MultiSink.
// A prometheus sink may appear only once since its collectors are global.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return createSink(0, cfgs[0])
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	seenProm := false
	for i, c := range cfgs {
		if c.Type == SinkPrometheus {
			if seenProm {
				return nil, fmt.Errorf("sinks[%d]: prometheus sink configured twice", i)
			}
			seenProm = true
		}
		s, err := createSink(i, c)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return NewMultiSink(sinks...), nil
}

func createSink(i int, c factory.ModuleConfig) (MetricsSink, error) {
	s, err := sinkRegistry.Create(c)
	if err != nil {
		return nil, fmt.Errorf("sinks[%d]: %w", i, err)
	}
	return s, nil
}

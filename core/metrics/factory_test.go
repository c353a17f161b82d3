package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/factory"
	metrics "github.com/kilianp07/chargeplan/core/metrics"
	_ "github.com/kilianp07/chargeplan/infra/metrics"
)

func TestSinkTypes(t *testing.T) {
	assert.Subset(t, metrics.SinkTypes(), []string{metrics.SinkNop, metrics.SinkPrometheus, metrics.SinkInflux})
}

func TestNewMetricsSink(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: metrics.SinkNop}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: metrics.SinkNop}, {Type: metrics.SinkNop}})
	require.NoError(t, err)
	multi, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	assert.Len(t, multi.Sinks, 2)
}

func TestNewMetricsSink_UnknownTypeListsKnown(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: metrics.SinkNop}, {Type: "statsd"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sinks[1]")
	assert.Contains(t, err.Error(), "influx, nop, prometheus")
}

func TestNewMetricsSink_PrometheusOnce(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: metrics.SinkPrometheus}, {Type: metrics.SinkPrometheus}})
	assert.ErrorContains(t, err, "configured twice")
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

func TestPromSink_RecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	ev := coremetrics.PlanEvent{Recommendation: model.Recommendation{
		Status:          model.StatusOptimal,
		EnergyNeededKWh: 60,
		Candidate:       model.AmperageCandidate{Amps: 11, Deviation: 16 * time.Minute},
	}}
	require.NoError(t, sink.RecordPlan(ev))
	require.NoError(t, sink.RecordPlan(ev))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.plans.WithLabelValues("optimal", "11")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.deviation))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.plans.WithLabelValues("tooSlow", "16")))
}

func TestPromSink_ErrorsAndSetpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlanError(coremetrics.PlanErrorEvent{Reason: "past_target"}))
	require.NoError(t, sink.RecordSetpoint(coremetrics.SetpointEvent{Acknowledged: true, Latency: 200 * time.Millisecond}))
	require.NoError(t, sink.RecordSetpoint(coremetrics.SetpointEvent{Acknowledged: false}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.errors.WithLabelValues("past_target")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.setpoints.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.setpoints.WithLabelValues("false")))
}

// Registering twice on the same registry reuses the existing collectors.
func TestPromSink_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordPlanError(coremetrics.PlanErrorEvent{Reason: "invalid_parameter"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.errors.WithLabelValues("invalid_parameter")))
}

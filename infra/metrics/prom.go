package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
)

// PromSink records plan evaluations in Prometheus metrics.
type PromSink struct {
	plans      *prometheus.CounterVec
	deviation  *prometheus.HistogramVec
	energy     prometheus.Histogram
	errors     *prometheus.CounterVec
	setpoints  *prometheus.CounterVec
	ackLatency prometheus.Histogram
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The metrics endpoint should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_plans_total",
		Help: "Total number of evaluated charge plans",
	}, []string{"status", "amps"}))
	if err != nil {
		return nil, err
	}
	deviation, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chargeplan_plan_deviation_seconds",
		Help:    "Distance between the planned finish and the target completion",
		Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800},
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}
	energy, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_energy_needed_kwh",
		Help:    "Energy required by evaluated plans",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}))
	if err != nil {
		return nil, err
	}
	errs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_plan_errors_total",
		Help: "Evaluations rejected because of their inputs",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}
	setpoints, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_setpoints_total",
		Help: "Current setpoints sent to chargers",
	}, []string{"acknowledged"}))
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_setpoint_ack_latency_seconds",
		Help:    "Time between setpoint publish and charger acknowledgment",
		Buckets: prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		plans:      plans,
		deviation:  deviation,
		energy:     energy,
		errors:     errs,
		setpoints:  setpoints,
		ackLatency: latency,
	}, nil
}

// register adds c to reg, reusing an already registered collector with the
// same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// RecordPlan counts the plan and observes its deviation and energy.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	rec := ev.Recommendation
	status := rec.Status.String()
	s.plans.WithLabelValues(status, strconv.Itoa(rec.Candidate.Amps)).Inc()
	s.deviation.WithLabelValues(status).Observe(rec.Candidate.Deviation.Seconds())
	s.energy.Observe(rec.EnergyNeededKWh)
	return nil
}

// RecordPlanError counts rejected evaluations by reason.
func (s *PromSink) RecordPlanError(ev coremetrics.PlanErrorEvent) error {
	s.errors.WithLabelValues(ev.Reason).Inc()
	return nil
}

// RecordSetpoint counts setpoints and observes acknowledgment latency.
func (s *PromSink) RecordSetpoint(ev coremetrics.SetpointEvent) error {
	s.setpoints.WithLabelValues(strconv.FormatBool(ev.Acknowledged)).Inc()
	if ev.Acknowledged {
		s.ackLatency.Observe(ev.Latency.Seconds())
	}
	return nil
}

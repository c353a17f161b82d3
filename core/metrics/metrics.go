package metrics

import (
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

// Sources of plan evaluations.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// PlanEvent captures one successful evaluation.
type PlanEvent struct {
	ID             string                   `json:"id"`
	Source         string                   `json:"source"`
	VehicleID      string                   `json:"vehicle_id,omitempty"`
	ChargerID      string                   `json:"charger_id,omitempty"`
	Params         model.ChargingParameters `json:"params"`
	Window         model.TimeWindow         `json:"window"`
	Recommendation model.Recommendation     `json:"recommendation"`
	Time           time.Time                `json:"time"`
}

// MetricsSink records plan evaluations for observability purposes.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// PlanErrorEvent captures an evaluation rejected because of its inputs.
type PlanErrorEvent struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Reason string    `json:"reason"`
	Error  string    `json:"error"`
	Time   time.Time `json:"time"`
}

// PlanErrorRecorder records rejected evaluations.
type PlanErrorRecorder interface {
	RecordPlanError(ev PlanErrorEvent) error
}

// SetpointEvent captures a current setpoint sent to a charger and its
// acknowledgment.
type SetpointEvent struct {
	CommandID    string
	ChargerID    string
	Amps         int
	Phases       int
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// SetpointRecorder records setpoint commands.
type SetpointRecorder interface {
	RecordSetpoint(ev SetpointEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error           { return nil }
func (NopSink) RecordPlanError(PlanErrorEvent) error { return nil }
func (NopSink) RecordSetpoint(SetpointEvent) error   { return nil }

// Package charging runs plan requests end to end: it resolves the vehicle,
// evaluates the charging current, records the outcome and optionally pushes
// the chosen current to a charger.
package charging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/core/catalog"
	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/monitoring"
	coremqtt "github.com/kilianp07/chargeplan/core/mqtt"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// Request is one plan request. A zero BatteryCapacityKWh is resolved from the
// catalog using VehicleID, or the default vehicle when VehicleID is empty.
type Request struct {
	Source            string
	VehicleID         string
	ChargerID         string
	Params            model.ChargingParameters
	Window            model.TimeWindow
	IncludeCandidates bool
}

// SetpointResult reports the command sent to a charger.
type SetpointResult struct {
	CommandID    string `json:"command_id,omitempty"`
	ChargerID    string `json:"charger_id"`
	Amps         int    `json:"amps"`
	Phases       int    `json:"phases"`
	Acknowledged bool   `json:"acknowledged"`
	Error        string `json:"error,omitempty"`
}

// Result is the outcome of a successful plan.
type Result struct {
	ID             string                    `json:"id"`
	Vehicle        *model.Vehicle            `json:"vehicle,omitempty"`
	Params         model.ChargingParameters  `json:"params"`
	Window         model.TimeWindow          `json:"window"`
	Recommendation model.Recommendation      `json:"recommendation"`
	Duration       string                    `json:"duration"`
	Message        planner.Message           `json:"message"`
	Candidates     []model.AmperageCandidate `json:"candidates,omitempty"`
	Setpoint       *SetpointResult           `json:"setpoint,omitempty"`
}

// Event is published on the bus for every request. Exactly one of Plan and
// Error is set.
type Event struct {
	Plan  *metrics.PlanEvent      `json:"plan,omitempty"`
	Error *metrics.PlanErrorEvent `json:"error,omitempty"`
}

// Options wires the optional collaborators of a Service.
type Options struct {
	Catalog    *catalog.Catalog
	Sink       metrics.MetricsSink
	Bus        eventbus.EventBus[Event]
	Setpoints  coremqtt.Client
	AckTimeout time.Duration
	// DefaultVehicleID is used when a request names no vehicle.
	DefaultVehicleID string
	Logger           logger.Logger
	// Now is the clock used to stamp events. Defaults to time.Now.
	Now func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	eval       *planner.Evaluator
	catalog    *catalog.Catalog
	sink       metrics.MetricsSink
	bus        eventbus.EventBus[Event]
	setpoints  coremqtt.Client
	ackTimeout time.Duration
	defaultID  string
	log        logger.Logger
	now        func() time.Time
}

// NewService returns a Service around eval. Missing options fall back to the
// built-in catalog, a no-op sink and no setpoints.
func NewService(eval *planner.Evaluator, opts Options) *Service {
	s := &Service{
		eval:       eval,
		catalog:    opts.Catalog,
		sink:       opts.Sink,
		bus:        opts.Bus,
		setpoints:  opts.Setpoints,
		ackTimeout: opts.AckTimeout,
		defaultID:  opts.DefaultVehicleID,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.sink == nil {
		s.sink = metrics.NopSink{}
	}
	if s.ackTimeout <= 0 {
		s.ackTimeout = 5 * time.Second
	}
	if s.defaultID == "" {
		s.defaultID = catalog.DefaultVehicleID
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Evaluator returns the underlying evaluator.
func (s *Service) Evaluator() *planner.Evaluator { return s.eval }

// Catalog returns the vehicle catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// SetpointsEnabled reports whether charger setpoints can be sent.
func (s *Service) SetpointsEnabled() bool { return s.setpoints != nil }

// Plan evaluates req. Input errors are returned as-is so callers can map them
// with Reason; they are recorded but not reported to monitoring.
func (s *Service) Plan(ctx context.Context, req Request) (Result, error) {
	id := uuid.NewString()
	res, err := s.plan(ctx, id, req)
	if err != nil {
		s.fail(id, req.Source, err)
		return Result{}, err
	}
	return res, nil
}

func (s *Service) plan(ctx context.Context, id string, req Request) (Result, error) {
	if req.ChargerID != "" && s.setpoints == nil {
		return Result{}, ErrSetpointsDisabled
	}
	vehicle, err := s.resolve(&req)
	if err != nil {
		return Result{}, err
	}
	rec, err := s.eval.Evaluate(req.Params, req.Window)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ID:             id,
		Vehicle:        vehicle,
		Params:         req.Params,
		Window:         req.Window,
		Recommendation: rec,
		Duration:       planner.FormatDuration(rec.Candidate.DurationHours),
		Message:        planner.StatusMessage(rec.Status, s.eval.Config().Amperage),
	}
	if req.IncludeCandidates {
		if res.Candidates, err = s.eval.Candidates(req.Params, req.Window); err != nil {
			return Result{}, err
		}
	}
	for _, c := range res.Candidates {
		s.log.Debugw("candidate", map[string]any{
			"plan": id, "amps": c.Amps, "power_kw": c.PowerKW, "late": c.IsLate, "deviation": c.Deviation.String(),
		})
	}
	s.log.Infof("plan %s: %s at %dA x%d, %s for %.2f kWh",
		id, rec.Status, rec.Candidate.Amps, rec.Phases, res.Duration, rec.EnergyNeededKWh)

	ev := metrics.PlanEvent{
		ID:             id,
		Source:         req.Source,
		ChargerID:      req.ChargerID,
		Params:         req.Params,
		Window:         req.Window,
		Recommendation: rec,
		Time:           s.now(),
	}
	if vehicle != nil {
		ev.VehicleID = vehicle.ID
	}
	if err := s.sink.RecordPlan(ev); err != nil {
		s.log.Warnf("record plan %s: %v", id, err)
	}
	if s.bus != nil {
		s.bus.Publish(Event{Plan: &ev})
	}

	if req.ChargerID != "" {
		res.Setpoint = s.sendSetpoint(ctx, req.ChargerID, rec)
	}
	return res, nil
}

// resolve fills the battery capacity from the catalog when it is missing.
func (s *Service) resolve(req *Request) (*model.Vehicle, error) {
	id := req.VehicleID
	if id == "" && req.Params.BatteryCapacityKWh == 0 {
		id = s.defaultID
	}
	if id == "" {
		return nil, nil
	}
	v, ok := s.catalog.Get(id)
	if !ok {
		if req.Params.BatteryCapacityKWh > 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	if req.Params.BatteryCapacityKWh == 0 {
		req.Params.BatteryCapacityKWh = v.CapacityKWh
	}
	return &v, nil
}

func (s *Service) sendSetpoint(ctx context.Context, chargerID string, rec model.Recommendation) *SetpointResult {
	sp := &SetpointResult{ChargerID: chargerID, Amps: rec.Candidate.Amps, Phases: rec.Phases}
	start := s.now()
	ev := metrics.SetpointEvent{ChargerID: chargerID, Amps: sp.Amps, Phases: sp.Phases, Time: start}

	cmdID, err := s.setpoints.SendSetpoint(chargerID, sp.Amps, sp.Phases)
	if err == nil {
		sp.CommandID = cmdID
		ev.CommandID = cmdID
		timeout := s.ackTimeout
		if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
			timeout = time.Until(dl)
		}
		sp.Acknowledged, err = s.setpoints.WaitForAck(cmdID, timeout)
		ev.Latency = s.now().Sub(start)
	}
	if err != nil {
		sp.Error = err.Error()
		ev.Error = err.Error()
		s.log.Warnf("setpoint %dA to %s: %v", sp.Amps, chargerID, err)
		monitoring.Report(err, "charging", map[string]string{"charger_id": chargerID})
	}
	ev.Acknowledged = sp.Acknowledged
	if rec, ok := s.sink.(metrics.SetpointRecorder); ok {
		if err := rec.RecordSetpoint(ev); err != nil {
			s.log.Warnf("record setpoint: %v", err)
		}
	}
	return sp
}

func (s *Service) fail(id, source string, err error) {
	ev := metrics.PlanErrorEvent{ID: id, Source: source, Reason: Reason(err), Error: err.Error(), Time: s.now()}
	if IsInputError(err) {
		s.log.Infof("plan %s rejected: %v", id, err)
	} else {
		s.log.Errorf("plan %s failed: %v", id, err)
		monitoring.Report(err, "charging", map[string]string{"source": source})
	}
	if rec, ok := s.sink.(metrics.PlanErrorRecorder); ok {
		if rerr := rec.RecordPlanError(ev); rerr != nil {
			s.log.Warnf("record plan error %s: %v", id, rerr)
		}
	}
	if s.bus != nil {
		s.bus.Publish(Event{Error: &ev})
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// Package plan exposes charge planning over HTTP.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/charging"
	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
)

const maxBody = 16 << 10

// Planner runs a plan request.
type Planner interface {
	Plan(ctx context.Context, req charging.Request) (charging.Result, error)
}

// Request is the POST /api/plan body. Omitted fields take the configured
// defaults; target_completion defaults to tomorrow at the default hour.
type Request struct {
	VehicleID          string     `json:"vehicle_id"`
	ChargerID          string     `json:"charger_id"`
	BatteryCapacityKWh float64    `json:"battery_capacity_kwh"`
	CurrentSoC         *float64   `json:"current_soc"`
	TargetSoC          *float64   `json:"target_soc"`
	SupplyVoltage      float64    `json:"supply_voltage"`
	Phases             int        `json:"phases"`
	TargetCompletion   *time.Time `json:"target_completion"`
	IncludeCandidates  bool       `json:"include_candidates"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Options configures the handler.
type Options struct {
	// Token enables bearer authentication when non-empty.
	Token    string
	Defaults config.DefaultsConfig
	Logger   logger.Logger
	// Now is the request clock. Defaults to time.Now.
	Now func() time.Time
}

// NewHandler returns an HTTP handler evaluating plans via POST /api/plan.
// Schema violations yield 400, inputs the planner rejects 422 with a reason.
func NewHandler(p Planner, opts Options) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+opts.Token {
			writeError(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
			return
		}
		details, err := validateBody(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json", Details: []string{err.Error()}})
			return
		}
		if len(details) > 0 {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: "request does not match schema", Details: details})
			return
		}
		var in Request
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		res, err := p.Plan(r.Context(), in.toCharging(opts.Defaults, now()))
		if err != nil {
			status := http.StatusInternalServerError
			msg := "internal error"
			switch {
			case errors.Is(err, charging.ErrSetpointsDisabled):
				status = http.StatusServiceUnavailable
				msg = err.Error()
			case charging.IsInputError(err):
				status = http.StatusUnprocessableEntity
				msg = err.Error()
			default:
				if opts.Logger != nil {
					opts.Logger.Errorf("plan: %v", err)
				}
			}
			writeError(w, status, ErrorResponse{Error: msg, Reason: charging.Reason(err)})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func (in Request) toCharging(d config.DefaultsConfig, now time.Time) charging.Request {
	p := model.ChargingParameters{
		BatteryCapacityKWh: in.BatteryCapacityKWh,
		CurrentSoC:         d.CurrentSoC,
		TargetSoC:          d.TargetSoC,
		SupplyVoltage:      d.Voltage,
		Phases:             d.Phases,
	}
	if in.CurrentSoC != nil {
		p.CurrentSoC = *in.CurrentSoC
	}
	if in.TargetSoC != nil {
		p.TargetSoC = *in.TargetSoC
	}
	if in.SupplyVoltage > 0 {
		p.SupplyVoltage = in.SupplyVoltage
	}
	if in.Phases != 0 {
		p.Phases = in.Phases
	}
	var target time.Time
	if in.TargetCompletion != nil {
		target = *in.TargetCompletion
	} else {
		loc, err := time.LoadLocation(d.ClockZone)
		if err != nil {
			loc = time.UTC
		}
		target = planner.DefaultTarget(now.In(loc), d.TargetHour)
	}
	vehicleID := in.VehicleID
	if vehicleID == "" && in.BatteryCapacityKWh == 0 {
		vehicleID = d.VehicleID
	}
	return charging.Request{
		Source:            metrics.SourceAPI,
		VehicleID:         vehicleID,
		ChargerID:         in.ChargerID,
		Params:            p,
		Window:            model.TimeWindow{Now: now, TargetCompletion: target},
		IncludeCandidates: in.IncludeCandidates,
	}
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

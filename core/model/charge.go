package model

import (
	"math"
	"time"
)

// Supported phase counts.
const (
	SinglePhase = 1
	ThreePhase  = 3
)

// ChargingParameters describes the battery and the electrical supply for one
// evaluation. SoC values are percentages in [0,100].
type ChargingParameters struct {
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh" yaml:"battery_capacity_kwh"`
	CurrentSoC         float64 `json:"current_soc" yaml:"current_soc"`
	TargetSoC          float64 `json:"target_soc" yaml:"target_soc"`
	SupplyVoltage      float64 `json:"supply_voltage" yaml:"supply_voltage"`
	Phases             int     `json:"phases" yaml:"phases"`
}

// TimeWindow bounds an evaluation. TargetCompletion must be after Now.
type TimeWindow struct {
	Now              time.Time `json:"now" yaml:"now"`
	TargetCompletion time.Time `json:"target_completion" yaml:"target_completion"`
}

// Available returns the time between Now and TargetCompletion.
func (w TimeWindow) Available() time.Duration {
	return w.TargetCompletion.Sub(w.Now)
}

// AmperageCandidate is one discrete current setting evaluated against the window.
type AmperageCandidate struct {
	Amps          int           `json:"amps" yaml:"amps"`
	PowerKW       float64       `json:"power_kw" yaml:"power_kw"`
	DurationHours float64       `json:"duration_hours" yaml:"duration_hours"`
	Finish        time.Time     `json:"finish" yaml:"finish"`
	IsLate        bool          `json:"is_late" yaml:"is_late"`
	Deviation     time.Duration `json:"deviation" yaml:"deviation"`
}

// Duration returns DurationHours as a time.Duration.
func (c AmperageCandidate) Duration() time.Duration {
	return HoursToDuration(c.DurationHours)
}

// Status classifies a recommendation.
type Status string

const (
	// StatusOptimal means the chosen rate finishes within tolerance of the target.
	StatusOptimal Status = "optimal"
	// StatusTooSlow means even the fastest rate finishes too late.
	StatusTooSlow Status = "tooSlow"
	// StatusTooFast means even the slowest rate finishes too early.
	StatusTooFast Status = "tooFast"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Recommendation is the planner output.
type Recommendation struct {
	Status          Status            `json:"status" yaml:"status"`
	Candidate       AmperageCandidate `json:"candidate" yaml:"candidate"`
	EnergyNeededKWh float64           `json:"energy_needed_kwh" yaml:"energy_needed_kwh"`
	Phases          int               `json:"phases" yaml:"phases"`
}

// MaxDuration is the longest representable duration, about 292 years.
const MaxDuration = time.Duration(math.MaxInt64)

// HoursToDuration converts fractional hours to a time.Duration, truncating
// below one nanosecond. Charges too long to represent saturate at
// MaxDuration instead of wrapping negative.
func HoursToDuration(h float64) time.Duration {
	ns := h * float64(time.Hour)
	switch {
	case math.IsNaN(ns):
		return 0
	case ns >= float64(math.MaxInt64):
		return MaxDuration
	case ns <= float64(math.MinInt64):
		return -MaxDuration
	}
	return time.Duration(ns)
}

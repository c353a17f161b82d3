package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargeplan/core/catalog"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
)

// DefaultsConfig holds the values used when a plan request leaves a field out.
type DefaultsConfig struct {
	VehicleID  string  `json:"vehicle_id"`
	Voltage    float64 `json:"voltage"`
	Phases     int     `json:"phases"`
	CurrentSoC float64 `json:"current_soc"`
	TargetSoC  float64 `json:"target_soc"`
	// TargetHour is the hour of the next day used as default completion time.
	TargetHour int    `json:"target_hour"`
	ClockZone  string `json:"clock_zone"`
}

// SetDefaults fills zero values. A zero current SoC is a valid input, so it
// only defaults together with the target.
func (c *DefaultsConfig) SetDefaults() {
	if c.VehicleID == "" {
		c.VehicleID = catalog.DefaultVehicleID
	}
	if c.Voltage == 0 {
		c.Voltage = planner.DefaultVoltage
	}
	if c.Phases == 0 {
		c.Phases = planner.DefaultPhases
	}
	if c.CurrentSoC == 0 && c.TargetSoC == 0 {
		c.CurrentSoC = planner.DefaultCurrentSoC
		c.TargetSoC = planner.DefaultTargetSoC
	}
	if c.TargetHour == 0 {
		c.TargetHour = planner.DefaultTargetHour
	}
	if c.ClockZone == "" {
		c.ClockZone = planner.DefaultClockZone
	}
}

// Validate checks the defaults are usable planner inputs.
func (c DefaultsConfig) Validate() error {
	if c.Voltage <= 0 {
		return fmt.Errorf("voltage must be positive")
	}
	if c.Phases != model.SinglePhase && c.Phases != model.ThreePhase {
		return fmt.Errorf("phases must be 1 or 3, got %d", c.Phases)
	}
	if c.CurrentSoC < 0 || c.CurrentSoC > 100 || c.TargetSoC < 0 || c.TargetSoC > 100 {
		return fmt.Errorf("soc must be within 0..100")
	}
	if c.TargetHour < 0 || c.TargetHour > 23 {
		return fmt.Errorf("target_hour must be within 0..23")
	}
	if _, err := time.LoadLocation(c.ClockZone); err != nil {
		return fmt.Errorf("clock_zone: %w", err)
	}
	return nil
}

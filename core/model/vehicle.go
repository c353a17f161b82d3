package model

import "fmt"

// VehicleClass is the body style of a catalog vehicle.
type VehicleClass string

const (
	ClassSedan VehicleClass = "sedan"
	ClassSUV   VehicleClass = "suv"
)

// Vehicle is a catalog record. Only CapacityKWh feeds the planner, the rest is
// presentation data.
type Vehicle struct {
	ID          string       `json:"id" yaml:"id"`
	Model       string       `json:"model" yaml:"model"`
	Trim        string       `json:"trim" yaml:"trim"`
	CapacityKWh float64      `json:"capacity_kwh" yaml:"capacity_kwh"`
	Class       VehicleClass `json:"class" yaml:"class"`
	Color       string       `json:"color" yaml:"color"`
	Facelift    bool         `json:"facelift" yaml:"facelift"`
}

// Validate checks that the vehicle record is sound.
// In particular CapacityKWh must be positive.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.CapacityKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive")
	}
	return nil
}

// DisplayName returns "<model> - <trim>".
func (v Vehicle) DisplayName() string {
	return fmt.Sprintf("%s - %s", v.Model, v.Trim)
}

package charging

import (
	"errors"

	"github.com/kilianp07/chargeplan/core/planner"
)

var (
	// ErrUnknownVehicle is returned when the requested vehicle is not in the
	// catalog and no capacity was given.
	ErrUnknownVehicle = errors.New("unknown vehicle")
	// ErrSetpointsDisabled is returned when a charger is targeted but no MQTT
	// client is configured.
	ErrSetpointsDisabled = errors.New("charger setpoints are disabled")
)

// Reasons added on top of the planner reasons.
const (
	ReasonUnknownVehicle    = "unknown_vehicle"
	ReasonSetpointsDisabled = "setpoints_disabled"
)

// Reason extends planner.Reason with the service errors.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownVehicle):
		return ReasonUnknownVehicle
	case errors.Is(err, ErrSetpointsDisabled):
		return ReasonSetpointsDisabled
	default:
		return planner.Reason(err)
	}
}

// IsInputError reports whether the caller can fix err by changing the request.
func IsInputError(err error) bool {
	return planner.IsInputError(err) || errors.Is(err, ErrUnknownVehicle) || errors.Is(err, ErrSetpointsDisabled)
}

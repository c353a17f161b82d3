package planner

import "errors"

var (
	// ErrPastTarget is returned when the target completion is not after now.
	ErrPastTarget = errors.New("target time is in the past")
	// ErrNoChargeNeeded is returned when the target SoC is already reached.
	ErrNoChargeNeeded = errors.New("battery is already at or above target")
	// ErrInvalidParameter is returned for non-physical inputs such as a
	// non-positive capacity or voltage.
	ErrInvalidParameter = errors.New("invalid charging parameter")
)

// Machine readable error reasons.
const (
	ReasonPastTarget       = "past_target"
	ReasonNoChargeNeeded   = "no_charge_needed"
	ReasonInvalidParameter = "invalid_parameter"
	ReasonUnknown          = "unknown"
)

// Reason maps an evaluation error to a short machine readable reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrPastTarget):
		return ReasonPastTarget
	case errors.Is(err, ErrNoChargeNeeded):
		return ReasonNoChargeNeeded
	case errors.Is(err, ErrInvalidParameter):
		return ReasonInvalidParameter
	default:
		return ReasonUnknown
	}
}

// IsInputError reports whether err is a user-correctable input condition.
func IsInputError(err error) bool {
	return Reason(err) != ReasonUnknown
}

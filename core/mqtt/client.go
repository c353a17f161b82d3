package mqtt

import "time"

// Client sends current setpoints to chargers and waits for their
// acknowledgments.
type Client interface {
	// SendSetpoint publishes the charging current for the given charger and
	// returns the command identifier used to track the acknowledgment.
	SendSetpoint(chargerID string, amps, phases int) (commandID string, err error)

	// WaitForAck waits for an acknowledgment for the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}

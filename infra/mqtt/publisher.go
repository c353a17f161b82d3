package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/chargeplan/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// Setpoint is a recorded command.
type Setpoint struct {
	ChargerID string
	Amps      int
	Phases    int
}

// MockPublisher is a simple in-memory client used in tests.
type MockPublisher struct {
	Setpoints  map[string]Setpoint
	FailIDs    map[string]bool
	NoAckIDs   map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Setpoints:  make(map[string]Setpoint),
		FailIDs:    make(map[string]bool),
		NoAckIDs:   make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// SendSetpoint records the setpoint or returns an error if configured to fail.
func (m *MockPublisher) SendSetpoint(chargerID string, amps, phases int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[chargerID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Setpoints[chargerID] = Setpoint{ChargerID: chargerID, Amps: amps, Phases: phases}
	commandID := fmt.Sprintf("cmd-%s", chargerID)
	m.AckResults[commandID] = !m.NoAckIDs[chargerID]
	return commandID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockPublisher) WaitForAck(commandID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[commandID]
	m.mu.Unlock()
	if !exists {
		return false, coremqtt.ErrUnknownCommand
	}
	if !ok {
		return false, coremqtt.ErrAckTimeout
	}
	return true, nil
}

// Last returns the setpoint recorded for the charger.
func (m *MockPublisher) Last(chargerID string) (Setpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.Setpoints[chargerID]
	return sp, ok
}

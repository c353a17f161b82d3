package mqtt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/infra/mqtt"
	"github.com/kilianp07/chargeplan/internal/chargersim"
	"github.com/kilianp07/chargeplan/test/util"
)

// TestSetpointRoundTrip sends a setpoint through a real broker to a simulated
// charger and waits for its acknowledgment.
func TestSetpointRoundTrip(t *testing.T) {
	util.RequireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	require.NoError(t, err)
	defer cleanup()

	cfg := mqtt.Config{Enabled: true, Broker: broker, ClientID: "planner", QoS: map[string]byte{"setpoint": 1, "ack": 1}}
	fleet := chargersim.NewFleet(chargersim.FleetConfig{MQTT: cfg, IDs: []string{"wallbox-1"}, CapacityKWh: 75, SoC: 20}, nil)
	simCtx, stopSim := context.WithCancel(ctx)
	simDone := make(chan error, 1)
	go func() { simDone <- chargersim.RunFleet(simCtx, cfg, fleet, nil) }()
	defer func() {
		stopSim()
		<-simDone
	}()

	cli, err := mqtt.NewPahoClient(cfg)
	require.NoError(t, err)
	defer cli.Disconnect()
	// let both subscriptions settle
	time.Sleep(300 * time.Millisecond)

	cmdID, err := cli.SendSetpoint("wallbox-1", 12, 3)
	require.NoError(t, err)
	ok, err := cli.WaitForAck(cmdID, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	sp := fleet[0].Setpoint()
	assert.Equal(t, cmdID, sp.CommandID)
	assert.Equal(t, 12, sp.Amps)
	assert.Equal(t, 3, sp.Phases)
}

func TestSetpointAckTimeoutWhenDropped(t *testing.T) {
	util.RequireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	require.NoError(t, err)
	defer cleanup()

	cfg := mqtt.Config{Enabled: true, Broker: broker, ClientID: "planner"}
	fleet := chargersim.NewFleet(chargersim.FleetConfig{MQTT: cfg, IDs: []string{"wallbox-2"}, DropRate: 1}, nil)
	simCtx, stopSim := context.WithCancel(ctx)
	simDone := make(chan error, 1)
	go func() { simDone <- chargersim.RunFleet(simCtx, cfg, fleet, nil) }()
	defer func() {
		stopSim()
		<-simDone
	}()

	cli, err := mqtt.NewPahoClient(cfg)
	require.NoError(t, err)
	defer cli.Disconnect()
	time.Sleep(300 * time.Millisecond)

	cmdID, err := cli.SendSetpoint("wallbox-2", 8, 1)
	require.NoError(t, err)
	ok, err := cli.WaitForAck(cmdID, 500*time.Millisecond)
	assert.False(t, ok)
	assert.Error(t, err)
}

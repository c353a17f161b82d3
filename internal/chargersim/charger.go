// Package chargersim simulates wall chargers that obey planner setpoints.
// Each charger listens on <prefix>/<id>/set, acknowledges on <prefix>/<id>/ack
// and charges a simulated battery at the commanded current.
package chargersim

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
	infralog "github.com/kilianp07/chargeplan/infra/logger"
)

// Setpoint is the last command accepted by a charger.
type Setpoint struct {
	CommandID string    `json:"command_id"`
	Amps      int       `json:"amps"`
	Phases    int       `json:"phases"`
	Received  time.Time `json:"received"`
}

// Charger is a simulated wall box.
type Charger struct {
	ID       string
	Prefix   string
	Voltage  float64
	Strategy AckStrategy
	Battery  *Battery
	// Interval is the wall clock tick; Speed multiplies the simulated time
	// elapsed per tick.
	Interval time.Duration
	Speed    float64
	Logger   logger.Logger

	client paho.Client
	queue  chan string

	mu        sync.Mutex
	setpoint  Setpoint
	delivered float64
}

// Run subscribes to the setpoint topic and charges until ctx is done.
func (c *Charger) Run(ctx context.Context, cli paho.Client) error {
	c.init(cli)
	topic := SetpointTopic(c.Prefix, c.ID)
	if token := cli.Subscribe(topic, 1, c.onSetpoint); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	c.Logger.Infof("%s listening on %s", c.ID, topic)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx)
		}()
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cli.Unsubscribe(topic)
			wg.Wait()
			return nil
		case <-ticker.C:
			c.Step(time.Duration(float64(c.Interval) * c.Speed))
		}
	}
}

func (c *Charger) init(cli paho.Client) {
	c.client = cli
	if c.queue == nil {
		c.queue = make(chan string, 16)
	}
	if c.Strategy == nil {
		c.Strategy = AutoAck{}
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Speed <= 0 {
		c.Speed = 1
	}
	if c.Voltage <= 0 {
		c.Voltage = planner.DefaultVoltage
	}
	if c.Logger == nil {
		c.Logger = infralog.NopLogger{}
	}
}

func (c *Charger) onSetpoint(_ paho.Client, msg paho.Message) {
	var cmd struct {
		CommandID string `json:"command_id"`
		Amps      int    `json:"amps"`
		Phases    int    `json:"phases"`
	}
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		c.Logger.Warnf("%s: decode setpoint: %v", c.ID, err)
		return
	}
	if cmd.Amps <= 0 || (cmd.Phases != model.SinglePhase && cmd.Phases != model.ThreePhase) {
		c.Logger.Warnf("%s: rejecting setpoint %dA x%d", c.ID, cmd.Amps, cmd.Phases)
		return
	}
	c.mu.Lock()
	c.setpoint = Setpoint{CommandID: cmd.CommandID, Amps: cmd.Amps, Phases: cmd.Phases, Received: time.Now()}
	c.mu.Unlock()
	c.Logger.Infof("%s: applying %dA x%d (%.2f kW)", c.ID, cmd.Amps, cmd.Phases,
		planner.PowerKW(c.Voltage, cmd.Amps, cmd.Phases))

	select {
	case c.queue <- cmd.CommandID:
	default:
		c.Logger.Warnf("%s: ack queue full, dropping %s", c.ID, cmd.CommandID)
	}
}

func (c *Charger) worker(ctx context.Context) {
	topic := AckTopic(c.Prefix, c.ID)
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-c.queue:
			if err := c.Strategy.Ack(ctx, c.client, topic, id); err != nil {
				c.Logger.Warnf("%s: ack %s: %v", c.ID, id, err)
			}
		}
	}
}

// Step charges the battery for dt at the current setpoint and returns the
// energy delivered.
func (c *Charger) Step(dt time.Duration) float64 {
	sp := c.Setpoint()
	if sp.Amps == 0 || c.Battery == nil || c.Battery.Full() {
		return 0
	}
	e := c.Battery.Charge(planner.PowerKW(c.Voltage, sp.Amps, sp.Phases), dt)
	c.mu.Lock()
	c.delivered += e
	c.mu.Unlock()
	if c.Battery.Full() {
		c.Logger.Infof("%s: battery full", c.ID)
	} else {
		c.Logger.Debugf("%s: soc %.1f%%", c.ID, c.Battery.SoC())
	}
	return e
}

// Setpoint returns the last accepted command.
func (c *Charger) Setpoint() Setpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setpoint
}

// Delivered returns the energy delivered since start in kWh.
func (c *Charger) Delivered() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

package chargersim

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/chargeplan/core/logger"
	infralog "github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/mqtt"
)

// FleetConfig describes a set of simulated chargers sharing one broker.
type FleetConfig struct {
	MQTT mqtt.Config
	// IDs names the chargers. When empty Count chargers named charger-01..
	// are created.
	IDs         []string
	Count       int
	CapacityKWh float64
	SoC         float64
	Voltage     float64
	Interval    time.Duration
	Speed       float64
	AckLatency  time.Duration
	DropRate    float64
}

// ChargerIDs returns the configured ids or generated ones.
func (c FleetConfig) ChargerIDs() []string {
	if len(c.IDs) > 0 {
		return c.IDs
	}
	ids := make([]string, 0, c.Count)
	for i := 1; i <= c.Count; i++ {
		ids = append(ids, fmt.Sprintf("charger-%02d", i))
	}
	return ids
}

// NewFleet builds one charger per id, each with its own battery.
func NewFleet(cfg FleetConfig, log logger.Logger) []*Charger {
	cfg.MQTT.SetDefaults()
	var strat AckStrategy = AutoAck{Delay: cfg.AckLatency}
	if cfg.DropRate > 0 {
		strat = RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	}
	ids := cfg.ChargerIDs()
	out := make([]*Charger, 0, len(ids))
	for _, id := range ids {
		out = append(out, &Charger{
			ID:       id,
			Prefix:   cfg.MQTT.SetpointPrefix,
			Voltage:  cfg.Voltage,
			Strategy: strat,
			Battery:  NewBattery(cfg.CapacityKWh, cfg.SoC),
			Interval: cfg.Interval,
			Speed:    cfg.Speed,
			Logger:   log,
		})
	}
	return out
}

var mqttClientFactory = realMQTTClient

func realMQTTClient(cfg mqtt.Config, clientID string) (paho.Client, error) {
	opts, err := mqtt.NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.SetClientID(clientID)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

// RunFleet connects every charger to the broker and blocks until ctx is done.
// Nothing runs unless every charger connects.
func RunFleet(ctx context.Context, cfg mqtt.Config, chargers []*Charger, log logger.Logger) error {
	if log == nil {
		log = infralog.NopLogger{}
	}
	cfg.SetDefaults()
	clients := make([]paho.Client, 0, len(chargers))
	for _, c := range chargers {
		cli, err := mqttClientFactory(cfg, "sim-"+c.ID)
		if err != nil {
			for _, cl := range clients {
				cl.Disconnect(250)
			}
			return fmt.Errorf("%s: %w", c.ID, err)
		}
		clients = append(clients, cli)
	}

	var wg sync.WaitGroup
	for i, c := range chargers {
		wg.Add(1)
		go func(c *Charger, cli paho.Client) {
			defer wg.Done()
			defer cli.Disconnect(250)
			if err := c.Run(ctx, cli); err != nil {
				log.Errorf("%s: %v", c.ID, err)
			}
		}(c, clients[i])
	}
	wg.Wait()
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/internal/chargersim"
)

func init() {
	rootCmd.AddCommand(newSimulateCommand())
}

func newSimulateCommand() *cobra.Command {
	var sim chargersim.FleetConfig
	cmd := &cobra.Command{
		Use:   "simulate [charger-id...]",
		Short: "Run simulated chargers that obey setpoints",
		Long: `Connect simulated chargers to the configured MQTT broker. Each charger
acknowledges the setpoints it receives and charges a simulated battery at the
commanded current.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.MQTT.Broker == "" {
				return fmt.Errorf("mqtt.broker is required")
			}
			if sim.Voltage == 0 {
				sim.Voltage = cfg.Defaults.Voltage
			}
			sim.IDs = args
			sim.MQTT = cfg.MQTT

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.New("chargersim")
			fleet := chargersim.NewFleet(sim, log)
			log.Infof("starting %d simulated chargers", len(fleet))
			return chargersim.RunFleet(ctx, cfg.MQTT, fleet, log)
		},
	}
	f := cmd.Flags()
	f.IntVar(&sim.Count, "count", 1, "number of chargers when no id is given")
	f.Float64Var(&sim.CapacityKWh, "capacity", 75, "battery capacity in kWh")
	f.Float64Var(&sim.SoC, "soc", 20, "initial state of charge in percent")
	f.Float64Var(&sim.Voltage, "voltage", 0, "supply voltage, defaults to defaults.voltage")
	f.DurationVar(&sim.Interval, "interval", time.Second, "simulation tick")
	f.Float64Var(&sim.Speed, "speed", 60, "simulated seconds per wall clock second")
	f.DurationVar(&sim.AckLatency, "ack-latency", 0, "delay before acknowledging")
	f.Float64Var(&sim.DropRate, "drop-rate", 0, "probability of dropping an acknowledgment")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/catalog"
	"github.com/kilianp07/chargeplan/core/charging"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/mqtt"
	"github.com/kilianp07/chargeplan/internal/wizard"
	"github.com/kilianp07/chargeplan/pkg/export"
)

type planOptions struct {
	vehicle     string
	capacity    float64
	current     float64
	target      float64
	voltage     float64
	phases      int
	by          string
	now         string
	format      string
	charger     string
	candidates  bool
	interactive bool
}

func init() {
	rootCmd.AddCommand(newPlanCommand())
}

func newPlanCommand() *cobra.Command {
	o := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Recommend a charging current",
		Long: `Recommend the charging current that finishes closest to the target time.

Omitted values come from the "defaults" configuration section. --by accepts a
wall clock time (next occurrence) or an RFC3339 timestamp; without it the
target is tomorrow at defaults.target_hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.vehicle, "vehicle", "v", "", "vehicle id from the catalog")
	f.Float64Var(&o.capacity, "capacity", 0, "battery capacity in kWh, overrides the vehicle")
	f.Float64Var(&o.current, "current", 0, "current state of charge in percent")
	f.Float64Var(&o.target, "target", 0, "target state of charge in percent")
	f.Float64Var(&o.voltage, "voltage", 0, "supply voltage")
	f.IntVar(&o.phases, "phases", 0, "number of phases (1 or 3)")
	f.StringVar(&o.by, "by", "", "target completion, HH:MM or RFC3339")
	f.StringVar(&o.now, "now", "", "evaluation time as RFC3339")
	f.StringVarP(&o.format, "format", "o", "table", "output format: table, json, yaml, csv")
	f.StringVar(&o.charger, "charger", "", "send the recommended current to this charger over MQTT")
	f.BoolVar(&o.candidates, "candidates", false, "include every evaluated amperage")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "fill the inputs with a form")
	_ = f.MarkHidden("now")
	return cmd
}

func runPlan(cmd *cobra.Command, o *planOptions) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := app.BuildCatalog(cfg)
	if err != nil {
		return err
	}
	now, err := planNow(o.now, cfg.Defaults.ClockZone)
	if err != nil {
		return err
	}

	a := defaultAnswers(cfg.Defaults, now)
	applyFlags(cmd, o, &a)
	if o.interactive {
		if a, err = wizard.Run(cmd.InOrStdin(), cmd.ErrOrStderr(), cat.List(), a); err != nil {
			return err
		}
	}

	window := model.TimeWindow{Now: now}
	if window.TargetCompletion, err = targetCompletion(o, a, now, cfg.Defaults.TargetHour); err != nil {
		return err
	}

	svc, closeFn, err := newPlanService(cfg, cat, o.charger != "")
	if err != nil {
		return err
	}
	defer closeFn()

	vehicleID := a.VehicleID
	if o.capacity > 0 && !cmd.Flags().Changed("vehicle") {
		vehicleID = ""
	}
	res, err := svc.Plan(context.Background(), charging.Request{
		Source:    coremetrics.SourceCLI,
		VehicleID: vehicleID,
		ChargerID: o.charger,
		Params: model.ChargingParameters{
			BatteryCapacityKWh: o.capacity,
			CurrentSoC:         a.CurrentSoC,
			TargetSoC:          a.TargetSoC,
			SupplyVoltage:      a.Voltage,
			Phases:             a.Phases,
		},
		Window:            window,
		IncludeCandidates: o.candidates,
	})
	if err != nil {
		if charging.IsInputError(err) {
			return fmt.Errorf("cannot plan (%s): %w", charging.Reason(err), err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if format == export.FormatTable {
		fmt.Fprintf(out, "%s %s\n", planner.ClockString(now, cfg.Defaults.ClockZone), cfg.Defaults.ClockZone) //nolint:errcheck
		if res.Vehicle != nil {
			fmt.Fprintf(out, "%s (%g kWh)\n", res.Vehicle.DisplayName(), res.Vehicle.CapacityKWh) //nolint:errcheck
		}
		fmt.Fprintln(out) //nolint:errcheck
	}
	if err := export.Write(out, format, export.Report{
		Params:         res.Params,
		Window:         res.Window,
		Recommendation: res.Recommendation,
		Duration:       res.Duration,
		Message:        res.Message,
		Candidates:     res.Candidates,
	}); err != nil {
		return err
	}
	if sp := res.Setpoint; sp != nil {
		status := "acknowledged"
		if !sp.Acknowledged {
			status = "not acknowledged: " + sp.Error
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "setpoint %dA x%d sent to %s, %s\n", sp.Amps, sp.Phases, sp.ChargerID, status) //nolint:errcheck
	}
	return nil
}

// newPlanService builds a one-shot charging service logging to stderr.
func newPlanService(cfg *config.Config, cat *catalog.Catalog, withSetpoints bool) (*charging.Service, func(), error) {
	eval, err := planner.New(cfg.Planner)
	if err != nil {
		return nil, nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics sink: %w", err)
	}
	opts := charging.Options{
		Catalog:          cat,
		Sink:             sink,
		AckTimeout:       cfg.MQTT.AckTimeout(),
		DefaultVehicleID: cfg.Defaults.VehicleID,
		Logger:           logger.NewZerologLoggerWithWriter("plan", os.Stderr),
	}
	closeFn := func() { app.CloseSink(sink) }
	if withSetpoints && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			app.CloseSink(sink)
			return nil, nil, fmt.Errorf("mqtt client: %w", err)
		}
		opts.Setpoints = client
		closeFn = func() {
			client.Disconnect()
			app.CloseSink(sink)
		}
	}
	return charging.NewService(eval, opts), closeFn, nil
}

func planNow(flag, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	if flag == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.Parse(time.RFC3339, flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return t.In(loc), nil
}

// targetCompletion resolves the target instant. An RFC3339 --by is taken as
// is and an HH:MM one, or a clock typed in the form, means its next
// occurrence. Without --by, keeping the default clock means tomorrow at the
// target hour whether or not the form was shown.
func targetCompletion(o *planOptions, a wizard.Answers, now time.Time, hour int) (time.Time, error) {
	if strings.Contains(o.by, "T") {
		t, err := time.Parse(time.RFC3339, o.by)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --by: %w", err)
		}
		return t, nil
	}
	def := planner.DefaultTarget(now, hour)
	if o.by == "" && (a.Target == "" || a.Target == planner.FormatClock(def)) {
		return def, nil
	}
	return wizard.ResolveTarget(now, a.Target)
}

func defaultAnswers(d config.DefaultsConfig, now time.Time) wizard.Answers {
	return wizard.Answers{
		VehicleID:  d.VehicleID,
		CurrentSoC: d.CurrentSoC,
		TargetSoC:  d.TargetSoC,
		Voltage:    d.Voltage,
		Phases:     d.Phases,
		Target:     planner.FormatClock(planner.DefaultTarget(now, d.TargetHour)),
	}
}

func applyFlags(cmd *cobra.Command, o *planOptions, a *wizard.Answers) {
	f := cmd.Flags()
	if f.Changed("vehicle") {
		a.VehicleID = o.vehicle
	}
	if f.Changed("current") {
		a.CurrentSoC = o.current
	}
	if f.Changed("target") {
		a.TargetSoC = o.target
	}
	if f.Changed("voltage") {
		a.Voltage = o.voltage
	}
	if f.Changed("phases") {
		a.Phases = o.phases
	}
	if o.by != "" && !strings.Contains(o.by, "T") {
		a.Target = o.by
	}
}

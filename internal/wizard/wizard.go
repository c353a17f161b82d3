// Package wizard collects plan inputs interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
)

// Answers holds the values collected by the plan form.
type Answers struct {
	VehicleID  string
	CurrentSoC float64
	TargetSoC  float64
	Voltage    float64
	Phases     int
	// Target is a wall clock time "15:04" resolved by ResolveTarget.
	Target string
}

// Run shows the plan form prefilled with defaults. vehicles feeds the vehicle
// select. Non-terminal input switches the form to accessible mode.
func Run(in io.Reader, out io.Writer, vehicles []model.Vehicle, defaults Answers) (Answers, error) {
	var (
		vehicleID = defaults.VehicleID
		current   = formatFloat(defaults.CurrentSoC)
		target    = formatFloat(defaults.TargetSoC)
		voltage   = formatFloat(defaults.Voltage)
		phases    = defaults.Phases
		clock     = defaults.Target
	)

	opts := make([]huh.Option[string], 0, len(vehicles))
	for _, v := range vehicles {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%g kWh)", v.DisplayName(), v.CapacityKWh), v.ID))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Vehicle").
				Options(opts...).
				Value(&vehicleID),
			huh.NewInput().
				Title("Current charge (%)").
				Value(&current).
				Validate(ValidateSoC),
			huh.NewInput().
				Title("Target charge (%)").
				Value(&target).
				Validate(func(s string) error {
					if err := ValidateSoC(s); err != nil {
						return err
					}
					cur, _ := strconv.ParseFloat(strings.TrimSpace(current), 64)
					tgt, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if tgt <= cur {
						return fmt.Errorf("target must be above the current charge")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Supply").
				Options(
					huh.NewOption("Three-phase", model.ThreePhase),
					huh.NewOption("Single-phase", model.SinglePhase),
				).
				Value(&phases),
			huh.NewInput().
				Title("Voltage (V)").
				Value(&voltage).
				Validate(ValidateVoltage),
			huh.NewInput().
				Title("Finish by (HH:MM)").
				Value(&clock).
				Validate(ValidateClock),
		),
	).
		WithInput(in).
		WithOutput(out)

	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return Answers{}, fmt.Errorf("wizard failed: %w", err)
	}

	a := Answers{VehicleID: vehicleID, Phases: phases, Target: strings.TrimSpace(clock)}
	a.CurrentSoC, _ = strconv.ParseFloat(strings.TrimSpace(current), 64)
	a.TargetSoC, _ = strconv.ParseFloat(strings.TrimSpace(target), 64)
	a.Voltage, _ = strconv.ParseFloat(strings.TrimSpace(voltage), 64)
	a.CurrentSoC, a.TargetSoC = planner.ClampSoC(a.CurrentSoC, a.TargetSoC, planner.SliderTarget)
	return a, nil
}

// ValidateSoC accepts a percentage in [0,100].
func ValidateSoC(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}

// ValidateVoltage accepts a positive voltage.
func ValidateVoltage(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive voltage")
	}
	return nil
}

// ValidateClock accepts "15:04".
func ValidateClock(s string) error {
	if _, err := time.Parse("15:04", strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

// ResolveTarget returns the next occurrence of the wall clock time clock
// after now, in now's location.
func ResolveTarget(now time.Time, clock string) (time.Time, error) {
	hm, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	y, m, d := now.Date()
	t := time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, now.Location())
	if !t.After(now) {
		t = time.Date(y, m, d+1, hm.Hour(), hm.Minute(), 0, 0, now.Location())
	}
	return t, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

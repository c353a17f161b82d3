package planner

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/chargeplan/core/model"
)

// Evaluator selects a charging current for a battery and a time window.
// It holds only immutable policy and is safe for concurrent use.
type Evaluator struct {
	cfg Config
}

// New returns an Evaluator for the given policy. Zero values are replaced by
// the defaults.
func New(cfg Config) (*Evaluator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg}, nil
}

// NewDefault returns an Evaluator using DefaultConfig.
func NewDefault() *Evaluator {
	return &Evaluator{cfg: DefaultConfig()}
}

// Config returns the policy used by the evaluator.
func (e *Evaluator) Config() Config { return e.cfg }

// Evaluate runs the default evaluator.
func Evaluate(p model.ChargingParameters, w model.TimeWindow) (model.Recommendation, error) {
	return NewDefault().Evaluate(p, w)
}

// EnergyNeeded returns the energy in kWh required to go from current to target
// SoC. It is zero when target does not exceed current.
func EnergyNeeded(capacityKWh, currentSoC, targetSoC float64) float64 {
	return capacityKWh * math.Max(0, targetSoC-currentSoC) / 100
}

// PowerKW returns the delivered power for the given supply.
func PowerKW(voltage float64, amps, phases int) float64 {
	return voltage * float64(amps) * float64(phases) / 1000
}

// Candidates validates the inputs and returns one candidate per amperage of
// the configured range, in ascending order.
func (e *Evaluator) Candidates(p model.ChargingParameters, w model.TimeWindow) ([]model.AmperageCandidate, error) {
	if err := validate(p, w); err != nil {
		return nil, err
	}
	energy := EnergyNeeded(p.BatteryCapacityKWh, p.CurrentSoC, p.TargetSoC)
	return e.scan(energy, p, w), nil
}

// Evaluate returns the recommended charging current.
//
// The candidate closest to the target wins, with the lowest amperage taking
// ties. When the fastest rate is still late beyond the lateness tolerance the
// result is StatusTooSlow with the fastest candidate; when the slowest rate is
// early beyond the earliness tolerance it is StatusTooFast with the slowest
// candidate.
func (e *Evaluator) Evaluate(p model.ChargingParameters, w model.TimeWindow) (model.Recommendation, error) {
	if err := validate(p, w); err != nil {
		return model.Recommendation{}, err
	}
	energy := EnergyNeeded(p.BatteryCapacityKWh, p.CurrentSoC, p.TargetSoC)
	cands := e.scan(energy, p, w)

	rec := model.Recommendation{
		Status:          model.StatusOptimal,
		Candidate:       best(cands),
		EnergyNeededKWh: energy,
		Phases:          p.Phases,
	}

	slowest, fastest := cands[0], cands[len(cands)-1]
	switch {
	case fastest.IsLate && fastest.Finish.Sub(w.TargetCompletion) > e.cfg.Tolerances.Late():
		rec.Status = model.StatusTooSlow
		rec.Candidate = fastest
	case !slowest.IsLate && w.TargetCompletion.Sub(slowest.Finish) > e.cfg.Tolerances.Early():
		rec.Status = model.StatusTooFast
		rec.Candidate = slowest
	}
	return rec, nil
}

func (e *Evaluator) scan(energy float64, p model.ChargingParameters, w model.TimeWindow) []model.AmperageCandidate {
	out := make([]model.AmperageCandidate, 0, e.cfg.Amperage.Len())
	for _, amps := range e.cfg.Amperage.Values() {
		out = append(out, candidate(amps, energy, p, w))
	}
	return out
}

func candidate(amps int, energy float64, p model.ChargingParameters, w model.TimeWindow) model.AmperageCandidate {
	c := model.AmperageCandidate{
		Amps:    amps,
		PowerKW: PowerKW(p.SupplyVoltage, amps, p.Phases),
	}
	c.DurationHours = energy / c.PowerKW
	// Duration saturates for charges longer than ~292 years, which keeps
	// Finish after the target and Deviation positive.
	c.Finish = w.Now.Add(c.Duration())
	c.IsLate = c.Finish.After(w.TargetCompletion)
	c.Deviation = c.Finish.Sub(w.TargetCompletion)
	if !c.IsLate {
		c.Deviation = w.TargetCompletion.Sub(c.Finish)
	}
	return c
}

// best returns the candidate with the smallest deviation. floats.MinIdx keeps
// the first minimum so the lowest amperage wins ties.
func best(cands []model.AmperageCandidate) model.AmperageCandidate {
	devs := make([]float64, len(cands))
	for i, c := range cands {
		devs[i] = float64(c.Deviation)
	}
	return cands[floats.MinIdx(devs)]
}

func validate(p model.ChargingParameters, w model.TimeWindow) error {
	if !positive(p.BatteryCapacityKWh) {
		return fmt.Errorf("%w: battery capacity %v kWh", ErrInvalidParameter, p.BatteryCapacityKWh)
	}
	if !positive(p.SupplyVoltage) {
		return fmt.Errorf("%w: supply voltage %v V", ErrInvalidParameter, p.SupplyVoltage)
	}
	if p.Phases != model.SinglePhase && p.Phases != model.ThreePhase {
		return fmt.Errorf("%w: phase count %d", ErrInvalidParameter, p.Phases)
	}
	if !percent(p.CurrentSoC) || !percent(p.TargetSoC) {
		return fmt.Errorf("%w: state of charge %v%% -> %v%%", ErrInvalidParameter, p.CurrentSoC, p.TargetSoC)
	}
	if w.Available() <= 0 {
		return fmt.Errorf("%w: %s is not after %s", ErrPastTarget,
			w.TargetCompletion.Format(time.RFC3339), w.Now.Format(time.RFC3339))
	}
	if p.TargetSoC <= p.CurrentSoC {
		return fmt.Errorf("%w: %v%% >= %v%%", ErrNoChargeNeeded, p.CurrentSoC, p.TargetSoC)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func percent(v float64) bool {
	return v >= 0 && v <= 100
}

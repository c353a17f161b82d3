package planner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default policy values.
const (
	DefaultMinAmps      = 5
	DefaultMaxAmps      = 16
	DefaultLateMinutes  = 30
	DefaultEarlyMinutes = 120
)

// AmperageRange is the closed range of integer currents a charger accepts.
type AmperageRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// DefaultAmperageRange is the continuous current range of a typical onboard AC
// charger.
var DefaultAmperageRange = AmperageRange{Min: DefaultMinAmps, Max: DefaultMaxAmps}

// Validate checks that the range is non-empty and positive.
func (r AmperageRange) Validate() error {
	if r.Min <= 0 {
		return fmt.Errorf("amperage min must be positive, got %d", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("amperage max %d below min %d", r.Max, r.Min)
	}
	return nil
}

// Len returns the number of candidates in the range.
func (r AmperageRange) Len() int { return r.Max - r.Min + 1 }

// Values returns every amperage in ascending order.
func (r AmperageRange) Values() []int {
	out := make([]int, 0, r.Len())
	for a := r.Min; a <= r.Max; a++ {
		out = append(out, a)
	}
	return out
}

// Contains reports whether amps lies in the range.
func (r AmperageRange) Contains(amps int) bool {
	return amps >= r.Min && amps <= r.Max
}

// Tolerances are the policy bounds used to classify a plan. Late is how far
// the fastest rate may overshoot the target, Early how far the slowest rate may
// undershoot it. A nil field takes the default; an explicit 0 disables the
// slack entirely.
type Tolerances struct {
	LateMinutes  *int `json:"late_minutes,omitempty" yaml:"late_minutes,omitempty"`
	EarlyMinutes *int `json:"early_minutes,omitempty" yaml:"early_minutes,omitempty"`
}

// Minutes returns a pointer to n for building Tolerances literals.
func Minutes(n int) *int { return &n }

// Late returns the lateness tolerance.
func (t Tolerances) Late() time.Duration { return minutesOr(t.LateMinutes, DefaultLateMinutes) }

// Early returns the earliness tolerance.
func (t Tolerances) Early() time.Duration { return minutesOr(t.EarlyMinutes, DefaultEarlyMinutes) }

func minutesOr(v *int, def int) time.Duration {
	if v == nil {
		return time.Duration(def) * time.Minute
	}
	return time.Duration(*v) * time.Minute
}

// Config holds the planner policy.
type Config struct {
	Amperage   AmperageRange `json:"amperage" yaml:"amperage"`
	Tolerances Tolerances    `json:"tolerances" yaml:"tolerances"`
}

// DefaultConfig returns the 5..16 A range with 30 min / 2 h tolerances.
func DefaultConfig() Config {
	return Config{
		Amperage:   DefaultAmperageRange,
		Tolerances: Tolerances{LateMinutes: Minutes(DefaultLateMinutes), EarlyMinutes: Minutes(DefaultEarlyMinutes)},
	}
}

// SetDefaults fills an empty range and unset tolerances with the defaults.
func (c *Config) SetDefaults() {
	if c.Amperage.Min == 0 && c.Amperage.Max == 0 {
		c.Amperage = DefaultAmperageRange
	}
	if c.Tolerances.LateMinutes == nil {
		c.Tolerances.LateMinutes = Minutes(DefaultLateMinutes)
	}
	if c.Tolerances.EarlyMinutes == nil {
		c.Tolerances.EarlyMinutes = Minutes(DefaultEarlyMinutes)
	}
}

// Validate checks the range and tolerances.
func (c Config) Validate() error {
	if err := c.Amperage.Validate(); err != nil {
		return err
	}
	if c.Tolerances.Late() < 0 || c.Tolerances.Early() < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}
	return nil
}

// LoadConfig loads a planner Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return DecodeConfig(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeConfig reads from r to decode a Config. Defaults are applied to
// missing values and the result is validated.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

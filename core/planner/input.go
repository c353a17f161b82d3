package planner

import (
	"time"

	_ "time/tzdata" // embedded zone database for ClockString
)

// Default inputs used when the caller does not provide them.
const (
	DefaultVoltage    = 220
	DefaultPhases     = 3
	DefaultCurrentSoC = 20
	DefaultTargetSoC  = 100
	DefaultTargetHour = 8
	DefaultClockZone  = "Asia/Hong_Kong"
)

// Slider identifies which SoC value the user moved.
type Slider int

const (
	SliderCurrent Slider = iota
	SliderTarget
)

// ClampSoC keeps current <= target. Moving the current slider above the
// target drags the target up; moving the target below the current drags the
// current down. Values are bounded to [0,100].
func ClampSoC(current, target float64, moved Slider) (float64, float64) {
	current = bound(current)
	target = bound(target)
	if current <= target {
		return current, target
	}
	if moved == SliderTarget {
		return target, target
	}
	return current, current
}

func bound(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// DefaultTarget returns tomorrow at hour:00 in now's location.
func DefaultTarget(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
}

// ClockString renders now as "15:04:05" in the named zone. Unknown zones fall
// back to UTC.
func ClockString(now time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format("15:04:05")
}

package chargersim

import (
	"sync"
	"time"
)

// Battery models the pack behind a simulated charger.
type Battery struct {
	CapacityKWh float64
	soc         float64 // percent [0,100]
	mu          sync.Mutex
}

// NewBattery returns a battery at the given state of charge.
func NewBattery(capacityKWh, soc float64) *Battery {
	b := &Battery{CapacityKWh: capacityKWh}
	b.soc = clamp(soc)
	return b
}

// Charge adds powerKW for dt and returns the energy actually stored in kWh.
// The pack never goes above 100%.
func (b *Battery) Charge(powerKW float64, dt time.Duration) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	hours := dt.Hours()
	if hours <= 0 || powerKW <= 0 || b.CapacityKWh <= 0 {
		return 0
	}
	energy := powerKW * hours
	if room := (100 - b.soc) / 100 * b.CapacityKWh; energy >= room {
		b.soc = 100
		return room
	}
	b.soc = clamp(b.soc + energy/b.CapacityKWh*100)
	return energy
}

// SoC returns the state of charge in percent.
func (b *Battery) SoC() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.soc
}

// Full reports whether the pack reached 100%.
func (b *Battery) Full() bool { return b.SoC() >= 100 }

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

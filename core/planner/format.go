package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
)

// FormatDuration renders fractional hours as "5h 41m". Minutes are rounded on
// the total so the output never reads "60m".
func FormatDuration(hours float64) string {
	if hours < 0 || math.IsNaN(hours) {
		hours = 0
	}
	total := int(math.Round(hours * 60))
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// FormatClock renders t as a 24h "15:04" wall clock time.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// Message is a human readable banner for a status.
type Message struct {
	Title  string `json:"title" yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

// StatusMessage returns the banner shown for a recommendation status.
func StatusMessage(s model.Status, r AmperageRange) Message {
	switch s {
	case model.StatusTooSlow:
		return Message{
			Title:  "Cannot finish in time!",
			Detail: fmt.Sprintf("Even at max speed (%dA), you will be late. Increase time or accept lower charge.", r.Max),
		}
	case model.StatusTooFast:
		return Message{
			Title:  "Plenty of time",
			Detail: fmt.Sprintf("Even at the lowest setting (%dA), charging will finish early. This is the slowest possible rate.", r.Min),
		}
	default:
		return Message{
			Title:  "Optimized",
			Detail: "This rate finishes closest to your target time to minimize idle fees.",
		}
	}
}

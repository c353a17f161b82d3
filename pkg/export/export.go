// Package export renders charge plans for the CLI and file exports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/planner"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts the format names case-insensitively. "yml" maps to YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown format %q (table, json, yaml, csv)", s)
	}
}

// Report bundles a recommendation with the inputs and every evaluated
// candidate.
type Report struct {
	Params         model.ChargingParameters  `json:"params" yaml:"params"`
	Window         model.TimeWindow          `json:"window" yaml:"window"`
	Recommendation model.Recommendation      `json:"recommendation" yaml:"recommendation"`
	Duration       string                    `json:"duration" yaml:"duration"`
	Message        planner.Message           `json:"message" yaml:"message"`
	Candidates     []model.AmperageCandidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// Write renders r to w in the given format.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatCSV:
		cands := r.Candidates
		if len(cands) == 0 {
			cands = []model.AmperageCandidate{r.Recommendation.Candidate}
		}
		return WriteCSV(w, cands)
	case FormatTable, "":
		return WriteTable(w, r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{"amps", "power_kw", "duration_hours", "finish", "is_late", "deviation_minutes"}

// WriteCSV writes one row per candidate.
func WriteCSV(w io.Writer, cands []model.AmperageCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range cands {
		rec := []string{
			strconv.Itoa(c.Amps),
			strconv.FormatFloat(c.PowerKW, 'f', -1, 64),
			strconv.FormatFloat(c.DurationHours, 'f', 4, 64),
			c.Finish.Format(time.RFC3339),
			strconv.FormatBool(c.IsLate),
			strconv.FormatFloat(c.Deviation.Minutes(), 'f', 1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable prints the banner, the recommendation and, when present, the
// candidate grid with the chosen row marked.
func WriteTable(w io.Writer, r Report) error {
	rec := r.Recommendation
	c := rec.Candidate
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", r.Message.Title, r.Message.Detail)
	fmt.Fprintf(&b, "%s %dA x%d (%.2f kW)\n", padRight("Charging current", 18), c.Amps, rec.Phases, c.PowerKW)
	fmt.Fprintf(&b, "%s %.2f kWh\n", padRight("Energy needed", 18), rec.EnergyNeededKWh)
	fmt.Fprintf(&b, "%s %s\n", padRight("Duration", 18), r.Duration)
	fmt.Fprintf(&b, "%s %s\n", padRight("Finish", 18), planner.FormatClock(c.Finish))
	fmt.Fprintf(&b, "%s %s\n", padRight("Target", 18), planner.FormatClock(r.Window.TargetCompletion))

	if len(r.Candidates) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s %s %s %s\n",
			padRight("A", 4), padRight("kW", 7), padRight("time", 8), padRight("finish", 7), "off by")
		for _, cand := range r.Candidates {
			mark := " "
			if cand.Amps == c.Amps {
				mark = "▸"
			}
			sign := "-"
			if cand.IsLate {
				sign = "+"
			}
			fmt.Fprintf(&b, "%s %s %s %s %s %s%s\n", mark,
				padRight(strconv.Itoa(cand.Amps), 4),
				padRight(strconv.FormatFloat(cand.PowerKW, 'f', 2, 64), 7),
				padRight(planner.FormatDuration(cand.DurationHours), 8),
				padRight(planner.FormatClock(cand.Finish), 7),
				sign, planner.FormatDuration(cand.Deviation.Hours()))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteVehicles prints the catalog as a table, marking the default vehicle.
func WriteVehicles(w io.Writer, vehicles []model.Vehicle, defaultID string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s %s %s\n", padRight("ID", 10), padRight("Model", 20), padRight("Trim", 22), "kWh")
	for _, v := range vehicles {
		mark := " "
		if v.ID == defaultID {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s %s %s %g\n", mark,
			padRight(v.ID, 10), padRight(v.Model, 20), padRight(v.Trim, 22), v.CapacityKWh)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

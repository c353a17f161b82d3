// Package history keeps a queryable log of plan evaluations.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

// Kind tells accepted plans from rejected requests.
type Kind string

const (
	KindPlan  Kind = "plan"
	KindError Kind = "error"
)

// Record is one history entry.
type Record struct {
	ID        string       `json:"id"`
	Time      time.Time    `json:"time"`
	Kind      Kind         `json:"kind"`
	Source    string       `json:"source"`
	VehicleID string       `json:"vehicle_id,omitempty"`
	ChargerID string       `json:"charger_id,omitempty"`
	Status    model.Status `json:"status,omitempty"`
	Amps      int          `json:"amps,omitempty"`
	Phases    int          `json:"phases,omitempty"`
	EnergyKWh float64      `json:"energy_kwh,omitempty"`
	Finish    *time.Time   `json:"finish,omitempty"`
	Target    *time.Time   `json:"target,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// FromPlan converts an accepted evaluation.
func FromPlan(ev metrics.PlanEvent) Record {
	finish := ev.Recommendation.Candidate.Finish
	target := ev.Window.TargetCompletion
	return Record{
		ID:        ev.ID,
		Time:      ev.Time,
		Kind:      KindPlan,
		Source:    ev.Source,
		VehicleID: ev.VehicleID,
		ChargerID: ev.ChargerID,
		Status:    ev.Recommendation.Status,
		Amps:      ev.Recommendation.Candidate.Amps,
		Phases:    ev.Recommendation.Phases,
		EnergyKWh: ev.Recommendation.EnergyNeededKWh,
		Finish:    &finish,
		Target:    &target,
	}
}

// FromError converts a rejected request.
func FromError(ev metrics.PlanErrorEvent) Record {
	return Record{
		ID:     ev.ID,
		Time:   ev.Time,
		Kind:   KindError,
		Source: ev.Source,
		Reason: ev.Reason,
		Error:  ev.Error,
	}
}

// Query filters records. Zero fields match everything. Limit keeps the most
// recent records.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	Status    model.Status
	Kind      Kind
	Limit     int
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// Filter returns the records matching q ordered by time, trimmed to Limit.
func (q Query) Filter(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// Store persists records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

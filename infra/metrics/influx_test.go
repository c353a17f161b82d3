package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
)

func captureServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func TestInfluxSink_RecordPlan(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC)
	ev := coremetrics.PlanEvent{
		ID:        "p1",
		Source:    coremetrics.SourceAPI,
		VehicleID: "my-lr",
		Params:    model.ChargingParameters{BatteryCapacityKWh: 75, CurrentSoC: 20, TargetSoC: 100, SupplyVoltage: 220, Phases: 3},
		Recommendation: model.Recommendation{
			Status:          model.StatusTooSlow,
			EnergyNeededKWh: 60,
			Phases:          3,
			Candidate: model.AmperageCandidate{
				Amps: 16, PowerKW: 10.56, DurationHours: 5.6818181, IsLate: true, Deviation: 41 * time.Minute,
			},
		},
		Time: now,
	}
	if err := sink.RecordPlan(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("charge_plan").
		AddTag("status", "tooSlow").
		AddTag("source", "api").
		AddTag("phases", "3").
		AddTag("vehicle_id", "my-lr").
		AddField("plan_id", "p1").
		AddField("amps", 16).
		AddField("power_kw", 10.56).
		AddField("duration_hours", 5.682).
		AddField("energy_kwh", 60.0).
		AddField("deviation_s", 2460.0).
		AddField("is_late", true).
		AddField("soc_current", 20.0).
		AddField("soc_target", 100.0).
		AddField("voltage", 220.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(*bodies) != 1 || (*bodies)[0] != expected {
		t.Errorf("unexpected bodies: %#v", *bodies)
	}
}

func TestInfluxSink_RecordPlanError(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.PlanErrorEvent{Reason: "past_target", Source: "cli", Error: "target time is in the past", Time: now}
	if err := sink.RecordPlanError(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("charge_plan_error").
		AddTag("reason", "past_target").
		AddTag("source", "cli").
		AddField("error", "target time is in the past").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(*bodies) != 1 || (*bodies)[0] != exp {
		t.Errorf("bodies: %#v", *bodies)
	}
}

func TestInfluxSink_RecordSetpoint(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.SetpointEvent{
		CommandID: "c1", ChargerID: "wb1", Amps: 11, Phases: 3,
		Acknowledged: true, Latency: time.Second, Time: now,
	}
	if err := sink.RecordSetpoint(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("charger_setpoint").
		AddTag("charger_id", "wb1").
		AddTag("acknowledged", "true").
		AddField("command_id", "c1").
		AddField("amps", 11).
		AddField("phases", 3).
		AddField("latency_ms", 1000.0).
		AddField("errors", "").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(*bodies) != 1 || (*bodies)[0] != exp {
		t.Errorf("bodies: %#v", *bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestInfluxFactory(t *testing.T) {
	_, err := newInfluxFromConf(map[string]any{"bucket": "charging"})
	if err == nil {
		t.Fatal("expected missing url error")
	}
	_, err = newInfluxFromConf(map[string]any{"url": "http://influx:8086"})
	if err == nil {
		t.Fatal("expected missing bucket error")
	}

	srv, _ := captureServer(t)
	s, err := newInfluxFromConf(map[string]any{"url": srv.URL, "bucket": "charging", "skip_health_check": "true"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sink, ok := s.(*InfluxSink)
	if !ok {
		t.Fatalf("expected *InfluxSink, got %T", s)
	}
	sink.Close()
}

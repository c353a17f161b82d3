package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// InfluxSink writes plan events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordPlan writes the evaluated plan as a charge_plan point.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, planPoint(ev))
}

func planPoint(ev coremetrics.PlanEvent) *write.Point {
	rec := ev.Recommendation
	c := rec.Candidate
	p := write.NewPointWithMeasurement("charge_plan").
		AddTag("status", rec.Status.String()).
		AddTag("source", ev.Source).
		AddTag("phases", strconv.Itoa(rec.Phases))
	if ev.VehicleID != "" {
		p = p.AddTag("vehicle_id", ev.VehicleID)
	}
	if ev.ChargerID != "" {
		p = p.AddTag("charger_id", ev.ChargerID)
	}
	return p.AddField("plan_id", ev.ID).
		AddField("amps", c.Amps).
		AddField("power_kw", round3(c.PowerKW)).
		AddField("duration_hours", round3(c.DurationHours)).
		AddField("energy_kwh", round3(rec.EnergyNeededKWh)).
		AddField("deviation_s", round3(c.Deviation.Seconds())).
		AddField("is_late", c.IsLate).
		AddField("soc_current", round3(ev.Params.CurrentSoC)).
		AddField("soc_target", round3(ev.Params.TargetSoC)).
		AddField("voltage", round3(ev.Params.SupplyVoltage)).
		SetTime(ev.Time)
}

// RecordPlanError writes a rejected evaluation.
func (s *InfluxSink) RecordPlanError(ev coremetrics.PlanErrorEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_plan_error").
		AddTag("reason", ev.Reason).
		AddTag("source", ev.Source).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSetpoint writes a charger setpoint and its acknowledgment.
func (s *InfluxSink) RecordSetpoint(ev coremetrics.SetpointEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charger_setpoint").
		AddTag("charger_id", ev.ChargerID).
		AddTag("acknowledged", strconv.FormatBool(ev.Acknowledged)).
		AddField("command_id", ev.CommandID).
		AddField("amps", ev.Amps).
		AddField("phases", ev.Phases).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `planner:
  amperage:
    min: 6
    max: 32
  tolerances:
    late_minutes: 15
defaults:
  vehicle_id: "m3-lr"
  voltage: 230
  phases: 1
http:
  addr: ":9000"
  token: "secret"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  setpoint_prefix: "garage/charger"
  ack_timeout_seconds: 3
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: "nop"
vehicles:
  - id: "ioniq5"
    model: "Ioniq 5"
    capacity_kwh: 77.4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"amperage.min", cfg.Planner.Amperage.Min, 6},
		{"amperage.max", cfg.Planner.Amperage.Max, 32},
		{"late_minutes", cfg.Planner.Tolerances.Late(), 15 * time.Minute},
		{"early_minutes default", cfg.Planner.Tolerances.Early(), 2 * time.Hour},
		{"vehicle_id", cfg.Defaults.VehicleID, "m3-lr"},
		{"voltage", cfg.Defaults.Voltage, 230.0},
		{"phases", cfg.Defaults.Phases, 1},
		{"target_soc default", cfg.Defaults.TargetSoC, 100.0},
		{"clock_zone default", cfg.Defaults.ClockZone, "Asia/Hong_Kong"},
		{"http.addr", cfg.HTTP.Addr, ":9000"},
		{"http.token", cfg.HTTP.Token, "secret"},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"mqtt.ack_topic default", cfg.MQTT.AckTopic, "garage/charger/+/ack"},
		{"mqtt.ack_timeout", cfg.MQTT.AckTimeoutSeconds, 3},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"vehicle", len(cfg.Vehicles) == 1 && cfg.Vehicles[0].CapacityKWh == 77.4, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"defaults":{"target_hour":7},"http":{"token":"t"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Defaults.TargetHour != 7 || cfg.HTTP.Token != "t" || cfg.HTTP.Addr != DefaultHTTPAddr {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Planner.Amperage.Min != 5 || cfg.Planner.Amperage.Max != 16 {
		t.Fatalf("amperage defaults: %+v", cfg.Planner.Amperage)
	}
	if cfg.Defaults.VehicleID != "my-lr" || cfg.Defaults.Voltage != 220 || cfg.Defaults.Phases != 3 {
		t.Fatalf("input defaults: %+v", cfg.Defaults)
	}
	if cfg.Defaults.CurrentSoC != 20 || cfg.Defaults.TargetSoC != 100 || cfg.Defaults.TargetHour != 8 {
		t.Fatalf("soc defaults: %+v", cfg.Defaults)
	}
	if cfg.MQTT.Enabled {
		t.Fatalf("mqtt should be disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("K_PLANNER__TOLERANCES__LATE_MINUTES", "45")
	t.Setenv("K_HTTP__TOKEN", "from-env")
	path := writeConfig(t, "config.yaml", "http:\n  token: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Planner.Tolerances.Late() != 45*time.Minute {
		t.Fatalf("late_minutes override not applied: %v", cfg.Planner.Tolerances.Late())
	}
	if cfg.HTTP.Token != "from-env" {
		t.Fatalf("token override not applied: %s", cfg.HTTP.Token)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad range":     "planner:\n  amperage:\n    min: 20\n    max: 10\n",
		"bad phases":    "defaults:\n  phases: 2\n",
		"bad zone":      "defaults:\n  clock_zone: Mars/Olympus\n",
		"mqtt broker":   "mqtt:\n  enabled: true\n",
		"bad vehicle":   "vehicles:\n  - id: x\n",
		"negative late": "planner:\n  tolerances:\n    late_minutes: -5\n",
		"sample rate":   "sentry:\n  traces_sample_rate: 1.5\n",
		"history":       "history:\n  driver: postgres\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/planner"
	"github.com/kilianp07/chargeplan/pkg/export"
)

const testConfig = `defaults:
  clock_zone: UTC
metrics:
  sinks:
    - type: nop
`

func withConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	prev := cfgPath
	cfgPath = path
	t.Cleanup(func() { cfgPath = prev })
}

func runPlanCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newPlanCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--now", "2025-03-14T21:00:00Z"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand_JSON(t *testing.T) {
	withConfig(t)
	out, err := runPlanCommand(t, "--vehicle", "my-lr", "--by", "2025-03-15T05:00:00Z", "-o", "json", "--candidates")
	require.NoError(t, err)

	var r export.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 75.0, r.Params.BatteryCapacityKWh)
	assert.Equal(t, 11, r.Recommendation.Candidate.Amps)
	assert.Equal(t, "optimal", string(r.Recommendation.Status))
	assert.Equal(t, "8h 16m", r.Duration)
	assert.Len(t, r.Candidates, 12)
}

func TestPlanCommand_Table(t *testing.T) {
	withConfig(t)
	out, err := runPlanCommand(t, "--by", "05:00")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "21:00:00 UTC", lines[0])
	assert.Equal(t, "Model Y (2024) - Long Range / Perf. (75 kWh)", lines[1])
	assert.Contains(t, out, "Optimized")
	assert.Contains(t, out, "Charging current   11A x3 (7.26 kW)")
	assert.Contains(t, out, "Target             05:00")
}

func TestPlanCommand_CapacityOverridesDefaultVehicle(t *testing.T) {
	withConfig(t)
	out, err := runPlanCommand(t, "--capacity", "54", "--current", "90", "--target", "100",
		"--phases", "1", "--by", "2025-03-15T07:00:00Z", "-o", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "5,"), lines[1])
}

func TestPlanCommand_DefaultTargetIsTomorrowMorning(t *testing.T) {
	withConfig(t)
	out, err := runPlanCommand(t, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "target_completion: 2025-03-15T08:00:00Z")
}

func TestTargetCompletion(t *testing.T) {
	// before the default target hour, so "next 08:00" and "tomorrow 08:00" differ
	now := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)
	tomorrow8 := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	def := defaultAnswers(config.Default().Defaults, now)

	cases := []struct {
		name   string
		by     string
		target string
		want   time.Time
	}{
		{"no flags", "", def.Target, tomorrow8},
		{"form kept default", "", "08:00", tomorrow8},
		{"form typed clock", "", "09:30", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
		{"hh:mm flag", "08:00", "08:00", time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)},
		{"rfc3339 flag", "2025-03-16T06:00:00Z", def.Target, time.Date(2025, 3, 16, 6, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := def
			a.Target = tc.target
			got, err := targetCompletion(&planOptions{by: tc.by}, a, now, 8)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}

	_, err := targetCompletion(&planOptions{by: "2025-03-16T6"}, def, now, 8)
	assert.Error(t, err)
}

func TestPlanCommand_Errors(t *testing.T) {
	withConfig(t)

	_, err := runPlanCommand(t, "--current", "90", "--target", "50")
	assert.ErrorIs(t, err, planner.ErrNoChargeNeeded)

	_, err = runPlanCommand(t, "--by", "2025-03-14T20:00:00Z")
	assert.ErrorIs(t, err, planner.ErrPastTarget)

	_, err = runPlanCommand(t, "-o", "xml")
	assert.Error(t, err)

	_, err = runPlanCommand(t, "--by", "25:99")
	assert.Error(t, err)

	_, err = runPlanCommand(t, "--vehicle", "cybertruck")
	assert.Error(t, err)
}

func TestPlanCommand_ChargerNeedsMQTT(t *testing.T) {
	withConfig(t)
	_, err := runPlanCommand(t, "--charger", "wallbox-1")
	assert.Error(t, err)
}

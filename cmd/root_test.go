package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehiclesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`defaults:
  vehicle_id: ms-lr
vehicles:
  - id: van
    model: Custom
    trim: Van
    capacity_kwh: 110
`), 0o600))
	prev := cfgPath
	t.Cleanup(func() { cfgPath = prev })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"vehicles", "--config", path})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[6], "* ms-lr"), lines[6])
	assert.True(t, strings.HasPrefix(lines[8], "  van"), lines[8])
}

func TestLoadConfigMissingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	prev := cfgPath
	cfgPath = defaultConfigPath
	t.Cleanup(func() { cfgPath = prev })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "my-lr", cfg.Defaults.VehicleID)

	cfgPath = "missing.yaml"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestSimulateRequiresBroker(t *testing.T) {
	withConfig(t)
	cmd := newSimulateCommand()
	cmd.SetArgs([]string{"wallbox-1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "mqtt.broker")
}

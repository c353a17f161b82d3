package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	l := New("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerComponentAndLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("planner", &buf)
	l.Infof("dropped")
	l.Warnf("kept %d", 16)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "planner", entry["component"])
	assert.Equal(t, "kept 16", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestResolveOutput(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	assert.Equal(t, os.Stdout, resolveOutput(env(nil)))
	assert.IsType(t, zerolog.ConsoleWriter{}, resolveOutput(env(map[string]string{"APP_ENV": "DEV"})))

	path := filepath.Join(t.TempDir(), "chargeplan.log")
	out := resolveOutput(env(map[string]string{"LOG_FILE": path, "LOG_MAX_SIZE_MB": "5", "APP_ENV": "dev"}))
	lj, ok := out.(*lumberjack.Logger)
	require.True(t, ok, "got %T", out)
	defer lj.Close()
	assert.Equal(t, 5, lj.MaxSize)

	l := NewZerologLoggerWithWriter("history", lj)
	l.Errorf("sqlite locked")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"history"`)

	lj2 := resolveOutput(env(map[string]string{"LOG_FILE": path, "LOG_MAX_SIZE_MB": "-1"})).(*lumberjack.Logger)
	assert.Equal(t, 20, lj2.MaxSize)
}

package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct{ bucket string }

type sinkConf struct {
	Bucket  string `json:"bucket"`
	Timeout int    `json:"timeout_seconds"`
}

func newSink(conf map[string]any) (*sink, error) {
	var c sinkConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &sink{bucket: c.Bucket}, nil
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	require.NoError(t, reg.Register("influx", newSink))

	inst, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{"bucket": "charging"}})
	require.NoError(t, err)
	assert.Equal(t, "charging", inst.bucket)
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[*sink]()
	require.NoError(t, reg.Register("influx", newSink))
	assert.Error(t, reg.Register("influx", newSink))
	assert.Error(t, reg.Register("nil", nil))
	assert.Panics(t, func() { reg.MustRegister("influx", newSink) })

	_, err := reg.Create(ModuleConfig{Type: "statsd"})
	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "statsd", unknown.Type)
	assert.Equal(t, []string{"influx"}, unknown.Known)
	assert.EqualError(t, err, `unknown module type "statsd" (known: influx)`)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	reg.MustRegister("prometheus", func(map[string]any) (int, error) { return 2, nil })
	reg.MustRegister("nop", func(map[string]any) (int, error) { return 1, nil })
	assert.Equal(t, []string{"nop", "prometheus"}, reg.Names())
}

func TestDecode(t *testing.T) {
	var c sinkConf
	require.NoError(t, Decode(map[string]any{"bucket": "charging", "timeout_seconds": "7"}, &c))
	assert.Equal(t, 7, c.Timeout)

	err := Decode(map[string]any{"bucket_name": "charging"}, &c)
	assert.ErrorContains(t, err, "bucket_name")
}

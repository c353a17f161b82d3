package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/chargeplan/core/factory"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
)

type influxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// SkipHealthCheck keeps the sink even when the server is unreachable at
	// startup. Writes then fail and are logged per event.
	SkipHealthCheck bool `json:"skip_health_check"`
}

func (c influxConfig) validate() error {
	if c.URL == "" {
		return fmt.Errorf("influx sink: url is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("influx sink: bucket is required")
	}
	return nil
}

func newInfluxFromConf(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c influxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.SkipHealthCheck {
		return NewInfluxSink(c.URL, c.Token, c.Org, c.Bucket), nil
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}

func init() {
	coremetrics.MustRegisterMetricsSink(coremetrics.SinkNop, func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	// metrics.prometheus_addr serves the default registry.
	coremetrics.MustRegisterMetricsSink(coremetrics.SinkPrometheus, func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})
	coremetrics.MustRegisterMetricsSink(coremetrics.SinkInflux, newInfluxFromConf)
}

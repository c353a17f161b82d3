// Package factory builds pluggable modules, such as metrics sinks, from the
// "type" and "conf" pairs found in configuration. Each module registers a
// Factory under its type name; the factory decodes conf with Decode into its
// own options struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.MustRegister("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct {
//	        URL    string `json:"url"`
//	        Bucket string `json:"bucket"`
//	    }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewInfluxSink(c.URL, "", "", c.Bucket), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://influx:8086", "bucket": "charging"}})
package factory

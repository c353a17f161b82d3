// Package metrics defines interfaces for recording plan evaluations. Sinks
// like PromSink and InfluxSink record successful plans, rejected inputs and
// charger setpoints, and can be combined with NewMultiSink. The factory
// helpers return a MultiSink automatically when multiple sinks are configured.
package metrics

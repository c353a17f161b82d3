// Package infra groups the adapters behind the planner's core interfaces:
// the MQTT setpoint client, Prometheus and InfluxDB metrics sinks, the SQLite
// and JSON lines plan history, Sentry monitoring and zerolog logging. Core
// packages never import infra.
package infra

package config

import "fmt"

// SentryConfig enables error reporting for failed plans, setpoint publishes
// and panics in the HTTP server. Reporting is off while DSN is empty.
type SentryConfig struct {
	DSN              string            `json:"dsn"`
	Environment      string            `json:"environment"`
	Release          string            `json:"release"`
	ServerName       string            `json:"server_name"`
	TracesSampleRate float64           `json:"traces_sample_rate"`
	Tags             map[string]string `json:"tags"`
}

// SetDefaults fills the environment and tags every event with the service.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Tags == nil {
		c.Tags = map[string]string{}
	}
	if _, ok := c.Tags["service"]; !ok {
		c.Tags["service"] = "chargeplan"
	}
}

func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate %v outside [0,1]", c.TracesSampleRate)
	}
	return nil
}

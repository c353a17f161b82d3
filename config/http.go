package config

// DefaultHTTPAddr is the listen address of the API server.
const DefaultHTTPAddr = ":8080"

// HTTPConfig configures the API server. An empty token disables auth.
type HTTPConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultHTTPAddr
	}
}

package history

import "fmt"

// Drivers supported by the history store. Both keep records in process
// memory and start empty with every serve process.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultCapacity bounds the number of records kept.
const DefaultCapacity = 1000

// Config selects the history backend. The memory driver is the default.
type Config struct {
	Driver   string `json:"driver"`
	Capacity int    `json:"capacity"`
}

// SetDefaults fills the driver and capacity.
func (c *Config) SetDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
}

// Validate rejects unknown drivers.
func (c Config) Validate() error {
	switch c.Driver {
	case "", DriverMemory, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("unknown history driver %q", c.Driver)
	}
}

// Package history provides the plan history backends used by the server.
package history

import (
	"fmt"

	"github.com/kilianp07/chargeplan/core/history"
)

// Open returns the store selected by cfg.
func Open(cfg history.Config) (history.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case history.DriverSQLite:
		return NewSQLiteStore(cfg.Capacity)
	case history.DriverMemory:
		return history.NewMemoryStore(cfg.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

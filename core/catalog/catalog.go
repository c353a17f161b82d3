// Package catalog holds the vehicle records offered to users when planning a
// charge. Only the battery capacity feeds the planner.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/chargeplan/core/model"
)

// DefaultVehicleID is preselected when the caller does not pick a vehicle.
const DefaultVehicleID = "my-lr"

var builtin = []model.Vehicle{
	{ID: "m3-sr", Model: "Model 3 (Highland)", Trim: "Standard / RWD", CapacityKWh: 60, Class: model.ClassSedan, Color: "#5e6266", Facelift: true},
	{ID: "m3-lr", Model: "Model 3 (Highland)", Trim: "Long Range / Perf.", CapacityKWh: 75, Class: model.ClassSedan, Color: "#5e6266", Facelift: true},
	{ID: "m3-sr-old", Model: "Model 3 (Older)", Trim: "Standard Plus (<2021)", CapacityKWh: 54, Class: model.ClassSedan, Color: "#ffffff", Facelift: false},
	{ID: "my-sr", Model: "Model Y (2024)", Trim: "Standard RWD", CapacityKWh: 60, Class: model.ClassSUV, Color: "#8e9094", Facelift: true},
	{ID: "my-lr", Model: "Model Y (2024)", Trim: "Long Range / Perf.", CapacityKWh: 75, Class: model.ClassSUV, Color: "#8e9094", Facelift: true},
	{ID: "ms-lr", Model: "Model S", Trim: "Long Range / Plaid", CapacityKWh: 95, Class: model.ClassSedan, Color: "#cc0000", Facelift: true},
	{ID: "mx-lr", Model: "Model X", Trim: "Long Range / Plaid", CapacityKWh: 95, Class: model.ClassSUV, Color: "#cc0000", Facelift: true},
}

// Catalog is a concurrency safe set of vehicles that keeps insertion order.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	data  map[string]model.Vehicle
}

// New returns a catalog seeded with the given vehicles.
func New(vehicles ...model.Vehicle) (*Catalog, error) {
	c := &Catalog{data: map[string]model.Vehicle{}}
	for _, v := range vehicles {
		if err := c.Add(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns a catalog with the built-in vehicles.
func Default() *Catalog {
	c, err := New(builtin...)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// Add inserts or replaces a vehicle.
func (c *Catalog) Add(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("vehicle %q: %w", v.ID, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[v.ID]; !ok {
		c.order = append(c.order, v.ID)
	}
	c.data[v.ID] = v
	return nil
}

// Get returns the vehicle with the given id.
func (c *Catalog) Get(id string) (model.Vehicle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[id]
	return v, ok
}

// List returns the vehicles in insertion order.
func (c *Catalog) List() []model.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]model.Vehicle, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, c.data[id])
	}
	return res
}

// IDs returns the sorted vehicle ids.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	ids := append([]string(nil), c.order...)
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

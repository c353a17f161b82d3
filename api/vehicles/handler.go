package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kilianp07/chargeplan/core/catalog"
	"github.com/kilianp07/chargeplan/core/model"
)

// listResponse is returned by GET /api/vehicles.
type listResponse struct {
	Default  string          `json:"default"`
	Vehicles []model.Vehicle `json:"vehicles"`
}

// NewHandler returns an HTTP handler exposing the vehicle catalog via
// GET /api/vehicles and GET /api/vehicles/{id}. The optional class query
// parameter filters the list ("sedan" or "suv").
func NewHandler(c *catalog.Catalog, defaultID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/vehicles"), "/")
		if id != "" {
			v, ok := c.Get(id)
			if !ok {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, v)
			return
		}

		list := c.List()
		if class := r.URL.Query().Get("class"); class != "" {
			filtered := list[:0]
			for _, v := range list {
				if string(v.Class) == class {
					filtered = append(filtered, v)
				}
			}
			list = filtered
		}
		writeJSON(w, listResponse{Default: defaultID, Vehicles: list})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

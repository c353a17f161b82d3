package history

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/chargeplan/core/history"
	"github.com/kilianp07/chargeplan/core/model"
)

// DefaultLimit applies when the request names no limit.
const DefaultLimit = 100

// NewHandler returns an HTTP handler exposing plan history via GET /api/plans.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewHandler(store history.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := ParseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// ParseQuery reads start, end, vehicle_id, status, kind and limit.
func ParseQuery(r *http.Request) (history.Query, error) {
	v := r.URL.Query()
	q := history.Query{
		VehicleID: v.Get("vehicle_id"),
		Limit:     DefaultLimit,
	}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("invalid start: %w", err)
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("invalid end: %w", err)
		}
	}
	if s := v.Get("status"); s != "" {
		switch st := model.Status(s); st {
		case model.StatusOptimal, model.StatusTooSlow, model.StatusTooFast:
			q.Status = st
		default:
			return q, fmt.Errorf("invalid status %q", s)
		}
	}
	if s := v.Get("kind"); s != "" {
		switch k := history.Kind(s); k {
		case history.KindPlan, history.KindError:
			q.Kind = k
		default:
			return q, fmt.Errorf("invalid kind %q", s)
		}
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
		q.Limit = n
	}
	return q, nil
}

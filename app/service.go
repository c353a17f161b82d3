// Package app wires configuration, adapters and HTTP surfaces into a running
// planning service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	apihistory "github.com/kilianp07/chargeplan/api/history"
	"github.com/kilianp07/chargeplan/api/plan"
	"github.com/kilianp07/chargeplan/api/vehicles"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/catalog"
	"github.com/kilianp07/chargeplan/core/charging"
	"github.com/kilianp07/chargeplan/core/history"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
	coremqtt "github.com/kilianp07/chargeplan/core/mqtt"
	"github.com/kilianp07/chargeplan/core/planner"
	infrahistory "github.com/kilianp07/chargeplan/infra/history"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/metrics"
	"github.com/kilianp07/chargeplan/infra/monitoring"
	"github.com/kilianp07/chargeplan/infra/mqtt"
	"github.com/kilianp07/chargeplan/internal/eventbus"
	"github.com/kilianp07/chargeplan/pkg/ws"
)

const shutdownTimeout = 5 * time.Second

// Service owns the planner and its adapters.
type Service struct {
	Charging *charging.Service

	cfg     *config.Config
	catalog *catalog.Catalog
	sink    coremetrics.MetricsSink
	history history.Store
	bus     *eventbus.Bus[charging.Event]
	hub     *ws.Hub
	mqtt    coremqtt.Client
	paho    *mqtt.PahoClient
	log     logger.Logger
	now     func() time.Time
}

// Option customizes New.
type Option func(*Service)

// WithSetpointClient replaces the MQTT client built from the configuration.
func WithSetpointClient(c coremqtt.Client) Option {
	return func(s *Service) { s.mqtt = c }
}

// WithClock sets the clock used for requests and events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSink replaces the metrics sinks built from the configuration.
func WithSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("service"), now: time.Now}
	for _, o := range opts {
		o(s)
	}

	if cfg.Sentry.DSN != "" {
		mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		coremon.Init(mon)
	}

	eval, err := planner.New(cfg.Planner)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	cat, err := BuildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	s.catalog = cat

	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.history, err = infrahistory.Open(cfg.History); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	s.sink = coremetrics.NewMultiSink(s.sink, history.NewSink(s.history))

	if s.mqtt == nil && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		s.paho = client
	}

	s.bus = eventbus.New[charging.Event]()
	s.hub = ws.NewHub(logger.New("ws"))
	s.hub.SetInitDataProvider(func() any {
		return map[string]any{"default": cfg.Defaults.VehicleID, "vehicles": cat.List()}
	})

	s.Charging = charging.NewService(eval, charging.Options{
		Catalog:          cat,
		Sink:             s.sink,
		Bus:              s.bus,
		Setpoints:        s.mqtt,
		AckTimeout:       cfg.MQTT.AckTimeout(),
		DefaultVehicleID: cfg.Defaults.VehicleID,
		Logger:           logger.New("charging"),
		Now:              s.now,
	})
	return s, nil
}

// BuildCatalog returns the built-in catalog extended with the configured
// vehicles. The default vehicle must exist.
func BuildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	for _, v := range cfg.Vehicles {
		if err := cat.Add(v); err != nil {
			return nil, err
		}
	}
	if _, ok := cat.Get(cfg.Defaults.VehicleID); !ok {
		return nil, fmt.Errorf("default vehicle %q is not in the catalog", cfg.Defaults.VehicleID)
	}
	return cat, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/plan", plan.NewHandler(s.Charging, plan.Options{
		Token:    s.cfg.HTTP.Token,
		Defaults: s.cfg.Defaults,
		Logger:   logger.New("api"),
		Now:      s.now,
	}))
	mux.Handle("/api/plans", apihistory.NewHandler(s.history, s.cfg.HTTP.Token))
	vh := vehicles.NewHandler(s.catalog, s.cfg.Defaults.VehicleID)
	mux.Handle("/api/vehicles", vh)
	mux.Handle("/api/vehicles/", vh)
	mux.Handle("/ws", requireToken(s.cfg.HTTP.Token, s.hub))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return recoverPanics(mux)
}

// recoverPanics reports handler panics before net/http logs them.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer coremon.Recover()
		next.ServeHTTP(w, r)
	})
}

// requireToken accepts either a bearer header or a token query parameter,
// since browsers cannot set headers on websocket upgrades.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token && r.URL.Query().Get("token") != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves the API until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})

	sub := s.bus.Subscribe()
	g.Go(func() error {
		defer s.bus.Unsubscribe(sub)
		defer coremon.Recover()
		s.forward(ctx, sub)
		return nil
	})

	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		g.Go(func() error { return metrics.StartPromServer(ctx, addr) })
	}
	return g.Wait()
}

// forward relays bus events to websocket clients.
func (s *Service) forward(ctx context.Context, sub <-chan charging.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch {
			case ev.Plan != nil:
				s.hub.BroadcastMessage(ws.MsgTypePlan, ev.Plan)
			case ev.Error != nil:
				s.hub.BroadcastMessage(ws.MsgTypePlanError, ev.Error)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.paho != nil {
		s.paho.Disconnect()
	}
	CloseSink(s.sink)
	coremon.Flush(2 * time.Second)
	return nil
}

// CloseSink closes sink and, for a MultiSink, every sink it wraps.
func CloseSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			CloseSink(inner)
		}
	case interface{ Close() }:
		v.Close()
	case interface{ Close() error }:
		_ = v.Close()
	}
}

package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/chargeplan/config"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/charging"
)

// NewSentryMonitor returns a Monitor backed by Sentry, or a no-op monitor
// when no DSN is configured.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	cfg.SetDefaults()
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		TracesSampleRate: cfg.TracesSampleRate,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	hub.Scope().SetTags(cfg.Tags)
	return &sentryMonitor{hub: hub}, nil
}

var beforeSend = dropInputErrors

// dropInputErrors discards rejections the caller can fix by changing the request.
func dropInputErrors(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && charging.IsInputError(hint.OriginalException) {
		return nil
	}
	return event
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		s.hub.Recover(r)
		s.hub.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }

// Package monitoring forwards unexpected failures of the planner to an error
// tracker. Rejected inputs are not failures and are never reported here.
package monitoring

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

type holder struct{ m Monitor }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{NopMonitor{}}) }

// Init installs m as the process wide monitor and returns the previous one.
// A nil m leaves the current monitor in place.
func Init(m Monitor) Monitor {
	prev := current.Load().m
	if m != nil {
		current.Store(&holder{m})
	}
	return prev
}

// Current returns the installed monitor.
func Current() Monitor { return current.Load().m }

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err != nil {
		Current().CaptureException(err, tags)
	}
}

// Report records err tagged with the module that raised it. Extra tags are
// merged on top.
func Report(err error, module string, tags map[string]string) {
	if err == nil {
		return
	}
	all := make(map[string]string, len(tags)+1)
	all["module"] = module
	for k, v := range tags {
		all[k] = v
	}
	CaptureException(err, all)
}

// Recover must be deferred directly. It reports a panic and re-panics.
func Recover() {
	if r := recover(); r != nil {
		Current().CaptureException(panicError{r}, map[string]string{"module": "panic"})
		Current().Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) { Current().Flush(d) }

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

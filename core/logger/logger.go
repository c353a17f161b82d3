// Package logger declares the logging contract shared by the planner, the
// charger transport and the history stores. infra/logger provides the
// zerolog implementation.
package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields, used for per-candidate
	// traces of an evaluation.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

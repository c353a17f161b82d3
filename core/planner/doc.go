// Package planner picks the charging current that finishes closest to a target
// completion time. It scans a fixed range of integer amperages, selects the
// candidate with the smallest deviation from the target and classifies the
// outcome as optimal, too slow or too fast using asymmetric tolerances.
//
// The evaluator is pure: the current instant is part of the input, so results
// are deterministic and the evaluator is safe for concurrent use.
package planner

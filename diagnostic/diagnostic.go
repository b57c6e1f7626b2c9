// Package diagnostic implements the message + source-span reporting used
// by the SAFAS driver and REPL.
package diagnostic

import "github.com/safas-lang/safas/parser/token"

// Level classifies a Diagnostic's severity.
type Level int

// Diagnostic severities.
const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single message tied to an optional source span.
type Diagnostic struct {
	Level   Level
	Message string
	Span    *token.Location
}

// Sink receives diagnostics as they are produced. The driver reports its
// parse, evaluation and resolve failures through a Sink. The evaluator's
// print and warn write directly to stdout and stderr, and error returns a
// user-error value; none of the three goes through a Sink.
type Sink interface {
	Emit(Diagnostic)
}

// Collector is a Sink that accumulates every Diagnostic it receives, for
// batch rendering or programmatic inspection.
type Collector struct {
	Diagnostics []Diagnostic
}

// Emit implements Sink.
func (c *Collector) Emit(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Count returns the number of diagnostics at or above level.
func (c *Collector) Count(level Level) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Level >= level {
			n++
		}
	}
	return n
}

// HasErrors reports whether any collected diagnostic is at Error level.
func (c *Collector) HasErrors() bool {
	return c.Count(Error) > 0
}

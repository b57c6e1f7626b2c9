package safas

import (
	"fmt"

	"github.com/safas-lang/safas/parser/token"
)

// Condition names the class of a runtime error, mirroring the condition
// system used by the language's diagnostic sink.
type Condition string

// Error condition kinds.
const (
	CondParseError            Condition = "parse-error"
	CondUnknownName           Condition = "unknown-name"
	CondArityError            Condition = "arity-error"
	CondTypeError             Condition = "type-error"
	CondWidthError            Condition = "width-error"
	CondRedefinition          Condition = "redefinition"
	CondPatternMatchFailure   Condition = "pattern-match-failure"
	CondUnresolvedLabel       Condition = "unresolved-label"
	CondCycleInImport         Condition = "cycle-in-import"
	CondIOError               Condition = "io-error"
	CondUserError             Condition = "user-error"
)

// NewError returns a KError Value with the given condition and message.
func NewError(cond Condition, msg string) *Value {
	return &Value{
		Kind:   KError,
		Source: nativeLoc,
		Err: &ErrData{
			Condition: cond,
			Message:   msg,
		},
	}
}

// Errorf is a convenience wrapper around NewError that formats the message
// with fmt.Sprintf.
func Errorf(cond Condition, format string, args ...interface{}) *Value {
	return NewError(cond, fmt.Sprintf(format, args...))
}

// WithSpan attaches a source span to an error value, returning v unchanged
// for any other kind.
func (v *Value) WithSpan(span *token.Location) *Value {
	if v.Kind != KError || span == nil {
		return v
	}
	cp := *v
	errCp := *v.Err
	errCp.Span = span
	cp.Err = &errCp
	return &cp
}

// WithStack attaches a call-stack snapshot to an error value.
func (v *Value) WithStack(stack *CallStack) *Value {
	if v.Kind != KError {
		return v
	}
	cp := *v
	errCp := *v.Err
	errCp.Stack = stack
	cp.Err = &errCp
	return &cp
}

// IsError reports whether v represents a runtime error.
func (v *Value) IsError() bool {
	return v != nil && v.Kind == KError
}

// Error implements the error interface so SAFAS errors compose with
// fmt.Errorf("%w", ...) at the driver boundary.
func (v *Value) Error() string {
	if v.Kind != KError {
		return ""
	}
	if v.Err.Span != nil {
		return fmt.Sprintf("%s: %s: %s", v.Err.Span, v.Err.Condition, v.Err.Message)
	}
	return fmt.Sprintf("%s: %s", v.Err.Condition, v.Err.Message)
}

// WriteTrace renders the error message followed by a call-stack trace.
func (v *Value) WriteTrace(w interface{ Write([]byte) (int, error) }) {
	fmt.Fprintln(w, v.Error())
	if v.Err.Stack != nil {
		v.Err.Stack.DebugPrint(w)
	}
}

// CallStack records the chain of function/syntax invocations active when
// an error was raised.
type CallStack struct {
	frames []stackFrame
}

type stackFrame struct {
	Name   string
	Source *token.Location
}

// Push returns a new CallStack with an additional frame; the receiver is
// not mutated so multiple errors can share stack prefixes safely.
func (s *CallStack) Push(name string, loc *token.Location) *CallStack {
	frames := make([]stackFrame, 0, len(s.frames)+1)
	if s != nil {
		frames = append(frames, s.frames...)
	}
	frames = append(frames, stackFrame{Name: name, Source: loc})
	return &CallStack{frames: frames}
}

// Top returns the most recently pushed frame, or nil if the stack is empty.
func (s *CallStack) Top() *stackFrame {
	if s == nil || len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// DebugPrint writes a human-readable trace, innermost frame first.
func (s *CallStack) DebugPrint(w interface{ Write([]byte) (int, error) }) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		fmt.Fprintf(w, "  in %s (%s)\n", f.Name, f.Source)
	}
}

// Depth returns the number of active frames.
func (s *CallStack) Depth() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

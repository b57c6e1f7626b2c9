// Package safastest provides a fixture-style test harness for SAFAS:
// table-driven sequences of
// source text and the result/output/emitted-bytes they are expected to
// produce, run against a fresh environment per test.
package safastest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/safas-lang/safas/parser/reader"
	"github.com/safas-lang/safas/safas"
)

// NewEnv returns a fresh root environment with the reader wired into its
// loader, the way cmd/safas wires it at process startup. Every test gets
// its own environment and Runtime so cursor position and label bindings
// never leak between cases.
func NewEnv() *safas.Env {
	env := safas.NewRootEnv()
	env.Runtime.Loader.Parse = reader.ParseAll
	return env
}

// EvalString parses src as a sequence of top-level forms and evaluates them
// in env, returning the last result the way a REPL would.
func EvalString(env *safas.Env, src string) (*safas.Value, *safas.Value) {
	forms, perr := reader.ParseAll("test", []byte(src))
	if perr != nil {
		return nil, perr
	}
	return safas.EvalBody(env, forms)
}

// TestSequence is a sequence of expressions evaluated one after another in
// a single environment, each checked against its expected printed result.
type TestSequence []struct {
	Expr   string // SAFAS source, one or more forms
	Result string // Format() of the last form's value, or "" to skip the check
	Err    string // if non-empty, a substring the error's Error() must contain
}

// TestSuite is a named set of TestSequences, each run in its own
// environment.
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs every sequence in tests, reporting mismatches through
// t.Errorf so unrelated failures within a suite don't hide one another.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		env := NewEnv()
		for j, expr := range test.TestSequence {
			val, err := EvalString(env, expr.Expr)
			if expr.Err != "" {
				if err == nil {
					t.Errorf("test %d %q: expr %d: expected error containing %q, got none", i, test.Name, j, expr.Err)
					continue
				}
				if !strings.Contains(err.Error(), expr.Err) {
					t.Errorf("test %d %q: expr %d: expected error containing %q, got %q", i, test.Name, j, expr.Err, err.Error())
				}
				continue
			}
			if err != nil {
				t.Errorf("test %d %q: expr %d: unexpected error: %v", i, test.Name, j, err)
				continue
			}
			if expr.Result == "" {
				continue
			}
			got := safas.Format(val)
			if got != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, got)
			}
		}
	}
}

// AssembleCase is one assemble-and-compare fixture: Source is evaluated to
// completion (including the resolver's second pass), and the cursor's
// final bytes are compared against Hex, a hex-encoded expected byte string.
type AssembleCase struct {
	Name   string
	Source string
	Hex    string // expected output, hex-encoded, e.g. "a9 05" bytes -> "a905"
	ErrIs  string // if non-empty, Assemble is expected to fail with an error containing this
}

// Assemble evaluates every top-level form of src in a fresh environment,
// then runs the resolver's fixed-point second pass, returning the final
// output bytes exactly as a driver's `run` subcommand would.
func Assemble(src string) ([]byte, *safas.Value) {
	env := NewEnv()
	forms, perr := reader.ParseAll("test", []byte(src))
	if perr != nil {
		return nil, perr
	}
	if _, err := safas.EvalBody(env, forms); err != nil {
		return nil, err
	}
	if err := env.Runtime.Resolver.Resolve(env.Runtime.Cursor); err.IsError() {
		return nil, err
	}
	return env.Runtime.Cursor.Bytes(), nil
}

// RunAssembleCases runs each AssembleCase and compares emitted bytes.
func RunAssembleCases(t *testing.T, cases []AssembleCase) {
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			out, err := Assemble(c.Source)
			if c.ErrIs != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got none", c.ErrIs)
				}
				if !strings.Contains(err.Error(), c.ErrIs) {
					t.Fatalf("expected error containing %q, got %q", c.ErrIs, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want, decErr := hex.DecodeString(strings.ReplaceAll(c.Hex, " ", ""))
			if decErr != nil {
				t.Fatalf("bad expected hex %q: %v", c.Hex, decErr)
			}
			if !bytes.Equal(out, want) {
				t.Fatalf("expected bytes %x, got %x", want, out)
			}
		})
	}
}

// FormatBytes renders b as space-separated hex pairs, useful for building
// AssembleCase.Hex fixtures and readable failure messages.
func FormatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, x := range b {
		parts[i] = fmt.Sprintf("%02x", x)
	}
	return strings.Join(parts, " ")
}

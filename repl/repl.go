// Package repl implements an interactive SAFAS shell: an ergochat/readline
// loop reading one line at a
// time, evaluating its forms against a persistent root environment, and
// printing the result or error.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/safas-lang/safas/parser/reader"
	"github.com/safas-lang/safas/safas"
)

type config struct {
	stdin  io.ReadCloser
	stdout io.Writer
}

// Option configures RunEnv.
type Option func(*config)

// WithStdin overrides the REPL's input stream (used by tests).
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) { c.stdin = stdin }
}

// WithStdout overrides the REPL's output stream (used by tests).
func WithStdout(stdout io.Writer) Option {
	return func(c *config) { c.stdout = stdout }
}

// Run starts a REPL over a fresh root environment.
func Run(prompt string, opts ...Option) {
	env := safas.NewRootEnv()
	env.Runtime.Loader.Parse = reader.ParseAll
	RunEnv(env, prompt, opts...)
}

// RunEnv runs a read-eval-print loop against env until EOF or interrupt.
// Each line is read, parsed into its top-level forms, which are evaluated
// in order, and the last form's printed result (or the first error) is
// written to stdout. Unlike a batch assembly run,
// the REPL never runs the resolver's second pass automatically: forward
// label references stay pending until the caller evaluates whatever
// eventually defines them, or explicitly calls `resolve`.
func RunEnv(env *safas.Env, prompt string, opts ...Option) {
	cfg := &config{stdout: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	rlCfg := &readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyPath(),
		HistorySearchFold: true,
		AutoComplete:      newSymbolCompleter(env),
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "(resolve)" {
			res := env.Runtime.Resolver.Resolve(env.Runtime.Cursor)
			printResult(cfg.stdout, res, nil)
			continue
		}
		forms, perr := reader.ParseAll("repl", []byte(line))
		if perr != nil {
			fmt.Fprintln(cfg.stdout, perr.Error())
			continue
		}
		val, evalErr := safas.EvalBody(env, forms)
		printResult(cfg.stdout, val, evalErr)
	}
}

func printResult(w io.Writer, val, err *safas.Value) {
	if err != nil {
		fmt.Fprintln(w, err.Error())
		return
	}
	if val.IsError() {
		fmt.Fprintln(w, val.Error())
		return
	}
	fmt.Fprintln(w, safas.Format(val))
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".safas_history")
}

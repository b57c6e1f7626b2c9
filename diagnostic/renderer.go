package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/term"
	"github.com/pterm/pterm"
)

// Renderer formats Diagnostics for a human reader: a source-line excerpt
// with a caret under the offending column when a span with line/column
// information is available, and a colorized level label otherwise. It
// takes an explicit source-line lookup rather than assuming a single in-memory
// document (SAFAS diagnostics can span multiple loaded modules).
type Renderer struct {
	w      io.Writer
	color  bool
	source func(file string, line int) (string, bool)
}

// NewRenderer returns a Renderer writing to w. Color output is enabled
// only when w is a terminal, checked with beevik/term.IsTerminal the same
// way the REPL decides whether to put stdin into raw mode.
func NewRenderer(w io.Writer, source func(file string, line int) (string, bool)) *Renderer {
	return &Renderer{w: w, color: autoColor(w), source: source}
}

// NewRendererMode is like NewRenderer but honors an explicit --color mode
// ("auto", "always", "never") the way a CLI's persistent flag would,
// falling back to auto-detection for any other value.
func NewRendererMode(w io.Writer, source func(file string, line int) (string, bool), mode string) *Renderer {
	var color bool
	switch mode {
	case "always":
		color = true
	case "never":
		color = false
	default:
		color = autoColor(w)
	}
	return &Renderer{w: w, color: color, source: source}
}

func autoColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Emit implements Sink by rendering d immediately.
func (r *Renderer) Emit(d Diagnostic) {
	label := r.levelLabel(d.Level)
	if d.Span == nil || d.Span.Pos < 0 {
		fmt.Fprintf(r.w, "%s: %s\n", label, d.Message)
		return
	}
	fmt.Fprintf(r.w, "%s: %s: %s\n", d.Span, label, d.Message)
	if r.source == nil || d.Span.Line <= 0 {
		return
	}
	line, ok := r.source(d.Span.File, d.Span.Line)
	if !ok {
		return
	}
	fmt.Fprintf(r.w, "  %s\n", line)
	if d.Span.Col > 0 {
		fmt.Fprintf(r.w, "  %s^\n", strings.Repeat(" ", d.Span.Col-1))
	}
}

func (r *Renderer) levelLabel(l Level) string {
	if !r.color {
		return strings.ToUpper(l.String())
	}
	switch l {
	case Error:
		return pterm.FgRed.Sprint(strings.ToUpper(l.String()))
	case Warn:
		return pterm.FgYellow.Sprint(strings.ToUpper(l.String()))
	default:
		return pterm.FgCyan.Sprint(strings.ToUpper(l.String()))
	}
}

// Summary prints a final "assembly failed with N errors" style banner
// using pterm's structured output, the way a batch CLI run reports the
// diagnostics collected across an entire assembly.
func Summary(w io.Writer, c *Collector) {
	errs, warns := c.Count(Error), c.Count(Warn)
	switch {
	case errs > 0:
		fmt.Fprintln(w, pterm.Error.Sprintf("assembly failed with %d error(s), %d warning(s)", errs, warns))
	case warns > 0:
		fmt.Fprintln(w, pterm.Warning.Sprintf("assembly succeeded with %d warning(s)", warns))
	default:
		fmt.Fprintln(w, pterm.Success.Sprint("assembly succeeded"))
	}
}

// FileLineSource returns a source function backed by a set of already-read
// file contents, suitable for passing to NewRenderer.
func FileLineSource(contents map[string][]byte) func(file string, line int) (string, bool) {
	return func(file string, line int) (string, bool) {
		src, ok := contents[file]
		if !ok {
			return "", false
		}
		scanner := bufio.NewScanner(strings.NewReader(string(src)))
		n := 0
		for scanner.Scan() {
			n++
			if n == line {
				return scanner.Text(), true
			}
		}
		return "", false
	}
}

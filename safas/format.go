package safas

import (
	"fmt"
	"strings"
)

// Format renders v as SAFAS source text, the inverse of the reader for
// every Value the reader can itself produce (numeric literals, strings,
// symbols, lists) and a reasonable debug rendering for runtime-only kinds
// (functions, syntaxes, errors). Used by the REPL to print results and by
// safastest to compare evaluation output against expected text.
func Format(v *Value) string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case KInt:
		suffix := "u"
		if v.Signed {
			suffix = "i"
		}
		return fmt.Sprintf("%s%s%d", v.Int.String(), suffix, v.Width)
	case KBinary:
		digits := v.Int.Text(2)
		if len(digits) < v.Width {
			digits = strings.Repeat("0", v.Width-len(digits)) + digits
		}
		return digits + "b"
	case KString:
		return fmt.Sprintf("%q", v.Str)
	case KSymbol:
		return v.Str
	case KStmtBinding:
		return "<" + v.Str + ">"
	case KSymBinding:
		return "{" + v.Str + "}"
	case KList:
		if v.IsNil() {
			return "()"
		}
		parts := make([]string, len(v.Cells))
		for i, c := range v.Cells {
			parts[i] = Format(c)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KFunction:
		if v.Fun.Name != "" {
			return fmt.Sprintf("#<function %s>", v.Fun.Name)
		}
		return "#<function>"
	case KSyntax:
		return fmt.Sprintf("#<syntax %s>", v.Syn.Name)
	case KLabelRef:
		return fmt.Sprintf("#<label-ref %s>", v.Label.Name)
	case KError:
		return v.Error()
	default:
		return "#<invalid>"
	}
}

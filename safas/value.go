// Package safas implements the SAFAS evaluator/assembler engine: the value
// model, lexically scoped environment, evaluator, syntax-rules pattern
// matcher, bit-addressable output cursor, and two-pass label resolver
// described by the language specification. Source text is turned into
// Values by parser/reader; Values are reduced by Eval.
package safas

import (
	"math/big"

	"github.com/safas-lang/safas/parser/token"
)

// Kind identifies the tagged variant of a Value.
type Kind uint8

// Value variants, matching the SAFAS data model.
const (
	KInvalid Kind = iota
	KInt             // arbitrary-precision integer with explicit bit width and signedness
	KBinary          // a binary literal: bit count + raw bits, distinct from KInt
	KString          // byte sequence, emitted as bytes by `d`
	KSymbol          // an interned atom name
	KList            // an ordered sequence of Values, the S-expression spine
	KFunction        // parameters + body + captured environment, or a Go builtin
	KSyntax          // an ordered list of (pattern, template) rules + optional base syntax
	KLabelRef        // a transient placeholder for a name referenced before its definition
	KError           // a first-class runtime error / condition
	KStmtBinding     // pattern node `<name>`: matches one form, binding its evaluated result
	KSymBinding      // pattern node `{name}`: matches one form, binding its raw unevaluated tree
)

var kindNames = [...]string{
	KInvalid:     "invalid",
	KInt:         "integer",
	KBinary:      "binary",
	KString:      "string",
	KSymbol:      "symbol",
	KList:        "list",
	KFunction:    "function",
	KSyntax:      "syntax",
	KLabelRef:    "label-ref",
	KError:       "error",
	KStmtBinding: "stmt-binding",
	KSymBinding:  "sym-binding",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) || kindNames[k] == "" {
		return "invalid"
	}
	return kindNames[k]
}

// FunctionData holds the payload of a KFunction Value. A Value with a
// non-nil Builtin is a primitive or special form implemented in Go; one
// with a nil Builtin is a user-defined function with Params/Body/Env
// populated.
type FunctionData struct {
	Name    string
	Params  []string
	VarArg  string // name that captures trailing arguments, or ""
	Body    []*Value
	Env     *Env
	Builtin Builtin
	// Special marks the function as a special form: its arguments are not
	// evaluated before the call, matching the SAFAS evaluator's dispatch
	// rules (quote, if, let, def, fun, def_syntax, ...).
	Special bool
}

// Builtin is the signature of a native Go primitive or special form.
// args is the (already-evaluated, unless Special) argument list; env is the
// caller's environment, needed by special forms like `let` and `def`.
type Builtin func(env *Env, args []*Value, call *Value) (*Value, *Value)

// SyntaxRule is one (pattern, template) pair of a Syntax value.
type SyntaxRule struct {
	Pattern  *Value   // the unevaluated pattern form
	Template []*Value // the unevaluated template forms
}

// SyntaxData holds the payload of a KSyntax Value. There is deliberately no
// captured definition environment: a rule's template is always expanded
// against the caller's environment, never the syntax's own, so labels and
// bindings visible at the call site resolve normally.
type SyntaxData struct {
	Name  string
	Rules []*SyntaxRule
	Base  *Value // fallthrough syntax for extend_syntax, or nil

	// matchCache memoizes which rule index (or -1 for "falls through to
	// Base") a given call-form shape resolved to last time, keyed by a
	// structural hash of the call form. See pattern.go for how it is used
	// and why misses are silently treated as "no cache", never as an
	// error.
	matchCache map[string]int
}

// LabelRefData is the payload of a KLabelRef Value. No evaluation path
// constructs one: `d`/`a` detect a forward label reference by catching the
// CondUnknownName error its evaluation raises and record a deferred hole
// with the Resolver directly (see builtins.go and resolve.go).
type LabelRefData struct {
	Name string
}

// ErrData is the payload of a KError Value.
type ErrData struct {
	Condition Condition
	Message   string
	Span      *token.Location
	Stack     *CallStack
}

// Value is a SAFAS runtime value. It is immutable after construction except
// where explicitly noted.
type Value struct {
	Kind Kind

	// KInt / KBinary
	Int    *big.Int
	Width  int
	Signed bool // KInt only; KBinary is always unsigned

	// KString / KSymbol
	Str string

	// KList
	Cells []*Value

	Fun   *FunctionData
	Syn   *SyntaxData
	Label *LabelRefData
	Err   *ErrData

	// Source is the span in original source text that produced this value,
	// used for diagnostics. Values built natively (not by the reader) carry
	// a synthetic "<native>" location.
	Source *token.Location
}

var nativeLoc = &token.Location{File: "<native>", Pos: -1}

// NativeSource returns the shared synthetic location used for Values
// constructed by Go code rather than parsed from source text.
func NativeSource() *token.Location { return nativeLoc }

// Int64 returns an Integer value of the default width (32-bit signed).
func Int64(x int64) *Value {
	return &Value{Kind: KInt, Int: big.NewInt(x), Width: 32, Signed: true, Source: nativeLoc}
}

// NewInt returns an Integer value with an explicit width and signedness.
func NewInt(v *big.Int, width int, signed bool) *Value {
	return &Value{Kind: KInt, Int: new(big.Int).Set(v), Width: width, Signed: signed, Source: nativeLoc}
}

// NewBinary returns a binary-literal value of bitWidth bits.
func NewBinary(v *big.Int, bitWidth int) *Value {
	return &Value{Kind: KBinary, Int: new(big.Int).Set(v), Width: bitWidth, Source: nativeLoc}
}

// Str returns a String value.
func Str(s string) *Value {
	return &Value{Kind: KString, Str: s, Source: nativeLoc}
}

// Sym returns a Symbol value.
func Sym(s string) *Value {
	return &Value{Kind: KSymbol, Str: s, Source: nativeLoc}
}

// StmtBinding returns a `<name>` pattern node: it matches one input form and
// binds name to that form's evaluated result.
func StmtBinding(name string) *Value {
	return &Value{Kind: KStmtBinding, Str: name, Source: nativeLoc}
}

// SymBinding returns a `{name}` pattern node: it matches one input form and
// binds name to that form's raw, unevaluated tree.
func SymBinding(name string) *Value {
	return &Value{Kind: KSymBinding, Str: name, Source: nativeLoc}
}

// List returns a List value backed by cells. cells is used directly and not
// copied.
func List(cells []*Value) *Value {
	return &Value{Kind: KList, Cells: cells, Source: nativeLoc}
}

// Nil returns the empty list, SAFAS's canonical falsey/absent value.
func Nil() *Value {
	return &Value{Kind: KList, Cells: nil, Source: nativeLoc}
}

// IsNil reports whether v is the empty list.
func (v *Value) IsNil() bool {
	return v.Kind == KList && len(v.Cells) == 0
}

// IsTruthy implements SAFAS truthiness: a zero Integer and the empty list
// are falsey, everything else is truthy.
func (v *Value) IsTruthy() bool {
	switch v.Kind {
	case KList:
		return len(v.Cells) != 0
	case KInt:
		return v.Int.Sign() != 0
	default:
		return true
	}
}

// Equal reports whether v and other are structurally equal.
func (v *Value) Equal(other *Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KInt, KBinary:
		return v.Width == other.Width && v.Int.Cmp(other.Int) == 0
	case KString, KSymbol:
		return v.Str == other.Str
	case KList:
		if len(v.Cells) != len(other.Cells) {
			return false
		}
		for i := range v.Cells {
			if !v.Cells[i].Equal(other.Cells[i]) {
				return false
			}
		}
		return true
	default:
		return v == other
	}
}

// Copy returns a shallow copy of v; Cells is copied as a new slice of the
// same element pointers (Values are treated as immutable once built, so
// aliasing the elements is safe).
func (v *Value) Copy() *Value {
	cp := *v
	if len(v.Cells) > 0 {
		cp.Cells = append([]*Value(nil), v.Cells...)
	}
	return &cp
}

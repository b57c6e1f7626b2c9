// Package reader turns a SAFAS token stream into a tree of *safas.Value,
// the same tagged value type the evaluator operates on: SAFAS is
// homoiconic, so the reader's output is not a separate AST type.
package reader

import (
	"math/big"
	"strings"

	"github.com/safas-lang/safas/parser/lexer"
	"github.com/safas-lang/safas/parser/token"
	"github.com/safas-lang/safas/safas"
)

// Reader parses a single source stream into a sequence of top-level forms.
type Reader struct {
	lx *lexer.Lexer
}

// New returns a Reader over src, reporting positions against file.
func New(file string, src []byte) *Reader {
	return &Reader{lx: lexer.New(file, src)}
}

// ParseAll reads every top-level form in src and returns them, or the first
// parse error encountered. Its signature matches safas.ParseFunc, so it can
// be assigned directly to a Loader's Parse field without either package
// importing the other in the wrong direction.
func ParseAll(file string, src []byte) ([]*safas.Value, *safas.Value) {
	rd := New(file, src)
	var forms []*safas.Value
	for {
		tok, err := rd.lx.Peek()
		if err != nil {
			return nil, parseError(err)
		}
		if tok.Type == token.EOF {
			return forms, nil
		}
		v, verr := rd.readForm()
		if verr != nil {
			return nil, verr
		}
		forms = append(forms, v)
	}
}

func parseError(err error) *safas.Value {
	if le, ok := err.(*token.LocationError); ok {
		return safas.Errorf(safas.CondParseError, "%s", le.Err.Error()).WithSpan(le.Source)
	}
	return safas.Errorf(safas.CondParseError, "%s", err.Error())
}

func (rd *Reader) readForm() (*safas.Value, *safas.Value) {
	tok, err := rd.lx.Next()
	if err != nil {
		return nil, parseError(err)
	}
	switch tok.Type {
	case token.PAREN_L:
		return rd.readList(tok.Source)
	case token.BRACE_L:
		return rd.readBracketBinding(tok.Source, token.BRACE_R, safas.SymBinding)
	case token.ANGLE_L:
		return rd.readBracketBinding(tok.Source, token.ANGLE_R, safas.StmtBinding)
	case token.ANGLE_LIT:
		return withSource(safas.Sym("<"), tok.Source), nil
	case token.STRING:
		return withSource(safas.Str(tok.Text), tok.Source), nil
	case token.DOT:
		return withSource(safas.Sym("."), tok.Source), nil
	case token.SYMBOL:
		return parseAtom(tok.Text, tok.Source), nil
	case token.PAREN_R:
		return nil, safas.Errorf(safas.CondParseError, "unexpected )").WithSpan(tok.Source)
	case token.BRACE_R:
		return nil, safas.Errorf(safas.CondParseError, "unexpected }").WithSpan(tok.Source)
	case token.ANGLE_R:
		return nil, safas.Errorf(safas.CondParseError, "unexpected >").WithSpan(tok.Source)
	case token.EOF:
		return nil, safas.Errorf(safas.CondParseError, "unexpected end of input").WithSpan(tok.Source)
	default:
		return nil, safas.Errorf(safas.CondParseError, "unexpected token %s", tok.Type).WithSpan(tok.Source)
	}
}

func withSource(v *safas.Value, loc *token.Location) *safas.Value {
	v.Source = loc
	return v
}

// readList reads forms up to a matching PAREN_R. The `(. name)` shorthand
// is desugared here into `(label name ip)`, an abbreviation
// for "define a label at the current write position" (ip is the
// byte-addressed instruction pointer, bit_pos/8).
func (rd *Reader) readList(open *token.Location) (*safas.Value, *safas.Value) {
	var cells []*safas.Value
	for {
		tok, err := rd.lx.Peek()
		if err != nil {
			return nil, parseError(err)
		}
		if tok.Type == token.EOF {
			return nil, safas.Errorf(safas.CondParseError, "unterminated list starting at %s", open).WithSpan(open)
		}
		if tok.Type == token.PAREN_R {
			rd.lx.Next()
			break
		}
		v, verr := rd.readForm()
		if verr != nil {
			return nil, verr
		}
		cells = append(cells, v)
	}
	if len(cells) == 2 && cells[0].Kind == safas.KSymbol && cells[0].Str == "." {
		return withSource(safas.List([]*safas.Value{
			safas.Sym("label"),
			cells[1],
			safas.Sym("ip"),
		}), open), nil
	}
	return withSource(safas.List(cells), open), nil
}

// readBracketBinding reads a single symbol between a bracket pair already
// opened (BRACE_L or ANGLE_L was just consumed) and closed by close,
// wrapping it with make (safas.SymBinding or safas.StmtBinding).
func (rd *Reader) readBracketBinding(open *token.Location, close token.Type, make func(string) *safas.Value) (*safas.Value, *safas.Value) {
	nameTok, err := rd.lx.Next()
	if err != nil {
		return nil, parseError(err)
	}
	if nameTok.Type != token.SYMBOL {
		return nil, safas.Errorf(safas.CondParseError, "expected a name inside binding brackets").WithSpan(nameTok.Source)
	}
	closeTok, err := rd.lx.Next()
	if err != nil {
		return nil, parseError(err)
	}
	if closeTok.Type != close {
		return nil, safas.Errorf(safas.CondParseError, "unterminated binding starting at %s", open).WithSpan(open)
	}
	return withSource(make(nameTok.Text), open), nil
}

// parseAtom classifies a SYMBOL token's text as a decimal, hex, or binary
// literal, or leaves it as a plain Symbol, per the literal grammar.
func parseAtom(text string, loc *token.Location) *safas.Value {
	if strings.HasPrefix(text, "$") {
		if v, ok := parseHex(text[1:]); ok {
			return withSource(v, loc)
		}
	} else if v, ok := parseBinary(text); ok {
		return withSource(v, loc)
	} else if v, ok := parseDecimal(text); ok {
		return withSource(v, loc)
	}
	return withSource(safas.Sym(text), loc)
}

// splitWidthSuffix splits a trailing u<N> or i<N> width/signedness suffix
// off digits, e.g. "100u8" -> ("100", 8, false, true).
func splitWidthSuffix(s string) (digits string, width int, signed bool, has bool) {
	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	if i == len(s) || i == 0 {
		return s, 0, false, false
	}
	marker := s[i-1]
	if marker != 'u' && marker != 'i' {
		return s, 0, false, false
	}
	widthDigits := s[i:]
	n, ok := parseUintFast(widthDigits)
	if !ok || n == 0 {
		return s, 0, false, false
	}
	return s[:i-1], n, marker == 'i', true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseUintFast(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// minWidthBytes returns the smallest multiple of 8 bits that can hold a
// non-negative value with the given bit length, per SPEC_FULL.md's Open
// Question decision: an unsuffixed hex literal takes the minimum
// byte-multiple width that holds its value.
func minWidthBytes(bitLen int) int {
	if bitLen == 0 {
		bitLen = 1
	}
	width := ((bitLen + 7) / 8) * 8
	if width == 0 {
		width = 8
	}
	return width
}

func parseHex(digits string) (*safas.Value, bool) {
	body, width, signed, hasSuffix := splitWidthSuffix(digits)
	if body == "" {
		return nil, false
	}
	val, ok := new(big.Int).SetString(body, 16)
	if !ok {
		return nil, false
	}
	if !hasSuffix {
		width = minWidthBytes(val.BitLen())
		signed = false
	}
	return safas.NewInt(val, width, signed), true
}

func parseBinary(text string) (*safas.Value, bool) {
	if len(text) < 2 || text[len(text)-1] != 'b' {
		return nil, false
	}
	digits := text[:len(text)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] != '0' && digits[i] != '1' {
			return nil, false
		}
	}
	val, ok := new(big.Int).SetString(digits, 2)
	if !ok {
		return nil, false
	}
	return safas.NewBinary(val, len(digits)), true
}

func parseDecimal(text string) (*safas.Value, bool) {
	body, width, signed, hasSuffix := splitWidthSuffix(text)
	if body == "" {
		return nil, false
	}
	neg := false
	digits := body
	if digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	if digits == "" {
		return nil, false
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return nil, false
		}
	}
	val, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, false
	}
	if neg {
		val.Neg(val)
	}
	if !hasSuffix {
		width, signed = 32, true
	}
	return safas.NewInt(val, width, signed), true
}

// Package lexer implements the hand-written scanner that turns SAFAS
// source text into a flat token stream for parser/reader to structure into
// a value tree.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/safas-lang/safas/parser/token"
)

// structural runes that always terminate an atom. next reads '<' and '>' as
// the comparison atoms <, <=, > and >= when they do not bracket a binding
// name.
const structural = "(){}<>\""

// Lexer scans UTF-8 source text into tokens, tracking line/column
// information for each token's Location.
type Lexer struct {
	file   string
	src    []byte
	pos    int
	line   int
	col    int
	peeked *token.Token
}

// New returns a Lexer over src, reporting positions against file.
func New(file string, src []byte) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

func (lx *Lexer) loc() *token.Location {
	return &token.Location{File: lx.file, Pos: lx.pos, Line: lx.line, Col: lx.col}
}

func (lx *Lexer) eof() bool {
	return lx.pos >= len(lx.src)
}

func (lx *Lexer) peekRune() (rune, int) {
	if lx.eof() {
		return 0, 0
	}
	r, n := utf8.DecodeRune(lx.src[lx.pos:])
	return r, n
}

func (lx *Lexer) advance() rune {
	r, n := lx.peekRune()
	lx.pos += n
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *Lexer) skipWhitespaceAndComments() {
	for !lx.eof() {
		r, _ := lx.peekRune()
		switch {
		case unicode.IsSpace(r):
			lx.advance()
		case r == ';':
			for !lx.eof() {
				r, _ := lx.peekRune()
				if r == '\n' {
					break
				}
				lx.advance()
			}
		default:
			return
		}
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() (*token.Token, error) {
	if lx.peeked != nil {
		return lx.peeked, nil
	}
	tok, err := lx.next()
	if err != nil {
		return nil, err
	}
	lx.peeked = tok
	return tok, nil
}

// Next consumes and returns the next token.
func (lx *Lexer) Next() (*token.Token, error) {
	if lx.peeked != nil {
		tok := lx.peeked
		lx.peeked = nil
		return tok, nil
	}
	return lx.next()
}

func (lx *Lexer) next() (*token.Token, error) {
	lx.skipWhitespaceAndComments()
	loc := lx.loc()
	if lx.eof() {
		return &token.Token{Type: token.EOF, Source: loc}, nil
	}
	r, _ := lx.peekRune()
	switch r {
	case '(':
		lx.advance()
		return &token.Token{Type: token.PAREN_L, Text: "(", Source: loc}, nil
	case ')':
		lx.advance()
		return &token.Token{Type: token.PAREN_R, Text: ")", Source: loc}, nil
	case '{':
		lx.advance()
		return &token.Token{Type: token.BRACE_L, Text: "{", Source: loc}, nil
	case '}':
		lx.advance()
		return &token.Token{Type: token.BRACE_R, Text: "}", Source: loc}, nil
	case '<':
		lx.advance()
		r2, _ := lx.peekRune()
		if r2 == '<' {
			lx.advance()
			return &token.Token{Type: token.ANGLE_LIT, Text: "<<", Source: loc}, nil
		}
		if r2 == '=' {
			lx.advance()
			return &token.Token{Type: token.SYMBOL, Text: "<=", Source: loc}, nil
		}
		if lx.eof() || isStructural(r2) {
			return &token.Token{Type: token.SYMBOL, Text: "<", Source: loc}, nil
		}
		return &token.Token{Type: token.ANGLE_L, Text: "<", Source: loc}, nil
	case '>':
		prev, _ := utf8.DecodeLastRune(lx.src[:lx.pos])
		standalone := lx.pos == 0 || isStructural(prev)
		lx.advance()
		if r2, _ := lx.peekRune(); r2 == '=' {
			lx.advance()
			return &token.Token{Type: token.SYMBOL, Text: ">=", Source: loc}, nil
		}
		if standalone {
			return &token.Token{Type: token.SYMBOL, Text: ">", Source: loc}, nil
		}
		return &token.Token{Type: token.ANGLE_R, Text: ">", Source: loc}, nil
	case '"':
		return lx.readString(loc)
	}
	return lx.readAtom(loc)
}

func (lx *Lexer) readString(loc *token.Location) (*token.Token, error) {
	lx.advance() // opening quote
	buf := make([]byte, 0, 16)
	for {
		if lx.eof() {
			return nil, &token.LocationError{Err: fmt.Errorf("unterminated string literal"), Source: loc}
		}
		r, _ := lx.peekRune()
		if r == '\n' {
			return nil, &token.LocationError{Err: fmt.Errorf("unterminated string literal"), Source: loc}
		}
		if r == '"' {
			lx.advance()
			break
		}
		if r == '\\' {
			lx.advance()
			if lx.eof() {
				return nil, &token.LocationError{Err: fmt.Errorf("unterminated string literal"), Source: loc}
			}
			esc, _ := lx.peekRune()
			lx.advance()
			decoded, err := decodeEscape(esc)
			if err != nil {
				return nil, &token.LocationError{Err: err, Source: loc}
			}
			buf = utf8.AppendRune(buf, decoded)
			continue
		}
		lx.advance()
		buf = utf8.AppendRune(buf, r)
	}
	return &token.Token{Type: token.STRING, Text: string(buf), Source: loc}, nil
}

func decodeEscape(r rune) (rune, error) {
	switch r {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '\\':
		return '\\', nil
	case '"':
		return '"', nil
	case '0':
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown escape sequence: \\%c", r)
	}
}

func isStructural(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	for _, s := range structural {
		if r == s {
			return true
		}
	}
	return false
}

func (lx *Lexer) readAtom(loc *token.Location) (*token.Token, error) {
	start := lx.pos
	for !lx.eof() {
		r, _ := lx.peekRune()
		if isStructural(r) {
			break
		}
		if r == ';' {
			break
		}
		lx.advance()
	}
	text := string(lx.src[start:lx.pos])
	if text == "" {
		r, _ := lx.peekRune()
		return nil, &token.LocationError{Err: fmt.Errorf("unexpected character %q", r), Source: loc}
	}
	if text == "." {
		return &token.Token{Type: token.DOT, Text: text, Source: loc}, nil
	}
	return &token.Token{Type: token.SYMBOL, Text: text, Source: loc}, nil
}

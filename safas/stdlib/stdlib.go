// Package stdlib ships SAFAS libraries written in SAFAS itself, the
// "library written in the language" pattern: rather than a Go builtin per
// concern, the standard library (stdlib/bytes and stdlib/6502) is ordinary
// SAFAS source text,
// loaded through the module system like any user library.
package stdlib

import "fmt"

// BytesSource defines little_endian/big_endian byte-splitting helpers for
// common integer widths. Each helper is a syntax, not a function, because
// it must accept a forward-referencing label expression and still let `d`
// defer it: the operand is captured with a `{name}` (raw, unevaluated)
// binding rather than `<name>`, so the label reference reaches `d`'s own
// deferred-hole handling unevaluated instead of failing immediately during
// macro expansion.
const BytesSource = `
(def_syntax le16
  ((le16 {v}) ((d (bits 8 v) (bits 8 (/ v 256))))))

(def_syntax le32
  ((le32 {v})
   ((d (bits 8 v)
       (bits 8 (/ v 256))
       (bits 8 (/ v 65536))
       (bits 8 (/ v 16777216))))))

(def_syntax be16
  ((be16 {v}) ((d (bits 8 (/ v 256)) (bits 8 v)))))

(def_syntax be32
  ((be32 {v})
   ((d (bits 8 (/ v 16777216))
       (bits 8 (/ v 65536))
       (bits 8 (/ v 256))
       (bits 8 v)))))

(export le16)
(export le32)
(export be16)
(export be32)
`

// M6502Source is a deliberately partial 6502 addressing-mode dispatcher,
// the canonical application SAFAS is framed around: writing a CPU
// assembler entirely as a library of syntaxes over the core primitives.
// It covers two mnemonics (lda, sta) across a handful of addressing modes,
// plus one extend_syntax composition (ldax, a made-up zero-page,X variant
// of lda) to demonstrate the fallthrough mechanism used for
// accumulating addressing-mode rules onto an existing syntax without
// modifying it. Addressing modes are written as explicit wrapper forms
// ((imm v), (zp v), a bare address) rather than assembly's terse #/,X
// suffixes, since disambiguating those textually would need string
// primitives outside this core.
//
// branch and zero_page round out the library with the two shapes lda/sta
// don't exercise: branch resolves a relative offset from ip, captured at
// the emission site so a forward-referencing target still back-patches
// correctly; zero_page picks its opcode and operand width from the
// magnitude of the address itself rather than from how the caller wrote
// it, the common self-selecting addressing mode of real assemblers.
const M6502Source = `
(def_syntax lda
  ((lda (imm {v})) ((d 169u8 (bits 8 v))))
  ((lda (zp {v}))  ((d 165u8 (bits 8 v))))
  ((lda {addr})    ((d 173u8 (bits 16 addr)))))

(def_syntax sta
  ((sta (zp {v})) ((d 133u8 (bits 8 v))))
  ((sta {addr})   ((d 141u8 (bits 16 addr)))))

(extend_syntax ldax lda
  ((ldax (zp_x {v})) ((d 181u8 (bits 8 v)))))

(def_syntax branch
  ((branch {addr} {opcode})
   ((d opcode (bits 8 (- addr (+ ip 1)))))))

(def_syntax zero_page
  ((zero_page <v> <zp_opcode> <abs_opcode>)
   ((if (<= v 255u32)
        ((d zp_opcode (bits 8 v)))
        ((d abs_opcode (bits 8 v) (bits 8 (/ v 256))))))))

(export lda)
(export sta)
(export ldax)
(export branch)
(export zero_page)
`

// EmbeddedProvider resolves the "stdlib/..." import namespace to the
// source constants above without touching the filesystem, falling back to
// Fallback (typically a safas.FileSourceProvider) for any other path. It
// is installed on a Loader the same way a standard library is wired
// into every fresh environment, except SAFAS libraries opt in via
// `(import "stdlib/bytes")` rather than being preloaded automatically.
type EmbeddedProvider struct {
	Fallback interface {
		Resolve(path string) (string, []byte, error)
	}
}

var modules = map[string]string{
	"stdlib/bytes": BytesSource,
	"stdlib/6502":  M6502Source,
}

// Resolve implements safas.SourceProvider.
func (p *EmbeddedProvider) Resolve(path string) (string, []byte, error) {
	if src, ok := modules[path]; ok {
		return path, []byte(src), nil
	}
	if p.Fallback != nil {
		return p.Fallback.Resolve(path)
	}
	return "", nil, fmt.Errorf("unknown standard library module: %s", path)
}

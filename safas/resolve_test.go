package safas_test

import (
	"testing"

	"github.com/safas-lang/safas/safastest"
)

func TestForwardLabelResolution(t *testing.T) {
	safastest.RunAssembleCases(t, []safastest.AssembleCase{
		{
			Name: "bare forward reference defaults to 64 bits",
			Source: `
				(d (bits 8 1u8))
				(d later)
				(. later)`,
			Hex: "01 0000000000000009",
		},
		{
			Name: "explicit width forward reference",
			Source: `
				(d (bits 16 target))
				(. target)`,
			Hex: "0002",
		},
		{
			Name: "backward reference needs no deferral",
			Source: `
				(. here)
				(d (bits 8 here))`,
			Hex: "00",
		},
		{
			Name:   "unresolved label after fixed point fails",
			Source: `(d (bits 8 nowhere))`,
			ErrIs:  "unresolved-label",
		},
		{
			Name: "forward reference is only deferred as a direct d/a argument",
			Source: `
				(let ((x (+ target 1i32)))
				  (d (bits 16 x)))
				(. target)`,
			ErrIs: "unknown-name",
		},
	})
}

func TestForwardLabelThroughMacroExpansion(t *testing.T) {
	// Mirrors stdlib/bytes' le16: a syntax that splits its operand across
	// two `d` calls via a raw {v} binding, so a label the operand
	// references can still be deferred by `d` itself instead of failing
	// during macro expansion. The template is expanded in the caller's
	// environment, so this works even when the syntax itself was imported
	// from a separate module and target is only bound afterward, at the
	// call site.
	safastest.RunAssembleCases(t, []safastest.AssembleCase{
		{
			Name: "raw binding lets d defer a label the macro never evaluates",
			Source: `
				(def_syntax le16
				  ((le16 {v}) ((d (bits 8 v) (bits 8 (/ v 256))))))
				(le16 target)
				(. target)`,
			Hex: "0200",
		},
	})
}

func TestAlignmentDeferral(t *testing.T) {
	safastest.RunAssembleCases(t, []safastest.AssembleCase{
		{
			Name: "align to a 4-byte boundary pads with the pattern",
			Source: `
				(d 1u8)
				(a 0u8 32)`,
			Hex: "01 000000",
		},
		{
			Name: "align already at boundary is a no-op",
			Source: `
				(d 1u32)
				(a 0u8 32)`,
			Hex: "00000001",
		},
	})
}

func TestBitsWidening(t *testing.T) {
	tests := []struct {
		name string
		expr string
		res  string
	}{
		{"truncate to narrower unsigned width", "(bits 8 300u32)", "44u8"},
		{"sign-extend into a wider signed width", "(bits 16 -1i8)", "-1i16"},
		{"zero-extend a binary literal", "(bits 8 101b)", "00000101b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			safastest.RunTestSuite(t, safastest.TestSuite{
				{tc.name, safastest.TestSequence{{Expr: tc.expr, Result: tc.res}}},
			})
		})
	}
}

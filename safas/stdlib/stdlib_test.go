package stdlib_test

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/safas-lang/safas/parser/reader"
	"github.com/safas-lang/safas/safas"
	"github.com/safas-lang/safas/safas/stdlib"
)

func assembleWithStdlib(t *testing.T, src string) []byte {
	t.Helper()
	env := safas.NewRootEnv()
	env.Runtime.Loader.Parse = reader.ParseAll
	env.Runtime.Loader.Provider = &stdlib.EmbeddedProvider{}
	forms, perr := reader.ParseAll("test", []byte(src))
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	if _, err := safas.EvalBody(env, forms); err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if err := env.Runtime.Resolver.Resolve(env.Runtime.Cursor); err.IsError() {
		t.Fatalf("resolve error: %v", err)
	}
	return env.Runtime.Cursor.Bytes()
}

func TestBytesHelpers(t *testing.T) {
	cases := []struct {
		name string
		src  string
		hex  string
	}{
		{"le16 splits low byte first", `
			(import "stdlib/bytes")
			(le16 4660u16)`, "3412"}, // 0x1234 -> 34 12
		{"be16 splits high byte first", `
			(import "stdlib/bytes")
			(be16 4660u16)`, "1234"},
		{"le32 splits four bytes little-endian", `
			(import "stdlib/bytes")
			(le32 305419896u32)`, "78563412"}, // 0x12345678
		{"be32 splits four bytes big-endian", `
			(import "stdlib/bytes")
			(be32 305419896u32)`, "12345678"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := hex.EncodeToString(assembleWithStdlib(t, c.src))
			if got != c.hex {
				t.Fatalf("expected %s, got %s", c.hex, got)
			}
		})
	}
}

func TestSixFiveOhTwoAddressingModes(t *testing.T) {
	cases := []struct {
		name string
		src  string
		hex  string
	}{
		{"lda immediate", `
			(import "stdlib/6502")
			(lda (imm 5u8))`, "a905"},
		{"lda zero page", `
			(import "stdlib/6502")
			(lda (zp 16u8))`, "a510"},
		{"lda absolute", `
			(import "stdlib/6502")
			(lda 4096u16)`, "ad1000"},
		{"sta zero page", `
			(import "stdlib/6502")
			(sta (zp 16u8))`, "8510"},
		{"sta absolute", `
			(import "stdlib/6502")
			(sta 4096u16)`, "8d1000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := hex.EncodeToString(assembleWithStdlib(t, c.src))
			if got != c.hex {
				t.Fatalf("expected %s, got %s", c.hex, got)
			}
		})
	}
}

func TestBranchComputesOffsetFromIp(t *testing.T) {
	cases := []struct {
		name string
		src  string
		hex  string
	}{
		{"literal target: offset relative to the byte after the opcode", `
			(import "stdlib/6502")
			(set_bit_pos 32768)
			(branch 4101u16 16u8)`, strings.Repeat("00", 0x1000) + "1003"}, // bit_pos = 8*$1000, addr = $1005, opcode = $10 -> $10 $03 after $1000 zero bytes
		{"forward-referenced target defers and back-patches via the resolver", `
			(import "stdlib/6502")
			(set_bit_pos 32768)
			(branch target 16u8)
			(d 0u8 0u8 0u8)
			(. target)`, strings.Repeat("00", 0x1000) + "1003000000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := hex.EncodeToString(assembleWithStdlib(t, c.src))
			if got != c.hex {
				t.Fatalf("expected %s, got %s", c.hex, got)
			}
		})
	}
}

func TestZeroPageSelectsAddressingModeByMagnitude(t *testing.T) {
	cases := []struct {
		name string
		src  string
		hex  string
	}{
		{"value fits a byte: zero-page opcode, 1-byte operand", `
			(import "stdlib/6502")
			(zero_page $80 $A5u8 $ADu8)`, "a580"},
		{"value needs 16 bits: absolute opcode, little-endian operand", `
			(import "stdlib/6502")
			(zero_page $1234 $A5u8 $ADu8)`, "ad3412"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := hex.EncodeToString(assembleWithStdlib(t, c.src))
			if got != c.hex {
				t.Fatalf("expected %s, got %s", c.hex, got)
			}
		})
	}
}

func TestExtendSyntaxAddsAddressingModeWithoutLosingBase(t *testing.T) {
	src := `
		(import "stdlib/6502")
		(ldax (zp_x 16u8))`
	got := hex.EncodeToString(assembleWithStdlib(t, src))
	if got != "b510" {
		t.Fatalf("expected b510, got %s", got)
	}

	src2 := `
		(import "stdlib/6502")
		(ldax (imm 5u8))`
	got2 := hex.EncodeToString(assembleWithStdlib(t, src2))
	if got2 != "a905" {
		t.Fatalf("expected the extended syntax to still dispatch to the base lda rule, got %s", got2)
	}
}

func TestEmbeddedProviderFallsThroughForUnknownModules(t *testing.T) {
	p := &stdlib.EmbeddedProvider{}
	_, _, err := p.Resolve("stdlib/does-not-exist")
	if err == nil {
		t.Fatalf("expected an error resolving an unknown module with no fallback")
	}
	if !strings.Contains(err.Error(), "unknown standard library module") {
		t.Fatalf("expected an unknown-module error, got %v", err)
	}
}

func TestEmbeddedProviderServesKnownModules(t *testing.T) {
	p := &stdlib.EmbeddedProvider{}
	id, src, err := p.Resolve("stdlib/bytes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "stdlib/bytes" {
		t.Fatalf("expected id stdlib/bytes, got %s", id)
	}
	if !bytes.Contains(src, []byte("def_syntax le16")) {
		t.Fatalf("expected the bytes source to define le16")
	}
}

package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safas-lang/safas/parser/reader"
	"github.com/safas-lang/safas/safas"
)

func parseOne(t *testing.T, src string) *safas.Value {
	t.Helper()
	forms, err := reader.ParseAll("test", []byte(src))
	require.Nil(t, err, "unexpected parse error")
	require.Len(t, forms, 1)
	return forms[0]
}

func TestParseDecimalLiterals(t *testing.T) {
	cases := []struct {
		src    string
		width  int
		signed bool
		value  int64
	}{
		{"42", 32, true, 42},
		{"-7", 32, true, -7},
		{"100u8", 8, false, 100},
		{"100i16", 16, true, 100},
	}
	for _, c := range cases {
		v := parseOne(t, c.src)
		assert.Equal(t, safas.KInt, v.Kind, c.src)
		assert.Equal(t, c.width, v.Width, c.src)
		assert.Equal(t, c.signed, v.Signed, c.src)
		assert.Equal(t, c.value, v.Int.Int64(), c.src)
	}
}

func TestParseHexLiterals(t *testing.T) {
	cases := []struct {
		src   string
		width int
		value int64
	}{
		{"$ff", 8, 0xff},     // one byte's worth of bits: minimum width is 8
		{"$100", 16, 0x100},  // needs 9 bits, rounds up to the next byte
		{"$ffu16", 16, 0xff}, // explicit suffix overrides the minimum-width default
	}
	for _, c := range cases {
		v := parseOne(t, c.src)
		assert.Equal(t, safas.KInt, v.Kind, c.src)
		assert.Equal(t, c.width, v.Width, c.src)
		assert.Equal(t, c.value, v.Int.Int64(), c.src)
		assert.False(t, v.Signed, c.src)
	}
}

func TestParseBinaryLiteral(t *testing.T) {
	v := parseOne(t, "1011b")
	assert.Equal(t, safas.KBinary, v.Kind)
	assert.Equal(t, 4, v.Width)
	assert.EqualValues(t, 0b1011, v.Int.Int64())
}

func TestParseSymbol(t *testing.T) {
	v := parseOne(t, "my-label")
	assert.Equal(t, safas.KSymbol, v.Kind)
	assert.Equal(t, "my-label", v.Str)
}

func TestDotLabelDesugaring(t *testing.T) {
	v := parseOne(t, "(. entry)")
	require.Equal(t, safas.KList, v.Kind)
	require.Len(t, v.Cells, 3)
	assert.Equal(t, safas.KSymbol, v.Cells[0].Kind)
	assert.Equal(t, "label", v.Cells[0].Str)
	assert.Equal(t, "entry", v.Cells[1].Str)
	require.Equal(t, safas.KSymbol, v.Cells[2].Kind)
	assert.Empty(t, v.Cells[2].Cells)
	assert.Equal(t, "ip", v.Cells[2].Str)
}

func TestBracketBindings(t *testing.T) {
	v := parseOne(t, "{raw}")
	assert.Equal(t, safas.KSymBinding, v.Kind)
	assert.Equal(t, "raw", v.Str)

	v = parseOne(t, "<eager>")
	assert.Equal(t, safas.KStmtBinding, v.Kind)
	assert.Equal(t, "eager", v.Str)
}

func TestParseAllReturnsEveryTopLevelForm(t *testing.T) {
	forms, err := reader.ParseAll("test", []byte("1i32 2i32 (+ 1i32 2i32)"))
	require.Nil(t, err)
	assert.Len(t, forms, 3)
}

func TestUnterminatedListIsAParseError(t *testing.T) {
	_, err := reader.ParseAll("test", []byte("(+ 1i32 2i32"))
	assert.NotNil(t, err, "expected a parse error for an unterminated list")
}

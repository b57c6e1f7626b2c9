package safas_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safas-lang/safas/safas"
)

func TestCursorWriteBitsUnaligned(t *testing.T) {
	c := safas.NewCursor()
	// 0b101 then 0b11010 packed msb-first into a single byte: 10111010.
	c.WriteBits(big.NewInt(0b101), 3)
	c.WriteBits(big.NewInt(0b11010), 5)
	assert.Equal(t, "ba", hex.EncodeToString(c.Bytes()))
}

func TestCursorWriteBytesAligned(t *testing.T) {
	c := safas.NewCursor()
	c.WriteBits(big.NewInt(0), 8)
	c.WriteBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Equal(t, "00deadbeef", hex.EncodeToString(c.Bytes()))
}

func TestCursorWriteBytesUnaligned(t *testing.T) {
	c := safas.NewCursor()
	c.WriteBits(big.NewInt(0b1111), 4)
	c.WriteBytes([]byte{0x0f})
	assert.Equal(t, "f0f0", hex.EncodeToString(c.Bytes()))
}

func TestCursorSetBitPosRejectsNegative(t *testing.T) {
	c := safas.NewCursor()
	err := c.SetBitPos(-1)
	require.True(t, err.IsError())
}

func TestCursorPatchBitsLeavesPositionUnaffected(t *testing.T) {
	c := safas.NewCursor()
	c.WriteBits(big.NewInt(0), 16)
	c.PatchBits(0, big.NewInt(0xab), 8)
	assert.Equal(t, 16, c.BitPos())
	assert.Equal(t, "ab00", hex.EncodeToString(c.Bytes()))
}

func TestCursorAlignFillsWithPattern(t *testing.T) {
	c := safas.NewCursor()
	c.WriteBits(big.NewInt(1), 4)
	err := c.Align(big.NewInt(0b1010), 4, 16)
	require.False(t, err.IsError())
	assert.Equal(t, "1aaa", hex.EncodeToString(c.Bytes()))
}

func TestCursorAlignNoopWhenAligned(t *testing.T) {
	c := safas.NewCursor()
	c.WriteBits(big.NewInt(0xff), 8)
	err := c.Align(big.NewInt(0), 8, 8)
	require.False(t, err.IsError())
	assert.Equal(t, 8, c.BitPos())
}

func TestCursorAlignRejectsNonPositiveModulus(t *testing.T) {
	c := safas.NewCursor()
	err := c.Align(big.NewInt(0), 8, 0)
	assert.True(t, err.IsError())
}

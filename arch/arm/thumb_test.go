package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeThumbBXReg(t *testing.T) {
	// "bx lr", 0x4770.
	ti, ok := decodeThumb([]byte{0x70, 0x47})
	require.True(t, ok)
	assert.Equal(t, thumbBXReg, ti.Kind)
	assert.Equal(t, 2, ti.Len)
	assert.EqualValues(t, 14, ti.Reg)
}

func TestDecodeThumbBLXReg(t *testing.T) {
	// "blx r3", 0x4798.
	ti, ok := decodeThumb([]byte{0x98, 0x47})
	require.True(t, ok)
	assert.Equal(t, thumbBLXReg, ti.Kind)
	assert.EqualValues(t, 3, ti.Reg)
}

func TestDecodeThumbPush(t *testing.T) {
	// "push {r4, lr}", 0xB510.
	ti, ok := decodeThumb([]byte{0x10, 0xB5})
	require.True(t, ok)
	assert.Equal(t, thumbPush, ti.Kind)
	assert.EqualValues(t, 0x10, ti.RegList)
	assert.True(t, ti.HasLR)
}

func TestDecodeThumbPop(t *testing.T) {
	// "pop {r4, pc}", 0xBD10.
	ti, ok := decodeThumb([]byte{0x10, 0xBD})
	require.True(t, ok)
	assert.Equal(t, thumbPop, ti.Kind)
	assert.EqualValues(t, 0x10, ti.RegList)
	assert.True(t, ti.HasPC)
}

func TestDecodeThumbUnconditionalBranch(t *testing.T) {
	// "b .+6", imm11=1, 0xE001.
	ti, ok := decodeThumb([]byte{0x01, 0xE0})
	require.True(t, ok)
	assert.Equal(t, thumbB, ti.Kind)
	assert.False(t, ti.HasCond)
	assert.EqualValues(t, 2, ti.Offset)
}

func TestDecodeThumbConditionalBranch(t *testing.T) {
	// "beq .+6", cond=EQ(0), imm8=1, 0xD001.
	ti, ok := decodeThumb([]byte{0x01, 0xD0})
	require.True(t, ok)
	assert.Equal(t, thumbB, ti.Kind)
	assert.True(t, ti.HasCond)
	assert.EqualValues(t, 0, ti.Cond)
	assert.EqualValues(t, 2, ti.Offset)
}

func TestDecodeThumbSVCIsNotBranch(t *testing.T) {
	// "svc #0", cond nibble 0xF, 0xDF00 — carved out as thumbOther.
	ti, ok := decodeThumb([]byte{0x00, 0xDF})
	require.True(t, ok)
	assert.Equal(t, thumbOther, ti.Kind)
}

func TestDecodeThumbCBZ(t *testing.T) {
	// "cbz r0, .+4", op=0, i=0, imm5=0, 0xB100.
	ti, ok := decodeThumb([]byte{0x00, 0xB1})
	require.True(t, ok)
	assert.Equal(t, thumbCBZ, ti.Kind)
	assert.EqualValues(t, 0, ti.Offset)
}

func TestDecodeThumbCBNZ(t *testing.T) {
	// "cbnz r0, .+4", op=1, 0xB900.
	ti, ok := decodeThumb([]byte{0x00, 0xB9})
	require.True(t, ok)
	assert.Equal(t, thumbCBNZ, ti.Kind)
}

func TestDecodeThumbBL32(t *testing.T) {
	// 32-bit Thumb-2 "bl" with a zero displacement: h=0xF000, h2=0xF800.
	ti, ok := decodeThumb([]byte{0x00, 0xF0, 0x00, 0xF8})
	require.True(t, ok)
	assert.Equal(t, thumbBL, ti.Kind)
	assert.Equal(t, 4, ti.Len)
	assert.EqualValues(t, 0, ti.Offset)
}

func TestDecodeThumbBLXImm32(t *testing.T) {
	// Same as above with bit12 of the second halfword cleared: switches
	// to the BLX(immediate) form, target word-aligned.
	ti, ok := decodeThumb([]byte{0x00, 0xF0, 0x00, 0xE8})
	require.True(t, ok)
	assert.Equal(t, thumbBLX, ti.Kind)
	assert.Equal(t, 4, ti.Len)
	assert.EqualValues(t, 0, ti.Offset)
}

func TestDecodeThumbShortInput(t *testing.T) {
	_, ok := decodeThumb([]byte{0x70})
	assert.False(t, ok)
}

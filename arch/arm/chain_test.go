package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/arm/armasm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

func thumbInstAt(addr uint64, ti thumbInst) instruction.Instruction {
	return instruction.Instruction{
		Addr:   addr,
		Bytes:  make([]byte, ti.Len),
		Detail: Detail{Mode: machine.ModeThumb, Thumb: ti},
	}
}

func TestDetailEqualityIsModeOnly(t *testing.T) {
	a := Detail{Mode: machine.ModeArm}
	b := Detail{Mode: machine.ModeArm, Arm: armasm.Inst{Op: armasm.MOV}}
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.DetailHash(), b.DetailHash())

	thumb := Detail{Mode: machine.ModeThumb}
	assert.False(t, a.Equal(thumb))
}

func TestThumbPopWithPCIsROP(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x1000, thumbInst{Kind: thumbPop, Len: 2, RegList: 0x10, HasPC: true})
	assert.True(t, cp.IsROP(inst))
	assert.Nil(t, cp.NextInsns(inst))
}

func TestThumbPopWithoutPCIsNotROP(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x1000, thumbInst{Kind: thumbPop, Len: 2, RegList: 0x10})
	assert.False(t, cp.IsROP(inst))
	require.Len(t, cp.NextInsns(inst), 1)
}

func TestThumbPopWithLRAndPCIsBad(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x1000, thumbInst{Kind: thumbPop, Len: 2, HasPC: true, HasLR: true})
	assert.Nil(t, cp.NextInsns(inst))
}

func TestThumbBXRegIsJOPUnlessLR(t *testing.T) {
	cp := ChainPolicy{}
	bxR1 := thumbInstAt(0x4000, thumbInst{Kind: thumbBXReg, Len: 2, Reg: 1})
	assert.True(t, cp.IsJOP(bxR1))
	assert.Nil(t, cp.NextInsns(bxR1))

	bxLR := thumbInstAt(0x4000, thumbInst{Kind: thumbBXReg, Len: 2, Reg: regLR})
	assert.False(t, cp.IsJOP(bxLR))
}

// TestThumbInterworkingCall models Thumb/ARM interworking: a Thumb
// BLX(imm) at 0x4000 must resolve to an ARM-mode key for its call
// target (+4 pipeline adjustment) while still offering the Thumb
// fallthrough.
func TestThumbInterworkingCall(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x4000, thumbInst{Kind: thumbBLX, Len: 4, Offset: 0x10})
	keys := cp.NextInsns(inst)
	require.Len(t, keys, 2)
	assert.Contains(t, keys, policy.LookupKey{Arch: machine.Arm, Mode: machine.ModeArm, Addr: 0x4000 + 4 + 0x10})
	assert.Contains(t, keys, policy.LookupKey{Arch: machine.Arm, Mode: machine.ModeThumb, Addr: inst.End()})
}

func TestThumbUnconditionalBranchTrims(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x4000, thumbInst{Kind: thumbB, Len: 2})
	assert.True(t, cp.ShouldTrim(inst))

	condInst := thumbInstAt(0x4000, thumbInst{Kind: thumbB, Len: 2, HasCond: true, Cond: 0})
	assert.False(t, cp.ShouldTrim(condInst))
}

func TestGetKeyCarriesMode(t *testing.T) {
	cp := ChainPolicy{}
	inst := thumbInstAt(0x4000, thumbInst{Kind: thumbPop, Len: 2, HasPC: true})
	assert.Equal(t, policy.LookupKey{Arch: machine.Arm, Mode: machine.ModeThumb, Addr: 0x4000}, cp.GetKey(inst))
}

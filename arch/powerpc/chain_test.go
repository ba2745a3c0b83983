package powerpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

func inst(op ppc64asm.Op, addr uint64, args ...ppc64asm.Arg) instruction.Instruction {
	var a ppc64asm.Args
	copy(a[:], args)
	return instruction.Instruction{Addr: addr, Bytes: []byte{0, 0, 0, 0}, Detail: Detail{Inst: ppc64asm.Inst{Op: op, Args: a, Len: 4}}}
}

// TestConditionalBranchFallsThroughAndTargets verifies that a bcl
// (always treated as conditional per the preserved quirk) yields both
// its resolved branch target and the fallthrough address.
func TestConditionalBranchFallsThroughAndTargets(t *testing.T) {
	i := inst(ppc64asm.BCL, 0x1000, ppc64asm.Imm(12), ppc64asm.Imm(2), ppc64asm.PCRel(8))

	cp := ChainPolicy{}
	assert.True(t, cp.IsConditional(i))

	next := cp.NextInsns(i)
	assert.Len(t, next, 2)
	assert.Contains(t, next, policy.LookupKey{Arch: machine.PowerPC, Addr: 0x1008})
	assert.Contains(t, next, policy.LookupKey{Arch: machine.PowerPC, Addr: i.End()})
}

// TestBareBCIsDeadEnd covers the preserved quirk: a bare bc is treated
// as unconditional yet still yields no successors at all, since its
// target cannot be derived from the BO/BI encoding this tool reads.
func TestBareBCIsDeadEnd(t *testing.T) {
	i := inst(ppc64asm.BC, 0x2000, ppc64asm.Imm(12), ppc64asm.Imm(2), ppc64asm.PCRel(8))

	cp := ChainPolicy{}
	assert.False(t, cp.IsConditional(i))
	assert.Empty(t, cp.NextInsns(i))
}

// TestBlrIsROPTerminator covers the "branch always" blr extended
// mnemonic (bclr with BO&0x14==0x14): it is an unconditional ROP
// terminator with no statically known successor.
func TestBlrIsROPTerminator(t *testing.T) {
	i := inst(ppc64asm.BCLR, 0x3000, ppc64asm.Imm(20), ppc64asm.Imm(0))

	cp := ChainPolicy{}
	assert.True(t, cp.IsROP(i))
	assert.False(t, cp.IsJOP(i))
	assert.False(t, cp.IsConditional(i))
	assert.Empty(t, cp.NextInsns(i))
	assert.True(t, cp.ShouldTrim(i))
}

// TestConditionalBclrIsNeitherRopNorJop covers a genuinely conditional
// bclr (BO requests a real condition-register test): it terminates
// neither a ROP nor a JOP chain.
func TestConditionalBclrIsNeitherRopNorJop(t *testing.T) {
	i := inst(ppc64asm.BCLR, 0x3000, ppc64asm.Imm(12), ppc64asm.Imm(2))

	cp := ChainPolicy{}
	assert.True(t, cp.IsConditional(i))
	assert.False(t, cp.IsROP(i))
	assert.False(t, cp.IsJOP(i))
}

// TestBctrIsJOPTerminator covers the "branch always" bctr extended
// mnemonic (bcctr with BO&0x14==0x14): an unconditional JOP terminator.
func TestBctrIsJOPTerminator(t *testing.T) {
	i := inst(ppc64asm.BCCTR, 0x4000, ppc64asm.Imm(20), ppc64asm.Imm(0))

	cp := ChainPolicy{}
	assert.True(t, cp.IsJOP(i))
	assert.False(t, cp.IsROP(i))
	assert.Empty(t, cp.NextInsns(i))
}

// TestUnconditionalBResolvesTargetOnly covers a direct b to a
// resolvable target: the only successor is the resolved address, not
// a fallthrough, since b never falls through.
func TestUnconditionalBResolvesTargetOnly(t *testing.T) {
	i := inst(ppc64asm.B, 0x5000, ppc64asm.PCRel(0x10))

	cp := ChainPolicy{}
	assert.False(t, cp.IsConditional(i))
	next := cp.NextInsns(i)
	assert.Equal(t, []policy.LookupKey{{Arch: machine.PowerPC, Addr: 0x5010}}, next)
	assert.True(t, cp.ShouldTrim(i))
}

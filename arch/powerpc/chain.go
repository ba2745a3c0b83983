package powerpc

import (
	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

const machineArch = machine.PowerPC

// ChainPolicy implements policy.ChainPolicy for 32-bit big-endian
// PowerPC.
type ChainPolicy struct{}

func detailOf(inst instruction.Instruction) ppc64asm.Inst {
	return inst.Detail.(Detail).Inst
}

func isBranch(op ppc64asm.Op) bool {
	switch op {
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA,
		ppc64asm.BC, ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA,
		ppc64asm.BCLR, ppc64asm.BCLRL, ppc64asm.BCCTR, ppc64asm.BCCTRL:
		return true
	}
	return false
}

// IsConditional reports whether inst is a genuinely conditional
// branch. Two quirks are preserved here deliberately:
//
//   - a bare BC is treated as unconditional, even though its BO/BI
//     fields can encode a real condition;
//   - BCA/BCL/BCLA are always treated as conditional, regardless of
//     their actual BO encoding.
func (ChainPolicy) IsConditional(inst instruction.Instruction) bool {
	d := detailOf(inst)
	switch d.Op {
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA, ppc64asm.BC:
		return false
	case ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA:
		return true
	case ppc64asm.BCLR, ppc64asm.BCLRL, ppc64asm.BCCTR, ppc64asm.BCCTRL:
		bo, ok := branchOptions(d)
		return ok && !boAlways(bo)
	default:
		return false
	}
}

// IsROP reports whether inst is an unconditional branch to the link
// register (the blr extended mnemonic: bclr with BO requesting "branch
// always").
func (ChainPolicy) IsROP(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if d.Op != ppc64asm.BCLR {
		return false
	}
	bo, ok := branchOptions(d)
	return ok && boAlways(bo)
}

// IsJOP reports whether inst is an unconditional branch (with or
// without link) to the count register (the bctr/bctrl extended
// mnemonics).
func (ChainPolicy) IsJOP(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if d.Op != ppc64asm.BCCTR && d.Op != ppc64asm.BCCTRL {
		return false
	}
	bo, ok := branchOptions(d)
	return ok && boAlways(bo)
}

// NextInsns returns the fallthrough address for a non-branch
// instruction; the resolved target for b/ba/bl/bla; nothing for a
// bare bc (the bug noted on IsConditional leaves it with no
// only_operand_imm-derived target either, so it becomes a dead end);
// target-and-fallthrough for bca/bcl/bcla (always "conditional" per
// the same preserved quirk); and nothing for bclr/bclrl/bcctr/bcctrl,
// which never have a statically known target (LR/CTR).
func (p ChainPolicy) NextInsns(inst instruction.Instruction) []policy.LookupKey {
	d := detailOf(inst)
	end := policy.LookupKey{Arch: machineArch, Addr: inst.End()}
	switch d.Op {
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA:
		if target, ok := branchTarget(d, inst.Addr, 0); ok {
			return []policy.LookupKey{{Arch: machineArch, Addr: target}}
		}
		return nil
	case ppc64asm.BC:
		return nil
	case ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA:
		if target, ok := branchTarget(d, inst.Addr, 2); ok {
			return []policy.LookupKey{{Arch: machineArch, Addr: target}, end}
		}
		return []policy.LookupKey{end}
	case ppc64asm.BCLR, ppc64asm.BCLRL, ppc64asm.BCCTR, ppc64asm.BCCTRL:
		return nil
	default:
		return []policy.LookupKey{end}
	}
}

// ShouldTrim reports whether inst is any branch-family opcode.
func (ChainPolicy) ShouldTrim(inst instruction.Instruction) bool {
	return isBranch(detailOf(inst).Op)
}

// GetKey returns the LookupKey inst is indexed under.
func (ChainPolicy) GetKey(inst instruction.Instruction) policy.LookupKey {
	return policy.LookupKey{Arch: machineArch, Addr: inst.Addr}
}

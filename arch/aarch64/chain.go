package aarch64

import (
	"golang.org/x/arch/arm64/arm64asm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

const machineArch = machine.AArch64

// ChainPolicy implements policy.ChainPolicy for AArch64.
type ChainPolicy struct{}

func detailOf(inst instruction.Instruction) arm64asm.Inst {
	return inst.Detail.(Detail).Inst
}

// IsConditional reports whether inst is a B.cond branch with a real
// (non-always) condition.
func (ChainPolicy) IsConditional(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if d.Op != arm64asm.B {
		return false
	}
	cond, ok := condArg(d)
	return ok && !isAlways(cond)
}

// IsROP reports whether inst is a plain return.
func (ChainPolicy) IsROP(inst instruction.Instruction) bool {
	return detailOf(inst).Op == arm64asm.RET
}

// IsJOP reports whether inst is an indirect branch or call through a
// register.
func (ChainPolicy) IsJOP(inst instruction.Instruction) bool {
	op := detailOf(inst).Op
	return op == arm64asm.BR || op == arm64asm.BLR
}

func isDirectBranch(op arm64asm.Op) bool {
	return op == arm64asm.B || op == arm64asm.BL
}

// NextInsns returns the resolved target (and fallthrough, if
// conditional) for a direct B/BL, nothing for a B/BL whose target
// can't be resolved, and the fallthrough for everything else,
// including RET/BR/BLR (targets unknowable statically).
func (p ChainPolicy) NextInsns(inst instruction.Instruction) []policy.LookupKey {
	d := detailOf(inst)
	end := policy.LookupKey{Arch: machineArch, Addr: inst.End()}
	switch {
	case d.Op == arm64asm.B:
		cond, hasCond := condArg(d)
		targetIdx := 0
		if hasCond {
			targetIdx = 1
		}
		target, ok := branchTarget(d, inst.Addr, targetIdx)
		conditional := hasCond && !isAlways(cond)
		switch {
		case conditional && ok:
			return []policy.LookupKey{{Arch: machineArch, Addr: target}, end}
		case conditional && !ok:
			return []policy.LookupKey{end}
		case !conditional && ok:
			return []policy.LookupKey{{Arch: machineArch, Addr: target}}
		default:
			return nil
		}
	case d.Op == arm64asm.BL:
		if target, ok := branchTarget(d, inst.Addr, 0); ok {
			return []policy.LookupKey{{Arch: machineArch, Addr: target}}
		}
		return nil
	default:
		return []policy.LookupKey{end}
	}
}

// ShouldTrim reports whether inst is a direct, unconditional B or BL.
func (ChainPolicy) ShouldTrim(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if !isDirectBranch(d.Op) {
		return false
	}
	if d.Op == arm64asm.BL {
		_, ok := branchTarget(d, inst.Addr, 0)
		return ok
	}
	cond, hasCond := condArg(d)
	if hasCond && !isAlways(cond) {
		return false
	}
	targetIdx := 0
	if hasCond {
		targetIdx = 1
	}
	_, ok := branchTarget(d, inst.Addr, targetIdx)
	return ok
}

// GetKey returns the LookupKey inst is indexed under.
func (ChainPolicy) GetKey(inst instruction.Instruction) policy.LookupKey {
	return policy.LookupKey{Arch: machineArch, Addr: inst.Addr}
}

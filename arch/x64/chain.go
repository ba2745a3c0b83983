package x64

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

const machineArch = machine.X64

// ChainPolicy implements policy.ChainPolicy for x86-64.
type ChainPolicy struct{}

func detailOf(inst instruction.Instruction) x86asm.Inst {
	return inst.Detail.(Detail).Inst
}

// IsConditional always reports false. The original this tool is ported
// from derives x86-64 conditionality from an XOP condition-code field;
// golang.org/x/arch/x86/x86asm never populates one (it has no AMD XOP
// decode support), so this degenerates to "never conditional" — an
// even flatter version of a quirk the design already calls out as
// "preserve unless tests contradict": an ordinary Jcc was never
// treated as conditional either way.
func (ChainPolicy) IsConditional(instruction.Instruction) bool { return false }

// IsROP reports whether inst is a plain return.
func (ChainPolicy) IsROP(inst instruction.Instruction) bool {
	return detailOf(inst).Op == x86asm.RET
}

// IsJOP reports whether inst is an indirect jump or call (through a
// register or memory operand, not a direct displacement).
func (ChainPolicy) IsJOP(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if d.Op != x86asm.JMP && d.Op != x86asm.CALL {
		return false
	}
	_, ok := onlyOperandImm(d, inst.End())
	return !ok
}

// NextInsns returns the direct target for a direct JMP/CALL, and the
// fallthrough address for everything else, including RET, indirect
// JMP/CALL, and every Jcc/LOOP* — none of those have a statically
// knowable target this tool can chain through.
func (p ChainPolicy) NextInsns(inst instruction.Instruction) []policy.LookupKey {
	d := detailOf(inst)
	end := policy.LookupKey{Arch: machineArch, Addr: inst.End()}
	if d.Op != x86asm.JMP && d.Op != x86asm.CALL {
		return []policy.LookupKey{end}
	}
	target, ok := onlyOperandImm(d, inst.End())
	if !ok {
		return []policy.LookupKey{end}
	}
	return []policy.LookupKey{{Arch: machineArch, Addr: target}}
}

// ShouldTrim reports whether inst is a direct JMP or CALL, which are
// only useful as predecessor links, never as a gadget's own entry
// point.
func (ChainPolicy) ShouldTrim(inst instruction.Instruction) bool {
	d := detailOf(inst)
	if d.Op != x86asm.JMP && d.Op != x86asm.CALL {
		return false
	}
	_, ok := onlyOperandImm(d, inst.End())
	return ok
}

// GetKey returns the LookupKey inst is indexed under.
func (ChainPolicy) GetKey(inst instruction.Instruction) policy.LookupKey {
	return policy.LookupKey{Arch: machineArch, Addr: inst.Addr}
}

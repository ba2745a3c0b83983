// Package powerpc implements the DisassemblyPolicy and ChainPolicy for
// 32-bit big-endian PowerPC, backed by golang.org/x/arch/ppc64/ppc64asm.
//
// ppc64asm decodes the Power ISA's branch instructions in their raw
// form (b, bc, bclr, bcctr, with explicit BO/BI fields) rather than
// capstone's pre-expanded extended mnemonics (blr, bctr, bt*, bf*,
// bdnz*, bdz*). This package reconstructs the extended-mnemonic
// classification itself from the decoded BO field, per the Power ISA's
// simplified-mnemonics table (Book I, §2.4): BO&0x14==0x14 ("branch
// always", ignore both the CTR and the condition register) is exactly
// the pattern compilers emit for blr/bctr/bctrl and for an
// unconditional bc. Everything else is a real conditional test, be it
// a CR-bit test, a CTR test, or both.
package powerpc

import (
	"encoding/binary"

	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/mewmew/ropr/instruction"
)

// Detail is the PowerPC instruction payload. Like x86-64 and AArch64,
// PowerPC detail is identity-vacuous: Instruction equality is carried
// entirely by raw bytes.
type Detail struct {
	Inst ppc64asm.Inst
}

var _ instruction.Detail = Detail{}

func (Detail) Equal(instruction.Detail) bool { return true }
func (Detail) DetailHash() uint64            { return 0x9e3779b97f4a7c15 }

var byteOrder = binary.BigEndian

// branchOptions extracts the BO field (argument 0) of a branch
// conditional instruction (bc, bca, bcl, bcla, bclr, bclrl, bcctr,
// bcctrl). Every one of those opcodes decodes BO as argument 0.
func branchOptions(inst ppc64asm.Inst) (uint8, bool) {
	if len(inst.Args) == 0 {
		return 0, false
	}
	imm, ok := inst.Args[0].(ppc64asm.Imm)
	if !ok {
		return 0, false
	}
	return uint8(imm), true
}

// boAlways reports whether a BO value means "branch always": ignore
// the CTR decrement-and-test and ignore the condition register bit.
func boAlways(bo uint8) bool {
	return bo&0x14 == 0x14
}

// branchTarget resolves the absolute target address of a direct branch
// instruction's displacement/label argument at idx: relative (PCRel)
// for the non-absolute forms (b, bl, bc, bcl), absolute (Label) for
// the "a"-suffixed forms (ba, bla, bca, bcla).
func branchTarget(inst ppc64asm.Inst, addr uint64, idx int) (uint64, bool) {
	if idx < 0 || idx >= len(inst.Args) || inst.Args[idx] == nil {
		return 0, false
	}
	switch a := inst.Args[idx].(type) {
	case ppc64asm.PCRel:
		return uint64(int64(addr) + int64(a)), true
	case ppc64asm.Label:
		return uint64(a), true
	default:
		return 0, false
	}
}

// Package x64 implements the DisassemblyPolicy and ChainPolicy for the
// x86-64 architecture, backed by golang.org/x/arch/x86/x86asm.
package x64

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/mewmew/ropr/instruction"
)

// Detail is the x86-64 instruction payload. It is "identity-vacuous":
// every Detail value is considered equal to every other and hashes
// the same, so Instruction equality for x86-64 is carried entirely by
// raw bytes. This keeps two syntactically different but
// byte-identical encodings from ever being treated as different
// gadgets.
type Detail struct {
	Inst x86asm.Inst
}

var _ instruction.Detail = Detail{}

// Equal always reports true: see the Detail doc comment.
func (Detail) Equal(instruction.Detail) bool { return true }

// DetailHash always returns the same constant: see the Detail doc
// comment.
func (Detail) DetailHash() uint64 { return 0x9e3779b97f4a7c15 }

// onlyOperandImm returns the absolute address of the instruction's
// sole immediate/relative operand, if it has exactly one operand and
// that operand is an immediate or PC-relative displacement. end is the
// address one past the instruction's last byte, the base a Rel operand
// is relative to. An operand count other than one reports ok=false
// rather than an error: this mirrors the original's only_operand_imm,
// which treats "wrong shape for this question" as "no answer" rather
// than a hard failure.
func onlyOperandImm(inst x86asm.Inst, end uint64) (target uint64, ok bool) {
	n := operandCount(inst)
	if n != 1 {
		return 0, false
	}
	switch a := inst.Args[0].(type) {
	case x86asm.Rel:
		return uint64(int64(end) + int64(a)), true
	case x86asm.Imm:
		return uint64(a), true
	default:
		return 0, false
	}
}

func operandCount(inst x86asm.Inst) int {
	n := 0
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		n++
	}
	return n
}

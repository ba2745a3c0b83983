// Package aarch64 implements the DisassemblyPolicy and ChainPolicy for
// the 64-bit ARM architecture, backed by
// golang.org/x/arch/arm64/arm64asm.
package aarch64

import (
	"golang.org/x/arch/arm64/arm64asm"

	"github.com/mewmew/ropr/instruction"
)

// Detail is the AArch64 instruction payload. Like x86-64, AArch64
// detail is identity-vacuous: Instruction equality is carried entirely
// by raw bytes, not by this struct.
type Detail struct {
	Inst arm64asm.Inst
}

var _ instruction.Detail = Detail{}

func (Detail) Equal(instruction.Detail) bool { return true }
func (Detail) DetailHash() uint64            { return 0x9e3779b97f4a7c15 }

// branchTarget returns the resolved absolute target of a PCRel operand
// at argument index idx, if present.
func branchTarget(inst arm64asm.Inst, addr uint64, idx int) (uint64, bool) {
	if idx < 0 || idx >= len(inst.Args) || inst.Args[idx] == nil {
		return 0, false
	}
	rel, ok := inst.Args[idx].(arm64asm.PCRel)
	if !ok {
		return 0, false
	}
	return uint64(int64(addr) + int64(rel)), true
}

// condArg returns inst's first argument and has=true if that argument
// is a condition code; isAlways tells whether the condition is a real
// one.
func condArg(inst arm64asm.Inst) (cond arm64asm.Cond, has bool) {
	if len(inst.Args) == 0 || inst.Args[0] == nil {
		return arm64asm.Cond{}, false
	}
	c, ok := inst.Args[0].(arm64asm.Cond)
	return c, ok
}

// isAlways reports whether cond is AL or NV (Value>>1 == 7), the two
// condition encodings that mean "unconditional" rather than a real
// test.
func isAlways(cond arm64asm.Cond) bool {
	return cond.Value>>1 == 7
}

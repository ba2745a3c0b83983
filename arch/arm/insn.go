// Package arm implements the DisassemblyPolicy and ChainPolicy for
// 32-bit ARM, covering both of its interworking instruction sets: ARM
// (A32, decoded by golang.org/x/arch/arm/armasm) and Thumb (decoded by
// a small hand-rolled decoder — the vendored armasm in this module's
// dependency graph only implements ModeARM, so Thumb has no ecosystem
// decoder to reuse; see DESIGN.md).
package arm

import (
	"golang.org/x/arch/arm/armasm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
)

// Detail is the ARM/Thumb instruction payload. Unlike the other three
// architectures, ARM detail is NOT identity-vacuous: two Details are
// equal, and hash the same, exactly when their Mode matches — this is
// what keeps an ARM-mode decoding of a byte sequence from being
// considered identical to a Thumb-mode decoding of the same bytes,
// even though their raw Bytes could coincide.
type Detail struct {
	Mode machine.ArmMode
	// Arm is populated when Mode == machine.ModeArm.
	Arm armasm.Inst
	// Thumb is populated when Mode == machine.ModeThumb.
	Thumb thumbInst
}

var _ instruction.Detail = Detail{}

func (d Detail) Equal(o instruction.Detail) bool {
	return d.Mode == o.(Detail).Mode
}

func (d Detail) DetailHash() uint64 {
	return instruction.HashUint64(instruction.HashUint64(0, 0x9e3779b97f4a7c15), uint64(d.Mode))
}

func detailOf(inst instruction.Instruction) Detail {
	return inst.Detail.(Detail)
}

// ArmMode reports which of ARM's two interworking instruction sets
// this detail was decoded under. Consumers outside this package (the
// presentation layer's mode-marker rendering) type-switch for this
// method rather than importing machine.ArmMode semantics directly into
// every other architecture's Detail.
func (d Detail) ArmMode() machine.ArmMode {
	return d.Mode
}

// condCode returns the 4-bit ARM condition field encoded in the low
// bits of op: armasm lays out each conditional opcode's sixteen
// variants (14 real conditions, AL, then the NV/"ZZ" unconditional
// instruction-space marker) contiguously, with the condition value
// itself as the low nibble.
func condCode(op armasm.Op) uint16 {
	return uint16(op) & 0xF
}

// baseOp strips the condition nibble, leaving the opcode family
// identity (e.g. armasm.BX_EQ, armasm.BX&^15 == armasm.BX_EQ) so
// switches can compare against one representative per mnemonic
// regardless of which condition was actually decoded.
func baseOp(op armasm.Op) armasm.Op {
	return op &^ 0xF
}

// armIsConditional reports whether an ARM-mode opcode's 4-bit
// condition field encodes a real condition, as opposed to AL (14,
// always) or the unconditional-instruction-space marker (15).
func armIsConditional(op armasm.Op) bool {
	return condCode(op) < 14
}

// regListHas reports whether any RegList argument of inst contains r.
func regListHas(inst armasm.Inst, r armasm.Reg) bool {
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		if rl, ok := a.(armasm.RegList); ok {
			if rl&(1<<uint(r)) != 0 {
				return true
			}
		}
	}
	return false
}

// armBranchTarget resolves the absolute target of a classic ARM-mode
// direct branch's PCRel argument at idx. Classic ARM reads the PC as
// the address of the current instruction plus 8 (two instructions
// ahead, a relic of the three-stage fetch/decode/execute pipeline);
// AArch64 and PowerPC carry no such adjustment.
func armBranchTarget(inst armasm.Inst, addr uint64, idx int) (uint64, bool) {
	if idx < 0 || idx >= len(inst.Args) || inst.Args[idx] == nil {
		return 0, false
	}
	rel, ok := inst.Args[idx].(armasm.PCRel)
	if !ok {
		return 0, false
	}
	return uint64(int64(addr) + 8 + int64(rel)), true
}

// armReg extracts a plain register argument at idx, if present.
func armReg(inst armasm.Inst, idx int) (armasm.Reg, bool) {
	if idx < 0 || idx >= len(inst.Args) || inst.Args[idx] == nil {
		return 0, false
	}
	r, ok := inst.Args[idx].(armasm.Reg)
	return r, ok
}

package arm

import (
	"golang.org/x/arch/arm/armasm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

const machineArch = machine.Arm

// ChainPolicy implements policy.ChainPolicy for ARM, dispatching on
// the decoded instruction's Mode to the ARM-mode or Thumb-mode rules —
// mirroring the two-instruction-set split the original finder made at
// the same point, since ARM and Thumb share nothing at the bit level
// beyond both being 32-bit ARM.
type ChainPolicy struct{}

func (ChainPolicy) IsConditional(inst instruction.Instruction) bool {
	d := detailOf(inst)
	switch d.Mode {
	case machine.ModeArm:
		return armIsConditional(d.Arm.Op)
	case machine.ModeThumb:
		switch d.Thumb.Kind {
		case thumbB:
			return d.Thumb.HasCond
		case thumbCBZ, thumbCBNZ:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

func (ChainPolicy) IsROP(inst instruction.Instruction) bool {
	d := detailOf(inst)
	switch d.Mode {
	case machine.ModeArm:
		return isRopArm(d.Arm)
	case machine.ModeThumb:
		return d.Thumb.Kind == thumbPop && d.Thumb.HasPC
	default:
		return false
	}
}

func isRopArm(inst armasm.Inst) bool {
	switch baseOp(inst.Op) {
	case baseOp(armasm.LDM), baseOp(armasm.LDMDA), baseOp(armasm.LDMDB), baseOp(armasm.LDMIB):
		return regListHas(inst, armasm.PC)
	default:
		return false
	}
}

func (ChainPolicy) IsJOP(inst instruction.Instruction) bool {
	d := detailOf(inst)
	switch d.Mode {
	case machine.ModeArm:
		return isJopArm(d.Arm)
	case machine.ModeThumb:
		switch d.Thumb.Kind {
		case thumbBXReg, thumbBLXReg:
			return d.Thumb.Reg != regLR
		default:
			return false
		}
	default:
		return false
	}
}

func isJopArm(inst armasm.Inst) bool {
	switch baseOp(inst.Op) {
	case baseOp(armasm.BX), baseOp(armasm.BLX):
		r, ok := armReg(inst, 0)
		return ok && r != armasm.LR
	case baseOp(armasm.MOV):
		r, ok := armReg(inst, 0)
		return ok && r == armasm.PC
	default:
		return false
	}
}

// isBadThumb reports whether a Thumb register-list load would leave
// the processor in an inconsistent interworking state — loading both
// LR and PC together, or loading into SP — and therefore must not
// contribute any successor at all. The 16-bit POP/PUSH encodings this
// decoder recognizes can never select SP as a list member (it is not
// representable in their 8-bit low-register list), so this only guards
// the LR-and-PC combination.
func isBadThumb(ti thumbInst) bool {
	return ti.Kind == thumbPop && ti.HasPC && ti.HasLR
}

func (p ChainPolicy) NextInsns(inst instruction.Instruction) []policy.LookupKey {
	d := detailOf(inst)
	switch d.Mode {
	case machine.ModeArm:
		return nextInsnsArm(inst, d.Arm)
	case machine.ModeThumb:
		return nextInsnsThumb(inst, d.Thumb)
	default:
		return nil
	}
}

func keyArm(addr uint64) policy.LookupKey {
	return policy.LookupKey{Arch: machineArch, Mode: machine.ModeArm, Addr: addr}
}

func keyThumb(addr uint64) policy.LookupKey {
	return policy.LookupKey{Arch: machineArch, Mode: machine.ModeThumb, Addr: addr}
}

func nextInsnsArm(inst instruction.Instruction, d armasm.Inst) []policy.LookupKey {
	end := keyArm(inst.End())
	switch baseOp(d.Op) {
	case baseOp(armasm.BX), baseOp(armasm.BLX):
		if _, ok := armReg(d, 0); ok {
			// Interworking branch through a register: the target's
			// instruction-set mode depends on bit 0 of the runtime
			// register value, which is not statically known, so the
			// search cannot follow it — a dead end for static analysis.
			return nil
		}
		// BLX <label>: the only ARM-mode immediate-operand form of
		// BX/BLX. It switches state to Thumb at the resolved target and,
		// being a call rather than a jump, still falls through to the
		// next ARM-mode instruction.
		if target, ok := armBranchTarget(d, inst.Addr, 0); ok {
			return []policy.LookupKey{keyThumb(target), end}
		}
		return nil
	case baseOp(armasm.MOV):
		if r, ok := armReg(d, 0); ok && r == armasm.PC {
			return nil
		}
		return []policy.LookupKey{end}
	case baseOp(armasm.B):
		conditional := armIsConditional(d.Op)
		target, ok := armBranchTarget(d, inst.Addr, 0)
		switch {
		case conditional && ok:
			return []policy.LookupKey{keyArm(target), end}
		case conditional && !ok:
			return []policy.LookupKey{end}
		case !conditional && ok:
			return []policy.LookupKey{keyArm(target)}
		default:
			return nil
		}
	case baseOp(armasm.BL):
		if target, ok := armBranchTarget(d, inst.Addr, 0); ok {
			return []policy.LookupKey{keyArm(target)}
		}
		return nil
	default:
		return []policy.LookupKey{end}
	}
}

func nextInsnsThumb(inst instruction.Instruction, ti thumbInst) []policy.LookupKey {
	end := keyThumb(inst.End())
	switch ti.Kind {
	case thumbPush:
		return []policy.LookupKey{end}
	case thumbPop:
		if isBadThumb(ti) || ti.HasPC {
			return nil
		}
		return []policy.LookupKey{end}
	case thumbBXReg, thumbBLXReg:
		return nil
	case thumbB:
		target := keyThumb(uint64(int64(inst.Addr) + 4 + int64(ti.Offset)))
		if ti.HasCond {
			return []policy.LookupKey{target, end}
		}
		return []policy.LookupKey{target}
	case thumbBL:
		return []policy.LookupKey{keyThumb(uint64(int64(inst.Addr) + 4 + int64(ti.Offset)))}
	case thumbBLX:
		// BLX(imm) switches processor state to ARM; the target is
		// word-aligned by construction (thumb.go clears its low 2 bits).
		// Being a call rather than a jump, it still falls through to the
		// next Thumb-mode instruction.
		target := keyArm(uint64(int64(inst.Addr) + 4 + int64(ti.Offset)))
		return []policy.LookupKey{target, end}
	case thumbCBZ, thumbCBNZ:
		target := keyThumb(uint64(int64(inst.Addr) + 4 + int64(ti.Offset)))
		return []policy.LookupKey{target, end}
	default:
		return []policy.LookupKey{end}
	}
}

func (p ChainPolicy) ShouldTrim(inst instruction.Instruction) bool {
	d := detailOf(inst)
	switch d.Mode {
	case machine.ModeArm:
		switch baseOp(d.Arm.Op) {
		case baseOp(armasm.B):
			if armIsConditional(d.Arm.Op) {
				return false
			}
			_, ok := armBranchTarget(d.Arm, inst.Addr, 0)
			return ok
		case baseOp(armasm.BL):
			_, ok := armBranchTarget(d.Arm, inst.Addr, 0)
			return ok
		case baseOp(armasm.BX), baseOp(armasm.BLX):
			_, ok := armBranchTarget(d.Arm, inst.Addr, 0)
			return ok
		default:
			return false
		}
	case machine.ModeThumb:
		switch d.Thumb.Kind {
		case thumbB:
			return !d.Thumb.HasCond
		case thumbBL, thumbBLX:
			return true
		case thumbCBZ, thumbCBNZ:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// GetKey returns the LookupKey inst is indexed under, keyed by both
// address and interworking mode — an ARM-mode decoding and a
// Thumb-mode decoding of overlapping bytes at the same address are
// deliberately distinct gadgets.
func (ChainPolicy) GetKey(inst instruction.Instruction) policy.LookupKey {
	d := detailOf(inst)
	return policy.LookupKey{Arch: machineArch, Mode: d.Mode, Addr: inst.Addr}
}

package arm

import (
	"fmt"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
)

// ThumbDisassemblyPolicy implements policy.DisassemblyPolicy for Thumb
// mode, backed by the hand-rolled decoder in thumb.go.
type ThumbDisassemblyPolicy struct{}

// Alignment is Thumb's 2-byte halfword alignment.
func (ThumbDisassemblyPolicy) Alignment() int { return 2 }

// MaxInsnLen is the longest Thumb encoding this tool decodes: a 32-bit
// Thumb-2 instruction word.
func (ThumbDisassemblyPolicy) MaxInsnLen() int { return 4 }

// Decode decodes one Thumb instruction.
func (ThumbDisassemblyPolicy) Decode(data []byte, addr uint64) (instruction.Instruction, bool) {
	ti, ok := decodeThumb(data)
	if !ok {
		return instruction.Instruction{}, false
	}
	mnemonic, opstr := thumbText(ti)
	return instruction.Instruction{
		Addr:     addr,
		Bytes:    append([]byte(nil), data[:ti.Len]...),
		Mnemonic: mnemonic,
		OpStr:    opstr,
		Detail:   Detail{Mode: machine.ModeThumb, Thumb: ti},
	}, true
}

var thumbCondSuffix = [...]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le",
}

func thumbText(ti thumbInst) (mnemonic, opstr string) {
	switch ti.Kind {
	case thumbB:
		if ti.HasCond && int(ti.Cond) < len(thumbCondSuffix) {
			return "b" + thumbCondSuffix[ti.Cond], fmt.Sprintf("#%d", ti.Offset)
		}
		return "b", fmt.Sprintf("#%d", ti.Offset)
	case thumbBL:
		return "bl", fmt.Sprintf("#%d", ti.Offset)
	case thumbBLX:
		return "blx", fmt.Sprintf("#%d", ti.Offset)
	case thumbBXReg:
		return "bx", armRegName(ti.Reg)
	case thumbBLXReg:
		return "blx", armRegName(ti.Reg)
	case thumbCBZ:
		return "cbz", fmt.Sprintf("#%d", ti.Offset)
	case thumbCBNZ:
		return "cbnz", fmt.Sprintf("#%d", ti.Offset)
	case thumbPush:
		return "push", regListText(ti.RegList, false, ti.HasLR)
	case thumbPop:
		return "pop", regListText(ti.RegList, ti.HasPC, false)
	default:
		return "(bad)", ""
	}
}

func armRegName(r uint8) string {
	switch r {
	case regLR:
		return "lr"
	case regPC:
		return "pc"
	case 13:
		return "sp"
	default:
		return fmt.Sprintf("r%d", r)
	}
}

func regListText(list uint16, hasPC, hasLR bool) string {
	s := "{"
	first := true
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			if !first {
				s += ", "
			}
			s += fmt.Sprintf("r%d", i)
			first = false
		}
	}
	if hasLR {
		if !first {
			s += ", "
		}
		s += "lr"
		first = false
	}
	if hasPC {
		if !first {
			s += ", "
		}
		s += "pc"
	}
	return s + "}"
}

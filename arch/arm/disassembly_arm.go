package arm

import (
	"strings"

	"golang.org/x/arch/arm/armasm"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
)

// ArmDisassemblyPolicy implements policy.DisassemblyPolicy for classic
// 32-bit ARM (A32) mode.
type ArmDisassemblyPolicy struct{}

// Alignment is the fixed 4-byte instruction width of ARM mode.
func (ArmDisassemblyPolicy) Alignment() int { return 4 }

// MaxInsnLen is the fixed instruction length of ARM mode.
func (ArmDisassemblyPolicy) MaxInsnLen() int { return 4 }

// Decode decodes one little-endian ARM-mode instruction.
func (ArmDisassemblyPolicy) Decode(data []byte, addr uint64) (instruction.Instruction, bool) {
	if len(data) < 4 {
		return instruction.Instruction{}, false
	}
	inst, err := armasm.Decode(data[:4], armasm.ModeARM)
	if err != nil || inst.Len == 0 {
		return instruction.Instruction{}, false
	}
	text := inst.String()
	mnemonic, opstr, _ := strings.Cut(text, " ")
	return instruction.Instruction{
		Addr:     addr,
		Bytes:    append([]byte(nil), data[:inst.Len]...),
		Mnemonic: strings.ToLower(mnemonic),
		OpStr:    opstr,
		Detail:   Detail{Mode: machine.ModeArm, Arm: inst},
	}, true
}

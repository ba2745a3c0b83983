package aarch64

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/mewmew/ropr/instruction"
)

// DisassemblyPolicy implements policy.DisassemblyPolicy for AArch64.
type DisassemblyPolicy struct{}

// Alignment reports the fixed 4-byte instruction width of AArch64.
func (DisassemblyPolicy) Alignment() int { return 4 }

// MaxInsnLen is the fixed AArch64 instruction length.
func (DisassemblyPolicy) MaxInsnLen() int { return 4 }

// Decode decodes one AArch64 instruction.
func (DisassemblyPolicy) Decode(data []byte, addr uint64) (instruction.Instruction, bool) {
	if len(data) < 4 {
		return instruction.Instruction{}, false
	}
	inst, err := arm64asm.Decode(data[:4])
	if err != nil {
		return instruction.Instruction{}, false
	}
	text := arm64asm.GNUSyntax(inst)
	mnemonic, opstr, _ := strings.Cut(text, " ")
	return instruction.Instruction{
		Addr:     addr,
		Bytes:    append([]byte(nil), data[:4]...),
		Mnemonic: mnemonic,
		OpStr:    strings.TrimSpace(opstr),
		Detail:   Detail{Inst: inst},
	}, true
}

package powerpc

import (
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/mewmew/ropr/instruction"
)

// DisassemblyPolicy implements policy.DisassemblyPolicy for 32-bit
// big-endian PowerPC.
type DisassemblyPolicy struct{}

// Alignment is the fixed 4-byte instruction width of PowerPC.
func (DisassemblyPolicy) Alignment() int { return 4 }

// MaxInsnLen is the fixed PowerPC instruction length this tool
// decodes; ppc64asm also recognizes 8-byte ISA-3.1 prefixed forms, but
// 32-bit PowerPC (the only bit width this tool supports for this
// architecture) never emits them.
func (DisassemblyPolicy) MaxInsnLen() int { return 4 }

// Decode decodes one big-endian PowerPC instruction.
func (DisassemblyPolicy) Decode(data []byte, addr uint64) (instruction.Instruction, bool) {
	if len(data) < 4 {
		return instruction.Instruction{}, false
	}
	inst, err := ppc64asm.Decode(data[:4], byteOrder)
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
		Detail:   Detail{Inst: inst},
	}, true
}

package x64

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/mewmew/ropr/instruction"
)

// DisassemblyPolicy implements policy.DisassemblyPolicy for x86-64.
type DisassemblyPolicy struct{}

// Alignment reports that x86-64 instructions may start at any byte
// offset: the architecture has no instruction alignment requirement,
// which is exactly why superset disassembly is needed here at all.
func (DisassemblyPolicy) Alignment() int { return 1 }

// MaxInsnLen is the longest possible x86-64 instruction encoding.
func (DisassemblyPolicy) MaxInsnLen() int { return 15 }

// Decode decodes one x86-64 instruction in 64-bit mode.
func (DisassemblyPolicy) Decode(data []byte, addr uint64) (instruction.Instruction, bool) {
	inst, err := x86asm.Decode(data, 64)
	if err != nil || inst.Len == 0 {
		return instruction.Instruction{}, false
	}
	text := x86asm.IntelSyntax(inst, addr, nil)
	mnemonic, opstr, _ := strings.Cut(text, " ")
	return instruction.Instruction{
		Addr:     addr,
		Bytes:    append([]byte(nil), data[:inst.Len]...),
		Mnemonic: mnemonic,
		OpStr:    opstr,
		Detail:   Detail{Inst: inst},
	}, true
}

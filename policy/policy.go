// Package policy defines the two capability interfaces every supported
// architecture implements: DisassemblyPolicy (how to turn bytes into
// instructions) and ChainPolicy (how to decide what terminates a chain
// and what can precede a given instruction). The chain engine and
// disassembler are written entirely against these interfaces and never
// switch on machine.Arch themselves.
package policy

import (
	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
)

// LookupKey identifies a predecessor slot in the backward address
// index: "the set of instructions that can fall through or branch to
// this point." It is a single comparable struct rather than a
// per-arch type so it can be used directly as a map key; Mode is the
// zero value (machine.ModeNone) for every architecture except ARM,
// which is what keeps an ARM-mode key and a Thumb-mode key at the same
// address from colliding.
type LookupKey struct {
	Arch machine.Arch
	Mode machine.ArmMode
	Addr uint64
}

// DisassemblyPolicy is the set of architecture-specific facts the
// linear-sweep disassembler needs: how finely to try decode offsets,
// how long an instruction can possibly be, and how to decode one.
type DisassemblyPolicy interface {
	// Alignment is the byte alignment every valid instruction start
	// address must satisfy (1 for x86-64, 2 for Thumb, 4 otherwise).
	Alignment() int
	// MaxInsnLen is the longest an instruction can be, used to bound how
	// much trailing data a decode attempt may read.
	MaxInsnLen() int
	// Decode attempts to decode one instruction from the front of data,
	// which begins at virtual address addr. A decode failure (invalid
	// encoding at this offset) is reported via ok=false, not an error:
	// the linear sweep treats every alignment offset as a decode
	// attempt and silently skips the ones that fail.
	Decode(data []byte, addr uint64) (inst instruction.Instruction, ok bool)
}

// ChainPolicy is the set of architecture-specific facts the chain
// engine needs: which instructions terminate a ROP/JOP chain, which
// instructions can precede a given instruction in program order, and
// when a chain's leading instructions should be trimmed away.
type ChainPolicy interface {
	// IsConditional reports whether inst's control transfer (if any) is
	// conditional on a flag, register or counter value.
	IsConditional(inst instruction.Instruction) bool
	// IsROP reports whether inst is a return-style chain terminator.
	IsROP(inst instruction.Instruction) bool
	// IsJOP reports whether inst is an indirect-branch-style chain
	// terminator (branch/call through a register).
	IsJOP(inst instruction.Instruction) bool
	// NextInsns returns the LookupKeys of every instruction that can
	// immediately follow inst in execution order: the fallthrough
	// address, a direct branch target, both (conditional direct
	// branch), or neither (indirect control transfer, or a terminator
	// with no statically known successor).
	NextInsns(inst instruction.Instruction) []LookupKey
	// ShouldTrim reports whether inst should be stripped away when it
	// appears as the leading instruction of a chain (direct branches:
	// useful as a predecessor link, useless as a gadget's own entry
	// point).
	ShouldTrim(inst instruction.Instruction) bool
	// GetKey returns the LookupKey inst should be indexed and searched
	// under.
	GetKey(inst instruction.Instruction) LookupKey
}

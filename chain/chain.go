// Package chain defines the Chain type the engine produces: an
// ordered instruction sequence plus the file it was found in, with the
// structural equality/hash and (file, head-address) ordering the
// presentation layer's dedup and sort rely on.
package chain

import (
	"fmt"
	"strings"

	"github.com/mewmew/ropr/instruction"
)

// Chain is a bounded-length, straight-line instruction sequence ending
// in a control-transfer primitive, found in one input file.
type Chain struct {
	File  string
	Insns []instruction.Instruction
}

// Head returns the first (earliest-in-program-order) instruction.
func (c Chain) Head() instruction.Instruction { return c.Insns[0] }

// Tail returns the last instruction — the terminator.
func (c Chain) Tail() instruction.Instruction { return c.Insns[len(c.Insns)-1] }

// Len returns the number of instructions in the chain.
func (c Chain) Len() int { return len(c.Insns) }

// Equal reports structural equality: same source file, same length,
// and each instruction pairwise equal by instruction.Instruction.Equal
// (bytes + detail, ignoring address). Two chains with the same
// instructions at different addresses in one file are equal; chains
// from two different files never are. The presentation layer's
// cross-file dedup compares instruction sequences without the file.
func (c Chain) Equal(o Chain) bool {
	if c.File != o.File || len(c.Insns) != len(o.Insns) {
		return false
	}
	for i := range c.Insns {
		if !c.Insns[i].Equal(o.Insns[i]) {
			return false
		}
	}
	return true
}

// Hash folds the chain's file name and every instruction's hash into a
// single value, for use as a fast pre-filter before a full Equal
// comparison (e.g. bucketing candidates for cross-file dedup).
func (c Chain) Hash() uint64 {
	h := instruction.HashUint64(0, 0xcbf29ce484222325)
	for _, b := range []byte(c.File) {
		h = instruction.HashUint64(h, uint64(b))
	}
	for _, inst := range c.Insns {
		h = instruction.HashUint64(h, inst.Hash())
	}
	return h
}

// Less orders chains by (file_name, head-address) ascending, the
// presentation layer's final output order.
func Less(a, b Chain) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Head().Addr < b.Head().Addr
}

// Text renders the chain's instructions as "mnemonic1 ops1; mnemonic2
// ops2; …", the body of the output line format.
func (c Chain) Text() string {
	var sb strings.Builder
	for i, inst := range c.Insns {
		if i != 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(inst.Mnemonic)
		if inst.OpStr != "" {
			sb.WriteByte(' ')
			sb.WriteString(inst.OpStr)
		}
	}
	return sb.String()
}

// BytesText renders the raw bytes of each instruction, semicolon
// separated, for the optional --bytes dump line.
func (c Chain) BytesText() string {
	var sb strings.Builder
	for i, inst := range c.Insns {
		if i != 0 {
			sb.WriteString("; ")
		}
		for j, b := range inst.Bytes {
			if j != 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02X", b)
		}
	}
	return sb.String()
}

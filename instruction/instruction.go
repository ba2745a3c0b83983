// Package instruction holds the architecture-neutral decoded
// instruction type the rest of the gadget finder operates on, plus the
// Detail interface each architecture package fills in with its own
// decode-time facts.
package instruction

import "fmt"

// Detail is the architecture-specific payload attached to an
// Instruction. Each arch package (arch/x64, arch/aarch64, arch/arm,
// arch/powerpc) defines its own concrete type implementing Detail.
//
// Equal and DetailHash are deliberately narrow: for x86-64, AArch64
// and PowerPC every instance of a given arch's Detail compares equal
// and hashes the same ("identity-vacuous" detail) — Instruction
// equality for those arches is carried entirely by Bytes. ARM's
// Detail is the one exception: its equality and hash depend on Mode
// only, which is what keeps an ARM-mode decoding of a byte sequence
// from colliding with a Thumb-mode decoding of the same bytes.
type Detail interface {
	// Equal reports whether two details of the same concrete type are
	// considered equal for instruction-identity purposes. Implementations
	// may assume the argument has their own concrete type; a mismatched
	// type is a programming bug and implementations should panic rather
	// than silently return false.
	Equal(Detail) bool
	// DetailHash contributes to Instruction.Hash. Callers outside an
	// arch package use Instruction.Hash, never this directly.
	DetailHash() uint64
}

// Instruction is one decoded machine instruction, tagged with the
// address it was found at and an architecture-specific Detail.
type Instruction struct {
	// Addr is the address the instruction starts at.
	Addr uint64
	// Bytes is the raw encoding, Length(Bytes) bytes long.
	Bytes []byte
	// Mnemonic is the instruction's opcode name, e.g. "pop" or "bne".
	Mnemonic string
	// OpStr is the textual operand list, e.g. "rax" or "r0, #0x20".
	OpStr string
	// Detail carries architecture-specific facts (condition codes,
	// register operands, branch targets) used by the owning arch's
	// ChainPolicy.
	Detail Detail
}

// End returns the address one past the instruction's last byte.
func (i Instruction) End() uint64 {
	return i.Addr + uint64(len(i.Bytes))
}

// String renders the instruction the way gadget lines do: "mnemonic
// opstr", with no operands rendered as just the mnemonic.
func (i Instruction) String() string {
	if i.OpStr == "" {
		return i.Mnemonic
	}
	return fmt.Sprintf("%s %s", i.Mnemonic, i.OpStr)
}

// Equal reports whether two instructions are the same gadget-forming
// unit: matching raw bytes and matching Detail. This mirrors the
// original's PartialEq, which is defined only over (detail, bytes),
// deliberately ignoring Addr so the same byte pattern decoded at two
// different addresses still dedups.
func (i Instruction) Equal(o Instruction) bool {
	if len(i.Bytes) != len(o.Bytes) {
		return false
	}
	for k := range i.Bytes {
		if i.Bytes[k] != o.Bytes[k] {
			return false
		}
	}
	if i.Detail == nil || o.Detail == nil {
		return i.Detail == o.Detail
	}
	return i.Detail.Equal(o.Detail)
}

// Hash returns a hash consistent with Equal: same (detail, bytes) ⇒
// same hash.
func (i Instruction) Hash() uint64 {
	h := fnvOffset
	for _, b := range i.Bytes {
		h ^= uint64(b)
		h *= fnvPrime
	}
	if i.Detail != nil {
		h ^= i.Detail.DetailHash()
		h *= fnvPrime
	}
	return h
}

// FNV-1a constants, used for Instruction.Hash and by arch packages'
// DetailHash implementations that need to mix in a handful of fields.
const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

// HashUint64 folds a single uint64 into the FNV-1a stream; arch
// packages use it to build DetailHash implementations without
// depending on encoding/binary.
func HashUint64(h uint64, v uint64) uint64 {
	for s := 0; s < 64; s += 8 {
		h ^= (v >> s) & 0xff
		h *= fnvPrime
	}
	return h
}

package chains

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewmew/ropr/arch/x64"
	"github.com/mewmew/ropr/disassembler"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/section"
)

// TestTerminatorWithNoPredecessorYieldsNoChain covers the boundary
// case of a lone RET with nothing that can fall through to it: it
// produces no chain at all, not a single-instruction one.
func TestTerminatorWithNoPredecessorYieldsNoChain(t *testing.T) {
	sec := section.Section{Base: 0x1000, Bytes: []byte{0xC3}} // ret, nothing before it
	idx, err := disassembler.Sweep(context.Background(), sec, machine.X64, machine.ModeNone, x64.DisassemblyPolicy{})
	require.NoError(t, err)

	cs, err := Find(context.Background(), "a.bin", idx, x64.ChainPolicy{}, Options{MaxLen: 4, ROP: true})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

// TestDedupWithinBinaryKeepsOneChainPerHead verifies that two distinct
// decodings reaching the same head address inside one binary collapse
// to a single result.
func TestDedupWithinBinaryKeepsOneChainPerHead(t *testing.T) {
	// pop rax; pop rbx; ret — two distinct chains both rooted at 0x1000
	// (length 2 and length 3) never arise from one linear decode, so
	// instead exercise the invariant directly: Find never returns more
	// than one chain per head address.
	sec := section.Section{Base: 0x1000, Bytes: []byte{0x58, 0x5B, 0xC3}} // pop rax; pop rbx; ret
	idx, err := disassembler.Sweep(context.Background(), sec, machine.X64, machine.ModeNone, x64.DisassemblyPolicy{})
	require.NoError(t, err)

	cs, err := Find(context.Background(), "a.bin", idx, x64.ChainPolicy{}, Options{MaxLen: 3, ROP: true})
	require.NoError(t, err)

	heads := make(map[uint64]int)
	for _, c := range cs {
		heads[c.Head().Addr]++
	}
	for addr, n := range heads {
		assert.Equalf(t, 1, n, "address %#x produced %d chains, want 1", addr, n)
	}
}

func TestFindRejectsNonPositiveMaxLen(t *testing.T) {
	_, err := Find(context.Background(), "a.bin", disassembler.Index{}, x64.ChainPolicy{}, Options{MaxLen: 0, ROP: true})
	assert.Error(t, err)
}

package x64_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewmew/ropr/arch/x64"
	"github.com/mewmew/ropr/chains"
	"github.com/mewmew/ropr/disassembler"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/section"
)

// TestMinimalROP verifies that "pop rax; ret" at 0x1000 with
// --rop --num 2 yields exactly one chain headed at 0x1000.
func TestMinimalROP(t *testing.T) {
	sec := section.Section{Base: 0x1000, Bytes: []byte{0x58, 0xC3}} // pop rax; ret
	idx, err := disassembler.Sweep(context.Background(), sec, machine.X64, machine.ModeNone, x64.DisassemblyPolicy{})
	require.NoError(t, err)

	cs, err := chains.Find(context.Background(), "a.bin", idx, x64.ChainPolicy{}, chains.Options{MaxLen: 2, ROP: true})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.EqualValues(t, 0x1000, cs[0].Head().Addr)
	assert.Equal(t, "pop rax; ret", cs[0].Text())
}

// TestTrimsDirectCallPrefix verifies that "call +0; pop rax;
// ret" at 0x2000 with --rop --num 3 trims the leading direct CALL,
// leaving the chain headed at 0x2005.
func TestTrimsDirectCallPrefix(t *testing.T) {
	sec := section.Section{Base: 0x2000, Bytes: []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x58, 0xC3}}
	idx, err := disassembler.Sweep(context.Background(), sec, machine.X64, machine.ModeNone, x64.DisassemblyPolicy{})
	require.NoError(t, err)

	cs, err := chains.Find(context.Background(), "a.bin", idx, x64.ChainPolicy{}, chains.Options{MaxLen: 3, ROP: true})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.EqualValues(t, 0x2005, cs[0].Head().Addr)
	assert.Equal(t, "pop rax; ret", cs[0].Text())
}

func TestNumOneYieldsNoChains(t *testing.T) {
	sec := section.Section{Base: 0x1000, Bytes: []byte{0x58, 0xC3}}
	idx, err := disassembler.Sweep(context.Background(), sec, machine.X64, machine.ModeNone, x64.DisassemblyPolicy{})
	require.NoError(t, err)

	// A bare RET with no predecessor in the index trimmed to length <= 1
	// is dropped entirely; a bound of 1 can never admit a two-instruction
	// chain either.
	cs, err := chains.Find(context.Background(), "a.bin", idx, x64.ChainPolicy{}, chains.Options{MaxLen: 1, ROP: true})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

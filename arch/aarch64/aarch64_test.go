package aarch64_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewmew/ropr/arch/aarch64"
	"github.com/mewmew/ropr/chains"
	"github.com/mewmew/ropr/disassembler"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/section"
)

// TestIndirectJOP covers an indirect JOP gadget: "mov x0, x0" at 0x2FFC followed
// by "br x0" at 0x3000, with --jop --num 2 yielding one chain.
func TestIndirectJOP(t *testing.T) {
	sec := section.Section{
		Base: 0x2FFC,
		Bytes: []byte{
			0xE0, 0x03, 0x00, 0xAA, // mov x0, x0
			0x00, 0x00, 0x1F, 0xD6, // br x0
		},
	}
	idx, err := disassembler.Sweep(context.Background(), sec, machine.AArch64, machine.ModeNone, aarch64.DisassemblyPolicy{})
	require.NoError(t, err)

	cs, err := chains.Find(context.Background(), "a.bin", idx, aarch64.ChainPolicy{}, chains.Options{MaxLen: 2, JOP: true})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.EqualValues(t, 0x2FFC, cs[0].Head().Addr)
	assert.Equal(t, "mov x0, x0; br x0", cs[0].Text())
}

// Package chains implements the chain engine: terminator selection,
// address index construction, bounded backward expansion, trimming and
// within-binary duplicate elimination. It is written entirely against
// policy.ChainPolicy and disassembler.Index — it never switches on
// machine.Arch itself.
package chains

import (
	"context"
	"encoding/binary"
	"hash/maphash"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mewmew/ropr/chain"
	"github.com/mewmew/ropr/disassembler"
	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/internal/concurrent"
	"github.com/mewmew/ropr/policy"
)

// Options configures one run of the chain engine.
type Options struct {
	MaxLen             int
	ROP                bool
	JOP                bool
	EndPattern         *regexp2.Regexp
	IncludeConditional bool
}

// Find runs the full chain-engine pipeline over idx — index build,
// terminator selection, backward expansion, trim, within-binary
// dedup — and returns every surviving chain, tagged with file.
func Find(ctx context.Context, file string, idx disassembler.Index, cp policy.ChainPolicy, opts Options) ([]chain.Chain, error) {
	if opts.MaxLen < 1 {
		return nil, errors.Errorf("chains: --num must be >= 1, got %d", opts.MaxLen)
	}

	predIndex, err := buildIndex(ctx, idx, cp, opts.IncludeConditional)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	terminators, err := findTerminators(ctx, idx, cp, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Dedup key inside a binary is the head address; last-write-wins,
	// since which structurally-distinct decoding survives a collision
	// at the same head address is unspecified.
	byHead := concurrent.NewShardedMap[uint64, chain.Chain](hashUint64)
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range terminators {
		t := t
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for _, c := range extend(t, opts.MaxLen, predIndex, cp) {
				trimmed := trim(c, cp)
				if len(trimmed.Insns) <= 1 {
					continue
				}
				head := trimmed.Head().Addr
				appendHead(byHead, head, chain.Chain{File: file, Insns: trimmed.Insns})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}

	var out []chain.Chain
	byHead.Range(func(_ uint64, vs []chain.Chain) {
		if len(vs) > 0 {
			out = append(out, vs[len(vs)-1])
		}
	})
	return out, nil
}

// appendHead records c as a candidate for head's dedup bucket.
// ShardedMap only natively supports Append; last-write-wins is
// implemented by always appending here and reading the last entry
// back out once all terminators have finished expanding, in Find.
func appendHead(m *concurrent.ShardedMap[uint64, chain.Chain], head uint64, c chain.Chain) {
	m.Append(head, c)
}

func hashUint64(seed maphash.Seed, v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	var h maphash.Hash
	h.SetSeed(seed)
	h.Write(buf[:])
	return h.Sum64()
}

func hashLookupKey(seed maphash.Seed, k policy.LookupKey) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(k.Arch))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(k.Mode))
	binary.LittleEndian.PutUint64(buf[16:24], k.Addr)
	var h maphash.Hash
	h.SetSeed(seed)
	h.Write(buf[:])
	return h.Sum64()
}

// buildIndex constructs the successor-keyed predecessor index: for
// every instruction i not excluded by the conditional-inclusion flag,
// append i to the bucket of every key in policy.NextInsns(i).
func buildIndex(ctx context.Context, idx disassembler.Index, cp policy.ChainPolicy, includeConditional bool) (*concurrent.ShardedMap[policy.LookupKey, instruction.Instruction], error) {
	predIndex := concurrent.NewShardedMap[policy.LookupKey, instruction.Instruction](hashLookupKey)
	g, ctx := errgroup.WithContext(ctx)
	for _, inst := range idx {
		inst := inst
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if !includeConditional && cp.IsConditional(inst) {
				return nil
			}
			for _, k := range cp.NextInsns(inst) {
				predIndex.Append(k, inst)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return predIndex, nil
}

// findTerminators filters idx down to the instructions satisfying the
// terminator predicate.
func findTerminators(ctx context.Context, idx disassembler.Index, cp policy.ChainPolicy, opts Options) ([]instruction.Instruction, error) {
	var out []instruction.Instruction
	for _, inst := range idx {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if isTerminator(inst, cp, opts) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func isTerminator(inst instruction.Instruction, cp policy.ChainPolicy, opts Options) bool {
	if !opts.IncludeConditional && cp.IsConditional(inst) {
		return false
	}
	if opts.ROP && cp.IsROP(inst) {
		return true
	}
	if opts.JOP && cp.IsJOP(inst) {
		return true
	}
	if opts.EndPattern != nil {
		text := inst.Mnemonic
		if inst.OpStr != "" {
			text += " " + inst.OpStr
		}
		matched, err := opts.EndPattern.MatchString(text)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// extend performs the bounded backward-prepend search starting from
// terminator t, emitting only at maximal dead ends or at the maxLen
// length cap.
func extend(t instruction.Instruction, maxLen int, predIndex *concurrent.ShardedMap[policy.LookupKey, instruction.Instruction], cp policy.ChainPolicy) []chain.Chain {
	return extendChain([]instruction.Instruction{t}, maxLen, predIndex, cp)
}

// extendChain emits insns itself exactly when it is a maximal dead end
// (no predecessor reaches its head) or has hit the length cap;
// otherwise it recurses once per predecessor and emits only what those
// calls emit. This is what keeps a chain from being reported at every
// intermediate length on its way to a dead end or the cap.
func extendChain(insns []instruction.Instruction, maxLen int, predIndex *concurrent.ShardedMap[policy.LookupKey, instruction.Instruction], cp policy.ChainPolicy) []chain.Chain {
	if len(insns) >= maxLen {
		return []chain.Chain{{Insns: append([]instruction.Instruction(nil), insns...)}}
	}
	head := insns[0]
	preds := predIndex.Get(cp.GetKey(head))
	if len(preds) == 0 {
		return []chain.Chain{{Insns: append([]instruction.Instruction(nil), insns...)}}
	}
	var results []chain.Chain
	for _, p := range preds {
		extended := make([]instruction.Instruction, 0, len(insns)+1)
		extended = append(extended, p)
		extended = append(extended, insns...)
		results = append(results, extendChain(extended, maxLen, predIndex, cp)...)
	}
	return results
}

// trim strips should_trim-satisfying leading instructions from c,
// leaving the first "useful" instruction as the new head.
func trim(c chain.Chain, cp policy.ChainPolicy) chain.Chain {
	insns := c.Insns
	i := 0
	for i < len(insns) && cp.ShouldTrim(insns[i]) {
		i++
	}
	return chain.Chain{File: c.File, Insns: insns[i:]}
}

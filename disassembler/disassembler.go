// Package disassembler implements the linear-sweep disassembler: it
// walks every alignment offset of a section's bytes, asking the
// architecture's DisassemblyPolicy to decode an instruction at each
// one, and accumulates the results into a per-address index. Offsets
// where decode fails are silently skipped — a gadget search does not
// care whether an offset holds valid code, only whether decoding *an*
// instruction there is possible.
package disassembler

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mewmew/ropr/instruction"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
	"github.com/mewmew/ropr/section"
)

// Index maps every LookupKey at which an instruction was decoded to
// the decoded instruction. A key carries architecture and ARM
// interworking mode alongside the address so that, for ARM sections
// swept under both ModeArm and ModeThumb, the two decodings of
// overlapping bytes never collide.
type Index map[policy.LookupKey]instruction.Instruction

// Sweep attempts a decode at every address in [sec.Base, sec.End())
// that satisfies the policy's alignment, tagging each decoded
// instruction with (a, mode). It splits the section into at most
// GOMAXPROCS contiguous chunks and disassembles them concurrently via
// an errgroup, rather than a single linear pass; see sweepChunk for
// instructions that straddle a chunk boundary.
func Sweep(ctx context.Context, sec section.Section, a machine.Arch, mode machine.ArmMode, dp policy.DisassemblyPolicy) (Index, error) {
	align := dp.Alignment()
	if align <= 0 {
		return nil, errors.Errorf("disassembler: invalid alignment %d", align)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	chunks := splitChunks(len(sec.Bytes), workers, align)

	results := make([]Index, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = sweepChunk(sec, a, mode, dp, c.start, c.end, align)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}

	merged := make(Index)
	for _, idx := range results {
		for key, inst := range idx {
			merged[key] = inst
		}
	}
	return merged, nil
}

type chunkRange struct {
	start, end int
}

// splitChunks divides [0, n) into up to workers contiguous byte
// ranges, each rounded to a multiple of align so no chunk boundary
// splits an alignment slot in two.
func splitChunks(n, workers, align int) []chunkRange {
	if n == 0 {
		return nil
	}
	size := (n + workers - 1) / workers
	size = roundUp(size, align)
	if size < align {
		size = align
	}
	var chunks []chunkRange
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, chunkRange{start, end})
	}
	return chunks
}

// sweepChunk decodes instructions starting within [start, end) of
// sec.Bytes. A decode is attempted at every alignment-satisfying
// offset in the chunk regardless of where a prior decode in the same
// chunk ended, since a gadget search must consider every possible
// instruction start, not just those reachable by a single
// non-overlapping sweep. A decode reads no byte at or past end, so an
// instruction that would extend past the chunk's end is not decoded.
func sweepChunk(sec section.Section, a machine.Arch, mode machine.ArmMode, dp policy.DisassemblyPolicy, start, end, align int) Index {
	idx := make(Index)
	maxLen := dp.MaxInsnLen()
	for off := roundUp(start, align); off < end; off += align {
		limit := off + maxLen
		if limit > end {
			limit = end
		}
		addr := sec.Base + uint64(off)
		inst, ok := dp.Decode(sec.Bytes[off:limit], addr)
		if !ok {
			continue
		}
		idx[policy.LookupKey{Arch: a, Mode: mode, Addr: addr}] = inst
	}
	return idx
}

func roundUp(n, align int) int {
	if r := n % align; r != 0 {
		return n + (align - r)
	}
	return n
}

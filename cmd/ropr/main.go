// Command ropr searches ELF executables for ROP/JOP gadget chains
// across x86-64, ARM, AArch64 and PowerPC.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mewmew/ropr/arch"
	"github.com/mewmew/ropr/args"
	"github.com/mewmew/ropr/binary"
	"github.com/mewmew/ropr/chain"
	"github.com/mewmew/ropr/chains"
	"github.com/mewmew/ropr/disassembler"
	"github.com/mewmew/ropr/logging"
	"github.com/mewmew/ropr/presentation"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "ropr: fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	cmd := args.New(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ropr: %+v\n", err)
		os.Exit(1)
	}
}

// run wires one end-to-end pass of the pipeline: load every input
// binary, sweep each for instructions under its architecture's
// DisassemblyPolicy (twice, for ARM's two interworking modes), run the
// chain engine over each file's index, then sort/filter/render the
// combined result set.
func run(a args.Args) error {
	log := logging.New(a.Verbose)

	endPattern, err := args.CompileEnd(a)
	if err != nil {
		return errors.WithStack(err)
	}
	excludes, err := args.CompilePatterns(a.Excludes)
	if err != nil {
		return errors.WithStack(err)
	}
	includes, err := args.CompilePatterns(a.Includes)
	if err != nil {
		return errors.WithStack(err)
	}

	ctx := context.Background()

	results := make([][]chain.Chain, len(a.Files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range a.Files {
		i, path := i, path
		g.Go(func() error {
			cs, err := processFile(ctx, log, path, a, endPattern)
			if err != nil {
				return errors.Wrapf(err, "ropr: %s", path)
			}
			results[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []chain.Chain
	for _, cs := range results {
		all = append(all, cs...)
	}

	presOpts := presentation.Options{
		Duplicates: a.Duplicates,
		ShowBytes:  a.Bytes,
		Limit:      a.Limit,
		Excludes:   excludes,
		Includes:   includes,
		Colour:     true,
	}
	sorted := presentation.Sort(all, presOpts)
	filtered, err := presentation.Filter(sorted, presOpts)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, c := range filtered {
		fmt.Println(presentation.Line(c, presOpts))
	}

	// processFile has already unmapped and closed every input file;
	// exit immediately on the success path rather than return through
	// main.
	os.Exit(0)
	return nil
}

// processFile loads, disassembles and searches a single binary,
// returning the chains it contributes to the combined result set.
func processFile(ctx context.Context, log *logrus.Logger, path string, a args.Args, endPattern *regexp2.Regexp) ([]chain.Chain, error) {
	bin, err := binary.Load(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer bin.Close()

	log.Debugf("loaded %s: %s, %d executable section(s)", path, bin.Machine, len(bin.Sections))

	dps, err := arch.DisassemblyPoliciesFor(bin.Machine)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cp, err := arch.ChainPolicyFor(bin.Machine.Arch)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	idx := make(disassembler.Index)
	for mode, dp := range dps {
		for _, sec := range bin.Sections {
			sweep, err := disassembler.Sweep(ctx, sec, bin.Machine.Arch, mode, dp)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			for k, v := range sweep {
				idx[k] = v
			}
		}
	}
	log.Debugf("%s: disassembled %d candidate instructions", path, len(idx))

	opts := chains.Options{
		MaxLen:             a.Num,
		ROP:                a.ROP,
		JOP:                a.JOP,
		EndPattern:         endPattern,
		IncludeConditional: a.Conditional,
	}
	cs, err := chains.Find(ctx, path, idx, cp, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log.Debugf("%s: found %d chain(s)", path, len(cs))
	return cs, nil
}

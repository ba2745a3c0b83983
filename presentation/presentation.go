// Package presentation implements the post-search stage: sorting and
// within-run structural dedup across files, the include/exclude regex
// filter on rendered gadget text, and the ANSI-coloured line renderer.
package presentation

import (
	"fmt"
	"sort"

	"github.com/dlclark/regexp2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/mewmew/ropr/chain"
	"github.com/mewmew/ropr/machine"
)

// Options configures rendering and the post-filter stage.
type Options struct {
	Duplicates bool // disable cross-file structural dedup
	ShowBytes  bool
	Limit      int // 0 means unlimited
	Excludes   []*regexp2.Regexp
	Includes   []*regexp2.Regexp
	Colour     bool
}

// Sort orders chains by (file_name, head-address) ascending and
// (unless opts.Duplicates) collapses structurally-equal chains found
// in different files down to one, keeping the first in sort order.
func Sort(chains []chain.Chain, opts Options) []chain.Chain {
	sorted := append([]chain.Chain(nil), chains...)
	sort.Slice(sorted, func(i, j int) bool { return chain.Less(sorted[i], sorted[j]) })
	if opts.Duplicates {
		return sorted
	}
	seen := make(map[uint64][]chain.Chain)
	var out []chain.Chain
	for _, c := range sorted {
		// chain.Equal and chain.Hash include the file name, so compare
		// the instruction sequences alone.
		body := chain.Chain{Insns: c.Insns}
		h := body.Hash()
		dup := false
		for _, o := range seen[h] {
			if body.Equal(o) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], body)
		out = append(out, c)
	}
	return out
}

// Filter applies the rendered-text include/exclude regex filters and
// the --limit cap, in that order: a chain surviving --excludes and
// matching at least one --includes (if any are given) is kept, then
// the result is truncated to opts.Limit entries.
func Filter(chains []chain.Chain, opts Options) ([]chain.Chain, error) {
	var out []chain.Chain
	for _, c := range chains {
		text := c.Text()
		excluded, err := matchesAny(opts.Excludes, text)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if excluded {
			continue
		}
		if len(opts.Includes) > 0 {
			included, err := matchesAny(opts.Includes, text)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			if !included {
				continue
			}
		}
		out = append(out, c)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func matchesAny(pats []*regexp2.Regexp, text string) (bool, error) {
	for _, p := range pats {
		ok, err := p.MatchString(text)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// modeMarker returns the ARM mode marker: "A" or "T" for a pure-mode
// chain, suffixed with "*" if the chain mixes ARM and Thumb
// instructions. Empty for non-ARM chains.
func modeMarker(c chain.Chain) string {
	if len(c.Insns) == 0 {
		return ""
	}
	arm, thumb := false, false
	for _, inst := range c.Insns {
		switch d := inst.Detail.(type) {
		case interface{ ArmMode() machine.ArmMode }:
			switch d.ArmMode() {
			case machine.ModeArm:
				arm = true
			case machine.ModeThumb:
				thumb = true
			}
		}
	}
	switch {
	case arm && thumb:
		return "A*"
	case thumb:
		return "T"
	case arm:
		return "A"
	default:
		return ""
	}
}

// Line renders one gadget as
// "[<mode-marker>] <file>!0x<head-address>: <text>", with an optional
// "\n\t<bytes>" line when opts.ShowBytes.
func Line(c chain.Chain, opts Options) string {
	marker := modeMarker(c)
	prefix := ""
	if marker != "" {
		prefix = "[" + marker + "] "
	}
	head := c.Head().Addr

	mnemonicColour := color.New(color.FgCyan)
	operandColour := color.New(color.FgYellow)
	headerColour := color.New(color.FgGreen)
	if !opts.Colour {
		mnemonicColour.DisableColor()
		operandColour.DisableColor()
		headerColour.DisableColor()
	}

	header := headerColour.Sprintf("%s!0x%08x", c.File, head)
	line := fmt.Sprintf("%s%s: %s", prefix, header, colouredText(c, mnemonicColour, operandColour))
	if opts.ShowBytes {
		line += "\n\t" + c.BytesText()
	}
	return line
}

func colouredText(c chain.Chain, mnemonicColour, operandColour *color.Color) string {
	s := ""
	for i, inst := range c.Insns {
		if i != 0 {
			s += "; "
		}
		s += mnemonicColour.Sprint(inst.Mnemonic)
		if inst.OpStr != "" {
			s += " " + operandColour.Sprint(inst.OpStr)
		}
	}
	return s
}

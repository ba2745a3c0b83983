// Package arch ties the four per-architecture policy implementations
// to the machine.Arch/machine.ArmMode values that select them. It is
// the one place in the repo that switches on architecture identity;
// every other package (disassembler, chains, presentation) is written
// entirely against the policy.DisassemblyPolicy/policy.ChainPolicy
// interfaces.
package arch

import (
	"fmt"

	"github.com/mewmew/ropr/arch/aarch64"
	"github.com/mewmew/ropr/arch/arm"
	"github.com/mewmew/ropr/arch/powerpc"
	"github.com/mewmew/ropr/arch/x64"
	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/policy"
)

// ChainPolicyFor returns the ChainPolicy for m's architecture. ARM's
// single ChainPolicy serves both its ARM and Thumb instruction sets —
// the mode split only affects disassembly and successor resolution
// inside that one implementation, not which ChainPolicy is selected.
func ChainPolicyFor(a machine.Arch) (policy.ChainPolicy, error) {
	switch a {
	case machine.X64:
		return x64.ChainPolicy{}, nil
	case machine.Arm:
		return arm.ChainPolicy{}, nil
	case machine.AArch64:
		return aarch64.ChainPolicy{}, nil
	case machine.PowerPC:
		return powerpc.ChainPolicy{}, nil
	default:
		return nil, fmt.Errorf("arch: unrecognized architecture %v", a)
	}
}

// DisassemblyPoliciesFor returns the DisassemblyPolicy(s) to sweep a
// section of m's architecture with, keyed by machine.ArmMode. Every
// architecture but ARM has exactly one mode (machine.ModeNone); ARM
// sections are swept twice, once under each interworking mode, since
// the same bytes can be validly entered in either mode and this tool
// cannot know in advance which entry points a binary actually uses.
func DisassemblyPoliciesFor(m machine.Machine) (map[machine.ArmMode]policy.DisassemblyPolicy, error) {
	switch m.Arch {
	case machine.X64:
		return map[machine.ArmMode]policy.DisassemblyPolicy{machine.ModeNone: x64.DisassemblyPolicy{}}, nil
	case machine.AArch64:
		return map[machine.ArmMode]policy.DisassemblyPolicy{machine.ModeNone: aarch64.DisassemblyPolicy{}}, nil
	case machine.PowerPC:
		return map[machine.ArmMode]policy.DisassemblyPolicy{machine.ModeNone: powerpc.DisassemblyPolicy{}}, nil
	case machine.Arm:
		return map[machine.ArmMode]policy.DisassemblyPolicy{
			machine.ModeArm:   arm.ArmDisassemblyPolicy{},
			machine.ModeThumb: arm.ThumbDisassemblyPolicy{},
		}, nil
	default:
		return nil, fmt.Errorf("arch: unrecognized architecture %v", m.Arch)
	}
}

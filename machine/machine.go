// Package machine describes the target binaries a gadget search runs
// against: which instruction set, word size and byte order they use.
package machine

import "fmt"

// Arch identifies an instruction set architecture supported by the
// gadget finder.
type Arch int

const (
	// X64 is the x86-64 / AMD64 architecture.
	X64 Arch = iota
	// Arm is the 32-bit ARM architecture (ARM and Thumb instruction sets).
	Arm
	// AArch64 is the 64-bit ARM architecture.
	AArch64
	// PowerPC is the 32-bit big-endian PowerPC architecture.
	PowerPC
)

func (a Arch) String() string {
	switch a {
	case X64:
		return "x86-64"
	case Arm:
		return "arm"
	case AArch64:
		return "aarch64"
	case PowerPC:
		return "powerpc"
	default:
		return fmt.Sprintf("Arch(%d)", int(a))
	}
}

// Bits is the address width of a machine.
type Bits int

const (
	Bits32 Bits = 32
	Bits64 Bits = 64
)

// Endian is the byte order of a machine's instruction stream.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ArmMode distinguishes the two interworking instruction sets ARM
// processors can execute. It is the zero value (ModeNone) for every
// non-ARM architecture, which is what keeps e.g. an x86-64 LookupKey
// and an ARM LookupKey from ever comparing equal by accident even
// though both embed a plain Addr field.
type ArmMode int

const (
	// ModeNone marks a LookupKey as belonging to a non-ARM architecture.
	ModeNone ArmMode = iota
	// ModeArm is the 32-bit ARM instruction set.
	ModeArm
	// ModeThumb is the 16/32-bit Thumb instruction set.
	ModeThumb
)

func (m ArmMode) String() string {
	switch m {
	case ModeArm:
		return "A"
	case ModeThumb:
		return "T"
	default:
		return ""
	}
}

// Machine is the descriptor of a loaded binary's target architecture,
// validated at load time against the small set of (arch, bits, endian)
// combinations this tool understands.
type Machine struct {
	Arch   Arch
	Bits   Bits
	Endian Endian
}

// Validate reports an error if the combination of fields does not
// correspond to a combination this tool can disassemble.
func (m Machine) Validate() error {
	switch m.Arch {
	case PowerPC:
		if m.Bits != Bits32 || m.Endian != BigEndian {
			return fmt.Errorf("machine: powerpc is only supported as 32-bit big-endian, got %d-bit %s-endian", m.Bits, m.Endian)
		}
	case Arm:
		if m.Bits != Bits32 {
			return fmt.Errorf("machine: arm is only supported as 32-bit, got %d-bit", m.Bits)
		}
	case X64:
		if m.Endian != LittleEndian {
			return fmt.Errorf("machine: x86-64 is only supported little-endian")
		}
	case AArch64:
		if m.Bits != Bits64 {
			return fmt.Errorf("machine: aarch64 is only supported as 64-bit, got %d-bit", m.Bits)
		}
	default:
		return fmt.Errorf("machine: unrecognized architecture %v", m.Arch)
	}
	return nil
}

func (m Machine) String() string {
	return fmt.Sprintf("%v/%d/%s", m.Arch, m.Bits, m.Endian)
}

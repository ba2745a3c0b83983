// Package binary implements the BinaryLoader: it memory-maps an ELF
// file, validates its (machine, bits, endianness) tuple against the
// four combinations this tool supports, and yields the executable
// Sections plus the derived Machine descriptor.
package binary

import (
	"debug/elf"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/mewmew/ropr/machine"
	"github.com/mewmew/ropr/section"
)

// Binary is a memory-mapped ELF executable and its derived Machine
// descriptor and executable Sections. Close unmaps and closes the
// underlying file.
type Binary struct {
	Path     string
	Machine  machine.Machine
	Sections []section.Section

	file *os.File
	mmap mmap.MMap
}

// Load memory-maps path and validates it as a supported ELF
// executable, returning every PT_LOAD program-header range with PF_X
// set as a Section.
func Load(path string) (*Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer func() {
		if !ok {
			m.Unmap()
		}
	}()

	ef, err := elf.NewFile(sectionReaderAt(m))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer ef.Close()

	mach, err := machineOf(ef, m)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := mach.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	var sections []section.Section
	for _, prog := range ef.Progs {
		if prog.Type != elf.PT_LOAD || prog.Flags&elf.PF_X == 0 {
			continue
		}
		start := prog.Off
		end := start + prog.Filesz
		if end > uint64(len(m)) {
			return nil, errors.Errorf("binary: executable segment at file offset %#x extends past end of file", start)
		}
		sections = append(sections, section.Section{
			Base:  prog.Vaddr,
			Bytes: []byte(m[start:end]),
		})
	}

	ok = true
	return &Binary{
		Path:     path,
		Machine:  mach,
		Sections: sections,
		file:     f,
		mmap:     m,
	}, nil
}

// Close unmaps and closes the underlying file.
func (b *Binary) Close() error {
	if err := b.mmap.Unmap(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(b.file.Close())
}

// machineOf derives the Machine descriptor from an ELF file header,
// applying the BE8 ARM special case: a big-endian ARM ELF header with
// the BE8 flag set still executes little-endian instruction streams.
func machineOf(ef *elf.File, raw []byte) (machine.Machine, error) {
	endian := machine.LittleEndian
	if ef.Data == elf.ELFDATA2MSB {
		endian = machine.BigEndian
	}

	switch ef.Machine {
	case elf.EM_PPC:
		return machine.Machine{Arch: machine.PowerPC, Bits: machine.Bits32, Endian: endian}, nil
	case elf.EM_ARM:
		if endian == machine.BigEndian {
			if !isBE8(ef, raw) {
				return machine.Machine{}, errors.New("binary: big-endian ARM is only supported as BE8 (little-endian instruction stream)")
			}
			endian = machine.LittleEndian
		}
		return machine.Machine{Arch: machine.Arm, Bits: machine.Bits32, Endian: endian}, nil
	case elf.EM_X86_64:
		bits := machine.Bits64
		if ef.Class == elf.ELFCLASS32 {
			bits = machine.Bits32
		}
		return machine.Machine{Arch: machine.X64, Bits: bits, Endian: endian}, nil
	case elf.EM_AARCH64:
		return machine.Machine{Arch: machine.AArch64, Bits: machine.Bits64, Endian: endian}, nil
	default:
		return machine.Machine{}, errors.Errorf("binary: unsupported ELF machine type %v", ef.Machine)
	}
}

// efARMBE8 is EF_ARM_BE8, the e_flags bit marking a big-endian-data
// ELF image whose instruction stream is nonetheless little-endian.
const efARMBE8 = 0x00800000

// isBE8 reports whether raw's e_flags field has EF_ARM_BE8 set.
// debug/elf's FileHeader does not surface e_flags, so this reads it
// directly out of the raw header at its fixed offset (36 for ELF32,
// 48 for ELF64 — e_flags immediately follows e_shoff in both header
// layouts).
func isBE8(ef *elf.File, raw []byte) bool {
	var off int
	switch ef.Class {
	case elf.ELFCLASS32:
		off = 36
	case elf.ELFCLASS64:
		off = 48
	default:
		return false
	}
	if off+4 > len(raw) {
		return false
	}
	var flags uint32
	if ef.Data == elf.ELFDATA2MSB {
		flags = uint32(raw[off])<<24 | uint32(raw[off+1])<<16 | uint32(raw[off+2])<<8 | uint32(raw[off+3])
	} else {
		flags = uint32(raw[off]) | uint32(raw[off+1])<<8 | uint32(raw[off+2])<<16 | uint32(raw[off+3])<<24
	}
	return flags&efARMBE8 != 0
}

type readerAt interface {
	io.ReaderAt
}

func sectionReaderAt(m mmap.MMap) readerAt {
	return bytesReaderAt(m)
}

// bytesReaderAt adapts an in-memory byte slice to io.ReaderAt without
// copying, so debug/elf parses directly against the mmap'd pages.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

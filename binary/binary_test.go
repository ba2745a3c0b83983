package binary

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBE8(t *testing.T) {
	raw32 := make([]byte, 40)
	raw32[36], raw32[37], raw32[38], raw32[39] = 0x00, 0x80, 0x00, 0x00 // big-endian 0x00800000

	ef := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS32, Data: elf.ELFDATA2MSB}}
	assert.True(t, isBE8(ef, raw32))

	raw32NoBE8 := make([]byte, 40)
	assert.False(t, isBE8(ef, raw32NoBE8))
}

func TestIsBE8ELF64Offset(t *testing.T) {
	raw64 := make([]byte, 52)
	raw64[48], raw64[49], raw64[50], raw64[51] = 0x00, 0x80, 0x00, 0x00

	ef := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS64, Data: elf.ELFDATA2MSB}}
	assert.True(t, isBE8(ef, raw64))
}

func TestIsBE8LittleEndianHeader(t *testing.T) {
	raw32 := make([]byte, 40)
	raw32[36], raw32[37], raw32[38], raw32[39] = 0x00, 0x00, 0x80, 0x00 // little-endian 0x00800000

	ef := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS32, Data: elf.ELFDATA2LSB}}
	assert.True(t, isBE8(ef, raw32))
}

func TestIsBE8TruncatedHeaderIsFalse(t *testing.T) {
	ef := &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS32, Data: elf.ELFDATA2MSB}}
	assert.False(t, isBE8(ef, make([]byte, 30)))
}

func TestMachineOfRejectsUnsupported(t *testing.T) {
	ef := &elf.File{FileHeader: elf.FileHeader{Machine: elf.EM_SPARC}}
	_, err := machineOf(ef, nil)
	assert.Error(t, err)
}

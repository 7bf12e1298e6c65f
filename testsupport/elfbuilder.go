// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package testsupport builds synthetic ELF images for tests. The images only
// carry a section header table: enough for symbol tooling, never loadable.
package testsupport // import "github.com/elfu-tools/elfu/testsupport"

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Section describes one section of the image.
type Section struct {
	Name      string
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
	Data      []byte

	// Offset and Size override the values computed from the layout when
	// non-zero, to produce corrupted headers.
	Offset uint64
	Size   uint64
}

// Builder assembles an ELF image: the file header, the section contents in
// insertion order, a .shstrtab section and the section header table.
type Builder struct {
	Class elf.Class
	Data  elf.Data
	Type  elf.Type

	sections []Section
}

// NewBuilder returns a builder for a relocatable object of the given class
// and byte order.
func NewBuilder(class elf.Class, data elf.Data) *Builder {
	return &Builder{Class: class, Data: data, Type: elf.ET_REL}
}

// ByteOrder reads, writes and appends multi-byte fields.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order returns the byte order of the image.
func (b *Builder) Order() ByteOrder {
	if b.Data == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (b *Builder) is64() bool {
	return b.Class == elf.ELFCLASS64
}

// AddSection appends a section and returns its index. Index 0 is the null
// section, which is always present.
func (b *Builder) AddSection(s Section) int {
	b.sections = append(b.sections, s)
	return len(b.sections)
}

// NumSections returns the section count of the built image, including the
// null section and .shstrtab.
func (b *Builder) NumSections() int {
	return len(b.sections) + 2
}

// ShstrtabIndex returns the index .shstrtab will get.
func (b *Builder) ShstrtabIndex() int {
	return len(b.sections) + 1
}

// SymSize returns the symbol record size for the class.
func (b *Builder) SymSize() uint64 {
	if b.is64() {
		return elf.Sym64Size
	}
	return elf.Sym32Size
}

// Bytes lays out the image.
func (b *Builder) Bytes() []byte {
	order := b.Order()
	hdrSize, shSize := 52, 40
	if b.is64() {
		hdrSize, shSize = 64, 64
	}

	var names StringTable
	shstrtab := Section{Name: ".shstrtab", Type: elf.SHT_STRTAB, Addralign: 1}
	all := append([]Section{{}}, b.sections...)
	all = append(all, shstrtab)
	nameOffsets := make([]uint32, len(all))
	for i := 1; i < len(all); i++ {
		nameOffsets[i] = names.Add(all[i].Name)
	}
	all[len(all)-1].Data = names.Bytes()

	out := make([]byte, hdrSize)
	offsets := make([]uint64, len(all))
	for i := 1; i < len(all); i++ {
		offsets[i] = uint64(len(out))
		if all[i].Type != elf.SHT_NOBITS {
			out = append(out, all[i].Data...)
		}
	}
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	shoff := uint64(len(out))

	for i, s := range all {
		off, size := offsets[i], uint64(len(s.Data))
		if s.Offset != 0 {
			off = s.Offset
		}
		if s.Size != 0 {
			size = s.Size
		}
		if i == 0 {
			off, size = 0, 0
		}
		out = b.appendSectionHeader(out, order, nameOffsets[i], s, off, size)
	}

	copy(out, elf.ELFMAG)
	out[elf.EI_CLASS] = byte(b.Class)
	out[elf.EI_DATA] = byte(b.Data)
	out[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	h := out[elf.EI_NIDENT:]
	order.PutUint16(h[0:], uint16(b.Type))
	order.PutUint16(h[2:], uint16(elf.EM_X86_64))
	order.PutUint32(h[4:], uint32(elf.EV_CURRENT))
	if b.is64() {
		// e_entry and e_phoff stay zero.
		order.PutUint64(h[24:], shoff)
		h = h[32:]
	} else {
		order.PutUint32(h[16:], uint32(shoff))
		h = h[20:]
	}
	// e_flags, e_ehsize, e_phentsize, e_phnum, e_shentsize, e_shnum, e_shstrndx
	order.PutUint32(h[0:], 0)
	order.PutUint16(h[4:], uint16(hdrSize))
	order.PutUint16(h[6:], 0)
	order.PutUint16(h[8:], 0)
	order.PutUint16(h[10:], uint16(shSize))
	order.PutUint16(h[12:], uint16(len(all)))
	order.PutUint16(h[14:], uint16(len(all)-1))
	return out
}

func (b *Builder) appendSectionHeader(out []byte, order ByteOrder,
	name uint32, s Section, off, size uint64) []byte {
	out = order.AppendUint32(out, name)
	out = order.AppendUint32(out, uint32(s.Type))
	if b.is64() {
		out = order.AppendUint64(out, uint64(s.Flags))
		out = order.AppendUint64(out, s.Addr)
		out = order.AppendUint64(out, off)
		out = order.AppendUint64(out, size)
		out = order.AppendUint32(out, s.Link)
		out = order.AppendUint32(out, s.Info)
		out = order.AppendUint64(out, s.Addralign)
		return order.AppendUint64(out, s.Entsize)
	}
	out = order.AppendUint32(out, uint32(s.Flags))
	out = order.AppendUint32(out, uint32(s.Addr))
	out = order.AppendUint32(out, uint32(off))
	out = order.AppendUint32(out, uint32(size))
	out = order.AppendUint32(out, s.Link)
	out = order.AppendUint32(out, s.Info)
	out = order.AppendUint32(out, uint32(s.Addralign))
	return order.AppendUint32(out, uint32(s.Entsize))
}

// WriteFile writes the image to a file in a test temporary directory and
// returns its path.
func (b *Builder) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b.Bytes(), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// StringTable accumulates a string table. The first byte is always zero.
type StringTable struct {
	data []byte
}

// Add appends s and returns its offset.
func (st *StringTable) Add(s string) uint32 {
	if len(st.data) == 0 {
		st.data = []byte{0}
	}
	if s == "" {
		return 0
	}
	off := uint32(len(st.data))
	st.data = append(st.data, s...)
	st.data = append(st.data, 0)
	return off
}

// Bytes returns the table contents.
func (st *StringTable) Bytes() []byte {
	if len(st.data) == 0 {
		return []byte{0}
	}
	return st.data
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"debug/elf"
	"fmt"
	"iter"
)

// SectionHeader is a section header normalized to its ELFCLASS64 shape.
type SectionHeader struct {
	Name      uint32
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// Section represents a section header, and the data associated with it.
type Section struct {
	SectionHeader

	// Index is the position of the section in the section header table.
	Index int

	// data is borrowed from the mapping, nil for SHT_NOBITS sections.
	data []byte

	file *File
}

// Data returns the section contents as a view into the mapping. It is nil
// for sections that occupy no file bytes.
func (s *Section) Data() []byte {
	return s.data
}

// window returns the declared file range of the section.
func (s *Section) window() window {
	return window{start: s.Offset, end: s.Offset + s.Size}
}

// Section returns the section at the given index of the section header table.
func (f *File) Section(index int) (Section, error) {
	if err := f.checkOpen(); err != nil {
		return Section{}, err
	}
	if !f.hasHeader {
		return Section{}, invalidf("file header not parsed")
	}
	if index < 0 || index >= int(f.hdr.Shnum) {
		return Section{}, invalidf("section index %d out of range [0, %d)",
			index, f.hdr.Shnum)
	}

	// Entries are Shentsize apart, but at least a full record is decoded.
	entSize := uint64(f.hdr.Shentsize)
	off := uint64(index) * entSize
	if entSize != 0 && off/entSize != uint64(index) {
		return Section{}, malformedf("section header %d offset overflows", index)
	}
	if _, err := f.window().span(f.hdr.Shoff, off); err != nil {
		return Section{}, fmt.Errorf("section header %d: %w", index, err)
	}
	start, err := f.window().span(f.hdr.Shoff+off, max(entSize, f.sectionHeaderSize()))
	if err != nil {
		return Section{}, fmt.Errorf("section header %d: %w", index, err)
	}

	s := Section{
		SectionHeader: f.readSectionHeader(start),
		Index:         index,
		file:          f,
	}
	if s.Type == elf.SHT_NOBITS {
		return s, nil
	}

	dataStart, err := f.window().span(s.Offset, s.Size)
	if err != nil {
		return Section{}, fmt.Errorf("section %d data: %w", index, err)
	}
	s.data = f.data[dataStart : dataStart+s.Size : dataStart+s.Size]
	return s, nil
}

// Sections iterates over all sections in index order. Iteration stops after
// the first error.
func (f *File) Sections() iter.Seq2[Section, error] {
	return func(yield func(Section, error) bool) {
		if err := f.checkOpen(); err != nil {
			yield(Section{}, err)
			return
		}
		for i := range int(f.hdr.Shnum) {
			s, err := f.Section(i)
			if !yield(s, err) || err != nil {
				return
			}
		}
	}
}

// FirstSectionByType returns the first section of the given type. A section
// that cannot be read before a match is found aborts the scan with its error,
// while the absence of a match is reported with found set to false.
func (f *File) FirstSectionByType(typ elf.SectionType) (Section, bool, error) {
	for sec, err := range f.Sections() {
		if err != nil {
			return Section{}, false, err
		}
		if sec.Type == typ {
			return sec, true, nil
		}
	}
	return Section{}, false, nil
}

// SymTab returns the first SHT_SYMTAB section.
func (f *File) SymTab() (Section, bool, error) {
	return f.FirstSectionByType(elf.SHT_SYMTAB)
}

// DynSymTab returns the first SHT_DYNSYM section.
func (f *File) DynSymTab() (Section, bool, error) {
	return f.FirstSectionByType(elf.SHT_DYNSYM)
}

// SectionName returns the name of the section at index, looked up in the
// section name string table designated by the file header.
func (f *File) SectionName(index int) (string, error) {
	s, err := f.Section(index)
	if err != nil {
		return "", err
	}
	return f.String(int(f.hdr.Shstrndx), uint64(s.Name))
}

// SectionByName returns the first section with the given name. Sections
// whose name cannot be resolved are skipped.
func (f *File) SectionByName(name string) (Section, bool, error) {
	for sec, err := range f.Sections() {
		if err != nil {
			return Section{}, false, err
		}
		if n, err := f.String(int(f.hdr.Shstrndx), uint64(sec.Name)); err == nil && n == name {
			return sec, true, nil
		}
	}
	return Section{}, false, nil
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"debug/elf"
)

// On-disk record sizes. The GNU versioning records have the same layout in
// both classes.
const (
	header32Size = 52
	header64Size = 64

	section32Size = 40
	section64Size = 64

	sym32Size = elf.Sym32Size
	sym64Size = elf.Sym64Size

	versymSize  = 2
	verdefSize  = 20
	verdauxSize = 8
	verneedSize = 16
	vernauxSize = 16
)

// verdef is an Elf32_Verdef/Elf64_Verdef record.
type verdef struct {
	Version uint16
	Flags   uint16
	Ndx     uint16
	Cnt     uint16
	Hash    uint32
	Aux     uint32
	Next    uint32
}

// verdaux is an Elf32_Verdaux/Elf64_Verdaux record.
type verdaux struct {
	Name uint32
	Next uint32
}

// verneed is an Elf32_Verneed/Elf64_Verneed record.
type verneed struct {
	Version uint16
	Cnt     uint16
	File    uint32
	Aux     uint32
	Next    uint32
}

// vernaux is an Elf32_Vernaux/Elf64_Vernaux record.
type vernaux struct {
	Hash  uint32
	Flags uint16
	Other uint16
	Name  uint32
	Next  uint32
}

func (f *File) decoder(off uint64) decoder {
	return decoder{buf: f.data, off: off, data: f.endian, class: f.class}
}

func (f *File) headerSize() uint64 {
	if f.class == elf.ELFCLASS32 {
		return header32Size
	}
	return header64Size
}

func (f *File) sectionHeaderSize() uint64 {
	if f.class == elf.ELFCLASS32 {
		return section32Size
	}
	return section64Size
}

func (f *File) symSize() uint64 {
	if f.class == elf.ELFCLASS32 {
		return sym32Size
	}
	return sym64Size
}

// readHeader decodes the file header, widening ELFCLASS32 layouts.
func (f *File) readHeader() elf.Header64 {
	var hdr elf.Header64
	copy(hdr.Ident[:], f.data[:elf.EI_NIDENT])

	d := f.decoder(elf.EI_NIDENT)
	hdr.Type = d.u16()
	hdr.Machine = d.u16()
	hdr.Version = d.u32()
	hdr.Entry = d.addr()
	hdr.Phoff = d.addr()
	hdr.Shoff = d.addr()
	hdr.Flags = d.u32()
	hdr.Ehsize = d.u16()
	hdr.Phentsize = d.u16()
	hdr.Phnum = d.u16()
	hdr.Shentsize = d.u16()
	hdr.Shnum = d.u16()
	hdr.Shstrndx = d.u16()
	return hdr
}

// readSectionHeader decodes the section header at off.
func (f *File) readSectionHeader(off uint64) SectionHeader {
	d := f.decoder(off)
	var sh SectionHeader
	sh.Name = d.u32()
	sh.Type = elf.SectionType(d.u32())
	sh.Flags = elf.SectionFlag(d.addr())
	sh.Addr = d.addr()
	sh.Offset = d.addr()
	sh.Size = d.addr()
	sh.Link = d.u32()
	sh.Info = d.u32()
	sh.Addralign = d.addr()
	sh.Entsize = d.addr()
	return sh
}

// readSym decodes the symbol at off. The field order differs between classes.
func (f *File) readSym(off uint64) elf.Sym64 {
	d := f.decoder(off)
	var sym elf.Sym64
	sym.Name = d.u32()
	if f.class == elf.ELFCLASS32 {
		sym.Value = uint64(d.u32())
		sym.Size = uint64(d.u32())
		sym.Info = d.u8()
		sym.Other = d.u8()
		sym.Shndx = d.u16()
		return sym
	}
	sym.Info = d.u8()
	sym.Other = d.u8()
	sym.Shndx = d.u16()
	sym.Value = d.u64()
	sym.Size = d.u64()
	return sym
}

func (f *File) readVersym(off uint64) uint16 {
	d := f.decoder(off)
	return d.u16()
}

func (f *File) readVerdef(off uint64) verdef {
	d := f.decoder(off)
	return verdef{
		Version: d.u16(),
		Flags:   d.u16(),
		Ndx:     d.u16(),
		Cnt:     d.u16(),
		Hash:    d.u32(),
		Aux:     d.u32(),
		Next:    d.u32(),
	}
}

func (f *File) readVerdaux(off uint64) verdaux {
	d := f.decoder(off)
	return verdaux{
		Name: d.u32(),
		Next: d.u32(),
	}
}

func (f *File) readVerneed(off uint64) verneed {
	d := f.decoder(off)
	return verneed{
		Version: d.u16(),
		Cnt:     d.u16(),
		File:    d.u32(),
		Aux:     d.u32(),
		Next:    d.u32(),
	}
}

func (f *File) readVernaux(off uint64) vernaux {
	d := f.decoder(off)
	return vernaux{
		Hash:  d.u32(),
		Flags: d.u16(),
		Other: d.u16(),
		Name:  d.u32(),
		Next:  d.u32(),
	}
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package testsupport // import "github.com/elfu-tools/elfu/testsupport"

import (
	"debug/elf"
)

// Section indices of the sample object.
const (
	SampleText = iota + 1
	SampleData
	SampleBss
	SampleRodata
	SampleStrtab
	SampleSymtab
	SampleDynstr
	SampleDynsym
	SampleVersym
	SampleVerneed
	SampleVerdef
)

// Section addresses of the sample object.
const (
	SampleTextAddr   = 0x1000
	SampleDataAddr   = 0x2000
	SampleBssAddr    = 0x3000
	SampleRodataAddr = 0x4000
)

// NewSampleObject returns a builder preloaded with a small shared object:
// code, data, bss and rodata sections, a static symbol table covering every
// nm symbol class, and a versioned dynamic symbol table.
//
// Static symbols, in table order:
//
//	.text          LOCAL  SECTION .text
//	sample.c       LOCAL  FILE    ABS
//	local_obj      LOCAL  OBJECT  .data   0x2000
//	main           GLOBAL FUNC    .text   0x1000
//	undef          GLOBAL NOTYPE  UNDEF
//	weak_fn        WEAK   FUNC    .text   0x1008
//	bss_var        GLOBAL OBJECT  .bss    0x3000
//	common         GLOBAL OBJECT  COMMON
//	ro             GLOBAL OBJECT  .rodata 0x4000
//	weak_undef_obj WEAK   OBJECT  UNDEF
//	ifunc          GLOBAL IFUNC   .text   0x1030
//	abs_sym        GLOBAL NOTYPE  ABS     0x42
//
// Dynamic symbols, in table order, with their versions:
//
//	puts   UNDEF   GLIBC_2.2.5 (required, hidden)
//	foo    .text   V1
//	bar    .text   V2 (hidden)
//	baz    .data   global, no version
//	SELF   .data   defined by a version of the same name, no version
func NewSampleObject(class elf.Class, data elf.Data) *Builder {
	b := NewBuilder(class, data)
	b.Type = elf.ET_DYN

	var strs StringTable
	var dynstr StringTable
	syms := []Symbol{
		{Bind: elf.STB_LOCAL, Type: elf.STT_SECTION, Shndx: SampleText},
		{Name: strs.Add("sample.c"), Bind: elf.STB_LOCAL, Type: elf.STT_FILE,
			Shndx: elf.SHN_ABS},
		{Name: strs.Add("local_obj"), Bind: elf.STB_LOCAL, Type: elf.STT_OBJECT,
			Shndx: SampleData, Value: SampleDataAddr, Size: 4},
		{Name: strs.Add("main"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: SampleText, Value: SampleTextAddr, Size: 8},
		{Name: strs.Add("undef"), Bind: elf.STB_GLOBAL, Type: elf.STT_NOTYPE,
			Shndx: elf.SHN_UNDEF},
		{Name: strs.Add("weak_fn"), Bind: elf.STB_WEAK, Type: elf.STT_FUNC,
			Shndx: SampleText, Value: SampleTextAddr + 8, Size: 8},
		{Name: strs.Add("bss_var"), Bind: elf.STB_GLOBAL, Type: elf.STT_OBJECT,
			Shndx: SampleBss, Value: SampleBssAddr, Size: 8},
		{Name: strs.Add("common"), Bind: elf.STB_GLOBAL, Type: elf.STT_OBJECT,
			Shndx: elf.SHN_COMMON, Value: 8, Size: 8},
		{Name: strs.Add("ro"), Bind: elf.STB_GLOBAL, Type: elf.STT_OBJECT,
			Shndx: SampleRodata, Value: SampleRodataAddr, Size: 4},
		{Name: strs.Add("weak_undef_obj"), Bind: elf.STB_WEAK, Type: elf.STT_OBJECT,
			Shndx: elf.SHN_UNDEF},
		{Name: strs.Add("ifunc"), Bind: elf.STB_GLOBAL, Type: elf.STT_GNU_IFUNC,
			Shndx: SampleText, Value: SampleTextAddr + 0x30},
		{Name: strs.Add("abs_sym"), Bind: elf.STB_GLOBAL, Type: elf.STT_NOTYPE,
			Shndx: elf.SHN_ABS, Value: 0x42},
	}

	self := dynstr.Add("SELF")
	dynsyms := []Symbol{
		{Name: dynstr.Add("puts"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: elf.SHN_UNDEF},
		{Name: dynstr.Add("foo"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: SampleText, Value: SampleTextAddr + 0x10},
		{Name: dynstr.Add("bar"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: SampleText, Value: SampleTextAddr + 0x20},
		{Name: dynstr.Add("baz"), Bind: elf.STB_GLOBAL, Type: elf.STT_OBJECT,
			Shndx: SampleData, Value: SampleDataAddr + 0x10},
		{Name: self, Bind: elf.STB_GLOBAL, Type: elf.STT_OBJECT,
			Shndx: SampleData, Value: SampleDataAddr + 0x20},
	}
	versym := []uint16{0, 2, 3, 0x8000 | 4, 1, 5}
	verneed := []Verneed{{
		File: dynstr.Add("libc.so.6"),
		Aux:  []Vernaux{{Hash: 0x09691a75, Other: 2, Name: dynstr.Add("GLIBC_2.2.5")}},
	}}
	v1 := dynstr.Add("V1")
	verdef := []Verdef{
		{Flags: 1, Ndx: 1, Names: []uint32{dynstr.Add("libsample.so")}},
		{Ndx: 3, Names: []uint32{v1}},
		{Ndx: 4, Names: []uint32{dynstr.Add("V2"), v1}},
		{Ndx: 5, Names: []uint32{self}},
	}

	b.AddSection(Section{Name: ".text", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Addr: SampleTextAddr,
		Addralign: 16, Data: make([]byte, 0x40)})
	b.AddSection(Section{Name: ".data", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Addr: SampleDataAddr,
		Addralign: 8, Data: make([]byte, 0x30)})
	b.AddSection(Section{Name: ".bss", Type: elf.SHT_NOBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Addr: SampleBssAddr,
		Addralign: 8, Size: 0x10})
	b.AddSection(Section{Name: ".rodata", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC, Addr: SampleRodataAddr,
		Addralign: 4, Data: make([]byte, 8)})
	b.AddSection(Section{Name: ".strtab", Type: elf.SHT_STRTAB,
		Addralign: 1, Data: strs.Bytes()})
	b.AddSection(Section{Name: ".symtab", Type: elf.SHT_SYMTAB,
		Link: SampleStrtab, Info: 4, Addralign: 8, Entsize: b.SymSize(),
		Data: b.Symbols(syms)})
	b.AddSection(Section{Name: ".dynstr", Type: elf.SHT_STRTAB,
		Flags: elf.SHF_ALLOC, Addralign: 1, Data: dynstr.Bytes()})
	b.AddSection(Section{Name: ".dynsym", Type: elf.SHT_DYNSYM,
		Flags: elf.SHF_ALLOC, Link: SampleDynstr, Info: 1, Addralign: 8,
		Entsize: b.SymSize(), Data: b.Symbols(dynsyms)})
	b.AddSection(Section{Name: ".gnu.version", Type: elf.SHT_GNU_VERSYM,
		Flags: elf.SHF_ALLOC, Link: SampleDynsym, Addralign: 2, Entsize: 2,
		Data: b.Versym(versym)})
	b.AddSection(Section{Name: ".gnu.version_r", Type: elf.SHT_GNU_VERNEED,
		Flags: elf.SHF_ALLOC, Link: SampleDynstr, Info: uint32(len(verneed)),
		Addralign: 4, Data: b.Verneeds(verneed)})
	b.AddSection(Section{Name: ".gnu.version_d", Type: elf.SHT_GNU_VERDEF,
		Flags: elf.SHF_ALLOC, Link: SampleDynstr, Info: uint32(len(verdef)),
		Addralign: 4, Data: b.Verdefs(verdef)})
	return b
}

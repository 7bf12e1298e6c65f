// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"debug/elf"

	"github.com/elfu-tools/elfu/elfu"
)

// Symbol type letters. Lower case letters denote local symbols, SymbolType
// upper-cases them for global ones.
const (
	TypeAbsolute   = 'a'
	TypeBSS        = 'b'
	TypeCommon     = 'C'
	TypeData       = 'd'
	TypeIndirect   = 'i'
	TypeReadOnly   = 'r'
	TypeText       = 't'
	TypeUndefined  = 'U'
	TypeUnique     = 'u'
	TypeWeakObject = 'v'
	TypeWeak       = 'w'
	TypeUnknown    = '?'
)

// stbGNUUnique is the GNU_UNIQUE binding (STB_LOOS), missing from debug/elf.
const stbGNUUnique elf.SymBind = 10

// upper turns a local type letter into its global counterpart.
func upper(c byte) byte {
	return c - ('a' - 'A')
}

// SymbolType classifies sym the way nm does.
func SymbolType(f *elfu.File, sym elfu.Symbol) byte {
	typ, bind, shndx := sym.Type(), sym.Bind(), sym.SectionIndex()

	switch shndx {
	case elf.SHN_COMMON:
		return TypeCommon
	case elf.SHN_UNDEF:
		switch {
		case bind == elf.STB_WEAK && typ == elf.STT_OBJECT:
			return TypeWeakObject
		case bind == elf.STB_WEAK:
			return TypeWeak
		}
		return TypeUndefined
	}

	switch {
	case typ == elf.STT_GNU_IFUNC:
		return TypeIndirect
	case bind == stbGNUUnique:
		return TypeUnique
	case bind == elf.STB_WEAK && typ == elf.STT_OBJECT:
		return upper(TypeWeakObject)
	case bind == elf.STB_WEAK:
		return upper(TypeWeak)
	}

	c := byte(TypeAbsolute)
	if shndx != elf.SHN_ABS {
		c = sectionType(f, shndx)
	}
	if c != TypeUnknown && bind == elf.STB_GLOBAL {
		return upper(c)
	}
	return c
}

// sectionType returns the local type letter of symbols defined in the
// section at index.
func sectionType(f *elfu.File, index elf.SectionIndex) byte {
	if index >= elf.SHN_LORESERVE {
		return TypeUnknown
	}
	sec, err := f.Section(int(index))
	if err != nil {
		return TypeUnknown
	}

	writable := sec.Flags&elf.SHF_WRITE != 0
	alloc := sec.Flags&elf.SHF_ALLOC != 0
	switch {
	case sec.Type == elf.SHT_PROGBITS && sec.Flags&elf.SHF_EXECINSTR != 0:
		return TypeText
	case sec.Type == elf.SHT_NOBITS && writable && alloc:
		return TypeBSS
	case writable && alloc:
		return TypeData
	case !writable:
		return TypeReadOnly
	}
	return TypeUnknown
}

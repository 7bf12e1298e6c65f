// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"debug/elf"
	"fmt"
	"io"
	"iter"

	log "github.com/sirupsen/logrus"
)

// CorruptName replaces symbol names that cannot be resolved.
const CorruptName = "<corrupt>"

// Symbol is a symbol table entry with its name and version resolved.
type Symbol struct {
	// Raw is the symbol record normalized to its ELFCLASS64 shape.
	Raw elf.Sym64

	// Name is the symbol name, or the name of the section for STT_SECTION
	// symbols. It is CorruptName when it could not be resolved.
	Name string

	// Version is the GNU symbol version, empty if there is none.
	Version string
	// VersionHidden is set when Version is not the default version of the symbol.
	VersionHidden bool

	// SectionAddr is the address of the section the symbol is defined in,
	// 0 if the section index does not resolve.
	SectionAddr uint64

	// Position is the 1-based index of the symbol within its table.
	Position int
}

// Type returns the symbol type.
func (s Symbol) Type() elf.SymType {
	return elf.ST_TYPE(s.Raw.Info)
}

// Bind returns the symbol binding.
func (s Symbol) Bind() elf.SymBind {
	return elf.ST_BIND(s.Raw.Info)
}

// SectionIndex returns the index of the defining section.
func (s Symbol) SectionIndex() elf.SectionIndex {
	return elf.SectionIndex(s.Raw.Shndx)
}

// SymbolIterator walks a symbol table once, front to back. Position 0, the
// reserved null symbol, is never returned.
type SymbolIterator struct {
	file   *File
	symtab Section

	entSize uint64
	total   uint64
	cursor  uint64

	// version is nil unless the table is SHT_DYNSYM and has a versym section.
	version *versionContext
}

// Symbols returns an iterator over the symbol table s of f.
func (f *File) Symbols(s Section) (*SymbolIterator, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	s.file = f
	return NewSymbolIterator(s)
}

// NewSymbolIterator returns an iterator over the symbol table section s,
// which must have been obtained from a File.
func NewSymbolIterator(s Section) (*SymbolIterator, error) {
	f := s.file
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if s.Type != elf.SHT_SYMTAB && s.Type != elf.SHT_DYNSYM {
		return nil, invalidf("section %d is %v, not a symbol table", s.Index, s.Type)
	}
	entSize := f.symSize()
	if s.Entsize != entSize {
		return nil, malformedf("symbol table %d entry size %d, expected %d",
			s.Index, s.Entsize, entSize)
	}

	it := &SymbolIterator{
		file:    f,
		symtab:  s,
		entSize: entSize,
		total:   s.Size / entSize,
		cursor:  1,
	}
	if s.Type == elf.SHT_DYNSYM {
		it.version = f.newVersionContext()
	}
	return it, nil
}

// Total returns the number of entries in the table, including the null symbol.
func (it *SymbolIterator) Total() int {
	return int(it.total)
}

// Next returns the next symbol of the table. It returns io.EOF once all
// symbols have been returned, and keeps doing so on later calls. A symbol
// record outside of the file fails with ErrMalformed and is retried by the
// next call.
func (it *SymbolIterator) Next() (Symbol, error) {
	if it.cursor >= it.total {
		return Symbol{}, io.EOF
	}
	f := it.file
	if err := f.checkOpen(); err != nil {
		return Symbol{}, err
	}

	// cursor < total = Size/entSize, so the multiplication does not overflow.
	off, err := f.window().span(it.symtab.Offset, it.cursor*it.entSize)
	if err == nil {
		off, err = f.window().span(off+it.cursor*it.entSize, it.entSize)
	}
	if err != nil {
		return Symbol{}, fmt.Errorf("symbol %d: %w", it.cursor, err)
	}

	sym := Symbol{
		Raw:      f.readSym(off),
		Position: int(it.cursor),
	}
	sym.Name = it.name(&sym)

	if it.version != nil {
		sym.Version, sym.VersionHidden, err = it.version.resolve(&sym.Raw, it.cursor)
		if err != nil {
			log.Debugf("Symbol %d (%s): no version: %v", it.cursor, sym.Name, err)
			sym.Version, sym.VersionHidden = "", false
		}
	}

	if sec, err := f.Section(int(sym.Raw.Shndx)); err == nil {
		sym.SectionAddr = sec.Addr
	}

	it.cursor++
	return sym, nil
}

// name resolves the display name of sym, falling back to CorruptName.
func (it *SymbolIterator) name(sym *Symbol) string {
	f := it.file
	if sym.Type() == elf.STT_SECTION && sym.SectionIndex() < elf.SHN_LORESERVE {
		name, err := f.SectionName(int(sym.Raw.Shndx))
		if err != nil {
			return CorruptName
		}
		return name
	}
	name, err := f.String(int(it.symtab.Link), uint64(sym.Raw.Name))
	if err != nil {
		return CorruptName
	}
	return name
}

// All iterates over the remaining symbols. Iteration stops after the first
// error.
func (it *SymbolIterator) All() iter.Seq2[Symbol, error] {
	return func(yield func(Symbol, error) bool) {
		for {
			sym, err := it.Next()
			if err == io.EOF {
				return
			}
			if !yield(sym, err) || err != nil {
				return
			}
		}
	}
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package testsupport // import "github.com/elfu-tools/elfu/testsupport"

import (
	"debug/elf"
)

// Symbol is one symbol table entry. The null symbol at index 0 is added by
// Symbols.
type Symbol struct {
	Name  uint32
	Bind  elf.SymBind
	Type  elf.SymType
	Other uint8
	Shndx elf.SectionIndex
	Value uint64
	Size  uint64
}

// Symbols encodes a symbol table for the builder class and byte order.
func (b *Builder) Symbols(syms []Symbol) []byte {
	order := b.Order()
	out := make([]byte, b.SymSize())
	for _, s := range syms {
		info := elf.ST_INFO(s.Bind, s.Type)
		out = order.AppendUint32(out, s.Name)
		if b.is64() {
			out = append(out, info, s.Other)
			out = order.AppendUint16(out, uint16(s.Shndx))
			out = order.AppendUint64(out, s.Value)
			out = order.AppendUint64(out, s.Size)
			continue
		}
		out = order.AppendUint32(out, uint32(s.Value))
		out = order.AppendUint32(out, uint32(s.Size))
		out = append(out, info, s.Other)
		out = order.AppendUint16(out, uint16(s.Shndx))
	}
	return out
}

// Versym encodes a SHT_GNU_versym section. The first entry belongs to the
// null symbol.
func (b *Builder) Versym(entries []uint16) []byte {
	order := b.Order()
	out := make([]byte, 0, 2*len(entries))
	for _, e := range entries {
		out = order.AppendUint16(out, e)
	}
	return out
}

// Verdef is one version definition with its names. Names[0] is the version
// name, the others are its parents.
type Verdef struct {
	Flags uint16
	Ndx   uint16
	Hash  uint32
	Names []uint32
}

// Verdefs encodes a SHT_GNU_verdef section with contiguous records.
func (b *Builder) Verdefs(defs []Verdef) []byte {
	const defSize, auxSize = 20, 8
	order := b.Order()
	var out []byte
	for i, d := range defs {
		next := uint32(defSize + auxSize*len(d.Names))
		if i == len(defs)-1 {
			next = 0
		}
		out = order.AppendUint16(out, 1)
		out = order.AppendUint16(out, d.Flags)
		out = order.AppendUint16(out, d.Ndx)
		out = order.AppendUint16(out, uint16(len(d.Names)))
		out = order.AppendUint32(out, d.Hash)
		out = order.AppendUint32(out, defSize)
		out = order.AppendUint32(out, next)
		for j, name := range d.Names {
			auxNext := uint32(auxSize)
			if j == len(d.Names)-1 {
				auxNext = 0
			}
			out = order.AppendUint32(out, name)
			out = order.AppendUint32(out, auxNext)
		}
	}
	return out
}

// Vernaux is one required version of a file.
type Vernaux struct {
	Hash  uint32
	Flags uint16
	Other uint16
	Name  uint32
}

// Verneed lists the versions required from one file.
type Verneed struct {
	File uint32
	Aux  []Vernaux
}

// Verneeds encodes a SHT_GNU_verneed section with contiguous records.
func (b *Builder) Verneeds(needs []Verneed) []byte {
	const needSize, auxSize = 16, 16
	order := b.Order()
	var out []byte
	for i, n := range needs {
		next := uint32(needSize + auxSize*len(n.Aux))
		if i == len(needs)-1 {
			next = 0
		}
		out = order.AppendUint16(out, 1)
		out = order.AppendUint16(out, uint16(len(n.Aux)))
		out = order.AppendUint32(out, n.File)
		out = order.AppendUint32(out, needSize)
		out = order.AppendUint32(out, next)
		for j, a := range n.Aux {
			auxNext := uint32(auxSize)
			if j == len(n.Aux)-1 {
				auxNext = 0
			}
			out = order.AppendUint32(out, a.Hash)
			out = order.AppendUint16(out, a.Flags)
			out = order.AppendUint16(out, a.Other)
			out = order.AppendUint32(out, a.Name)
			out = order.AppendUint32(out, auxNext)
		}
	}
	return out
}

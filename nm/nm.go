// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package nm lists the symbols of ELF objects the way nm(1) does.
package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"cmp"
	"debug/elf"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/elfu-tools/elfu/elfu"
)

// ErrNoSymbols is returned when an object has no symbol table to list, or
// when no symbol is left after filtering.
var ErrNoSymbols = errors.New("no symbols")

// Options select and order the listed symbols.
type Options struct {
	// Dynamic lists the dynamic symbol table instead of the static one.
	Dynamic bool
	// NoSort keeps the symbol table order.
	NoSort bool
	// Reverse sorts names in descending order.
	Reverse bool
	// UndefinedOnly keeps undefined symbols only.
	UndefinedOnly bool
	// ExternalOnly keeps global and weak symbols only.
	ExternalOnly bool
	// All keeps debugging symbols (STT_FILE and STT_SECTION).
	All bool
	// Demangle decodes C++ and Rust symbol names.
	Demangle bool
	// MiniDebugInfo lists the symbols of the object embedded in the
	// .gnu_debugdata section instead of the object itself.
	MiniDebugInfo bool
}

// Entry is one listed symbol.
type Entry struct {
	Name          string
	Version       string
	VersionHidden bool
	Type          byte
	Value         uint64
	Undefined     bool
	// Position is the index of the symbol in its table.
	Position int
}

// Listing is the ordered result of List.
type Listing struct {
	Entries []Entry
	// Class determines the width of rendered values.
	Class elf.Class
	// Dynamic is set when Entries come from the dynamic symbol table, whose
	// names are rendered with their versions.
	Dynamic bool
}

// List collects, filters and sorts the symbols of f.
func List(f *elfu.File, opts Options) (Listing, error) {
	find := f.SymTab
	if opts.Dynamic {
		find = f.DynSymTab
	}
	symtab, found, err := find()
	if err != nil {
		return Listing{}, err
	}
	if !found {
		return Listing{}, ErrNoSymbols
	}
	it, err := f.Symbols(symtab)
	if err != nil {
		return Listing{}, err
	}

	listing := Listing{
		Class:   f.Class(),
		Dynamic: opts.Dynamic,
	}
	for sym, err := range it.All() {
		if err != nil {
			return Listing{}, fmt.Errorf("failed to read symbol: %w", err)
		}
		if !keep(sym, opts) {
			continue
		}
		// Symbol strings point into f, entries outlive it.
		listing.Entries = append(listing.Entries, Entry{
			Name:          strings.Clone(sym.Name),
			Version:       strings.Clone(sym.Version),
			VersionHidden: sym.VersionHidden,
			Type:          SymbolType(f, sym),
			Value:         sym.Raw.Value,
			Undefined:     sym.SectionIndex() == elf.SHN_UNDEF,
			Position:      sym.Position,
		})
	}
	if len(listing.Entries) == 0 {
		return Listing{}, ErrNoSymbols
	}

	if !opts.NoSort {
		sortEntries(listing.Entries, opts.Reverse)
	}
	if opts.Demangle {
		for i := range listing.Entries {
			listing.Entries[i].Name = Demangle(listing.Entries[i].Name)
		}
	}
	return listing, nil
}

// keep applies the filter options to sym. Without any filter, symbols only
// useful to debuggers are dropped.
func keep(sym elfu.Symbol, opts Options) bool {
	switch {
	case opts.UndefinedOnly:
		return sym.SectionIndex() == elf.SHN_UNDEF
	case opts.ExternalOnly:
		bind := sym.Bind()
		return bind == elf.STB_GLOBAL || bind == elf.STB_WEAK
	case opts.All:
		return true
	}
	typ := sym.Type()
	return typ != elf.STT_FILE && typ != elf.STT_SECTION
}

// sortEntries orders entries by name, ties keep their table order.
func sortEntries(entries []Entry, reverse bool) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		c := cmp.Compare(a.Name, b.Name)
		if reverse {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
}

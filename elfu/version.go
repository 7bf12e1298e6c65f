// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"debug/elf"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	// versymHidden marks a version that is not the default one of the symbol.
	versymHidden = 0x8000
	// versymVersion masks the version index of a versym entry.
	versymVersion = 0x7fff

	verNdxLocal  = 0
	verNdxGlobal = 1
)

// versionContext holds the GNU versioning sections of a dynamic symbol table.
//
// Resolution works like this:
//  1. the versym section holds one 16-bit entry per dynamic symbol: the
//     version index, and the hidden flag in the top bit
//  2. defined symbols find their version name in the verdef chain: sh_info
//     Elf_Verdef records linked by vd_next, each pointing to its Elf_Verdaux
//     name records through vd_aux
//  3. undefined symbols find it in the verneed chain: sh_info Elf_Verneed
//     records linked by vn_next, each followed by vn_cnt Elf_Vernaux records
//     linked by vna_next, the vna_other field carrying the version index
type versionContext struct {
	file *File

	versym  Section
	verneed Section
	verdef  Section

	hasNeed bool
	hasDef  bool
}

// newVersionContext probes the versioning sections. It returns nil when the
// object has no usable versym section.
func (f *File) newVersionContext() *versionContext {
	versym, found, err := f.FirstSectionByType(elf.SHT_GNU_VERSYM)
	if err != nil {
		log.Debugf("Disabling symbol versions: %v", err)
		return nil
	}
	if !found {
		return nil
	}

	v := &versionContext{file: f, versym: versym}
	if v.verneed, v.hasNeed, err = f.FirstSectionByType(elf.SHT_GNU_VERNEED); err != nil {
		log.Debugf("Ignoring version requirements: %v", err)
		v.hasNeed = false
	}
	if v.verdef, v.hasDef, err = f.FirstSectionByType(elf.SHT_GNU_VERDEF); err != nil {
		log.Debugf("Ignoring version definitions: %v", err)
		v.hasDef = false
	}
	return v
}

// dataWindow returns the declared range of a section that must have file data.
func dataWindow(s *Section) (window, error) {
	if s.data == nil {
		return window{}, malformedf("section %d occupies no file bytes", s.Index)
	}
	return s.window(), nil
}

// checkCount rejects chains that declare more records than their section can hold.
func checkCount(w window, count, recordSize uint64) error {
	if count > w.size()/recordSize {
		return malformedf("%d records of %d bytes do not fit in %d bytes",
			count, recordSize, w.size())
	}
	return nil
}

// resolve returns the version name of the symbol at index in the table, and
// whether that version is hidden. An empty name means the symbol has no
// version to display.
func (v *versionContext) resolve(sym *elf.Sym64, index uint64) (string, bool, error) {
	w, err := dataWindow(&v.versym)
	if err != nil {
		return "", false, err
	}
	off, err := w.span(index*versymSize, versymSize)
	if err != nil {
		return "", false, fmt.Errorf("versym entry %d: %w", index, err)
	}

	raw := v.file.readVersym(off)
	id := raw & versymVersion
	if id == verNdxLocal || id == verNdxGlobal {
		return "", false, nil
	}
	hidden := raw&versymHidden != 0

	if elf.SectionIndex(sym.Shndx) != elf.SHN_UNDEF && v.hasDef {
		name, found, err := v.fromVerdef(sym, id)
		if err != nil {
			return "", false, err
		}
		if found {
			return name, hidden, nil
		}
	}

	// Version requirements only exist for undefined symbols, such a version
	// is never the default one.
	if !v.hasNeed {
		return "", true, nil
	}
	name, err := v.fromVerneed(id)
	return name, true, err
}

// fromVerdef looks up the version definition with index id. A definition
// named like the symbol itself is redundant and yields an empty name.
func (v *versionContext) fromVerdef(sym *elf.Sym64, id uint16) (string, bool, error) {
	w, err := dataWindow(&v.verdef)
	if err != nil {
		return "", false, err
	}
	if w.size() == 0 {
		return "", false, nil
	}
	count := uint64(v.verdef.Info)
	if err = checkCount(w, count, verdefSize); err != nil {
		return "", false, fmt.Errorf("verdef: %w", err)
	}

	var next uint64
	for range count {
		off, err := w.span(next, verdefSize)
		if err != nil {
			return "", false, fmt.Errorf("verdef record: %w", err)
		}
		vd := v.file.readVerdef(off)
		if vd.Ndx == id {
			auxOff, err := w.span(next+uint64(vd.Aux), verdauxSize)
			if err != nil {
				return "", false, fmt.Errorf("verdaux record: %w", err)
			}
			aux := v.file.readVerdaux(auxOff)
			if aux.Name == sym.Name {
				return "", true, nil
			}
			name, err := v.file.String(int(v.verdef.Link), uint64(aux.Name))
			return name, true, err
		}
		next += uint64(vd.Next)
	}
	return "", false, nil
}

// fromVerneed looks up the version requirement whose vna_other is id.
func (v *versionContext) fromVerneed(id uint16) (string, error) {
	w, err := dataWindow(&v.verneed)
	if err != nil {
		return "", err
	}
	if w.size() == 0 {
		return "", nil
	}
	count := uint64(v.verneed.Info)
	if err = checkCount(w, count, verneedSize); err != nil {
		return "", fmt.Errorf("verneed: %w", err)
	}

	var next uint64
	for range count {
		off, err := w.span(next, verneedSize)
		if err != nil {
			return "", fmt.Errorf("verneed record: %w", err)
		}
		vn := v.file.readVerneed(off)
		if err = checkCount(w, uint64(vn.Cnt), vernauxSize); err != nil {
			return "", fmt.Errorf("vernaux: %w", err)
		}

		auxNext := next + uint64(vn.Aux)
		for range vn.Cnt {
			auxOff, err := w.span(auxNext, vernauxSize)
			if err != nil {
				return "", fmt.Errorf("vernaux record: %w", err)
			}
			vna := v.file.readVernaux(auxOff)
			if vna.Other == id {
				return v.file.String(int(v.verneed.Link), uint64(vna.Name))
			}
			auxNext += uint64(vna.Next)
		}
		next += uint64(vn.Next)
	}
	return "", nil
}

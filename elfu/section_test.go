// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elfu-tools/elfu/testsupport"
)

func TestSection(t *testing.T) {
	forEachLayout(t, func(t *testing.T, class elf.Class, data elf.Data) {
		b := testsupport.NewSampleObject(class, data)
		f := newTestFile(t, b)

		null, err := f.Section(0)
		require.NoError(t, err)
		assert.Equal(t, elf.SHT_NULL, null.Type)
		assert.Empty(t, null.Data())

		text, err := f.Section(testsupport.SampleText)
		require.NoError(t, err)
		assert.Equal(t, testsupport.SampleText, text.Index)
		assert.Equal(t, elf.SHT_PROGBITS, text.Type)
		assert.Equal(t, elf.SHF_ALLOC|elf.SHF_EXECINSTR, text.Flags)
		assert.Equal(t, uint64(testsupport.SampleTextAddr), text.Addr)
		assert.Equal(t, uint64(16), text.Addralign)
		assert.Len(t, text.Data(), 0x40)

		bss, err := f.Section(testsupport.SampleBss)
		require.NoError(t, err)
		assert.Equal(t, elf.SHT_NOBITS, bss.Type)
		assert.Equal(t, uint64(0x10), bss.Size)
		assert.Nil(t, bss.Data())

		symtab, err := f.Section(testsupport.SampleSymtab)
		require.NoError(t, err)
		assert.Equal(t, uint32(testsupport.SampleStrtab), symtab.Link)
		assert.Equal(t, b.SymSize(), symtab.Entsize)

		_, err = f.Section(b.NumSections())
		require.ErrorIs(t, err, ErrInvalidArgument)
		_, err = f.Section(-1)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestSectionDataOutOfBounds(t *testing.T) {
	tests := map[string]struct {
		offset uint64
		size   uint64
	}{
		"wraps around": {offset: ^uint64(0) - 0xf, size: 0x20},
		"past the end": {offset: 0x40, size: 0x1_0000},
		"far offset":   {offset: 0x1_0000_0000, size: 1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b := testsupport.NewBuilder(elf.ELFCLASS64, elf.ELFDATA2LSB)
			idx := b.AddSection(testsupport.Section{Name: ".broken",
				Type: elf.SHT_PROGBITS, Offset: tc.offset, Size: tc.size})
			f := newTestFile(t, b)

			sec, err := f.Section(idx)
			require.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, sec.Data())

			_, err = f.String(idx, 0)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestSectionHeaderTableTruncated(t *testing.T) {
	forEachLayout(t, func(t *testing.T, class elf.Class, data elf.Data) {
		b := testsupport.NewSampleObject(class, data)
		image := b.Bytes()
		f, err := NewBytes(image[:len(image)-1])
		require.NoError(t, err)

		_, err = f.Section(testsupport.SampleText)
		require.NoError(t, err)
		_, err = f.Section(b.ShstrtabIndex())
		require.ErrorIs(t, err, ErrMalformed)

		// The scan runs into the truncated entry before finding anything.
		_, found, err := f.FirstSectionByType(elf.SHT_HASH)
		require.ErrorIs(t, err, ErrMalformed)
		assert.False(t, found)
	})
}

func TestFirstSectionByType(t *testing.T) {
	forEachLayout(t, func(t *testing.T, class elf.Class, data elf.Data) {
		f := openSample(t, class, data)

		symtab, found, err := f.SymTab()
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testsupport.SampleSymtab, symtab.Index)

		dynsym, found, err := f.DynSymTab()
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testsupport.SampleDynsym, dynsym.Index)

		strtab, found, err := f.FirstSectionByType(elf.SHT_STRTAB)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testsupport.SampleStrtab, strtab.Index)

		_, found, err = f.FirstSectionByType(elf.SHT_HASH)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestSectionNames(t *testing.T) {
	forEachLayout(t, func(t *testing.T, class elf.Class, data elf.Data) {
		b := testsupport.NewSampleObject(class, data)
		f := newTestFile(t, b)

		names := map[int]string{
			0:                        "",
			testsupport.SampleText:   ".text",
			testsupport.SampleBss:    ".bss",
			testsupport.SampleDynsym: ".dynsym",
			testsupport.SampleVerdef: ".gnu.version_d",
			b.ShstrtabIndex():        ".shstrtab",
		}
		for idx, want := range names {
			name, err := f.SectionName(idx)
			require.NoError(t, err)
			assert.Equal(t, want, name)
		}

		sec, found, err := f.SectionByName(".rodata")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, testsupport.SampleRodata, sec.Index)

		_, found, err = f.SectionByName(".gnu_debugdata")
		require.NoError(t, err)
		assert.False(t, found)

		count := 0
		for sec, err := range f.Sections() {
			require.NoError(t, err)
			assert.Equal(t, count, sec.Index)
			count++
		}
		assert.Equal(t, b.NumSections(), count)
	})
}

func TestNoSectionHeaders(t *testing.T) {
	image := testsupport.NewBuilder(elf.ELFCLASS32, elf.ELFDATA2MSB).Bytes()
	// Clear e_shnum.
	image[elf.EI_NIDENT+32] = 0
	image[elf.EI_NIDENT+33] = 0

	f, err := NewBytes(image)
	require.NoError(t, err)
	_, err = f.Section(0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, found, err := f.SymTab()
	require.NoError(t, err)
	assert.False(t, found)
}

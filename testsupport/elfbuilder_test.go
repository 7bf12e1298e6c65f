// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package testsupport

import (
	"bytes"
	"debug/elf"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilderAgainstDebugELF cross-checks the synthetic images with the
// standard library parser.
func TestBuilderAgainstDebugELF(t *testing.T) {
	for _, class := range []elf.Class{elf.ELFCLASS32, elf.ELFCLASS64} {
		for _, data := range []elf.Data{elf.ELFDATA2LSB, elf.ELFDATA2MSB} {
			t.Run(fmt.Sprintf("%v/%v", class, data), func(t *testing.T) {
				b := NewBuilder(class, data)
				var strs StringTable
				mainName := strs.Add("main")
				text := b.AddSection(Section{
					Name:  ".text",
					Type:  elf.SHT_PROGBITS,
					Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR,
					Addr:  0x1000,
					Data:  []byte{0xc3},
				})
				strtab := b.AddSection(Section{Name: ".strtab", Type: elf.SHT_STRTAB,
					Data: strs.Bytes()})
				b.AddSection(Section{
					Name:    ".symtab",
					Type:    elf.SHT_SYMTAB,
					Link:    uint32(strtab),
					Info:    1,
					Entsize: b.SymSize(),
					Data: b.Symbols([]Symbol{{
						Name:  mainName,
						Bind:  elf.STB_GLOBAL,
						Type:  elf.STT_FUNC,
						Shndx: elf.SectionIndex(text),
						Value: 0x1000,
						Size:  1,
					}}),
				})

				f, err := elf.NewFile(bytes.NewReader(b.Bytes()))
				require.NoError(t, err)
				assert.Equal(t, class, f.Class)
				assert.Equal(t, data, f.Data)
				require.Len(t, f.Sections, b.NumSections())
				assert.Equal(t, ".text", f.Sections[text].Name)
				assert.Equal(t, ".shstrtab", f.Sections[b.ShstrtabIndex()].Name)

				syms, err := f.Symbols()
				require.NoError(t, err)
				require.Len(t, syms, 1)
				assert.Equal(t, "main", syms[0].Name)
				assert.Equal(t, uint64(0x1000), syms[0].Value)
				assert.Equal(t, elf.SectionIndex(text), syms[0].Section)
			})
		}
	}
}

func TestStringTable(t *testing.T) {
	var st StringTable
	assert.Equal(t, []byte{0}, st.Bytes())
	assert.Equal(t, uint32(1), st.Add("foo"))
	assert.Equal(t, uint32(0), st.Add(""))
	assert.Equal(t, uint32(5), st.Add("bar"))
	assert.Equal(t, []byte("\x00foo\x00bar\x00"), st.Bytes())
}

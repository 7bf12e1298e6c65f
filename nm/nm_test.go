// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm

import (
	"bytes"
	"debug/elf"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elfu-tools/elfu/elfu"
	"github.com/elfu-tools/elfu/testsupport"
)

func openSample(t *testing.T, class elf.Class, data elf.Data) *elfu.File {
	t.Helper()
	f, err := elfu.NewBytes(testsupport.NewSampleObject(class, data).Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func names(l Listing) []string {
	out := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, e.Name)
	}
	return out
}

func TestSymbolTypes(t *testing.T) {
	f := openSample(t, elf.ELFCLASS64, elf.ELFDATA2LSB)
	l, err := List(f, Options{All: true, NoSort: true})
	require.NoError(t, err)

	types := map[string]string{}
	for _, e := range l.Entries {
		types[e.Name] = string(e.Type)
	}
	assert.Equal(t, map[string]string{
		".text":          "t",
		"sample.c":       "a",
		"local_obj":      "d",
		"main":           "T",
		"undef":          "U",
		"weak_fn":        "W",
		"bss_var":        "B",
		"common":         "C",
		"ro":             "R",
		"weak_undef_obj": "v",
		"ifunc":          "i",
		"abs_sym":        "A",
	}, types)
}

func TestSymbolTypeUnique(t *testing.T) {
	b := testsupport.NewBuilder(elf.ELFCLASS64, elf.ELFDATA2MSB)
	var strs testsupport.StringTable
	data := b.AddSection(testsupport.Section{Name: ".data", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Addr: 0x2000, Data: make([]byte, 16)})
	syms := []testsupport.Symbol{
		{Name: strs.Add("unique_obj"), Bind: stbGNUUnique, Type: elf.STT_OBJECT,
			Shndx: elf.SectionIndex(data), Value: 0x2000, Size: 8},
		{Name: strs.Add("unique_ifunc"), Bind: stbGNUUnique, Type: elf.STT_GNU_IFUNC,
			Shndx: elf.SectionIndex(data), Value: 0x2008},
	}
	strtab := b.AddSection(testsupport.Section{Name: ".strtab", Type: elf.SHT_STRTAB,
		Data: strs.Bytes()})
	b.AddSection(testsupport.Section{Name: ".symtab", Type: elf.SHT_SYMTAB,
		Link: uint32(strtab), Info: 1, Entsize: b.SymSize(), Data: b.Symbols(syms)})
	f, err := elfu.NewBytes(b.Bytes())
	require.NoError(t, err)
	defer f.Close()

	l, err := List(f, Options{NoSort: true})
	require.NoError(t, err)
	require.Len(t, l.Entries, 2)
	assert.Equal(t, byte(TypeUnique), l.Entries[0].Type)
	// Indirect functions take precedence over the binding.
	assert.Equal(t, byte(TypeIndirect), l.Entries[1].Type)
}

func TestListDefault(t *testing.T) {
	f := openSample(t, elf.ELFCLASS64, elf.ELFDATA2MSB)
	l, err := List(f, Options{})
	require.NoError(t, err)
	assert.Equal(t, elf.ELFCLASS64, l.Class)
	assert.False(t, l.Dynamic)

	want := []Entry{
		{Name: "abs_sym", Type: 'A', Value: 0x42, Position: 12},
		{Name: "bss_var", Type: 'B', Value: 0x3000, Position: 7},
		{Name: "common", Type: 'C', Value: 8, Position: 8},
		{Name: "ifunc", Type: 'i', Value: 0x1030, Position: 11},
		{Name: "local_obj", Type: 'd', Value: 0x2000, Position: 3},
		{Name: "main", Type: 'T', Value: 0x1000, Position: 4},
		{Name: "ro", Type: 'R', Value: 0x4000, Position: 9},
		{Name: "undef", Type: 'U', Undefined: true, Position: 5},
		{Name: "weak_fn", Type: 'W', Value: 0x1008, Position: 6},
		{Name: "weak_undef_obj", Type: 'v', Undefined: true, Position: 10},
	}
	if diff := cmp.Diff(want, l.Entries); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilters(t *testing.T) {
	f := openSample(t, elf.ELFCLASS32, elf.ELFDATA2LSB)

	tests := map[string]struct {
		opts Options
		want []string
	}{
		"undefined only": {
			opts: Options{UndefinedOnly: true},
			want: []string{"undef", "weak_undef_obj"},
		},
		"external only": {
			opts: Options{ExternalOnly: true},
			want: []string{"abs_sym", "bss_var", "common", "ifunc", "main", "ro",
				"undef", "weak_fn", "weak_undef_obj"},
		},
		"all": {
			opts: Options{All: true},
			want: []string{".text", "abs_sym", "bss_var", "common", "ifunc",
				"local_obj", "main", "ro", "sample.c", "undef", "weak_fn",
				"weak_undef_obj"},
		},
		"no sort": {
			opts: Options{NoSort: true},
			want: []string{"local_obj", "main", "undef", "weak_fn", "bss_var",
				"common", "ro", "weak_undef_obj", "ifunc", "abs_sym"},
		},
		"reverse": {
			opts: Options{Reverse: true},
			want: []string{"weak_undef_obj", "weak_fn", "undef", "ro", "main",
				"local_obj", "ifunc", "common", "bss_var", "abs_sym"},
		},
		"undefined wins over external": {
			opts: Options{UndefinedOnly: true, ExternalOnly: true, Reverse: true},
			want: []string{"weak_undef_obj", "undef"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			l, err := List(f, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(l))
		})
	}
}

func TestSortStable(t *testing.T) {
	entries := []Entry{
		{Name: "b", Position: 1},
		{Name: "a", Position: 2},
		{Name: "b", Position: 3},
		{Name: "a", Position: 4},
	}
	sortEntries(entries, false)
	assert.Equal(t, []Entry{
		{Name: "a", Position: 2},
		{Name: "a", Position: 4},
		{Name: "b", Position: 1},
		{Name: "b", Position: 3},
	}, entries)

	sortEntries(entries, true)
	assert.Equal(t, []Entry{
		{Name: "b", Position: 1},
		{Name: "b", Position: 3},
		{Name: "a", Position: 2},
		{Name: "a", Position: 4},
	}, entries)
}

func TestRender(t *testing.T) {
	f := openSample(t, elf.ELFCLASS64, elf.ELFDATA2LSB)
	l, err := List(f, Options{})
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := l.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(out.Len()), n)

	blank := strings.Repeat(" ", 16)
	assert.Equal(t, "0000000000000042 A abs_sym\n"+
		"0000000000003000 B bss_var\n"+
		"0000000000000008 C common\n"+
		"0000000000001030 i ifunc\n"+
		"0000000000002000 d local_obj\n"+
		"0000000000001000 T main\n"+
		"0000000000004000 R ro\n"+
		blank+" U undef\n"+
		"0000000000001008 W weak_fn\n"+
		blank+" v weak_undef_obj\n", out.String())
}

func TestRenderDynamic(t *testing.T) {
	for _, data := range []elf.Data{elf.ELFDATA2LSB, elf.ELFDATA2MSB} {
		t.Run(data.String(), func(t *testing.T) {
			f := openSample(t, elf.ELFCLASS32, data)
			l, err := List(f, Options{Dynamic: true})
			require.NoError(t, err)
			assert.True(t, l.Dynamic)

			var out bytes.Buffer
			_, err = l.WriteTo(&out)
			require.NoError(t, err)
			assert.Equal(t, "00002020 D SELF\n"+
				"00001020 T bar@V2\n"+
				"00002010 D baz\n"+
				"00001010 T foo@@V1\n"+
				"         U puts@GLIBC_2.2.5\n", out.String())
		})
	}
}

func TestNoSymbols(t *testing.T) {
	b := testsupport.NewBuilder(elf.ELFCLASS64, elf.ELFDATA2LSB)
	b.AddSection(testsupport.Section{Name: ".text", Type: elf.SHT_PROGBITS,
		Data: []byte{0xc3}})
	f, err := elfu.NewBytes(b.Bytes())
	require.NoError(t, err)

	_, err = List(f, Options{})
	require.ErrorIs(t, err, ErrNoSymbols)
	_, err = List(f, Options{Dynamic: true})
	require.ErrorIs(t, err, ErrNoSymbols)

	// Everything filtered out.
	b = testsupport.NewBuilder(elf.ELFCLASS32, elf.ELFDATA2MSB)
	b.AddSection(testsupport.Section{Name: ".symtab", Type: elf.SHT_SYMTAB,
		Entsize: b.SymSize(), Data: b.Symbols([]testsupport.Symbol{
			{Type: elf.STT_FILE, Shndx: elf.SHN_ABS},
		})})
	f, err = elfu.NewBytes(b.Bytes())
	require.NoError(t, err)
	_, err = List(f, Options{})
	require.ErrorIs(t, err, ErrNoSymbols)
	l, err := List(f, Options{All: true})
	require.NoError(t, err)
	assert.Len(t, l.Entries, 1)
}

func TestDemangle(t *testing.T) {
	assert.Equal(t, "foo::bar()", Demangle("_ZN3foo3barEv"))
	// Served from the cache the second time.
	assert.Equal(t, "foo::bar()", Demangle("_ZN3foo3barEv"))
	assert.Equal(t, "main", Demangle("main"))
	assert.Equal(t, elfu.CorruptName, Demangle(elfu.CorruptName))
	assert.Empty(t, Demangle(""))
}

func TestListDemangled(t *testing.T) {
	b := testsupport.NewBuilder(elf.ELFCLASS64, elf.ELFDATA2LSB)
	var strs testsupport.StringTable
	text := b.AddSection(testsupport.Section{Name: ".text", Type: elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Data: make([]byte, 16)})
	syms := []testsupport.Symbol{
		{Name: strs.Add("_ZN3foo3barEv"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: elf.SectionIndex(text), Value: 0x10},
		{Name: strs.Add("_Z3bazi"), Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC,
			Shndx: elf.SectionIndex(text), Value: 0x20},
	}
	strtab := b.AddSection(testsupport.Section{Name: ".strtab", Type: elf.SHT_STRTAB,
		Data: strs.Bytes()})
	b.AddSection(testsupport.Section{Name: ".symtab", Type: elf.SHT_SYMTAB,
		Link: uint32(strtab), Entsize: b.SymSize(), Data: b.Symbols(syms)})
	f, err := elfu.NewBytes(b.Bytes())
	require.NoError(t, err)

	l, err := List(f, Options{Demangle: true})
	require.NoError(t, err)
	// Sorting happens on the mangled names.
	assert.Equal(t, []string{"baz(int)", "foo::bar()"}, names(l))

	l, err = List(f, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"_Z3bazi", "_ZN3foo3barEv"}, names(l))
}

func TestCorruptNamesAreListed(t *testing.T) {
	b := testsupport.NewBuilder(elf.ELFCLASS64, elf.ELFDATA2LSB)
	b.AddSection(testsupport.Section{Name: ".symtab", Type: elf.SHT_SYMTAB,
		Link: 99, Entsize: b.SymSize(), Data: b.Symbols([]testsupport.Symbol{
			{Name: 1, Bind: elf.STB_GLOBAL, Shndx: elf.SHN_ABS, Value: 7},
		})})
	f, err := elfu.NewBytes(b.Bytes())
	require.NoError(t, err)

	l, err := List(f, Options{})
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = l.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%016x A %s\n", 7, elfu.CorruptName), out.String())
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"bufio"
	"debug/elf"
	"io"
	"strconv"
)

// valueWidth returns the number of hex digits of a rendered value.
func valueWidth(class elf.Class) int {
	if class == elf.ELFCLASS64 {
		return 16
	}
	return 8
}

// AppendEntry appends the rendered line of e, including the trailing newline.
//
//	<value or blanks> <type> <name>[@version|@@version]
func (l *Listing) AppendEntry(buf []byte, e *Entry) []byte {
	width := valueWidth(l.Class)
	if e.Undefined {
		for range width {
			buf = append(buf, ' ')
		}
	} else {
		hex := strconv.FormatUint(e.Value, 16)
		for range width - len(hex) {
			buf = append(buf, '0')
		}
		buf = append(buf, hex...)
	}
	buf = append(buf, ' ', e.Type, ' ')
	buf = append(buf, e.Name...)
	if l.Dynamic && e.Version != "" {
		buf = append(buf, '@')
		if !e.VersionHidden {
			buf = append(buf, '@')
		}
		buf = append(buf, e.Version...)
	}
	return append(buf, '\n')
}

// WriteTo renders all entries to w.
func (l *Listing) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	var line []byte
	for i := range l.Entries {
		line = l.AppendEntry(line[:0], &l.Entries[i])
		written, err := bw.Write(line)
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

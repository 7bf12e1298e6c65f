// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"bytes"
	"fmt"
	"unsafe"
)

// String returns the null-terminated string at offset in the string table
// section at index. The section type is not checked.
//
// The table must be verifiably terminated: either its last byte or the byte
// right after it is zero. The returned string shares memory with the mapping,
// no copy is made.
func (f *File) String(index int, offset uint64) (string, error) {
	s, err := f.Section(index)
	if err != nil {
		return "", fmt.Errorf("string table %d: %w", index, err)
	}
	if s.data == nil {
		return "", malformedf("string table %d occupies no file bytes", index)
	}

	if _, err = f.window().span(s.Offset, offset); err != nil {
		return "", fmt.Errorf("string table %d offset %#x: %w", index, offset, err)
	}
	start, err := f.window().span(s.Offset+offset, 1)
	if err != nil {
		return "", fmt.Errorf("string table %d offset %#x: %w", index, offset, err)
	}

	if s.Size == 0 {
		return "", malformedf("string table %d is empty", index)
	}
	if !f.terminated(&s) {
		return "", malformedf("string table %d is not null terminated", index)
	}

	str := f.data[start:]
	n := bytes.IndexByte(str, 0)
	if n < 0 {
		return "", malformedf("string at %#x runs past the end of file", start)
	}
	return unsafe.String(unsafe.SliceData(str), n), nil
}

// terminated reports whether the last byte of s, or the byte following it
// when it is still inside the file, is zero.
func (f *File) terminated(s *Section) bool {
	if s.data[len(s.data)-1] == 0 {
		return true
	}
	next := s.Offset + s.Size
	return next < uint64(len(f.data)) && f.data[next] == 0
}

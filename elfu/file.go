// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package elfu implements a read-only ELF object reader for symbol dumping
// tools. The file is memory-mapped once and every structure is decoded on
// demand, directly from the mapping:
//   - supports ELFCLASS32 and ELFCLASS64 objects of either byte order, all
//     records are normalized to their 64-bit shape from debug/elf
//   - every offset, size and count read from the file is checked for overflow
//     and against the file bounds before it is used
//   - resolves GNU symbol versions (SHT_GNU_versym, SHT_GNU_verneed and
//     SHT_GNU_verdef) for dynamic symbol tables
//
// Sections, strings and symbols returned by this package are views into the
// mapping and must not be used after the File is closed.
//
// The Executable and Linking Format (ELF) specification is available at:
//   https://refspecs.linuxfoundation.org/elf/elf.pdf
//
// The GNU versioning extensions are described in the LSB:
//   https://refspecs.linuxfoundation.org/LSB_5.0.0/LSB-Core-generic/LSB-Core-generic/symversion.html
package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/elfu-tools/elfu/elfu/internal/mmap"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// File represents an open ELF object.
type File struct {
	// closer releases the mapping backing data, nil for borrowed buffers.
	closer io.Closer

	// data holds the raw object bytes.
	data []byte

	// class and endian are read from the identification block and never
	// change afterwards.
	class  elf.Class
	endian elf.Data

	// hdr is the normalized file header, valid if hasHeader is set.
	hdr       elf.Header64
	hasHeader bool
}

// Open maps the file behind f and parses its ELF identification and header.
// The descriptor is not retained, the caller may close it once Open returns.
func Open(f *os.File) (*File, error) {
	if f == nil {
		return nil, invalidf("nil file")
	}
	m, err := mmap.Map(f)
	if err != nil {
		return nil, classifyMapError(f.Name(), err)
	}

	ef, err := newFile(m.Bytes(), m)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return ef, nil
}

// OpenPath opens the named file and calls Open on it.
func OpenPath(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSystem, err)
	}
	defer f.Close()
	return Open(f)
}

// NewBytes creates a File that borrows the given buffer. Close does not
// release it and the caller must not modify it while the File is in use.
func NewBytes(data []byte) (*File, error) {
	return newFile(data, nil)
}

func newFile(data []byte, closer io.Closer) (*File, error) {
	f := &File{
		data:   data,
		closer: closer,
	}
	if err := f.readIdent(); err != nil {
		return nil, err
	}
	if err := f.parseHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

// readIdent validates the identification block and records class and byte order.
func (f *File) readIdent() error {
	if len(f.data) < elf.EI_NIDENT {
		return fmt.Errorf("%w: file too short (%d bytes)", ErrUnknownFormat, len(f.data))
	}
	ident := f.data[:elf.EI_NIDENT]
	if !bytes.Equal(ident[:len(elfMagic)], elfMagic) {
		return fmt.Errorf("%w: bad magic %x", ErrUnknownFormat, ident[:len(elfMagic)])
	}

	class := elf.Class(ident[elf.EI_CLASS])
	if class != elf.ELFCLASS32 && class != elf.ELFCLASS64 {
		return fmt.Errorf("%w: unsupported class %v", ErrUnknownFormat, class)
	}
	data := elf.Data(ident[elf.EI_DATA])
	if data != elf.ELFDATA2LSB && data != elf.ELFDATA2MSB {
		return fmt.Errorf("%w: unsupported data encoding %v", ErrUnknownFormat, data)
	}
	if version := elf.Version(ident[elf.EI_VERSION]); version != elf.EV_CURRENT {
		return fmt.Errorf("%w: unsupported version %v", ErrUnknownFormat, version)
	}

	f.class = class
	f.endian = data
	return nil
}

func (f *File) parseHeader() error {
	if _, err := f.window().span(0, f.headerSize()); err != nil {
		return fmt.Errorf("file header: %w", err)
	}
	f.hdr = f.readHeader()
	f.hasHeader = true
	return nil
}

// window returns the whole file as a range.
func (f *File) window() window {
	return window{start: 0, end: uint64(len(f.data))}
}

// checkOpen validates the receiver before any access to the mapping.
func (f *File) checkOpen() error {
	if f == nil || f.data == nil {
		return invalidf("file is nil or closed")
	}
	return nil
}

// Header returns the normalized ELF file header.
func (f *File) Header() (elf.Header64, error) {
	if err := f.checkOpen(); err != nil {
		return elf.Header64{}, err
	}
	if !f.hasHeader {
		return elf.Header64{}, malformedf("file header not parsed")
	}
	return f.hdr, nil
}

// Class returns the object class (ELFCLASS32 or ELFCLASS64).
func (f *File) Class() elf.Class {
	return f.class
}

// Endian returns the object byte order (ELFDATA2LSB or ELFDATA2MSB).
func (f *File) Endian() elf.Data {
	return f.endian
}

// Size returns the object size in bytes.
func (f *File) Size() int {
	return len(f.data)
}

// Close releases the mapping. Calling Close on a nil or already closed File
// is a no-op.
func (f *File) Close() (err error) {
	if f == nil {
		return nil
	}
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	f.data = nil
	f.hasHeader = false
	return
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package mmap is inspired by golang.org/x/exp/mmap with
// additional functionality.
package mmap // import "github.com/elfu-tools/elfu/elfu/internal/mmap"

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	// ErrIsDirectory is returned when the descriptor refers to a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotRegular is returned when the descriptor is neither a regular file
	// nor a directory.
	ErrNotRegular = errors.New("not a regular file")

	// ErrTooLarge is returned when the file does not fit the address space.
	ErrTooLarge = errors.New("file too large to map")
)

// Mapping is a read-only, private memory mapping of a whole file.
//
// Like any read-only buffer, clients can read the bytes in parallel, but it is
// not safe to call Close and reading methods concurrently.
type Mapping struct {
	data []byte
	// mapped is false for empty files, which are never handed to mmap(2).
	mapped bool
}

// Close unmaps the file. Calling Close more than once is a no-op.
func (m *Mapping) Close() error {
	if m == nil || m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if !m.mapped {
		return nil
	}
	runtime.SetFinalizer(m, nil)
	return os.NewSyscallError("munmap", unix.Munmap(data))
}

// Len returns the length of the underlying memory-mapped file.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Bytes returns the mapped bytes. The slice must not be used after Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Map memory-maps the file behind f for reading. The descriptor is not
// retained: the mapping stays valid after f is closed.
//
// Failures of the underlying system calls are returned as *os.SyscallError.
func Map(f *os.File) (*Mapping, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, os.NewSyscallError("fstat", err)
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
	case unix.S_IFDIR:
		return nil, fmt.Errorf("mmap: %s: %w", f.Name(), ErrIsDirectory)
	default:
		return nil, fmt.Errorf("mmap: %s: %w", f.Name(), ErrNotRegular)
	}

	size := st.Size
	if size == 0 {
		// Treat (size == 0) as a special case, avoiding the syscall, since
		// "man 2 mmap" says "the length... must be greater than 0".
		return &Mapping{data: make([]byte, 0)}, nil
	}
	if size < 0 || size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: %s: %w", f.Name(), ErrTooLarge)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}
	m := &Mapping{data: data, mapped: true}
	// The hint is best effort, a failure does not invalidate the mapping.
	_ = advise(data)

	runtime.SetFinalizer(m, (*Mapping).Close)
	return m, nil
}

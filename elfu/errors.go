// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/elfu-tools/elfu/elfu/internal/mmap"
)

// Error kinds. Every error returned by this package wraps exactly one of them,
// test with errors.Is.
var (
	// ErrSystem is returned when a system call failed. The error also wraps
	// the syscall.Errno reported by the kernel.
	ErrSystem = errors.New("system error")

	// ErrMapFailed is returned when the file could not be memory-mapped.
	ErrMapFailed = errors.New("failed to map file")

	// ErrIsDirectory is returned when the input is a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotAFile is returned when the input is not a regular file.
	ErrNotAFile = errors.New("not a regular file")

	// ErrOutOfMemory is returned when the kernel refused the mapping for lack of memory.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidArgument is returned on caller contract violations: closed
	// handle, out-of-range index or a wrong section type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownFormat is returned when the identification block is not a
	// supported ELF one.
	ErrUnknownFormat = errors.New("file format not recognized")

	// ErrMalformed is returned on any offset, size or overflow inconsistency
	// found after identification succeeded.
	ErrMalformed = errors.New("malformed ELF file")
)

// malformedf returns an ErrMalformed error with the given context.
func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// invalidf returns an ErrInvalidArgument error with the given context.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// classifyMapError translates a failure of the mapping layer into one of the
// error kinds above.
func classifyMapError(name string, err error) error {
	switch {
	case errors.Is(err, mmap.ErrIsDirectory):
		return fmt.Errorf("%s: %w", name, ErrIsDirectory)
	case errors.Is(err, mmap.ErrNotRegular):
		return fmt.Errorf("%s: %w", name, ErrNotAFile)
	case errors.Is(err, mmap.ErrTooLarge):
		return fmt.Errorf("%s: %w: %w", name, ErrMapFailed, err)
	}

	var serr *os.SyscallError
	if errors.As(err, &serr) {
		switch {
		case serr.Syscall != "mmap":
			return fmt.Errorf("%s: %w: %w", name, ErrSystem, err)
		case errors.Is(err, syscall.ENOMEM):
			return fmt.Errorf("%s: %w: %w", name, ErrOutOfMemory, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", name, ErrMapFailed, err)
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/elfu-tools/elfu/elfu"
)

// Process lists the symbols of the object at path to w.
func Process(w io.Writer, path string, opts Options) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if opts.MiniDebugInfo {
		embedded, err := MiniDebugInfo(f)
		if err != nil {
			return err
		}
		defer embedded.Close()
		f = embedded
	}

	listing, err := List(f, opts)
	if err != nil {
		return err
	}
	_, err = listing.WriteTo(w)
	return err
}

// ErrorMessage formats err, returned by Process for path, as a diagnostic
// line without trailing newline. System errors quote the file name and
// show the errno text, like nm(1) does.
func ErrorMessage(path string, err error) string {
	var errno syscall.Errno
	switch {
	case errors.Is(err, elfu.ErrSystem) && errors.As(err, &errno):
		return fmt.Sprintf("nm: '%s': %v", path, errno)
	case errors.Is(err, elfu.ErrUnknownFormat):
		return fmt.Sprintf("nm: %s: %v", path, elfu.ErrUnknownFormat)
	case errors.Is(err, ErrNoSymbols):
		return fmt.Sprintf("nm: %s: %v", path, ErrNoSymbols)
	case errors.Is(err, elfu.ErrIsDirectory):
		return fmt.Sprintf("nm: Warning: '%s' %v", path, elfu.ErrIsDirectory)
	}
	return fmt.Sprintf("nm: %s: %v", path, err)
}

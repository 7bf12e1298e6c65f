// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/elfu-tools/elfu/elfu"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// zstdDecoder is shared by all loads, DecodeAll is safe for concurrent use.
var zstdDecoder = func() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return dec
}()

// Load opens the object at path. Plain files are memory-mapped, zstd
// compressed files are decompressed into memory first.
func Load(path string) (*elfu.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", elfu.ErrSystem, err)
	}
	defer file.Close()

	var magic [4]byte
	if _, err = file.ReadAt(magic[:], 0); err != nil && !errors.Is(err, io.EOF) {
		// Directories and other special files are reported by elfu.Open.
		log.Debugf("Failed to read magic of %s: %v", path, err)
	}
	if !bytes.Equal(magic[:], zstdMagic) {
		return elfu.Open(file)
	}

	compressed, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", elfu.ErrSystem, err)
	}
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: zstd: %w", path, elfu.ErrUnknownFormat, err)
	}
	log.Debugf("Decompressed %s: %d -> %d bytes", path, len(compressed), len(data))
	return elfu.NewBytes(data)
}

// Bounds on the decompressed size of .gnu_debugdata, relative to the
// compressed section and absolute for small sections.
const (
	maxDebugDataRatio = 64
	minDebugDataLimit = 1 << 20
)

// MiniDebugInfo returns the object embedded in the .gnu_debugdata section of
// f. The embedded object is xz compressed and usually only carries a symbol
// table for the functions missing from .dynsym.
func MiniDebugInfo(f *elfu.File) (*elfu.File, error) {
	sec, found, err := f.SectionByName(".gnu_debugdata")
	if err != nil {
		return nil, err
	}
	if !found || len(sec.Data()) == 0 {
		return nil, ErrNoSymbols
	}

	r, err := xz.NewReader(bytes.NewReader(sec.Data()))
	if err != nil {
		return nil, fmt.Errorf("%w: .gnu_debugdata: %w", elfu.ErrMalformed, err)
	}
	limit := max(int64(len(sec.Data()))*maxDebugDataRatio, minDebugDataLimit)
	var data bytes.Buffer
	if _, err = io.Copy(&data, io.LimitReader(r, limit+1)); err != nil {
		return nil, fmt.Errorf("%w: .gnu_debugdata: %w", elfu.ErrMalformed, err)
	}
	if int64(data.Len()) > limit {
		return nil, fmt.Errorf("%w: .gnu_debugdata: decompresses to more than %d bytes",
			elfu.ErrMalformed, limit)
	}
	return elfu.NewBytes(data.Bytes())
}

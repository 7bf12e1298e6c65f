// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

import (
	"debug/elf"
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// hostEndian is the byte order of the running machine, found by looking at
// how a known 16-bit constant is laid out in memory.
var hostEndian = func() elf.Data {
	probe := uint16(0x0102)
	if *(*byte)(unsafe.Pointer(&probe)) == 0x02 {
		return elf.ELFDATA2LSB
	}
	return elf.ELFDATA2MSB
}()

// word is any multi-byte field found in an ELF record.
type word interface {
	~uint16 | ~uint32 | ~uint64
}

// translate converts v, loaded in host byte order, from the file byte order
// to the host byte order.
func translate[T word](data elf.Data, v T) T {
	if data == hostEndian {
		return v
	}
	switch unsafe.Sizeof(v) {
	case 2:
		return T(bits.ReverseBytes16(uint16(v)))
	case 4:
		return T(bits.ReverseBytes32(uint32(v)))
	default:
		return T(bits.ReverseBytes64(uint64(v)))
	}
}

// decoder reads consecutive fields of one record. The caller validates the
// record range before decoding, so the accessors never go out of bounds.
type decoder struct {
	buf   []byte
	off   uint64
	data  elf.Data
	class elf.Class
}

func (d *decoder) u8() uint8 {
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) u16() uint16 {
	v := translate(d.data, binary.NativeEndian.Uint16(d.buf[d.off:]))
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	v := translate(d.data, binary.NativeEndian.Uint32(d.buf[d.off:]))
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	v := translate(d.data, binary.NativeEndian.Uint64(d.buf[d.off:]))
	d.off += 8
	return v
}

// addr reads an address, offset or size sized field: 32 bits wide in
// ELFCLASS32 files and 64 bits wide in ELFCLASS64 files.
func (d *decoder) addr() uint64 {
	if d.class == elf.ELFCLASS32 {
		return uint64(d.u32())
	}
	return d.u64()
}

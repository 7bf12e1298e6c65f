//go:build linux

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package mmap // import "github.com/elfu-tools/elfu/elfu/internal/mmap"

import "golang.org/x/sys/unix"

// advise tells the kernel that the symbol and string tables will be walked
// soon after mapping.
func advise(data []byte) error {
	return unix.Madvise(data, unix.MADV_WILLNEED)
}

//go:build !linux

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package mmap // import "github.com/elfu-tools/elfu/elfu/internal/mmap"

func advise([]byte) error {
	return nil
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nm // import "github.com/elfu-tools/elfu/nm"

import (
	"strings"

	"github.com/elastic/go-freelru"
	"github.com/ianlancetaylor/demangle"
	"github.com/zeebo/xxh3"

	"github.com/elfu-tools/elfu/elfu"
)

// demangleCacheSize bounds the number of remembered demangled names.
const demangleCacheSize = 16384

// demangleCache maps mangled names to their demangled form. Objects linked
// against the same libraries share many names, and listings of several files
// run in parallel.
var demangleCache = func() *freelru.SyncedLRU[string, string] {
	cache, err := freelru.NewSynced[string, string](demangleCacheSize, hashString)
	if err != nil {
		panic(err)
	}
	return cache
}()

// hashString is the hash function of the LRUs keyed by strings.
func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

// Demangle returns the demangled form of a C++ or Rust symbol name. Other
// names are returned unchanged. The cache keeps its own copies, so name may
// point into a mapping that is released afterwards.
func Demangle(name string) string {
	if name == "" || name == elfu.CorruptName {
		return name
	}
	if demangled, ok := demangleCache.Get(name); ok {
		return demangled
	}
	name = strings.Clone(name)
	demangled := strings.Clone(demangle.Filter(name, demangle.NoClones))
	demangleCache.Add(name, demangled)
	return demangled
}

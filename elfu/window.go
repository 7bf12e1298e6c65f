// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package elfu // import "github.com/elfu-tools/elfu/elfu"

// window is a validated byte range [start, end) of the mapped file.
type window struct {
	start, end uint64
}

// span validates the n bytes starting off bytes into w and returns the
// absolute file offset of the first one. The range must neither wrap around
// nor leave the window.
func (w window) span(off, n uint64) (uint64, error) {
	start := w.start + off
	if start < w.start {
		return 0, malformedf("offset %#x overflows window at %#x", off, w.start)
	}
	end := start + n
	if end < start || end > w.end {
		return 0, malformedf("range [%#x, %#x+%#x) outside of [%#x, %#x)",
			start, start, n, w.start, w.end)
	}
	return start, nil
}

func (w window) size() uint64 {
	return w.end - w.start
}

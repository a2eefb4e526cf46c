// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "unsafe"

// Two-level segregated-fit size classification. A free block's
// exact size maps to a bucket (fl, sl) via mapInsert; a requested size maps
// to the smallest bucket (fl, sl) all of whose blocks are guaranteed to be
// large enough via mapSearch. Locate (freelist.go) relies on that guarantee
// to make first-fit within a bucket equivalent to a fit, with no size
// re-check after extraction.
const (
	slLog2  = 5           // second-level subclasses per first-level class, log2.
	slCount = 1 << slLog2 // 32
	flMax   = 32          // bits in the first-level bitmap word.
)

var (
	// alignment is the minimum address alignment of any block payload,
	// and the granularity of the flattened small-size range below
	// smallBlockSize. It equals the native pointer size.
	alignment = int(unsafe.Sizeof(uintptr(0)))

	alignShift     = flsSize(alignment)
	smallBlockSize = 1 << (slLog2 + alignShift)
	numFL          = flMax - (slLog2 + alignShift) + 1
)

// mapInsert computes the bucket (fl, sl) that a free block of exactly size
// bytes belongs in. size must be a multiple of alignment and >= 0.
func mapInsert(size int) (fl, sl int) {
	if size < smallBlockSize {
		return 0, size / alignment
	}
	f := flsSize(size)
	sl = (size >> uint(f-slLog2)) - slCount
	fl = f - (slLog2 + alignShift) + 1
	return fl, sl
}

// mapSearch computes the bucket (fl, sl) such that every free block
// belonging to it is >= size. It rounds size up to the next size class
// before decomposing, guaranteeing a fit for any block found there. size
// must be a multiple of alignment and > 0.
func mapSearch(size int) (fl, sl int) {
	if size < smallBlockSize {
		return mapInsert(size)
	}
	f := flsSize(size)
	round := (1 << uint(f-slLog2)) - 1
	return mapInsert(size + round)
}

// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "modernc.org/mathutil"

// fls returns the index (0-based) of the most significant set bit of w, or
// -1 if w is zero. This is "find last set". ffs builds on it after
// isolating the lowest set bit; the free-list bitmap search (freelist.go)
// calls ffs, not fls, at both levels.
func fls(w uint32) int {
	if w == 0 {
		return -1
	}
	return mathutil.BitLen(int(w)) - 1
}

// ffs returns the index (0-based) of the least significant set bit of w, or
// -1 if w is zero. This is "find first set". freelist.go uses it to pick
// the lowest second-level bucket at or above a requested sl.
func ffs(w uint32) int {
	if w == 0 {
		return -1
	}
	return fls(w & -w)
}

// flsSize is like fls but operates on a size (as an int) rather than a raw
// bitmap word; it is the floor(log2(size)) primitive that sizemap.go builds
// its two-level decomposition on. size must be > 0.
func flsSize(size int) int {
	return mathutil.BitLen(size) - 1
}

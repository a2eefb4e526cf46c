// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "testing"

func TestMapInsertSmall(t *testing.T) {
	for n := 0; n < smallBlockSize; n += alignment {
		fl, sl := mapInsert(n)
		if fl != 0 {
			t.Fatalf("mapInsert(%d) fl = %d, want 0", n, fl)
		}
		wantSL := n / alignment
		if sl != wantSL {
			t.Fatalf("mapInsert(%d) sl = %d, want %d", n, sl, wantSL)
		}
	}
}

// TestMapSearchGuaranteesFit checks the defining property locate relies on:
// any free block whose own mapInsert bucket is >= the bucket mapSearch(size)
// returns is guaranteed to be at least size bytes.
func TestMapSearchGuaranteesFit(t *testing.T) {
	sizes := []int{1, alignment, smallBlockSize - alignment, smallBlockSize,
		smallBlockSize + alignment, 1 << 10, 1 << 16, 1 << 20, 1<<20 + 7*alignment}
	for _, size := range sizes {
		size := alignUp(size)
		if size == 0 {
			size = alignment
		}
		fl, sl := mapSearch(size)
		if fl < 0 || fl >= flMax {
			t.Fatalf("mapSearch(%d) out of range fl=%d", size, fl)
		}
		// The smallest block size mapInsert would place in bucket (fl, sl)
		// must be >= size, otherwise locate could hand back a too-small
		// block.
		probe := blockFloorForBucket(fl, sl)
		if probe < size {
			t.Fatalf("mapSearch(%d) = (%d,%d), whose floor %d < %d", size, fl, sl, probe, size)
		}
	}
}

// blockFloorForBucket returns the smallest size that mapInsert maps to
// exactly (fl, sl), found by linear probe upward from the previous bucket's
// floor. Used only to check mapSearch's fit guarantee in tests.
func blockFloorForBucket(fl, sl int) int {
	for size := 0; size < 1<<22; size += alignment {
		gotFL, gotSL := mapInsert(size)
		if gotFL == fl && gotSL == sl {
			return size
		}
	}
	return -1
}

func TestMapInsertMonotonic(t *testing.T) {
	prevFL, prevSL := -1, -1
	for size := 0; size < 1<<18; size += alignment {
		fl, sl := mapInsert(size)
		if fl < prevFL || (fl == prevFL && sl < prevSL) {
			t.Fatalf("mapInsert regressed at size %d: (%d,%d) after (%d,%d)", size, fl, sl, prevFL, prevSL)
		}
		prevFL, prevSL = fl, sl
	}
}

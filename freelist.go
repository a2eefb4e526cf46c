// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

// freelist is the two-level segregated free-list index: a
// first-level bitmap, one second-level bitmap word per first-level class,
// and the [fl][sl] table of bucket heads. Lists are nil-terminated: Go's
// nil pointers already make every list operation a plain nil check, so no
// dummy sentinel block is needed.
type freelist struct {
	flBitmap uint32
	slBitmap [flMax]uint32
	heads    [flMax][slCount]*block
}

// insert adds b to the bucket matching its own size, marks it free, and
// sets both bitmap bits. b must not already be on any list.
func (fr *freelist) insert(b *block) {
	b.setFree(true)
	fl, sl := mapInsert(b.sizeBytes())
	head := fr.heads[fl][sl]
	fb := asFree(b)
	fb.setLinkPrev(nil)
	fb.setLinkNext(head)
	if head != nil {
		asFree(head).setLinkPrev(b)
	}
	fr.heads[fl][sl] = b
	fr.flBitmap |= 1 << uint(fl)
	fr.slBitmap[fl] |= 1 << uint(sl)
}

// remove unlinks b from the bucket matching its own size. b must be free
// and currently on that bucket's list.
func (fr *freelist) remove(b *block) {
	fl, sl := mapInsert(b.sizeBytes())
	fr.unlink(b, fl, sl)
}

// unlink removes b from bucket (fl, sl) without recomputing the bucket
// from b's size, for callers that already know the bucket: remove, and
// locate after its bitmap search.
func (fr *freelist) unlink(b *block, fl, sl int) {
	fb := asFree(b)
	prev := fb.linkPrev()
	next := fb.linkNext()
	switch {
	case prev == nil && next == nil:
		fr.heads[fl][sl] = nil
		fr.slBitmap[fl] &^= 1 << uint(sl)
		if fr.slBitmap[fl] == 0 {
			fr.flBitmap &^= 1 << uint(fl)
		}
	case prev == nil:
		fr.heads[fl][sl] = next
		asFree(next).setLinkPrev(nil)
	case next == nil:
		asFree(prev).setLinkNext(nil)
	default:
		asFree(prev).setLinkNext(next)
		asFree(next).setLinkPrev(prev)
	}
	fb.setLinkNext(nil)
	fb.setLinkPrev(nil)
}

// locate finds a free block whose size is guaranteed >= size, removes it
// from the index, and returns it. Returns nil if no pool has room.
func (fr *freelist) locate(size int) *block {
	fl, sl := mapSearch(size)
	if fl < 0 || fl >= flMax {
		return nil
	}
	if tmp := fr.slBitmap[fl] & (^uint32(0) << uint(sl)); tmp != 0 {
		sl = ffs(tmp)
	} else {
		fl = ffs(fr.flBitmap & (^uint32(0) << uint(fl+1)))
		if fl < 0 {
			return nil
		}
		sl = ffs(fr.slBitmap[fl])
	}
	b := fr.heads[fl][sl]
	if b == nil {
		return nil
	}
	fr.unlink(b, fl, sl)
	return b
}

// freeBytes sums the payload sizes of every block in the index. Splitting
// converts part of a pool's original payload into the new block's own
// header and coalescing gives it back, so free capacity is a property of
// the current block population, not derivable from the pool totals alone.
func (fr *freelist) freeBytes() int {
	total := 0
	for fl := 0; fl < flMax; fl++ {
		if fr.flBitmap&(1<<uint(fl)) == 0 {
			continue
		}
		for sl := 0; sl < slCount; sl++ {
			for b := fr.heads[fl][sl]; b != nil; b = asFree(b).linkNext() {
				total += b.sizeBytes()
			}
		}
	}
	return total
}

// validate checks that the two-level bitmap reflects bucket
// occupancy exactly, and every block reachable from a bucket head is free
// and maps back to that same bucket under mapInsert.
func (fr *freelist) validate() bool {
	for fl := 0; fl < flMax; fl++ {
		flBitSet := fr.flBitmap&(1<<uint(fl)) != 0
		slWord := fr.slBitmap[fl]
		if (slWord != 0) != flBitSet {
			return false
		}
		for sl := 0; sl < slCount; sl++ {
			slBitSet := slWord&(1<<uint(sl)) != 0
			head := fr.heads[fl][sl]
			if (head != nil) != slBitSet {
				return false
			}
			for b := head; b != nil; b = asFree(b).linkNext() {
				if !b.isFree() {
					return false
				}
				gotFL, gotSL := mapInsert(b.sizeBytes())
				if gotFL != fl || gotSL != sl {
					return false
				}
			}
		}
	}
	return true
}

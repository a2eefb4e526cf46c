// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "unsafe"

// Walk visits every block in p's span in physical order, from just past
// the prologue up to the epilogue, reporting each one's payload address,
// usable size, and used/free status. It does not visit the
// prologue or epilogue sentinels themselves.
func (p *Pool) Walk(visitor func(ptr unsafe.Pointer, size int, used bool)) {
	for b := p.prologue().next(); b != p.epilogue(); b = b.next() {
		visitor(b.payload(), b.sizeBytes(), !b.isFree())
	}
}

// Validate walks p's blocks and checks the structural block-layout
// invariants: sizes within [BlockSizeMin, BlockSizeMax], no two physically
// adjacent free blocks, and each block's PREV_FREE flag and each free
// block's ghost footer self-consistent. It does not consult the free-list
// index, so it does not check that a free block is linked into a bucket.
// It reports the first violation found, or true if none.
func (p *Pool) Validate() bool {
	prevWasFree := false
	for b := p.prologue().next(); b != p.epilogue(); b = b.next() {
		size := b.sizeBytes()
		if size < blockSizeMin || size > blockSizeMax || size%alignment != 0 {
			return false
		}
		if b.isPrevFree() != prevWasFree {
			return false
		}
		if b.isFree() && prevWasFree {
			return false // two physically adjacent free blocks
		}
		if b.isFree() {
			succ := b.next()
			if !succ.isPrevFree() || *footerSlot(succ) != b.addr() {
				return false
			}
		}
		prevWasFree = b.isFree()
	}
	return true
}

// Validate checks every registered pool's physical chain, then the
// free-list index's bitmap/bucket bookkeeping across all pools. It reports
// the first violation found, or true if the allocator is structurally
// sound.
func (c *Control) Validate() bool {
	for _, p := range c.pools {
		if !p.Validate() {
			return false
		}
	}
	return c.fr.validate()
}

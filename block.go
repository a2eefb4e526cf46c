// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "unsafe"

// Block layout.
//
// A block is a header word followed by a payload:
//
//	+----------+------------------------------------------+
//	| size_word| payload ...                               |
//	+----------+------------------------------------------+
//	^ block address                ^ payload address (returned to callers)
//
// size_word packs the payload size (a multiple of alignment) together with
// two flags in its low bits. When the block is free, the payload begins
// with two in-list links (next, prev) to sibling free blocks. The ghost
// footer, a pointer back to this block written only while it is free,
// lives in the LAST pointer-sized word of this same payload, so a used
// block costs nothing beyond size_word: the footer slot of a used block is
// just more of the caller's own bytes.
const (
	flagFree     uintptr = 1 << 0
	flagPrevFree uintptr = 1 << 1
	flagMask             = flagFree | flagPrevFree
)

var (
	ptrSize    = int(unsafe.Sizeof(uintptr(0)))
	headerSize = ptrSize

	// blockSizeMin is the minimum payload size: room for the two
	// in-list links plus the ghost footer.
	blockSizeMin = 3 * ptrSize

	// poolOverhead is the cost of the three block headers every pool pays
	// beyond its interior payload: the prologue's own header, the interior
	// block's own header, and the epilogue's header.
	poolOverhead = 3 * headerSize

	// blockSizeMax bounds requests to what the two-level bitmap index
	// can address with headroom for mapSearch's round-up, well above any
	// size this allocator will plausibly be asked to serve.
	blockSizeMax = 1<<30 - alignment
)

// alignUp rounds n up to the nearest multiple of alignment, a power of two.
func alignUp(n int) int { return (n + alignment - 1) &^ (alignment - 1) }

// alignDown rounds n down to the nearest multiple of alignment.
func alignDown(n int) int { return n &^ (alignment - 1) }

// block is the header shared by every block, used or free. It is never
// constructed by value: all instances are reached by casting a pointer
// into caller-supplied memory.
type block struct {
	size uintptr
}

// blockAt reinterprets p as a block header.
func blockAt(p unsafe.Pointer) *block { return (*block)(p) }

// addr returns b's own address as a plain pointer, for storing into link
// fields and ghost-footer slots.
func (b *block) addr() unsafe.Pointer { return unsafe.Pointer(b) }

// payload returns the address of the first payload byte.
func (b *block) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(b), headerSize)
}

// blockFromPayload recovers the header of the block owning payload pointer
// p.
func blockFromPayload(p unsafe.Pointer) *block {
	return (*block)(unsafe.Add(p, -headerSize))
}

// sizeBytes returns the payload size in bytes, flags stripped.
func (b *block) sizeBytes() int { return int(b.size &^ flagMask) }

func (b *block) setSizeBytes(n int) { b.size = uintptr(n) | (b.size & flagMask) }

func (b *block) isFree() bool     { return b.size&flagFree != 0 }
func (b *block) isPrevFree() bool { return b.size&flagPrevFree != 0 }

func (b *block) setFree(v bool) {
	if v {
		b.size |= flagFree
	} else {
		b.size &^= flagFree
	}
}

func (b *block) setPrevFree(v bool) {
	if v {
		b.size |= flagPrevFree
	} else {
		b.size &^= flagPrevFree
	}
}

// next returns b's physical successor: the block immediately following b's
// payload in memory. Every block except the epilogue has a valid next();
// callers must not call next() on the epilogue.
func (b *block) next() *block {
	return (*block)(unsafe.Add(unsafe.Pointer(b), headerSize+b.sizeBytes()))
}

// footerSlot returns the address of the ghost-footer word belonging to the
// block immediately preceding at. Reading it is only meaningful when
// at.isPrevFree(); writing it is only done by a block transitioning to
// free, targeting its own successor's footerSlot (i.e. the last word
// of its own payload).
func footerSlot(at *block) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(unsafe.Pointer(at), -ptrSize))
}

// prevPhys returns b's physical predecessor. The caller must have already
// checked b.isPrevFree().
func (b *block) prevPhys() *block {
	return (*block)(*footerSlot(b))
}

// markGhostFooter writes b's own address into the ghost-footer slot that
// b's physical successor will read (the last word of b's own payload), and
// sets that successor's PREV_FREE flag. Called whenever b transitions to
// free; the slot is meaningless once b is marked used again, since the
// successor's PREV_FREE flag (cleared by markUsed) gates whether it is
// ever read.
func (b *block) markGhostFooter() {
	succ := b.next()
	*footerSlot(succ) = b.addr()
	succ.setPrevFree(true)
}

// clearGhostFooter clears the successor's PREV_FREE flag. Called when b
// transitions from free to used; the footer slot itself is left untouched
// (it becomes ordinary payload bytes for b's new owner).
func (b *block) clearGhostFooter() {
	b.next().setPrevFree(false)
}

// freeBlock overlays a free block's payload: the two intrusive doubly
// linked free-list pointers live at its head. Dereferencing is only valid
// while the underlying block's FREE flag is set.
type freeBlock struct {
	block
	next unsafe.Pointer // *block, next sibling in the same bucket, or nil
	prev unsafe.Pointer // *block, previous sibling in the same bucket, or nil
}

func asFree(b *block) *freeBlock { return (*freeBlock)(unsafe.Pointer(b)) }

func (f *freeBlock) linkNext() *block { return (*block)(f.next) }
func (f *freeBlock) linkPrev() *block { return (*block)(f.prev) }
func (f *freeBlock) setLinkNext(b *block) { f.next = unsafe.Pointer(b) }
func (f *freeBlock) setLinkPrev(b *block) { f.prev = unsafe.Pointer(b) }

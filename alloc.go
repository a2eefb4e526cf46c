// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import (
	"fmt"
	"os"
	"unsafe"
)

// split partitions b into a size-byte prefix and, if the remainder can
// host its own block, a free suffix inserted into fr. b is left sized to
// exactly size when the suffix is split off, and keeps its full size
// otherwise; its caller is responsible for marking it used or free as
// appropriate, since split never touches b's own FREE flag.
func split(fr *freelist, b *block, size int) {
	remainder := b.sizeBytes() - size
	if remainder < blockSizeMin+headerSize {
		return
	}
	b.setSizeBytes(size)
	rem := b.next()
	initBlock(rem, remainder-headerSize, false)
	fr.insert(rem)
	rem.markGhostFooter()
}

// absorb merges b, a free block immediately following a (already removed
// from any free list), into a, and returns a. a's own flags are
// untouched; the merged block's identity is always a's.
func absorb(a, b *block) *block {
	a.setSizeBytes(a.sizeBytes() + headerSize + b.sizeBytes())
	return a
}

// markUsed clears b's FREE flag and the PREV_FREE flag of its physical
// successor. It does not otherwise touch neighbors.
func markUsed(b *block) {
	b.setFree(false)
	b.clearGhostFooter()
}

// coalesce merges b with any free physical neighbors, inserts the
// resulting (possibly grown) block into fr, and returns it. b must not
// currently be linked into any bucket.
func coalesce(fr *freelist, b *block) *block {
	if b.isPrevFree() {
		prev := b.prevPhys()
		fr.remove(prev)
		b = absorb(prev, b)
	}
	if next := b.next(); next.isFree() {
		fr.remove(next)
		b = absorb(b, next)
	}
	fr.insert(b)
	b.markGhostFooter()
	return b
}

// adjustRequest rounds a caller size up to alignment and the minimum
// block size, and rejects zero or over-maximum requests.
func adjustRequest(size int) (int, error) {
	if size <= 0 || size > blockSizeMax {
		return 0, ErrInvalidSize
	}
	adjusted := alignUp(size)
	if adjusted < blockSizeMin {
		adjusted = blockSizeMin
	}
	return adjusted, nil
}

// Alloc allocates size bytes from any registered pool and returns a
// pointer to the payload, or an error if size is invalid or no pool has a
// large enough free block. The allocator is left unchanged on failure.
func (c *Control) Alloc(size int) (ptr unsafe.Pointer, err error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Alloc(%#x) %p, %v\n", size, ptr, err) }()
	}
	adjusted, err := adjustRequest(size)
	if err != nil {
		return nil, err
	}
	b := c.fr.locate(adjusted)
	if b == nil {
		return nil, ErrNoFit
	}
	split(&c.fr, b, adjusted)
	markUsed(b)
	c.usedSize += b.sizeBytes()
	c.allocationCount++
	return b.payload(), nil
}

// Calloc is like Alloc except it allocates an array of nmemb elements of
// size bytes each and the memory is zeroed. A zero count, a zero size, or
// a product that overflows the maximum block size is rejected.
func (c *Control) Calloc(nmemb, size int) (ptr unsafe.Pointer, err error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x) %p, %v\n", nmemb, size, ptr, err) }()
	}
	if nmemb <= 0 || size <= 0 || nmemb > blockSizeMax/size {
		return nil, ErrInvalidSize
	}
	ptr, err = c.Alloc(nmemb * size)
	if err != nil {
		return nil, err
	}
	b := unsafe.Slice((*byte)(ptr), nmemb*size)
	for i := range b {
		b[i] = 0
	}
	return ptr, nil
}

// Free deallocates ptr, coalescing with free physical neighbors. A null,
// foreign, or already-free pointer is silently ignored.
func (c *Control) Free(ptr unsafe.Pointer) {
	if trace {
		fmt.Fprintf(os.Stderr, "Free(%p)\n", ptr)
	}
	b := c.recoverUsedBlock(ptr)
	if b == nil {
		return
	}
	c.usedSize -= b.sizeBytes()
	c.allocationCount--
	coalesce(&c.fr, b)
}

// growInPlace attempts to satisfy a Realloc grow by absorbing a free
// physical successor, splitting off any excess. Reports whether it
// succeeded; b is unchanged on failure.
func (c *Control) growInPlace(b *block, newSize int) bool {
	next := b.next()
	if !next.isFree() {
		return false
	}
	if b.sizeBytes()+headerSize+next.sizeBytes() < newSize {
		return false
	}
	c.fr.remove(next)
	absorb(b, next)
	split(&c.fr, b, newSize)
	markUsed(b)
	return true
}

// shrink carves the trailing slack off b when it is large enough to form
// its own block, and frees it, coalescing with a free successor if any.
// b keeps its address and ends up sized to exactly newSize, or unchanged
// if the slack is too small to split off.
func (c *Control) shrink(b *block, newSize int) {
	remainder := b.sizeBytes() - newSize
	if remainder < blockSizeMin+headerSize {
		return
	}
	b.setSizeBytes(newSize)
	rem := b.next()
	initBlock(rem, remainder-headerSize, false)
	coalesce(&c.fr, rem)
}

// Realloc resizes the allocation at ptr. A nil ptr behaves as Alloc; a
// zero size frees ptr and returns (nil, nil); a shrink always keeps ptr.
// On failure to grow in place, a fresh block is allocated, the overlapping
// prefix copied, and the old block freed. The original allocation is left
// intact if that fresh allocation itself fails.
func (c *Control) Realloc(ptr unsafe.Pointer, size int) (result unsafe.Pointer, err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Realloc(%p, %#x) %p, %v\n", ptr, size, result, err)
		}()
	}
	if ptr == nil {
		return c.Alloc(size)
	}
	if size == 0 {
		c.Free(ptr)
		return nil, nil
	}
	b := c.recoverUsedBlock(ptr)
	if b == nil {
		return nil, ErrInvalidPointer
	}
	adjusted, err := adjustRequest(size)
	if err != nil {
		return nil, err
	}

	current := b.sizeBytes()
	switch {
	case adjusted == current:
		return ptr, nil
	case adjusted < current:
		c.shrink(b, adjusted)
		c.usedSize -= current - b.sizeBytes()
		return ptr, nil
	default:
		if c.growInPlace(b, adjusted) {
			c.usedSize += b.sizeBytes() - current
			return ptr, nil
		}
	}

	newPtr, err := c.Alloc(size)
	if err != nil {
		return nil, err
	}
	copyMemory(newPtr, ptr, minInt(current, BlockSize(newPtr)))
	c.Free(ptr)
	return newPtr, nil
}

// Memalign allocates size bytes whose payload address is a multiple of
// align, a power of two at least AlignSize(). An align below AlignSize()
// is rejected rather than silently upgraded.
func (c *Control) Memalign(align, size int) (ptr unsafe.Pointer, err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Memalign(%#x, %#x) %p, %v\n", align, size, ptr, err)
		}()
	}
	if align < AlignSize() || align&(align-1) != 0 {
		return nil, ErrInvalidAlignment
	}
	adjusted, err := adjustRequest(size)
	if err != nil {
		return nil, err
	}
	if align <= AlignSize() {
		return c.Alloc(size)
	}

	// Guard the sum below against overflow before forming it: align alone
	// may approach the platform's int limit.
	if align > blockSizeMax-adjusted-blockSizeMin-headerSize {
		return nil, ErrInvalidSize
	}
	request := adjusted + align + blockSizeMin + headerSize
	b := c.fr.locate(request)
	if b == nil {
		return nil, ErrNoFit
	}

	payloadAddr := uintptr(b.payload())
	alignedAddr := (payloadAddr + uintptr(align) - 1) &^ (uintptr(align) - 1)
	gap := int(alignedAddr - payloadAddr)
	if gap != 0 && gap < headerSize+blockSizeMin {
		minAddr := payloadAddr + uintptr(headerSize+blockSizeMin)
		alignedAddr = (minAddr + uintptr(align) - 1) &^ (uintptr(align) - 1)
		gap = int(alignedAddr - payloadAddr)
	}

	total := b.sizeBytes()
	target := b
	if gap != 0 {
		b.setSizeBytes(gap - headerSize)
		target = b.next() // header sits exactly at alignedAddr-headerSize
		initBlock(target, total-gap, false)
		c.fr.insert(b)
		b.markGhostFooter()
	}

	split(&c.fr, target, adjusted)
	markUsed(target)
	c.usedSize += target.sizeBytes()
	c.allocationCount++
	return target.payload(), nil
}

// minInt returns the smaller of a and b.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// copyMemory copies n bytes from src to dst, viewing both raw pointers
// as byte slices so the runtime's bulk copy does the work.
func copyMemory(dst, src unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

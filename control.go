// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlsf implements a deterministic, constant-time general-purpose
// memory allocator in the Two-Level Segregated Fit style. All backing
// storage is supplied by the caller as memory pools; the allocator never
// acquires memory from the operating system on its own.
//
// The allocator is not safe for concurrent use. Callers that share a
// Control across goroutines must serialize access externally.
package tlsf

import (
	"fmt"
	"os"
	"unsafe"
)

// Control is the top-level allocator object: the two-level bitmap index,
// the bucket head table, and the set of pools it administers.
//
// Control is an ordinary Go value, not a struct laid over the leading
// bytes of the caller's first pool. That bootstrap trick matters in C,
// where creating an allocator must not itself allocate; Go has no such
// concern, and a zero Control is ready for use (its fr field needs no
// initialization). The caller-supplied mem passed to New becomes the
// first pool in full, not mem-minus-control.
type Control struct {
	fr    freelist
	pools []*Pool

	totalSize       int
	usedSize        int
	allocationCount int
}

// Stats is a read-only snapshot of a Control's aggregate counters.
// UsedSize and FreeSize need not sum to TotalSize: every block created by
// splitting carves its header out of payload that TotalSize counted, and
// returns it only when coalescing re-merges the blocks.
type Stats struct {
	TotalSize       int // payload capacity registered across all pools
	UsedSize        int // payload bytes in live allocations
	FreeSize        int // payload bytes immediately allocatable
	AllocationCount int
}

// New creates a Control and adds mem as its first pool.
//
// Unlike AddPool, which accepts any mem and trims to the next aligned
// address, New requires mem itself to already begin on an
// AlignSize()-aligned address. Later pools added with AddPool are not
// held to that stricter bar.
func New(mem []byte) (ctl *Control, err error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "New(%#x bytes) %p, %v\n", len(mem), ctl, err) }()
	}
	if len(mem) == 0 || uintptr(unsafe.Pointer(&mem[0]))%uintptr(alignment) != 0 {
		return nil, ErrInvalidMemory
	}
	c := &Control{}
	if _, err := c.AddPool(mem); err != nil {
		return nil, err
	}
	return c, nil
}

// AddPool registers mem as an additional pool. It fails
// without touching allocator state if mem cannot host a minimal pool, or
// if its aligned span would overlap an existing pool.
func (c *Control) AddPool(mem []byte) (p *Pool, err error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "AddPool(%#x bytes) %p, %v\n", len(mem), p, err) }()
	}
	if len(mem) == 0 {
		return nil, ErrInvalidMemory
	}
	origin := uintptr(unsafe.Pointer(&mem[0]))
	alignedOrigin := (origin + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	skip := int(alignedOrigin - origin)
	if skip < len(mem) {
		available := alignDown(len(mem) - skip)
		if available >= poolOverhead+blockSizeMin {
			// Mirrors addPool's own layout: base is the prologue address,
			// end is the epilogue address (not the end of its header),
			// exactly the span p.overlaps compares existing pools against.
			payloadSize := available - poolOverhead
			base := alignedOrigin
			end := alignedOrigin + uintptr(2*headerSize+payloadSize)
			for _, p := range c.pools {
				if p.overlaps(base, end) {
					return nil, ErrPoolOverlap
				}
			}
		}
	}

	p, err = addPool(&c.fr, mem)
	if err != nil {
		return nil, err
	}
	c.pools = append(c.pools, p)
	c.totalSize += p.prologue().next().sizeBytes()
	return p, nil
}

// RemovePool unregisters p. It is a no-op, returning
// ErrPoolNotEmpty, unless p currently holds exactly one free block
// spanning its whole interior.
func (c *Control) RemovePool(p *Pool) (err error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "RemovePool(%p) %v\n", p, err) }()
	}
	idx := -1
	for i, q := range c.pools {
		if q == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidMemory
	}
	if !p.isEmpty() {
		return ErrPoolNotEmpty
	}
	c.fr.remove(p.prologue().next())
	c.totalSize -= p.prologue().next().sizeBytes()
	c.pools = append(c.pools[:idx], c.pools[idx+1:]...)
	return nil
}

// Reset returns the allocator to "all blocks free" and reports whether it
// did so. It refuses, leaving every pool untouched, if any pool has a live
// allocation. Because coalescing is immediate on every Free, "no live
// allocations anywhere" already implies each pool holds exactly one free
// block spanning its interior, so Reset only needs to confirm the gating
// condition. Added pools are preserved rather than collapsed back to the
// first.
func (c *Control) Reset() (ok bool) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Reset() %v\n", ok) }()
	}
	for _, p := range c.pools {
		if !p.isEmpty() {
			return false
		}
	}
	c.usedSize = 0
	c.allocationCount = 0
	return true
}

// Destroy is a no-op over caller memory: the pools remain exactly as they
// were, for the caller to reclaim or reuse. It accepts a nil Control.
func (c *Control) Destroy() {
	if trace {
		fmt.Fprintf(os.Stderr, "Destroy(%p)\n", c)
	}
	if c == nil {
		return
	}
	c.pools = nil
}

// Pool returns the first pool added to c, or nil if none.
func (c *Control) Pool() *Pool {
	if len(c.pools) == 0 {
		return nil
	}
	return c.pools[0]
}

// poolContaining returns the pool whose span contains addr, or nil. addr
// may be a block header address or a payload pointer; both fall strictly
// inside a pool's [start, end) span whenever they are valid.
func (c *Control) poolContaining(addr unsafe.Pointer) *Pool {
	for _, p := range c.pools {
		if p.contains(addr) {
			return p
		}
	}
	return nil
}

// PoolForPointer returns the pool containing ptr, or nil if ptr does not
// lie in any pool registered with c.
func (c *Control) PoolForPointer(ptr unsafe.Pointer) *Pool {
	if ptr == nil {
		return nil
	}
	return c.poolContaining(ptr)
}

// recoverUsedBlock validates ptr as a live allocation's payload pointer
// and returns its header, or nil if ptr is null, not owned by any pool,
// points at a sentinel, or addresses a block currently marked free.
func (c *Control) recoverUsedBlock(ptr unsafe.Pointer) *block {
	if ptr == nil {
		return nil
	}
	b := blockFromPayload(ptr)
	p := c.poolContaining(unsafe.Pointer(b))
	if p == nil {
		return nil
	}
	if uintptr(unsafe.Pointer(b)) < uintptr(p.start)+uintptr(headerSize) {
		return nil // interior of, or at, the prologue
	}
	if b.isFree() {
		return nil
	}
	return b
}

// UsableSize reports the usable payload size at ptr, or 0 if ptr is not a
// live allocation this Control owns.
func (c *Control) UsableSize(ptr unsafe.Pointer) int {
	b := c.recoverUsedBlock(ptr)
	if b == nil {
		return 0
	}
	return b.sizeBytes()
}

// Stats returns a snapshot of c's aggregate counters.
func (c *Control) Stats() Stats {
	return Stats{
		TotalSize:       c.totalSize,
		UsedSize:        c.usedSize,
		FreeSize:        c.fr.freeBytes(),
		AllocationCount: c.allocationCount,
	}
}

// BlockSize reports the usable payload size of the block owning ptr. ptr
// must have been returned by Alloc, Memalign or Realloc on this package's
// allocators; unlike UsableSize it performs no ownership validation and
// trusts its argument.
func BlockSize(ptr unsafe.Pointer) int {
	return blockFromPayload(ptr).sizeBytes()
}

// AlignSize returns the minimum address alignment of any returned
// allocation.
func AlignSize() int { return alignment }

// AllocOverhead returns the per-allocation header cost in bytes.
func AllocOverhead() int { return headerSize }

// PoolOverhead returns the fixed cost of registering a pool, in bytes:
// the prologue, interior and epilogue block headers.
func PoolOverhead() int { return poolOverhead }

// BlockSizeMin returns the smallest payload size any block may have.
func BlockSizeMin() int { return blockSizeMin }

// BlockSizeMax returns the largest size Alloc, Memalign or Realloc will
// ever honor.
func BlockSizeMax() int { return blockSizeMax }

// ControlSize returns the size in bytes of the Control structure itself.
func ControlSize() int { return int(unsafe.Sizeof(Control{})) }

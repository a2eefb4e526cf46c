// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "unsafe"

// Pool describes one caller-supplied memory span administered by a
// Control. Pools are discontiguous, independent, and never share blocks;
// a block is never migrated from one pool to another.
type Pool struct {
	mem   []byte         // keeps the backing array alive and rooted for the GC
	start unsafe.Pointer // prologue block address (aligned span start)
	end   unsafe.Pointer // epilogue block address (aligned span end)
}

func (p *Pool) prologue() *block { return blockAt(p.start) }
func (p *Pool) epilogue() *block { return blockAt(p.end) }

// contains reports whether ptr lies anywhere within p's usable span,
// between the prologue and the epilogue.
func (p *Pool) contains(ptr unsafe.Pointer) bool {
	return uintptr(ptr) >= uintptr(p.start) && uintptr(ptr) < uintptr(p.end)
}

// initBlock stamps fresh header bits onto raw memory: used for the three
// blocks created when a pool is added (prologue, interior, epilogue), as
// opposed to setSizeBytes/setFree which mutate an already-initialized
// block and so preserve whichever flags they don't touch.
func initBlock(b *block, size int, free bool) {
	b.size = uintptr(size)
	if free {
		b.size |= flagFree
	}
}

// addPool validates and carves mem into a new pool: an aligned prologue,
// one large interior free block, and an aligned epilogue. The
// interior block is inserted into fr and its ghost footer is written so
// the epilogue's PREV_FREE resolves correctly.
func addPool(fr *freelist, mem []byte) (*Pool, error) {
	if len(mem) == 0 {
		return nil, ErrInvalidMemory
	}

	// The numeric address of &mem[0] is used only to compute the alignment
	// skip. The two pointers actually stored are derived from &mem[0]:
	// startPtr by a single unsafe.Pointer(uintptr(...)+n) expression and
	// endPtr by unsafe.Add from startPtr, both sanctioned patterns for
	// pointer arithmetic into a live Go allocation.
	origin := uintptr(unsafe.Pointer(&mem[0]))
	alignedOrigin := (origin + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	skip := int(alignedOrigin - origin)
	if skip >= len(mem) {
		return nil, ErrInvalidMemory
	}
	// available is every aligned byte mem has past skip; poolOverhead of
	// that (three headers: prologue, interior, epilogue) never becomes
	// payload, so the epilogue's own header always lands inside available
	// rather than one header-word past the end of mem.
	available := alignDown(len(mem) - skip)
	if available < poolOverhead+blockSizeMin {
		return nil, ErrPoolTooSmall
	}
	payloadSize := available - poolOverhead

	startPtr := unsafe.Pointer(uintptr(unsafe.Pointer(&mem[0])) + uintptr(skip))
	endPtr := unsafe.Add(startPtr, 2*headerSize+payloadSize)

	prologue := blockAt(startPtr)
	initBlock(prologue, 0, false)

	epilogue := blockAt(endPtr)
	initBlock(epilogue, 0, false)

	interior := blockAt(unsafe.Add(startPtr, headerSize))
	initBlock(interior, payloadSize, false)
	fr.insert(interior)
	interior.markGhostFooter()

	p := &Pool{
		mem:   mem,
		start: startPtr,
		end:   endPtr,
	}
	return p, nil
}

// overlaps reports whether [base, end) as produced by addPool's alignment
// step would intersect p's span.
func (p *Pool) overlaps(base, end uintptr) bool {
	return base < uintptr(p.end) && end > uintptr(p.start)
}

// isEmpty reports whether p holds exactly one free block spanning its
// whole interior, the only state RemovePool may act on.
func (p *Pool) isEmpty() bool {
	b := p.prologue().next()
	if !b.isFree() {
		return false
	}
	return b.next() == p.epilogue()
}

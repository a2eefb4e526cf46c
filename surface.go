// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "unsafe"

// AllocBytes is the safe, []byte-returning veneer over Alloc. The returned
// slice aliases the allocation's payload directly; it must be released with
// Free(unsafe.Pointer(&b[0])), not left to the garbage collector, since the
// backing array is part of a caller-supplied pool rather than a Go heap
// allocation.
func (c *Control) AllocBytes(size int) ([]byte, error) {
	ptr, err := c.Alloc(size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

// CallocBytes is the []byte veneer over Calloc.
func (c *Control) CallocBytes(nmemb, size int) ([]byte, error) {
	ptr, err := c.Calloc(nmemb, size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), nmemb*size), nil
}

// ReallocBytes resizes the allocation backing b, returning a new slice of
// length size. b must have been obtained from AllocBytes or MemalignBytes on
// the same Control. A nil b behaves as AllocBytes; a zero size frees b and
// returns (nil, nil).
func (c *Control) ReallocBytes(b []byte, size int) ([]byte, error) {
	var ptr unsafe.Pointer
	if len(b) != 0 {
		ptr = unsafe.Pointer(&b[0])
	}
	newPtr, err := c.Realloc(ptr, size)
	if err != nil || newPtr == nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(newPtr), size), nil
}

// FreeBytes releases the allocation backing b. A nil or empty b is a no-op.
func (c *Control) FreeBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	c.Free(unsafe.Pointer(&b[0]))
}

// MemalignBytes is the []byte veneer over Memalign.
func (c *Control) MemalignBytes(align, size int) ([]byte, error) {
	ptr, err := c.Memalign(align, size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

// NewFromBytes is the []byte-oriented spelling of New, for callers who
// prefer not to reach into unsafe themselves to get started.
func NewFromBytes(mem []byte) (*Control, error) {
	return New(mem)
}

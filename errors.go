// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import "errors"

// Sentinel errors returned by the public surface. Callers compare with
// errors.Is; the allocator itself never panics in response to caller input.
var (
	// ErrInvalidMemory is returned by New and AddPool when mem is not
	// AlignSize()-alignable to a usable span, or is nil.
	ErrInvalidMemory = errors.New("tlsf: invalid memory region")

	// ErrPoolTooSmall is returned by New and AddPool when the aligned span
	// cannot host PoolOverhead() + BlockSizeMin() bytes.
	ErrPoolTooSmall = errors.New("tlsf: pool too small")

	// ErrPoolOverlap is returned by AddPool when the requested span
	// overlaps an already registered pool.
	ErrPoolOverlap = errors.New("tlsf: pool overlaps an existing pool")

	// ErrInvalidSize is returned by Alloc, Memalign and Realloc for a
	// zero size or a size exceeding BlockSizeMax().
	ErrInvalidSize = errors.New("tlsf: invalid size")

	// ErrInvalidAlignment is returned by Memalign when alignment is not a
	// power of two, or is smaller than AlignSize().
	ErrInvalidAlignment = errors.New("tlsf: invalid alignment")

	// ErrNoFit is returned by Alloc, Memalign and Realloc when no free
	// block large enough exists in any pool.
	ErrNoFit = errors.New("tlsf: no fitting free block")

	// ErrInvalidPointer is returned by Realloc for a pointer this
	// allocator did not hand out, or that does not look like a used
	// block header. Free ignores the same condition silently.
	ErrInvalidPointer = errors.New("tlsf: invalid pointer")

	// ErrPoolNotEmpty is returned by RemovePool when the pool still has
	// live allocations.
	ErrPoolNotEmpty = errors.New("tlsf: pool has live allocations")
)

// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

import (
	"testing"
	"unsafe"
)

func TestNewAndStats(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	st := ctl.Stats()
	if st.UsedSize != 0 || st.AllocationCount != 0 {
		t.Fatalf("fresh control has live stats: %+v", st)
	}
	if st.TotalSize <= 0 {
		t.Fatalf("TotalSize should be positive, got %d", st.TotalSize)
	}
	if st.FreeSize != st.TotalSize {
		t.Fatalf("FreeSize %d != TotalSize %d on a fresh control", st.FreeSize, st.TotalSize)
	}
}

// TestStatsFreeSizeTracksSplitOverhead: splitting a block converts part of
// the pool's payload into the new block's header, so after a partial
// allocation FreeSize must fall by the allocation plus one header, and must
// agree with what a physical walk of the pool reports as free.
func TestStatsFreeSizeTracksSplitOverhead(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	st0 := ctl.Stats()

	ptr, err := ctl.Alloc(64)
	if err != nil {
		t.Fatal(err)
	}
	st1 := ctl.Stats()
	if want := st0.FreeSize - 64 - AllocOverhead(); st1.FreeSize != want {
		t.Fatalf("FreeSize after split = %d, want %d", st1.FreeSize, want)
	}

	walked := 0
	ctl.Pool().Walk(func(_ unsafe.Pointer, size int, used bool) {
		if !used {
			walked += size
		}
	})
	if st1.FreeSize != walked {
		t.Fatalf("Stats FreeSize = %d, physical walk sums %d", st1.FreeSize, walked)
	}

	ctl.Free(ptr)
	if st2 := ctl.Stats(); st2.FreeSize != st0.FreeSize {
		t.Fatalf("FreeSize after coalescing free = %d, want %d", st2.FreeSize, st0.FreeSize)
	}
}

func TestNewRejectsTinyMemory(t *testing.T) {
	if _, err := New(make([]byte, 4)); err == nil {
		t.Fatal("New(4 bytes) should fail")
	}
}

func TestAddPoolOverlapRejected(t *testing.T) {
	mem := make([]byte, 1<<20)
	ctl, err := New(mem[:1<<16])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctl.AddPool(mem[:1<<17]); err != ErrPoolOverlap {
		t.Fatalf("overlapping AddPool = %v, want ErrPoolOverlap", err)
	}
}

func TestAddPoolDisjointSucceeds(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctl.AddPool(make([]byte, 4096)); err != nil {
		t.Fatalf("disjoint AddPool failed: %v", err)
	}
	if len(ctl.pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(ctl.pools))
	}
}

func TestRemovePoolRequiresEmpty(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	// Allocate before the second pool exists so the allocation is pinned
	// to the first pool; insertion order would otherwise put the newer
	// pool's interior block at the head of the shared bucket and the
	// allocation would carve p2 instead.
	if _, err := ctl.Alloc(64); err != nil {
		t.Fatal(err)
	}
	p2, err := ctl.AddPool(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctl.RemovePool(p2); err != nil {
		t.Fatalf("RemovePool on an untouched pool should succeed: %v", err)
	}
	if len(ctl.pools) != 1 {
		t.Fatalf("expected 1 pool after removal, got %d", len(ctl.pools))
	}
}

func TestRemovePoolRejectsNonEmpty(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	ptr, err := ctl.Alloc(64)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctl.RemovePool(ctl.Pool()); err != ErrPoolNotEmpty {
		t.Fatalf("RemovePool on a live pool = %v, want ErrPoolNotEmpty", err)
	}
	ctl.Free(ptr)
}

func TestPoolForPointer(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	ptr, err := ctl.Alloc(64)
	if err != nil {
		t.Fatal(err)
	}
	if ctl.PoolForPointer(ptr) != ctl.Pool() {
		t.Fatal("PoolForPointer did not find the owning pool")
	}
	if ctl.PoolForPointer(nil) != nil {
		t.Fatal("PoolForPointer(nil) should return nil")
	}
}

func TestUsableSizeRejectsForeignPointer(t *testing.T) {
	ctl, err := New(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	foreign := make([]byte, 64)
	if got := ctl.UsableSize(unsafe.Pointer(&foreign[0])); got != 0 {
		t.Fatalf("UsableSize(foreign) = %d, want 0", got)
	}
}

func TestSizingConstantsConsistent(t *testing.T) {
	if AlignSize() <= 0 || AlignSize()&(AlignSize()-1) != 0 {
		t.Fatalf("AlignSize() = %d, not a power of two", AlignSize())
	}
	if BlockSizeMin() < 3*AllocOverhead() {
		t.Fatalf("BlockSizeMin() %d too small for two links plus a footer", BlockSizeMin())
	}
	if BlockSizeMax() <= BlockSizeMin() {
		t.Fatal("BlockSizeMax() must exceed BlockSizeMin()")
	}
	if ControlSize() <= 0 {
		t.Fatal("ControlSize() must be positive")
	}
}

// Fixed-growth object pool for DriveMovement instances.
//
// The pool is a singly linked free list that only grows, never shrinks,
// over the process lifetime. Warm it once at startup with enough
// instances for the worst-case number of simultaneously active drives;
// after that, steady-state operation never allocates.
//
// Acquire and release happen only at move-preparation and
// move-retirement boundaries, never in the per-step hot path, so a
// mutex is fine here. Ownership of a single instance is exclusive: it
// belongs either to the pool or to exactly one active move.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import "sync"

// Pool hands out DriveMovement instances without per-step allocation.
type Pool struct {
	mu        sync.Mutex
	free      *DriveMovement
	freeCount uint32
	created   uint32
	tuning    Tuning
}

// NewPool returns a pool whose instances run with the given tuning.
func NewPool(tuning Tuning) *Pool {
	return &Pool{tuning: tuning}
}

// Warm ensures at least n instances exist, pre-allocating the
// difference. Call once at startup.
func (p *Pool) Warm(n uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.created < n {
		p.free = &DriveMovement{next: p.free}
		p.created++
		p.freeCount++
	}
}

// Acquire pops an instance off the free list, or allocates a fresh one
// if the list is empty (only expected during warmup). The instance is
// tagged with the drive index and initial state; all other fields keep
// whatever the previous owner left in them and must be overwritten by
// the next preparation.
func (p *Pool) Acquire(drive uint8, st State) *DriveMovement {
	p.mu.Lock()
	dm := p.free
	if dm != nil {
		p.free = dm.next
		dm.next = nil
		p.freeCount--
	} else {
		dm = &DriveMovement{}
		p.created++
	}
	p.mu.Unlock()
	dm.drive = drive
	dm.state = st
	dm.tuning = p.tuning
	return dm
}

// Release pushes an instance back onto the free list. The caller must
// ensure no step-generation context still references it. Fields are not
// cleared.
func (p *Pool) Release(dm *DriveMovement) {
	p.mu.Lock()
	dm.next = p.free
	p.free = dm
	p.freeCount++
	p.mu.Unlock()
}

// Created returns the number of instances ever created by this pool.
func (p *Pool) Created() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Free returns the number of instances currently on the free list.
func (p *Pool) Free() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freeCount
}

// Status reports pool occupancy for diagnostics.
func (p *Pool) Status() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"created": p.created,
		"free":    p.freeCount,
		"in_use":  p.created - p.freeCount,
	}
}

// defaultPool is the process-wide pool used by the package-level
// helpers.
var defaultPool = NewPool(DefaultTuning())

// Warm pre-allocates n instances in the process-wide pool.
func Warm(n uint32) { defaultPool.Warm(n) }

// Acquire takes an instance from the process-wide pool.
func Acquire(drive uint8, st State) *DriveMovement { return defaultPool.Acquire(drive, st) }

// Release returns an instance to the process-wide pool.
func Release(dm *DriveMovement) { defaultPool.Release(dm) }

// Created returns the number of instances ever created by the
// process-wide pool.
func Created() uint32 { return defaultPool.Created() }

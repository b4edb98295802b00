// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagetables

import (
	"fmt"
	"sync"
)

// Allocator is used to allocate and map PTEs.
//
// Note that allocators may be called concurrently.
type Allocator interface {
	// NewPTEs returns a new set of PTEs and their physical address.
	NewPTEs() *PTEs

	// PhysicalFor gives the physical address for a set of PTEs.
	PhysicalFor(ptes *PTEs) uintptr

	// LookupPTEs looks up PTEs by physical address.
	LookupPTEs(physical uintptr) *PTEs

	// FreePTEs marks a set of PTEs a freed, although they may not be available
	// for use again until Recycle is called, below.
	FreePTEs(ptes *PTEs)

	// Recycle makes freed PTEs available for use again.
	Recycle()
}

// tableBase is where RuntimeAllocator starts numbering table pages. It lies
// above any frame handed out by the physical memory file.
const tableBase = 1 << 44

// RuntimeAllocator is a trivial allocator. Tables live on the Go heap and
// are given distinct page-aligned physical addresses so that entries can
// refer to them.
type RuntimeAllocator struct {
	mu sync.Mutex

	// next is the next unused physical address.
	next uintptr

	// byPhysical and byTable index tables that have a physical address.
	byPhysical map[uintptr]*PTEs
	byTable    map[*PTEs]uintptr

	// used is the set of PTEs that have been allocated. This includes any
	// PTEs that may be in the pool below. PTEs are only freed from this
	// map by the Drain call.
	used map[*PTEs]struct{}

	// pool is the set of free-to-use PTEs.
	pool []*PTEs

	// freed is the set of recently-freed PTEs.
	freed []*PTEs
}

// NewRuntimeAllocator returns an allocator that uses runtime allocation.
func NewRuntimeAllocator() *RuntimeAllocator {
	r := new(RuntimeAllocator)
	r.Init()
	return r
}

// Init initializes a RuntimeAllocator.
func (r *RuntimeAllocator) Init() {
	r.next = tableBase
	r.byPhysical = make(map[uintptr]*PTEs)
	r.byTable = make(map[*PTEs]uintptr)
	r.used = make(map[*PTEs]struct{})
}

// Recycle returns freed pages to the pool.
func (r *RuntimeAllocator) Recycle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = append(r.pool, r.freed...)
	r.freed = r.freed[:0]
}

// Drain empties the pool.
func (r *RuntimeAllocator) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ptes := range r.pool {
		// Zap the entry in the underlying array to ensure that it can
		// be properly garbage collected.
		r.pool[i] = nil
		// Similarly, free the reference held by the used map (these
		// also apply for the pool entries).
		delete(r.used, ptes)
		phys := r.byTable[ptes]
		delete(r.byTable, ptes)
		delete(r.byPhysical, phys)
	}
	r.pool = r.pool[:0]
}

// NewPTEs implements Allocator.NewPTEs.
func (r *RuntimeAllocator) NewPTEs() *PTEs {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Pull from the pool if we can.
	if len(r.pool) > 0 {
		ptes := r.pool[len(r.pool)-1]
		r.pool = r.pool[:len(r.pool)-1]
		*ptes = PTEs{}
		return ptes
	}

	// Allocate a new entry.
	ptes := new(PTEs)
	phys := r.next
	r.next += pteSize
	r.byPhysical[phys] = ptes
	r.byTable[ptes] = phys
	r.used[ptes] = struct{}{}
	return ptes
}

// PhysicalFor returns the physical address for the given PTEs.
func (r *RuntimeAllocator) PhysicalFor(ptes *PTEs) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	phys, ok := r.byTable[ptes]
	if !ok {
		panic(fmt.Sprintf("PTEs %p were not allocated by this allocator", ptes))
	}
	return phys
}

// LookupPTEs implements Allocator.LookupPTEs.
func (r *RuntimeAllocator) LookupPTEs(physical uintptr) *PTEs {
	r.mu.Lock()
	defer r.mu.Unlock()
	ptes, ok := r.byPhysical[physical]
	if !ok {
		panic(fmt.Sprintf("no PTEs at physical address %#x", physical))
	}
	return ptes
}

// FreePTEs implements Allocator.FreePTEs.
func (r *RuntimeAllocator) FreePTEs(ptes *PTEs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freed = append(r.freed, ptes)
}

// InUse returns the number of tables allocated and not yet freed.
func (r *RuntimeAllocator) InUse() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.used) - len(r.pool) - len(r.freed)
}

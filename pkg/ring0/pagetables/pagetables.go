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

// Package pagetables provides a generic implementation of pagetables.
//
// The tables have the shape of RISC-V SV39: three levels of 512 entries,
// indexed by bits [38:30], [29:21] and [20:12] of the virtual address, mapping
// 4K pages.
package pagetables

import (
	"fmt"

	"tsys.dev/tsys/pkg/hostarch"
)

// PageTables is a set of page tables.
type PageTables struct {
	// Allocator is used to allocate nodes.
	Allocator Allocator

	// root is the pagetable root.
	root *PTEs

	// rootPhysical is the cached physical address of the root.
	//
	// This is saved only to prevent constant translation.
	rootPhysical uintptr
}

// New returns new PageTables.
func New(a Allocator) *PageTables {
	p := new(PageTables)
	p.Init(a)
	return p
}

// Init initializes a set of PageTables.
func (p *PageTables) Init(allocator Allocator) {
	p.Allocator = allocator
	p.root = p.Allocator.NewPTEs()
	p.rootPhysical = p.Allocator.PhysicalFor(p.root)
}

// satpModeSV39 is the MODE field of satp selecting SV39 translation.
const satpModeSV39 = 8 << 60

// Token returns the satp value that activates these tables.
func (p *PageTables) Token() uint64 {
	return satpModeSV39 | uint64(p.rootPhysical>>pteShift)
}

// mapVisitor is used for map.
type mapVisitor struct {
	target   uintptr // Input.
	physical uintptr // Input.
	opts     MapOpts // Input.
	prev     bool    // Output.
}

// visit is used for map.
func (v *mapVisitor) visit(start uintptr, pte *PTE, align uintptr) bool {
	p := v.physical + (start - v.target)
	if pte.Valid() && (pte.Address() != p || pte.Opts() != v.opts) {
		v.prev = true
	}
	if !v.opts.AccessType.Any() {
		// Done: clear this entry.
		pte.Clear()
		return true
	}
	pte.Set(p, v.opts)
	return true
}

func (*mapVisitor) requiresAlloc() bool { return true }

// Map installs a mapping with the given physical address.
//
// True is returned iff there was a previous mapping in the range.
//
// Precondition: addr & length must be page-aligned, their sum must not overflow.
func (p *PageTables) Map(addr hostarch.Addr, length uintptr, opts MapOpts, physical uintptr) bool {
	if !opts.AccessType.Any() {
		return p.Unmap(addr, length)
	}
	w := Walker{
		pageTables: p,
		visitor: &mapVisitor{
			target:   uintptr(addr),
			physical: physical,
			opts:     opts,
		},
	}
	w.iterateRange(uintptr(addr), uintptr(addr)+length)
	return w.visitor.(*mapVisitor).prev
}

// unmapVisitor is used for unmap.
type unmapVisitor struct {
	count int
}

func (*unmapVisitor) requiresAlloc() bool { return false }

// visit unmaps the given entry.
func (v *unmapVisitor) visit(start uintptr, pte *PTE, align uintptr) bool {
	pte.Clear()
	v.count++
	return true
}

// Unmap unmaps the given range.
//
// True is returned iff there was a previous mapping in the range.
//
// Precondition: addr & length must be page-aligned, their sum must not overflow.
func (p *PageTables) Unmap(addr hostarch.Addr, length uintptr) bool {
	w := Walker{
		pageTables: p,
		visitor:    &unmapVisitor{},
	}
	w.iterateRange(uintptr(addr), uintptr(addr)+length)
	return w.visitor.(*unmapVisitor).count > 0
}

// emptyVisitor is used for emptiness checks.
type emptyVisitor struct {
	count int
}

func (*emptyVisitor) requiresAlloc() bool { return false }

// visit counts the given entry.
func (v *emptyVisitor) visit(start uintptr, pte *PTE, align uintptr) bool {
	v.count++
	return true
}

// IsEmpty checks if the given range is empty.
//
// Precondition: addr & length must be page-aligned.
func (p *PageTables) IsEmpty(addr hostarch.Addr, length uintptr) bool {
	w := Walker{
		pageTables: p,
		visitor:    &emptyVisitor{},
	}
	w.iterateRange(uintptr(addr), uintptr(addr)+length)
	return w.visitor.(*emptyVisitor).count == 0
}

// lookupVisitor is used for lookup.
type lookupVisitor struct {
	target   uintptr // Input & Output.
	physical uintptr // Output.
	size     uintptr // Output.
	opts     MapOpts // Output.
}

// visit matches the given address.
func (v *lookupVisitor) visit(start uintptr, pte *PTE, align uintptr) bool {
	if !pte.Valid() {
		return true
	}
	offset := start & align
	v.target = start - offset
	v.physical = pte.Address() + offset
	v.size = (align + 1)
	v.opts = pte.Opts()
	return true
}

func (*lookupVisitor) requiresAlloc() bool { return false }

// Lookup returns the physical address for the given virtual address.
//
// If size is zero, then no matching entry was found.
func (p *PageTables) Lookup(addr hostarch.Addr) (virtual hostarch.Addr, physical, size uintptr, opts MapOpts) {
	mask := uintptr(pteSize - 1)
	offset := uintptr(addr) & mask
	w := Walker{
		pageTables: p,
		visitor:    &lookupVisitor{target: uintptr(addr &^ hostarch.Addr(mask))},
	}
	w.iterateRange(uintptr(addr)&^mask, uintptr(addr)&^mask+pteSize)
	v := w.visitor.(*lookupVisitor)
	if v.size == 0 {
		return 0, 0, 0, MapOpts{}
	}
	return hostarch.Addr(v.target), v.physical + offset, v.size, v.opts
}

// Release frees every intermediate table and clears the root. The tables
// remain usable and start out empty.
func (p *PageTables) Release() {
	for i := range p.root {
		pgd := &p.root[i]
		if !pgd.Valid() {
			continue
		}
		if !pgd.isTable() {
			panic(fmt.Sprintf("unexpected leaf entry %#x at top level", uint64(*pgd)))
		}
		pmds := p.Allocator.LookupPTEs(pgd.Address())
		for j := range pmds {
			if pmds[j].Valid() && pmds[j].isTable() {
				p.Allocator.FreePTEs(p.Allocator.LookupPTEs(pmds[j].Address()))
			}
		}
		p.Allocator.FreePTEs(pmds)
		pgd.Clear()
	}
	p.Allocator.Recycle()
}

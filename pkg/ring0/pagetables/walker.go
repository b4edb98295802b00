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
)

// visitor is a generic type.
type visitor interface {
	// visit is called on each PTE. The returned boolean indicates whether
	// the walk should continue.
	visit(start uintptr, pte *PTE, align uintptr) bool

	// requiresAlloc indicates that new entries should be allocated within
	// the walked range.
	requiresAlloc() bool
}

// Walker walks page tables.
type Walker struct {
	// pageTables are the tables to walk.
	pageTables *PageTables

	// Visitor is the set of arguments.
	visitor visitor
}

// iterateRange iterates over all appropriate levels of page tables for the given range.
//
// If requiresAlloc is true, then Set _must_ be called on all given PTEs.
//
// Precondition: start must be page-aligned.
// Precondition: start must not be greater than end.
// Precondition: end must not exceed MaxAddress.
func (w *Walker) iterateRange(start, end uintptr) {
	if start%pteSize != 0 {
		panic(fmt.Sprintf("unaligned start: %v", start))
	}
	if start > end {
		panic(fmt.Sprintf("start %#x > end %#x", start, end))
	}
	if end > MaxAddress {
		panic(fmt.Sprintf("range [%#x, %#x) exceeds %#x", start, end, uintptr(MaxAddress)))
	}
	w.walkPGDs(w.pageTables.root, start, end)
}

// next returns the next address quantized by the given size.
func next(start uintptr, size uintptr) uintptr {
	start &= ^(size - 1)
	start += size
	return start
}

// addrEnd calculates the end of the address range for the given size covering addr.
// The result is the next boundary of size, or end if that comes earlier.
func addrEnd(addr, end, size uintptr) uintptr {
	next := next(addr, size)
	if next < addr || next > end {
		return end
	}
	return next
}

// walkPTEs iterates over the PTEs in the given range and calls the visitor for each one.
// Clear entries are counted if the visitor does not require allocation.
//
// Returns:
//   - ok: whether the walk was successful.
//   - clearEntries: number of clear entries.
func (w *Walker) walkPTEs(entries *PTEs, start, end uintptr) (bool, uint16) {
	var clearEntries uint16
	for start < end {
		pteIndex := uint16((start & pteMask) >> pteShift)
		entry := &entries[pteIndex]
		if !entry.Valid() && !w.visitor.requiresAlloc() {
			clearEntries++
			start += pteSize
			continue
		}

		// At this point, we are guaranteed that start%pteSize == 0.
		if !w.visitor.visit(start&^(pteSize-1), entry, pteSize-1) {
			return false, clearEntries
		}
		if !entry.Valid() && !w.visitor.requiresAlloc() {
			clearEntries++
		}

		// Note that the pte was changed.
		start += pteSize
	}
	return true, clearEntries
}

// walkTables iterates over the table entries of one intermediate level and
// descends into the level below, allocating tables when the visitor
// requires it and freeing tables that became empty.
//
// Returns:
//   - ok: whether the walk was successful.
//   - clearEntries: number of clear entries.
func (w *Walker) walkTables(entries *PTEs, start, end uintptr, shift uint, mask, size uintptr, descend func(*PTEs, uintptr, uintptr) (bool, uint16)) (bool, uint16) {
	var clearEntries uint16
	for start < end {
		var nextEntries *PTEs
		nextBoundary := addrEnd(start, end, size)
		index := uint16((start & mask) >> shift)
		entry := &entries[index]
		if !entry.Valid() {
			if !w.visitor.requiresAlloc() {
				// Skip over this entry.
				clearEntries++
				start = nextBoundary
				continue
			}

			// Allocate a new table.
			nextEntries = w.pageTables.Allocator.NewPTEs()
			entry.setPageTable(w.pageTables, nextEntries)
		} else if !entry.isTable() {
			// Only 4K leaves are ever installed.
			panic(fmt.Sprintf("leaf entry %#x at intermediate level for %#x", uint64(*entry), start))
		} else {
			nextEntries = w.pageTables.Allocator.LookupPTEs(entry.Address())
		}

		// Map the next level, since this is valid.
		ok, clearNext := descend(nextEntries, start, nextBoundary)
		if !ok {
			return false, clearEntries
		}

		// Check if we no longer need this page.
		if clearNext == entriesPerPage {
			entry.Clear()
			w.pageTables.Allocator.FreePTEs(nextEntries)
			clearEntries++
		}

		start = nextBoundary
	}
	return true, clearEntries
}

// walkPMDs iterates over the PMD entries in the given range.
func (w *Walker) walkPMDs(pmdEntries *PTEs, start, end uintptr) (bool, uint16) {
	return w.walkTables(pmdEntries, start, end, pmdShift, pmdMask, pmdSize, w.walkPTEs)
}

// walkPGDs iterates over the PGD entries in the given range.
func (w *Walker) walkPGDs(pgdEntries *PTEs, start, end uintptr) (bool, uint16) {
	return w.walkTables(pgdEntries, start, end, pgdShift, pgdMask, pgdSize, w.walkPMDs)
}

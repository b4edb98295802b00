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

// Package mm provides a memory management subsystem.
//
// A MemoryManager owns the user half of one task's address space. Each
// Mapping is backed page by page with frames from a pgalloc.MemoryFile, and
// the page table is kept in sync with the set of mappings at all times.
//
// Lock order: none. A MemoryManager belongs to exactly one task and is only
// used by the kernel while that task is running.
package mm

import (
	"slices"

	"github.com/google/btree"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/ring0/pagetables"
	"tsys.dev/tsys/pkg/sentry/pgalloc"
)

// MaxUserAddress is the first address past the user half of the SV39
// address space.
const MaxUserAddress hostarch.Addr = 1 << 38

// btreeDegree is the degree of the mapping set B-tree.
const btreeDegree = 8

// Mapping is a contiguous range of virtual pages backed by one frame each.
//
// Invariants: Range is page aligned and non-empty, it does not overlap any
// other Mapping of the same MemoryManager, and
// len(Frames) == Range.NumPages().
type Mapping struct {
	// Range is the mapped virtual address range.
	Range hostarch.AddrRange

	// Perms is the access granted to the task.
	Perms hostarch.AccessType

	// Frames holds the frame backing each page of Range, in order.
	Frames []pgalloc.Frame
}

// clone returns a deep copy of m.
func (m *Mapping) clone() Mapping {
	return Mapping{
		Range:  m.Range,
		Perms:  m.Perms,
		Frames: slices.Clone(m.Frames),
	}
}

// frameFor returns the frame backing the page containing addr.
//
// Precondition: m.Range.Contains(addr).
func (m *Mapping) frameFor(addr hostarch.Addr) pgalloc.Frame {
	return m.Frames[(addr-m.Range.Start)>>hostarch.PageShift]
}

func mappingLess(a, b *Mapping) bool {
	return a.Range.Start < b.Range.Start
}

// MemoryManager implements a virtual address space.
type MemoryManager struct {
	// mf provides frames. It is shared by every MemoryManager of a kernel.
	mf *pgalloc.MemoryFile

	// pt is the page table of this address space. Page table entries are
	// kept in sync with mappings.
	pt *pagetables.PageTables

	// mappings is the set of Mappings ordered by start address.
	mappings *btree.BTreeG[*Mapping]

	// usageFrames is the number of frames held by mappings.
	usageFrames uint64
}

// NewMemoryManager returns a new, empty MemoryManager.
func NewMemoryManager(mf *pgalloc.MemoryFile, alloc pagetables.Allocator) *MemoryManager {
	return &MemoryManager{
		mf:       mf,
		pt:       pagetables.New(alloc),
		mappings: btree.NewG(btreeDegree, mappingLess),
	}
}

// MemoryFile returns the frame pool used by mm.
func (mm *MemoryManager) MemoryFile() *pgalloc.MemoryFile {
	return mm.mf
}

// UsageFrames returns the number of frames held by this address space.
func (mm *MemoryManager) UsageFrames() uint64 {
	return mm.usageFrames
}

// NumMappings returns the number of mappings.
func (mm *MemoryManager) NumMappings() int {
	return mm.mappings.Len()
}

// Mappings returns copies of all mappings in address order.
func (mm *MemoryManager) Mappings() []Mapping {
	out := make([]Mapping, 0, mm.mappings.Len())
	mm.mappings.Ascend(func(m *Mapping) bool {
		out = append(out, m.clone())
		return true
	})
	return out
}

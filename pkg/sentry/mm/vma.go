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

package mm

import (
	"slices"

	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/ring0/pagetables"
)

// key returns a pivot for mapping set searches.
func key(addr hostarch.Addr) *Mapping {
	return &Mapping{Range: hostarch.AddrRange{Start: addr, End: addr}}
}

// overlapping returns the mappings that overlap ar, in address order.
func (mm *MemoryManager) overlapping(ar hostarch.AddrRange) []*Mapping {
	// Start from the last mapping that begins at or before ar.Start, since
	// it may extend into ar.
	from := ar.Start
	mm.mappings.DescendLessOrEqual(key(ar.Start), func(m *Mapping) bool {
		from = m.Range.Start
		return false
	})
	var out []*Mapping
	mm.mappings.AscendGreaterOrEqual(key(from), func(m *Mapping) bool {
		if m.Range.Start >= ar.End {
			return false
		}
		if m.Range.Overlaps(ar) {
			out = append(out, m)
		}
		return true
	})
	return out
}

// covers returns true if ms, sorted and disjoint, cover every page of ar.
func covers(ms []*Mapping, ar hostarch.AddrRange) bool {
	next := ar.Start
	for _, m := range ms {
		if m.Range.Start > next {
			return false
		}
		if m.Range.End > next {
			next = m.Range.End
		}
		if next >= ar.End {
			return true
		}
	}
	return next >= ar.End
}

// mapPages installs one page table entry per frame of m.
func (mm *MemoryManager) mapPages(m *Mapping) {
	opts := pagetables.MapOpts{AccessType: m.Perms, User: true}
	for i, f := range m.Frames {
		addr := m.Range.Start + hostarch.Addr(i)*hostarch.PageSize
		mm.pt.Map(addr, hostarch.PageSize, opts, f.Physical())
	}
}

// removeRange removes ar from m, which must overlap it. Page table entries
// for the removed pages are cleared and their frames freed; what remains of m
// on either side of ar is reinserted as separate mappings.
func (mm *MemoryManager) removeRange(m *Mapping, ar hostarch.AddrRange) {
	cut := m.Range.Intersect(ar)
	first := (cut.Start - m.Range.Start) >> hostarch.PageShift
	last := (cut.End - m.Range.Start) >> hostarch.PageShift

	mm.mappings.Delete(m)
	if m.Range.Start < cut.Start {
		mm.mappings.ReplaceOrInsert(&Mapping{
			Range:  hostarch.AddrRange{Start: m.Range.Start, End: cut.Start},
			Perms:  m.Perms,
			Frames: slices.Clone(m.Frames[:first]),
		})
	}
	if cut.End < m.Range.End {
		mm.mappings.ReplaceOrInsert(&Mapping{
			Range:  hostarch.AddrRange{Start: cut.End, End: m.Range.End},
			Perms:  m.Perms,
			Frames: slices.Clone(m.Frames[last:]),
		})
	}

	mm.pt.Unmap(cut.Start, uintptr(cut.Length()))
	for _, f := range m.Frames[first:last] {
		mm.mf.Free(f)
	}
	mm.usageFrames -= uint64(last - first)
}

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
	"testing"

	"github.com/google/go-cmp/cmp"
	"tsys.dev/tsys/pkg/hostarch"
)

type mapping struct {
	start  uintptr
	length uintptr
	addr   uintptr
	opts   MapOpts
}

type checkVisitor struct {
	expected []mapping // Input.
	current  int       // Temporary.
	found    []mapping // Output.
	failed   string    // Output.
}

func (v *checkVisitor) visit(start uintptr, pte *PTE, align uintptr) bool {
	v.found = append(v.found, mapping{
		start:  start,
		length: align + 1,
		addr:   pte.Address(),
		opts:   pte.Opts(),
	})
	if v.failed != "" {
		// Don't keep looking for errors.
		return false
	}

	if v.current >= len(v.expected) {
		v.failed = "more mappings than expected"
	} else if v.expected[v.current].start != start {
		v.failed = "start didn't match expected"
	} else if v.expected[v.current].length != (align + 1) {
		v.failed = "end didn't match expected"
	} else if v.expected[v.current].addr != pte.Address() {
		v.failed = "address didn't match expected"
	} else if v.expected[v.current].opts != pte.Opts() {
		v.failed = "opts didn't match"
	}
	v.current++
	return true
}

func (*checkVisitor) requiresAlloc() bool { return false }

func checkMappings(t *testing.T, pt *PageTables, m []mapping) {
	t.Helper()
	// Iterate over all the mappings.
	w := Walker{
		pageTables: pt,
		visitor: &checkVisitor{
			expected: m,
		},
	}
	w.iterateRange(0, MaxAddress)

	// Were we expected additional mappings?
	if w.visitor.(*checkVisitor).failed == "" && w.visitor.(*checkVisitor).current != len(w.visitor.(*checkVisitor).expected) {
		w.visitor.(*checkVisitor).failed = "insufficient mappings found"
	}

	// Emit a meaningful error message on failure.
	if w.visitor.(*checkVisitor).failed != "" {
		t.Errorf("%s; got %#v, wanted %#v", w.visitor.(*checkVisitor).failed, w.visitor.(*checkVisitor).found, w.visitor.(*checkVisitor).expected)
	}
}

var (
	rw   = MapOpts{AccessType: hostarch.ReadWrite, User: true}
	ro   = MapOpts{AccessType: hostarch.Read, User: true}
	wo   = MapOpts{AccessType: hostarch.Write, User: true}
	rwxk = MapOpts{AccessType: hostarch.AnyAccess}
)

func TestAllocFree(t *testing.T) {
	a := NewRuntimeAllocator()
	pt := New(a)
	pt.Release()
	if got := a.InUse(); got != 1 {
		t.Errorf("InUse() = %d, want 1 (root only)", got)
	}
}

func TestUnmap(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Map and unmap one entry.
	pt.Map(0x400000, pteSize, rw, pteSize*42)
	pt.Unmap(0x400000, pteSize)

	checkMappings(t, pt, nil)
}

func TestReadOnly(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Map one entry.
	pt.Map(0x400000, pteSize, ro, pteSize*42)

	checkMappings(t, pt, []mapping{
		{0x400000, pteSize, pteSize * 42, ro},
	})
}

func TestReadWrite(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Map one entry.
	pt.Map(0x400000, pteSize, rw, pteSize*42)

	checkMappings(t, pt, []mapping{
		{0x400000, pteSize, pteSize * 42, rw},
	})
}

func TestWriteOnly(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	pt.Map(0x1000, pteSize, wo, pteSize*7)

	checkMappings(t, pt, []mapping{
		{0x1000, pteSize, pteSize * 7, wo},
	})
}

func TestSerialEntries(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Map two sequential entries.
	pt.Map(0x400000, pteSize, rw, pteSize*42)
	pt.Map(0x401000, pteSize, rw, pteSize*47)

	checkMappings(t, pt, []mapping{
		{0x400000, pteSize, pteSize * 42, rw},
		{0x401000, pteSize, pteSize * 47, rw},
	})
}

func TestSpanningEntries(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Span a pmd boundary: the range is translated one page at a time with
	// contiguous physical addresses.
	pt.Map(pmdSize-pteSize, 2*pteSize, ro, pteSize*42)

	checkMappings(t, pt, []mapping{
		{pmdSize - pteSize, pteSize, pteSize * 42, ro},
		{pmdSize, pteSize, pteSize * 43, ro},
	})
}

func TestSparseEntries(t *testing.T) {
	pt := New(NewRuntimeAllocator())

	// Map two entries in different pgds.
	pt.Map(0x400000, pteSize, rw, pteSize*42)
	pt.Map(0x40000000, pteSize, rwxk, pteSize*47)

	checkMappings(t, pt, []mapping{
		{0x400000, pteSize, pteSize * 42, rw},
		{0x40000000, pteSize, pteSize * 47, rwxk},
	})
}

func TestMapReturnsPrevious(t *testing.T) {
	pt := New(NewRuntimeAllocator())
	if pt.Map(0x1000, pteSize, rw, pteSize*5) {
		t.Errorf("Map on empty range reported a previous mapping")
	}
	if pt.Map(0x1000, pteSize, rw, pteSize*5) {
		t.Errorf("identical Map reported a changed mapping")
	}
	if !pt.Map(0x1000, pteSize, ro, pteSize*5) {
		t.Errorf("Map with new permissions did not report a changed mapping")
	}
	if !pt.Unmap(0x1000, pteSize) {
		t.Errorf("Unmap of mapped page returned false")
	}
	if pt.Unmap(0x1000, pteSize) {
		t.Errorf("Unmap of unmapped page returned true")
	}
}

func TestLookup(t *testing.T) {
	pt := New(NewRuntimeAllocator())
	pt.Map(0x3000, 2*pteSize, rw, pteSize*100)

	for _, tc := range []struct {
		addr     hostarch.Addr
		virtual  hostarch.Addr
		physical uintptr
		size     uintptr
		opts     MapOpts
	}{
		{0x3000, 0x3000, pteSize * 100, pteSize, rw},
		{0x3abc, 0x3000, pteSize*100 + 0xabc, pteSize, rw},
		{0x4fff, 0x4000, pteSize*101 + 0xfff, pteSize, rw},
		{0x5000, 0, 0, 0, MapOpts{}},
		{0x2fff, 0, 0, 0, MapOpts{}},
	} {
		virtual, physical, size, opts := pt.Lookup(tc.addr)
		if virtual != tc.virtual || physical != tc.physical || size != tc.size || opts != tc.opts {
			t.Errorf("Lookup(%v) = %v, %#x, %#x, %v; want %v, %#x, %#x, %v",
				tc.addr, virtual, physical, size, opts, tc.virtual, tc.physical, tc.size, tc.opts)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	pt := New(NewRuntimeAllocator())
	pt.Map(0x5000, pteSize, rw, pteSize*3)
	if pt.IsEmpty(0x4000, 2*pteSize) {
		t.Errorf("IsEmpty over a mapped page = true")
	}
	if !pt.IsEmpty(0x6000, 4*pteSize) {
		t.Errorf("IsEmpty over unmapped pages = false")
	}
	if !pt.IsEmpty(0x5000, 0) {
		t.Errorf("IsEmpty over an empty range = false")
	}
}

func TestTablesFreed(t *testing.T) {
	a := NewRuntimeAllocator()
	pt := New(a)

	// One pgd entry holding one pmd table holding one pte table.
	pt.Map(0, pmdSize, rw, pteSize*10)
	if got := a.InUse(); got != 3 {
		t.Fatalf("InUse() after Map = %d, want 3", got)
	}

	// Unmapping the whole pmd range empties the pte table. The pmd table
	// is only freed once a walk covers all of its entries.
	pt.Unmap(0, pmdSize)
	if got := a.InUse(); got != 2 {
		t.Errorf("InUse() after Unmap = %d, want 2", got)
	}
	checkMappings(t, pt, nil)
	if got := a.InUse(); got != 1 {
		t.Errorf("InUse() after full walk = %d, want 1", got)
	}
}

func TestRelease(t *testing.T) {
	a := NewRuntimeAllocator()
	pt := New(a)
	pt.Map(0x1000, pteSize, rw, pteSize*10)
	pt.Map(0x40000000, pteSize, rw, pteSize*11)
	pt.Release()
	if got := a.InUse(); got != 1 {
		t.Errorf("InUse() after Release = %d, want 1", got)
	}
	checkMappings(t, pt, nil)

	// Recycled tables are reused and come back empty.
	pt.Map(0x2000, pteSize, ro, pteSize*12)
	checkMappings(t, pt, []mapping{
		{0x2000, pteSize, pteSize * 12, ro},
	})
}

func TestToken(t *testing.T) {
	pt := New(NewRuntimeAllocator())
	want := uint64(8)<<60 | uint64(tableBase>>pteShift)
	if got := pt.Token(); got != want {
		t.Errorf("Token() = %#x, want %#x", got, want)
	}
}

func TestPTEOpts(t *testing.T) {
	for _, opts := range []MapOpts{rw, ro, wo, rwxk, {AccessType: hostarch.Execute, Global: true}} {
		var p PTE
		p.Set(0xabc000, opts)
		if diff := cmp.Diff(opts, p.Opts()); diff != "" {
			t.Errorf("Opts() mismatch (-want +got):\n%s", diff)
		}
		if got := p.Address(); got != 0xabc000 {
			t.Errorf("Address() = %#x, want 0xabc000", got)
		}
		if p.isTable() {
			t.Errorf("leaf %v reported as table", opts)
		}
	}
	var p PTE
	p.Set(0x1000, MapOpts{})
	if p.Valid() {
		t.Errorf("Set with no access left a valid entry")
	}
}

func TestOutOfRangePanics(t *testing.T) {
	pt := New(NewRuntimeAllocator())
	defer func() {
		if recover() == nil {
			t.Errorf("Map beyond MaxAddress did not panic")
		}
	}()
	pt.Map(MaxAddress, pteSize, rw, 0)
}

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
	"bytes"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/errors"
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/marshal/primitive"
	"tsys.dev/tsys/pkg/ring0/pagetables"
	"tsys.dev/tsys/pkg/sentry/pgalloc"
)

func testMemoryManager(t *testing.T, frames uint64) (*MemoryManager, *pgalloc.MemoryFile) {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(pgalloc.MemoryFileOpts{Frames: frames})
	if err != nil {
		t.Fatalf("NewMemoryFile failed: %v", err)
	}
	return NewMemoryManager(mf, pagetables.NewRuntimeAllocator()), mf
}

func mustMMap(t *testing.T, mm *MemoryManager, addr hostarch.Addr, length uint64, prot tsys.Prot) {
	t.Helper()
	if err := mm.MMap(MMapOpts{Addr: addr, Length: length, Prot: prot}); err != nil {
		t.Fatalf("MMap(%v, %#x, %v) failed: %v", addr, length, prot, err)
	}
}

// heapAllocated returns the bytes allocated on the heap by fn.
func heapAllocated(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

// permissions returns the access installed in the page table for the page
// containing addr. ok is false if the page is not mapped.
func permissions(mm *MemoryManager, addr hostarch.Addr) (hostarch.AccessType, bool) {
	_, _, size, opts := mm.pt.Lookup(addr)
	if size == 0 || !opts.User {
		return hostarch.NoAccess, false
	}
	return opts.AccessType, true
}

// checkPages verifies the access of every page in ar. ok is false for
// pages expected to be unmapped.
func checkPages(t *testing.T, mm *MemoryManager, ar hostarch.AddrRange, want hostarch.AccessType, mapped bool) {
	t.Helper()
	for addr := ar.Start; addr < ar.End; addr += hostarch.PageSize {
		got, ok := permissions(mm, addr)
		if ok != mapped {
			t.Errorf("page %v: mapped = %t, want %t", addr, ok, mapped)
			continue
		}
		if mapped && got != want {
			t.Errorf("page %v access = %v, want %v", addr, got, want)
		}
	}
}

func TestMMapRoundTrip(t *testing.T) {
	for prot := tsys.PROT_READ; prot <= tsys.PROT_MASK; prot++ {
		t.Run(prot.String(), func(t *testing.T) {
			mm, mf := testMemoryManager(t, 16)
			ar := hostarch.AddrRange{Start: 0x4000, End: 0x7000}
			mustMMap(t, mm, ar.Start, ar.Length(), prot)
			checkPages(t, mm, ar, prot.AccessType(), true)
			if got := mm.UsageFrames(); got != 3 {
				t.Errorf("UsageFrames() = %d, want 3", got)
			}

			if err := mm.MUnmap(ar.Start, ar.Length()); err != nil {
				t.Fatalf("MUnmap failed: %v", err)
			}
			checkPages(t, mm, ar, hostarch.NoAccess, false)
			if got := mf.Allocated(); got != 0 {
				t.Errorf("Allocated() = %d after munmap, want 0", got)
			}
			if got := mm.NumMappings(); got != 0 {
				t.Errorf("NumMappings() = %d, want 0", got)
			}
		})
	}
}

func TestMMapZeroLength(t *testing.T) {
	mm, mf := testMemoryManager(t, 4)
	for _, opts := range []MMapOpts{
		{Addr: 0x1000, Prot: tsys.PROT_READ},
		{Addr: 0x1001, Prot: tsys.PROT_READ},
		{Addr: 0x1000, Prot: 0x10},
		{Addr: MaxUserAddress, Prot: tsys.PROT_NONE},
	} {
		if err := mm.MMap(opts); err != nil {
			t.Errorf("MMap(%+v) = %v, want nil", opts, err)
		}
	}
	if mm.NumMappings() != 0 || mf.Allocated() != 0 {
		t.Errorf("zero length mmap changed state: %d mappings, %d frames", mm.NumMappings(), mf.Allocated())
	}
}

func TestMMapErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		opts  MMapOpts
		want  error
		errno *errors.Error
	}{
		{
			name:  "unaligned",
			opts:  MMapOpts{Addr: 0x1800, Length: 0x1000, Prot: tsys.PROT_READ},
			want:  ErrInvalidAlignment,
			errno: linuxerr.EINVAL,
		},
		{
			name:  "unaligned and bad prot",
			opts:  MMapOpts{Addr: 0x1800, Length: 0x1000, Prot: 0x8},
			want:  ErrInvalidAlignment,
			errno: linuxerr.EINVAL,
		},
		{
			name:  "no access",
			opts:  MMapOpts{Addr: 0x1000, Length: 0x1000, Prot: tsys.PROT_NONE},
			want:  ErrInvalidPermission,
			errno: linuxerr.EINVAL,
		},
		{
			name:  "undefined bit",
			opts:  MMapOpts{Addr: 0x1000, Length: 0x1000, Prot: tsys.PROT_READ | 0x8},
			want:  ErrInvalidPermission,
			errno: linuxerr.EINVAL,
		},
		{
			name:  "past user space",
			opts:  MMapOpts{Addr: MaxUserAddress - 0x1000, Length: 0x2000, Prot: tsys.PROT_READ},
			want:  ErrAddressRange,
			errno: linuxerr.ENOMEM,
		},
		{
			name:  "length overflow",
			opts:  MMapOpts{Addr: 0x1000, Length: ^uint64(0), Prot: tsys.PROT_READ},
			want:  ErrAddressRange,
			errno: linuxerr.ENOMEM,
		},
		{
			name:  "too many frames",
			opts:  MMapOpts{Addr: 0x1000, Length: 5 * hostarch.PageSize, Prot: tsys.PROT_READ},
			want:  ErrOutOfMemory,
			errno: linuxerr.ENOMEM,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mm, mf := testMemoryManager(t, 4)
			err := mm.MMap(tc.opts)
			if err != tc.want {
				t.Fatalf("MMap(%+v) = %v, want %v", tc.opts, err, tc.want)
			}
			if !linuxerr.Equals(tc.errno, err) {
				t.Errorf("MMap(%+v) = %v, want errno %v", tc.opts, err, tc.errno.Errno())
			}
			if mm.NumMappings() != 0 || mf.Allocated() != 0 {
				t.Errorf("failed mmap changed state: %d mappings, %d frames", mm.NumMappings(), mf.Allocated())
			}
		})
	}
}

func TestMMapOutOfMemoryKeepsExisting(t *testing.T) {
	mm, mf := testMemoryManager(t, 4)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	if err := mm.MMap(MMapOpts{Addr: 0x10000, Length: 3 * hostarch.PageSize, Prot: tsys.PROT_READ}); err != ErrOutOfMemory {
		t.Fatalf("MMap = %v, want %v", err, ErrOutOfMemory)
	}
	if got := mf.Allocated(); got != 2 {
		t.Errorf("Allocated() = %d, want 2", got)
	}
	checkPages(t, mm, hostarch.AddrRange{Start: 0x10000, End: 0x13000}, hostarch.NoAccess, false)
	checkPages(t, mm, hostarch.AddrRange{Start: 0x1000, End: 0x3000}, hostarch.ReadWrite, true)

	// The staged frames went back to the pool.
	mustMMap(t, mm, 0x10000, 2*hostarch.PageSize, tsys.PROT_READ)
}

func TestMMapWholeAddressSpaceOutOfMemory(t *testing.T) {
	mm, mf := testMemoryManager(t, 4)
	var err error
	allocated := heapAllocated(func() {
		err = mm.MMap(MMapOpts{Addr: 0, Length: uint64(MaxUserAddress), Prot: tsys.PROT_READ})
	})
	if err != ErrOutOfMemory {
		t.Fatalf("MMap = %v, want %v", err, ErrOutOfMemory)
	}
	if allocated > 1<<20 {
		t.Errorf("failed MMap allocated %d bytes", allocated)
	}
	if got := mf.Allocated(); got != 0 {
		t.Errorf("Allocated() = %d, want 0", got)
	}
	if got := mm.NumMappings(); got != 0 {
		t.Errorf("NumMappings() = %d, want 0", got)
	}
}

func TestMMapOverlap(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x2000, 2*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	data := []byte("still here")
	if _, err := mm.CopyOutBytes(0x2ff8, data); err != nil {
		t.Fatalf("CopyOutBytes failed: %v", err)
	}

	for _, opts := range []MMapOpts{
		{Addr: 0x2000, Length: hostarch.PageSize, Prot: tsys.PROT_READ},
		{Addr: 0x3000, Length: 1, Prot: tsys.PROT_EXEC},
		{Addr: 0x1000, Length: 2 * hostarch.PageSize, Prot: tsys.PROT_READ},
		{Addr: 0x1000, Length: 8 * hostarch.PageSize, Prot: tsys.PROT_READ},
	} {
		if err := mm.MMap(opts); err != ErrOverlap {
			t.Errorf("MMap(%+v) = %v, want %v", opts, err, ErrOverlap)
		}
	}

	checkPages(t, mm, hostarch.AddrRange{Start: 0x2000, End: 0x4000}, hostarch.ReadWrite, true)
	checkPages(t, mm, hostarch.AddrRange{Start: 0x1000, End: 0x2000}, hostarch.NoAccess, false)
	got := make([]byte, len(data))
	if _, err := mm.CopyInBytes(0x2ff8, got); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("CopyInBytes = %q, want %q", got, data)
	}
	if got := mm.NumMappings(); got != 1 {
		t.Errorf("NumMappings() = %d, want 1", got)
	}
}

func TestMMapAdjacent(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x2000, hostarch.PageSize, tsys.PROT_READ)
	mustMMap(t, mm, 0x1000, hostarch.PageSize, tsys.PROT_WRITE)
	mustMMap(t, mm, 0x3000, 1, tsys.PROT_EXEC)
	if got := mm.NumMappings(); got != 3 {
		t.Errorf("NumMappings() = %d, want 3", got)
	}
}

func TestMUnmapErrors(t *testing.T) {
	mm, mf := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ)
	for _, tc := range []struct {
		name   string
		addr   hostarch.Addr
		length uint64
		want   error
	}{
		{name: "unaligned", addr: 0x1800, length: 0x1000, want: ErrInvalidAlignment},
		{name: "unaligned zero length", addr: 0x1800, length: 0, want: ErrInvalidAlignment},
		{name: "zero length", addr: 0x9000, length: 0, want: nil},
		{name: "tail unmapped", addr: 0x1000, length: 3 * hostarch.PageSize, want: ErrNotMapped},
		{name: "head unmapped", addr: 0, length: 2 * hostarch.PageSize, want: ErrNotMapped},
		{name: "nothing mapped", addr: 0x8000, length: hostarch.PageSize, want: ErrNotMapped},
		{name: "overflow", addr: 0x1000, length: ^uint64(0), want: ErrNotMapped},
		{name: "past user space", addr: MaxUserAddress, length: hostarch.PageSize, want: ErrNotMapped},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := mm.MUnmap(tc.addr, tc.length); err != tc.want {
				t.Errorf("MUnmap(%v, %#x) = %v, want %v", tc.addr, tc.length, err, tc.want)
			}
			checkPages(t, mm, hostarch.AddrRange{Start: 0x1000, End: 0x3000}, hostarch.Read, true)
			if got := mf.Allocated(); got != 2 {
				t.Errorf("Allocated() = %d, want 2", got)
			}
		})
	}
}

func TestMUnmapHole(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, hostarch.PageSize, tsys.PROT_READ)
	mustMMap(t, mm, 0x3000, hostarch.PageSize, tsys.PROT_READ)
	if err := mm.MUnmap(0x1000, 3*hostarch.PageSize); err != ErrNotMapped {
		t.Fatalf("MUnmap over a hole = %v, want %v", err, ErrNotMapped)
	}
	checkPages(t, mm, hostarch.AddrRange{Start: 0x1000, End: 0x2000}, hostarch.Read, true)
	checkPages(t, mm, hostarch.AddrRange{Start: 0x3000, End: 0x4000}, hostarch.Read, true)
}

func TestMUnmapSplit(t *testing.T) {
	mm, mf := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x10000, 4*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	frames := mm.Mappings()[0].Frames

	if err := mm.MUnmap(0x11000, 1); err != nil {
		t.Fatalf("MUnmap failed: %v", err)
	}
	want := []Mapping{
		{
			Range:  hostarch.AddrRange{Start: 0x10000, End: 0x11000},
			Perms:  hostarch.ReadWrite,
			Frames: frames[:1],
		},
		{
			Range:  hostarch.AddrRange{Start: 0x12000, End: 0x14000},
			Perms:  hostarch.ReadWrite,
			Frames: frames[2:],
		},
	}
	if diff := cmp.Diff(want, mm.Mappings()); diff != "" {
		t.Errorf("Mappings() mismatch (-want +got):\n%s", diff)
	}
	checkPages(t, mm, hostarch.AddrRange{Start: 0x11000, End: 0x12000}, hostarch.NoAccess, false)
	if got := mf.Allocated(); got != 3 {
		t.Errorf("Allocated() = %d, want 3", got)
	}
	if got := mm.UsageFrames(); got != 3 {
		t.Errorf("UsageFrames() = %d, want 3", got)
	}
}

func TestMUnmapAcrossMappings(t *testing.T) {
	mm, mf := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ)
	mustMMap(t, mm, 0x3000, 2*hostarch.PageSize, tsys.PROT_WRITE)
	first := mm.Mappings()

	if err := mm.MUnmap(0x2000, 2*hostarch.PageSize); err != nil {
		t.Fatalf("MUnmap failed: %v", err)
	}
	want := []Mapping{
		{
			Range:  hostarch.AddrRange{Start: 0x1000, End: 0x2000},
			Perms:  hostarch.Read,
			Frames: first[0].Frames[:1],
		},
		{
			Range:  hostarch.AddrRange{Start: 0x4000, End: 0x5000},
			Perms:  hostarch.Write,
			Frames: first[1].Frames[1:],
		},
	}
	if diff := cmp.Diff(want, mm.Mappings()); diff != "" {
		t.Errorf("Mappings() mismatch (-want +got):\n%s", diff)
	}
	if got := mf.Allocated(); got != 2 {
		t.Errorf("Allocated() = %d, want 2", got)
	}
}

func TestReadWriteScenario(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 0x2000, tsys.Prot(0b011))

	addr := hostarch.Addr(0x1000 + 0x1500)
	if _, err := mm.CopyOutBytes(addr, []byte{0x5a}); err != nil {
		t.Fatalf("CopyOutBytes failed: %v", err)
	}
	b := make([]byte, 1)
	if _, err := mm.CopyInBytes(addr, b); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if b[0] != 0x5a {
		t.Errorf("read back %#x, want 0x5a", b[0])
	}

	if err := mm.MUnmap(0x1000, 0x2000); err != nil {
		t.Fatalf("MUnmap failed: %v", err)
	}
	mustMMap(t, mm, 0x1000, 0x2000, tsys.PROT_READ)

	// Fresh frames are zeroed and the new mapping is read-only.
	if _, err := mm.CopyInBytes(addr, b); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if b[0] != 0 {
		t.Errorf("read %#x from fresh mapping, want 0", b[0])
	}
	if _, err := mm.CopyOutBytes(addr, []byte{1}); !linuxerr.Equals(linuxerr.EFAULT, err) {
		t.Errorf("CopyOutBytes to read-only page = %v, want EFAULT", err)
	}
}

func TestTranslate(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	mustMMap(t, mm, 0x8000, hostarch.PageSize, tsys.PROT_READ)

	bs, err := mm.Translate(0x1ffe, 4, hostarch.Write)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	var lens []int
	for _, b := range bs {
		lens = append(lens, len(b))
	}
	if diff := cmp.Diff([]int{2, 2}, lens); diff != "" {
		t.Errorf("Translate slice lengths mismatch (-want +got):\n%s", diff)
	}

	if bs, err := mm.Translate(0x5000, 0, hostarch.Write); err != nil || bs != nil {
		t.Errorf("Translate of zero bytes = %v, %v, want nil, nil", bs, err)
	}

	for _, tc := range []struct {
		name   string
		addr   hostarch.Addr
		length uint64
		at     hostarch.AccessType
	}{
		{name: "unmapped", addr: 0x5000, length: 1, at: hostarch.Read},
		{name: "runs off mapping", addr: 0x2fff, length: 2, at: hostarch.Read},
		{name: "write to read-only", addr: 0x8000, length: 1, at: hostarch.Write},
		{name: "execute", addr: 0x1000, length: 1, at: hostarch.Execute},
		{name: "past user space", addr: MaxUserAddress - 1, length: 2, at: hostarch.Read},
		{name: "overflow", addr: ^hostarch.Addr(0), length: 2, at: hostarch.Read},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := mm.Translate(tc.addr, tc.length, tc.at); !linuxerr.Equals(linuxerr.EFAULT, err) {
				t.Errorf("Translate(%v, %d, %v) = %v, want EFAULT", tc.addr, tc.length, tc.at, err)
			}
		})
	}
}

func TestTranslateWholeAddressSpaceFaults(t *testing.T) {
	mm, _ := testMemoryManager(t, 4)
	mustMMap(t, mm, 0, hostarch.PageSize, tsys.PROT_READ)
	for _, tc := range []struct {
		name string
		addr hostarch.Addr
	}{
		{name: "empty", addr: hostarch.PageSize},
		{name: "mapped first page", addr: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			allocated := heapAllocated(func() {
				_, err = mm.Translate(tc.addr, uint64(MaxUserAddress-tc.addr), hostarch.Read)
			})
			if !linuxerr.Equals(linuxerr.EFAULT, err) {
				t.Fatalf("Translate = %v, want EFAULT", err)
			}
			if allocated > 1<<20 {
				t.Errorf("faulting Translate allocated %d bytes", allocated)
			}
		})
	}
}

func TestCopyOutAllOrNothing(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	if n, err := mm.CopyOutBytes(0x1ffe, []byte{1, 2, 3, 4}); err == nil || n != 0 {
		t.Fatalf("CopyOutBytes across unmapped page = %d, %v, want 0, EFAULT", n, err)
	}
	got := make([]byte, 2)
	if _, err := mm.CopyInBytes(0x1ffe, got); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0, 0}, got); diff != "" {
		t.Errorf("partial write happened (-want +got):\n%s", diff)
	}

	dst := []byte{9, 9, 9, 9}
	if _, err := mm.CopyInBytes(0x1ffe, dst); err == nil {
		t.Fatalf("CopyInBytes across unmapped page succeeded")
	}
	if diff := cmp.Diff([]byte{9, 9, 9, 9}, dst); diff != "" {
		t.Errorf("failed CopyInBytes modified dst (-want +got):\n%s", diff)
	}
}

func TestMarshalThroughMemory(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)

	v := primitive.Uint64(0x0102030405060708)
	if _, err := v.CopyOut(mm, 0x1ffc); err != nil {
		t.Fatalf("CopyOut failed: %v", err)
	}
	var back primitive.Uint64
	if _, err := back.CopyIn(mm, 0x1ffc); err != nil {
		t.Fatalf("CopyIn failed: %v", err)
	}
	if back != v {
		t.Errorf("CopyIn = %#x, want %#x", uint64(back), uint64(v))
	}

	b := make([]byte, 1)
	if _, err := mm.CopyInBytes(0x1ffc, b); err != nil {
		t.Fatalf("CopyInBytes failed: %v", err)
	}
	if b[0] != 0x08 {
		t.Errorf("first byte = %#x, want 0x08 (little endian)", b[0])
	}
}

func TestRelease(t *testing.T) {
	mm, mf := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x1000, 3*hostarch.PageSize, tsys.PROT_READ)
	mustMMap(t, mm, 0x40000000, 2*hostarch.PageSize, tsys.PROT_WRITE)
	if err := mm.MUnmap(0x2000, hostarch.PageSize); err != nil {
		t.Fatalf("MUnmap failed: %v", err)
	}
	mm.Release()
	if got := mf.Allocated(); got != 0 {
		t.Errorf("Allocated() = %d after Release, want 0", got)
	}
	if mm.NumMappings() != 0 || mm.UsageFrames() != 0 {
		t.Errorf("Release left %d mappings, %d frames", mm.NumMappings(), mm.UsageFrames())
	}
	checkPages(t, mm, hostarch.AddrRange{Start: 0x1000, End: 0x4000}, hostarch.NoAccess, false)
}

func TestWriteMaps(t *testing.T) {
	mm, _ := testMemoryManager(t, 16)
	mustMMap(t, mm, 0x5000, hostarch.PageSize, tsys.PROT_READ|tsys.PROT_EXEC)
	mustMMap(t, mm, 0x1000, 2*hostarch.PageSize, tsys.PROT_READ|tsys.PROT_WRITE)
	want := "00001000-00003000 rw-p 00000000 00:00 0 \n" +
		"00005000-00006000 r-xp 00000000 00:00 0 \n"
	if got := mm.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMMapErrorsMetric(t *testing.T) {
	mm, _ := testMemoryManager(t, 4)
	before := mmapErrors.Value("overlap")
	mustMMap(t, mm, 0x1000, hostarch.PageSize, tsys.PROT_READ)
	if err := mm.MMap(MMapOpts{Addr: 0x1000, Length: 1, Prot: tsys.PROT_READ}); err != ErrOverlap {
		t.Fatalf("MMap = %v, want %v", err, ErrOverlap)
	}
	if got := mmapErrors.Value("overlap") - before; got != 1 {
		t.Errorf("overlap errors increased by %d, want 1", got)
	}
}

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
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/cleanup"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/log"
)

// MMapOpts specifies a request to create a mapping.
type MMapOpts struct {
	// Addr is the start of the mapping. It must be page aligned.
	Addr hostarch.Addr

	// Length is the length of the mapping in bytes. It is rounded up to a
	// whole number of pages.
	Length uint64

	// Prot is the access granted to the task. It holds the full syscall
	// argument, so undefined high bits are rejected.
	Prot tsys.Prot
}

// MMap establishes a mapping of fresh, zeroed frames at opts.Addr.
//
// A zero length succeeds without any other check. Otherwise the checks run
// in order: alignment, protection mask, address range, overlap, frame
// availability. On failure mm is unchanged.
func (mm *MemoryManager) MMap(opts MMapOpts) error {
	if opts.Length == 0 {
		return nil
	}
	if !opts.Addr.IsPageAligned() {
		return mmapFailed(ErrInvalidAlignment)
	}
	if !opts.Prot.Valid() {
		return mmapFailed(ErrInvalidPermission)
	}
	length, ok := hostarch.PageRoundUp(opts.Length)
	if !ok {
		return mmapFailed(ErrAddressRange)
	}
	ar, ok := opts.Addr.ToRange(length)
	if !ok || ar.End > MaxUserAddress {
		return mmapFailed(ErrAddressRange)
	}
	if len(mm.overlapping(ar)) != 0 {
		return mmapFailed(ErrOverlap)
	}

	// Stage every frame before touching the page table. AllocateN checks
	// availability before allocating anything.
	frames, err := mm.mf.AllocateN(ar.NumPages())
	if err != nil {
		log.Debugf("mmap %v: %v, %d of %d frames available", ar, err, mm.mf.Available(), ar.NumPages())
		return mmapFailed(ErrOutOfMemory)
	}
	cu := cleanup.Make(func() {
		for _, f := range frames {
			mm.mf.Free(f)
		}
	})
	defer cu.Clean()

	m := &Mapping{
		Range:  ar,
		Perms:  opts.Prot.AccessType(),
		Frames: frames,
	}
	mm.mapPages(m)
	mm.mappings.ReplaceOrInsert(m)
	mm.usageFrames += uint64(len(frames))
	cu.Release()
	return nil
}

// MUnmap removes every page of [addr, addr+roundup(length)). The range must
// be fully mapped, possibly by several mappings. Mappings that extend past
// either end of the range are split.
func (mm *MemoryManager) MUnmap(addr hostarch.Addr, length uint64) error {
	if !addr.IsPageAligned() {
		return ErrInvalidAlignment
	}
	if length == 0 {
		return nil
	}
	la, ok := hostarch.PageRoundUp(length)
	if !ok {
		return ErrNotMapped
	}
	ar, ok := addr.ToRange(la)
	if !ok || ar.End > MaxUserAddress {
		return ErrNotMapped
	}

	ms := mm.overlapping(ar)
	if !covers(ms, ar) {
		return ErrNotMapped
	}
	for _, m := range ms {
		mm.removeRange(m, ar)
	}
	return nil
}

// Release removes every mapping and returns all frames and page table pages.
// mm must not be used afterwards.
func (mm *MemoryManager) Release() {
	mm.mappings.Ascend(func(m *Mapping) bool {
		for _, f := range m.Frames {
			mm.mf.Free(f)
		}
		return true
	})
	mm.mappings.Clear(false)
	mm.usageFrames = 0
	mm.pt.Release()
}

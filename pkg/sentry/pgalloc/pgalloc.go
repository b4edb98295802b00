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

// Package pgalloc contains the physical frame allocator shared by all tasks.
//
// A MemoryFile owns a fixed arena of page frames. Frames are handed out from
// a bump pointer; released frames go onto a recycle stack and are reused
// before the bump pointer advances again. Every frame is zeroed on
// allocation.
package pgalloc

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
	"tsys.dev/tsys/pkg/errors"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/metric"
)

// ErrOutOfFrames is returned when the arena has no free frame left.
var ErrOutOfFrames = errors.New(unix.ENOMEM, "out of physical frames")

var (
	framesAllocated = metric.MustCreateNewUint64Metric("/tsys/mm/frames_allocated", "Number of physical frames handed out.")
	framesReleased  = metric.MustCreateNewUint64Metric("/tsys/mm/frames_released", "Number of physical frames returned.")
)

// Frame is a physical frame number.
type Frame uint64

// Physical returns the physical address of the start of f.
func (f Frame) Physical() uintptr {
	return uintptr(f) << hostarch.PageShift
}

// FrameOf returns the frame containing physical address p.
func FrameOf(p uintptr) Frame {
	return Frame(p >> hostarch.PageShift)
}

// String implements fmt.Stringer.String.
func (f Frame) String() string {
	return fmt.Sprintf("frame %#x", uint64(f))
}

// DefaultBaseFrame is the first frame of the arena unless configured
// otherwise. It matches the start of RAM on the virt board.
const DefaultBaseFrame Frame = 0x80000

// MemoryFileOpts provides options to NewMemoryFile.
type MemoryFileOpts struct {
	// Frames is the number of frames in the arena.
	Frames uint64

	// BaseFrame is the frame number of the first frame in the arena. Zero
	// selects DefaultBaseFrame.
	BaseFrame Frame
}

// MemoryFile is a fixed pool of physical frames. It is safe for concurrent
// use.
type MemoryFile struct {
	opts MemoryFileOpts

	// mu protects the fields below.
	mu sync.Mutex

	// arena backs every frame.
	arena []byte

	// current is the index of the first frame never handed out.
	current uint64

	// recycled holds indices of released frames, most recent last.
	recycled []uint64

	// inUse marks indices that are currently allocated.
	inUse []bool

	// allocated is the number of frames currently allocated.
	allocated uint64
}

// NewMemoryFile creates a MemoryFile with opts.Frames frames.
func NewMemoryFile(opts MemoryFileOpts) (*MemoryFile, error) {
	if opts.Frames == 0 {
		return nil, fmt.Errorf("memory file needs at least one frame")
	}
	if opts.BaseFrame == 0 {
		opts.BaseFrame = DefaultBaseFrame
	}
	if uint64(opts.BaseFrame)+opts.Frames < uint64(opts.BaseFrame) {
		return nil, fmt.Errorf("frame range [%#x, +%d) overflows", uint64(opts.BaseFrame), opts.Frames)
	}
	return &MemoryFile{
		opts:  opts,
		arena: make([]byte, opts.Frames*hostarch.PageSize),
		inUse: make([]bool, opts.Frames),
	}, nil
}

// Allocate returns a zeroed frame.
func (f *MemoryFile) Allocate() (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var idx uint64
	if n := len(f.recycled); n > 0 {
		idx = f.recycled[n-1]
		f.recycled = f.recycled[:n-1]
	} else if f.current < f.opts.Frames {
		idx = f.current
		f.current++
	} else {
		return 0, ErrOutOfFrames
	}
	f.inUse[idx] = true
	f.allocated++
	clear(f.bytesLocked(idx))
	framesAllocated.Increment()
	return f.opts.BaseFrame + Frame(idx), nil
}

// AllocateN allocates n frames. Either all n frames are returned or none
// are.
func (f *MemoryFile) AllocateN(n uint64) ([]Frame, error) {
	if n > f.Available() {
		return nil, ErrOutOfFrames
	}
	frames := make([]Frame, 0, n)
	for i := uint64(0); i < n; i++ {
		fr, err := f.Allocate()
		if err != nil {
			// Lost a race with another allocator.
			for _, fr := range frames {
				f.Free(fr)
			}
			return nil, err
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

// Free returns fr to the pool.
//
// Precondition: fr was returned by Allocate and has not been freed since.
func (f *MemoryFile) Free(fr Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.indexLocked(fr)
	if !f.inUse[idx] {
		panic(fmt.Sprintf("%v has not been allocated", fr))
	}
	f.inUse[idx] = false
	f.allocated--
	f.recycled = append(f.recycled, idx)
	framesReleased.Increment()
}

// Bytes returns the backing memory of fr. The slice aliases the frame and is
// only valid while fr remains allocated.
func (f *MemoryFile) Bytes(fr Frame) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.indexLocked(fr)
	if !f.inUse[idx] {
		panic(fmt.Sprintf("access to free %v", fr))
	}
	return f.bytesLocked(idx)
}

// Contains returns true if fr belongs to this arena.
func (f *MemoryFile) Contains(fr Frame) bool {
	return fr >= f.opts.BaseFrame && uint64(fr-f.opts.BaseFrame) < f.opts.Frames
}

// Total returns the number of frames in the arena.
func (f *MemoryFile) Total() uint64 {
	return f.opts.Frames
}

// Allocated returns the number of frames currently allocated.
func (f *MemoryFile) Allocated() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocated
}

// Available returns the number of frames that can still be allocated.
func (f *MemoryFile) Available() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts.Frames - f.allocated
}

// String implements fmt.Stringer.String.
func (f *MemoryFile) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := f.opts.BaseFrame
	return fmt.Sprintf("frames [%#x, %#x): %d allocated, %d recycled",
		uint64(base), uint64(base)+f.opts.Frames, f.allocated, len(f.recycled))
}

// +checklocks:f.mu
func (f *MemoryFile) indexLocked(fr Frame) uint64 {
	if !f.Contains(fr) {
		panic(fmt.Sprintf("%v outside arena [%#x, +%d)", fr, uint64(f.opts.BaseFrame), f.opts.Frames))
	}
	return uint64(fr - f.opts.BaseFrame)
}

// +checklocks:f.mu
func (f *MemoryFile) bytesLocked(idx uint64) []byte {
	off := idx * hostarch.PageSize
	return f.arena[off : off+hostarch.PageSize : off+hostarch.PageSize]
}

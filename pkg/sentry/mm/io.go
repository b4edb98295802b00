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
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/marshal"
	"tsys.dev/tsys/pkg/sentry/pgalloc"
)

var _ marshal.CopyContext = (*MemoryManager)(nil)

// CheckIORange is similar to hostarch.Addr.ToRange, but applies bounds checks
// consistent with the user address space.
//
// Preconditions: length >= 0.
func (mm *MemoryManager) CheckIORange(addr hostarch.Addr, length uint64) (hostarch.AddrRange, bool) {
	ar, ok := addr.ToRange(length)
	return ar, (ok && ar.End <= MaxUserAddress)
}

// Translate returns the kernel views of the bytes in [addr, addr+length),
// one slice per page touched. Every page must be mapped, user accessible and
// grant at; otherwise Translate returns EFAULT and no slices. The result grows
// only with pages that have been validated.
func (mm *MemoryManager) Translate(addr hostarch.Addr, length uint64, at hostarch.AccessType) ([][]byte, error) {
	if length == 0 {
		return nil, nil
	}
	ar, ok := mm.CheckIORange(addr, length)
	if !ok {
		return nil, linuxerr.EFAULT
	}
	var bs [][]byte
	for start := ar.Start; start < ar.End; {
		_, physical, size, opts := mm.pt.Lookup(start)
		if size == 0 || !opts.User || !opts.AccessType.SupersetOf(at) {
			return nil, linuxerr.EFAULT
		}
		fr := pgalloc.FrameOf(physical)
		if !mm.mf.Contains(fr) {
			return nil, linuxerr.EFAULT
		}
		end := start.RoundDown() + hostarch.PageSize
		if end > ar.End {
			end = ar.End
		}
		off := start.PageOffset()
		bs = append(bs, mm.mf.Bytes(fr)[off:off+uint64(end-start)])
		start = end
	}
	return bs, nil
}

// CopyOutBytes implements marshal.CopyContext.CopyOutBytes. Nothing is
// written unless the whole destination is writable.
func (mm *MemoryManager) CopyOutBytes(addr hostarch.Addr, src []byte) (int, error) {
	bs, err := mm.Translate(addr, uint64(len(src)), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range bs {
		n += copy(b, src[n:])
	}
	return n, nil
}

// CopyInBytes implements marshal.CopyContext.CopyInBytes. dst is unchanged
// unless the whole source is readable.
func (mm *MemoryManager) CopyInBytes(addr hostarch.Addr, dst []byte) (int, error) {
	bs, err := mm.Translate(addr, uint64(len(dst)), hostarch.Read)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range bs {
		n += copy(dst[n:], b)
	}
	return n, nil
}

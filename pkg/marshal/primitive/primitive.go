// Copyright 2020 The gVisor Authors.
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

// Package primitive defines marshal.Marshallable implementations for primitive
// types.
package primitive

import (
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/marshal"
)

// Uint8 is a marshal.Marshallable implementation for uint8.
type Uint8 uint8

// Uint32 is a marshal.Marshallable implementation for uint32.
type Uint32 uint32

// Uint64 is a marshal.Marshallable implementation for uint64.
type Uint64 uint64

var _ marshal.Marshallable = (*Uint8)(nil)
var _ marshal.Marshallable = (*Uint32)(nil)
var _ marshal.Marshallable = (*Uint64)(nil)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*Uint8) SizeBytes() int { return 1 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (u *Uint8) MarshalBytes(dst []byte) { dst[0] = byte(*u) }

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (u *Uint8) UnmarshalBytes(src []byte) { *u = Uint8(src[0]) }

// CopyOut implements marshal.Marshallable.CopyOut.
func (u *Uint8) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, u)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (u *Uint8) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, u)
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*Uint32) SizeBytes() int { return 4 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (u *Uint32) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(*u))
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (u *Uint32) UnmarshalBytes(src []byte) {
	*u = Uint32(hostarch.ByteOrder.Uint32(src[:4]))
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (u *Uint32) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, u)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (u *Uint32) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, u)
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*Uint64) SizeBytes() int { return 8 }

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (u *Uint64) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[:8], uint64(*u))
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (u *Uint64) UnmarshalBytes(src []byte) {
	*u = Uint64(hostarch.ByteOrder.Uint64(src[:8]))
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (u *Uint64) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, u)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (u *Uint64) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, u)
}

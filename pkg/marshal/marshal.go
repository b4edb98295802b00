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

// Package marshal defines the Marshallable interface for serialize/deserializing
// Go data structures to/from memory, according to the ABI.
//
// Implementations of this interface are hand written for the small set of
// wire structs exchanged with user tasks. All wire formats are little endian
// with C struct layout.
package marshal

import (
	"tsys.dev/tsys/pkg/hostarch"
)

// CopyContext defines the memory operations required to marshal to and from
// user memory. Users of this package must provide implementations of
// CopyContext.
type CopyContext interface {
	// CopyOutBytes copies the contents of src to the task's memory at addr.
	// Either all of src is copied or none of it is.
	CopyOutBytes(addr hostarch.Addr, src []byte) (int, error)

	// CopyInBytes copies len(dst) bytes from the task's memory at addr into
	// dst. Either all of dst is filled or none of it is.
	CopyInBytes(addr hostarch.Addr, dst []byte) (int, error)
}

// Marshallable represents operations on a type that can be marshalled to and
// from memory.
type Marshallable interface {
	// SizeBytes is the size of the memory representation of a type in
	// marshalled form.
	SizeBytes() int

	// MarshalBytes serializes a copy of a type to dst. dst must be at
	// least SizeBytes() long.
	MarshalBytes(dst []byte)

	// UnmarshalBytes deserializes a type from src. src must be at least
	// SizeBytes() long.
	UnmarshalBytes(src []byte)

	// CopyOut serializes a Marshallable type to a task's memory.
	CopyOut(cc CopyContext, addr hostarch.Addr) (int, error)

	// CopyIn deserializes a Marshallable type from a task's memory.
	CopyIn(cc CopyContext, addr hostarch.Addr) (int, error)
}

// CopyOut is the common implementation of Marshallable.CopyOut.
func CopyOut(cc CopyContext, addr hostarch.Addr, m Marshallable) (int, error) {
	buf := make([]byte, m.SizeBytes())
	m.MarshalBytes(buf)
	return cc.CopyOutBytes(addr, buf)
}

// CopyIn is the common implementation of Marshallable.CopyIn. m is only
// modified if the whole extent could be read.
func CopyIn(cc CopyContext, addr hostarch.Addr, m Marshallable) (int, error) {
	buf := make([]byte, m.SizeBytes())
	n, err := cc.CopyInBytes(addr, buf)
	if err != nil {
		return n, err
	}
	m.UnmarshalBytes(buf)
	return n, nil
}

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

// Package usage provides representations of resource usage.
package usage

import (
	"sync/atomic"
)

// IO contains I/O-related statistics.
type IO struct {
	// CharsWritten is the number of bytes written by write syscalls.
	CharsWritten uint64

	// WriteSyscalls is the number of successful write syscalls.
	WriteSyscalls uint64
}

// AccountWriteSyscall does the accounting for a write syscall.
func (i *IO) AccountWriteSyscall(bytes int64) {
	atomic.AddUint64(&i.WriteSyscalls, 1)
	if bytes > 0 {
		atomic.AddUint64(&i.CharsWritten, uint64(bytes))
	}
}

// Accumulate adds up io usages.
func (i *IO) Accumulate(io *IO) {
	atomic.AddUint64(&i.CharsWritten, atomic.LoadUint64(&io.CharsWritten))
	atomic.AddUint64(&i.WriteSyscalls, atomic.LoadUint64(&io.WriteSyscalls))
}

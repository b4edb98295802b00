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

package tsys

import (
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
	"tsys.dev/tsys/pkg/sentry/mm"
)

// Mmap implements mmap(start, len, prot).
func Mmap(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	opts := mm.MMapOpts{
		Addr:   args[0].Pointer(),
		Length: args[1].Uint64(),
		Prot:   tsys.Prot(args[2].Uint64()),
	}
	if err := t.MemoryManager().MMap(opts); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}

// Munmap implements munmap(start, len).
func Munmap(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	return 0, nil, t.MemoryManager().MUnmap(args[0].Pointer(), args[1].Uint64())
}

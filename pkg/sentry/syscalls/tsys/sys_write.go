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
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// stdoutFD is the only file descriptor a task can write to.
const stdoutFD = 1

// Write implements write(2) for standard output.
func Write(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	if fd != stdoutFD {
		return 0, nil, linuxerr.EBADF
	}
	bs, err := t.MemoryManager().Translate(addr, uint64(size), hostarch.Read)
	if err != nil {
		return 0, nil, err
	}
	var n int64
	for _, b := range bs {
		m, err := t.Kernel().Stdout().Write(b)
		n += int64(m)
		if err != nil {
			t.IOUsage().AccountWriteSyscall(n)
			if n > 0 {
				return uintptr(n), nil, nil
			}
			return 0, nil, err
		}
	}
	t.IOUsage().AccountWriteSyscall(n)
	return uintptr(n), nil, nil
}

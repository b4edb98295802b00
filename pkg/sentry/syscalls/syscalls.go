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

// Package syscalls is the interface from the application to the kernel.
// Traditionally, syscalls is the interface that is used by applications to
// request services from the kernel of a operating system.
//
// Note that the helpers in this package merely build table entries. The
// implementations live in the per-ABI subpackages.
package syscalls

import (
	"fmt"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// Supported returns a syscall table entry for an implemented syscall.
func Supported(kind tsys.Syscall, fn kernel.SyscallFn) kernel.Syscall {
	return kernel.Syscall{
		Name:         kind.String(),
		Kind:         kind,
		Fn:           fn,
		SupportLevel: kernel.SupportFull,
	}
}

// Error returns a syscall table entry whose handler always gives the passed
// error. The call is still accounted to the task.
func Error(kind tsys.Syscall, err error, note string) kernel.Syscall {
	if note != "" {
		note = note + "; "
	}
	return kernel.Syscall{
		Name:         kind.String(),
		Kind:         kind,
		SupportLevel: kernel.SupportUnimplemented,
		Note:         fmt.Sprintf("%sReturns %q.", note, err.Error()),
		Fn: func(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
			return 0, nil, err
		},
	}
}

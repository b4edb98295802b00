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

// Package tsys provides the syscall table of the tsys ABI and the
// implementations of its syscalls.
package tsys

import (
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/sentry/kernel"
	"tsys.dev/tsys/pkg/sentry/syscalls"
)

// Table is the tsys syscall table. Syscalls that are not listed fail with
// ENOSYS.
var Table = &kernel.SyscallTable{
	Name: "tsys",
	Table: map[uintptr]kernel.Syscall{
		tsys.SYS_WRITE:        syscalls.Supported(tsys.SyscallWrite, Write),
		tsys.SYS_EXIT:         syscalls.Supported(tsys.SyscallExit, Exit),
		tsys.SYS_YIELD:        syscalls.Supported(tsys.SyscallYield, Yield),
		tsys.SYS_SET_PRIORITY: syscalls.Error(tsys.SyscallSetPriority, linuxerr.EINVAL, "Task priorities are not supported"),
		tsys.SYS_GET_TIME:     syscalls.Supported(tsys.SyscallGetTime, GetTime),
		tsys.SYS_MUNMAP:       syscalls.Supported(tsys.SyscallMunmap, Munmap),
		tsys.SYS_MMAP:         syscalls.Supported(tsys.SyscallMmap, Mmap),
		tsys.SYS_TASK_INFO:    syscalls.Supported(tsys.SyscallTaskInfo, TaskInfo),
	},
}

func init() {
	kernel.RegisterSyscallTable(Table)
}

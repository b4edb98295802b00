// Copyright 2025 The gVisor Authors.
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

// Package tsys contains the constants and types of the tsys kernel ABI: the
// syscall numbers, memory protection bits and the structs exchanged with user
// tasks.
package tsys

import (
	"fmt"
)

// Syscall numbers.
const (
	SYS_WRITE        = 64
	SYS_EXIT         = 93
	SYS_YIELD        = 124
	SYS_SET_PRIORITY = 140
	SYS_GET_TIME     = 169
	SYS_MUNMAP       = 215
	SYS_MMAP         = 222
	SYS_TASK_INFO    = 410
)

// MaxSyscallNum bounds the syscall numbers reported in TaskInfo.
const MaxSyscallNum = 500

// Syscall enumerates the syscalls the kernel implements. Per-task accounting
// is indexed by Syscall, never by raw number.
type Syscall int

// Syscall kinds, in ABI number order.
const (
	SyscallWrite Syscall = iota
	SyscallExit
	SyscallYield
	SyscallSetPriority
	SyscallGetTime
	SyscallMunmap
	SyscallMmap
	SyscallTaskInfo

	// NumSyscalls is the number of syscall kinds.
	NumSyscalls
)

var syscallInfo = [NumSyscalls]struct {
	name   string
	number uintptr
}{
	SyscallWrite:       {"write", SYS_WRITE},
	SyscallExit:        {"exit", SYS_EXIT},
	SyscallYield:       {"yield", SYS_YIELD},
	SyscallSetPriority: {"set_priority", SYS_SET_PRIORITY},
	SyscallGetTime:     {"get_time", SYS_GET_TIME},
	SyscallMunmap:      {"munmap", SYS_MUNMAP},
	SyscallMmap:        {"mmap", SYS_MMAP},
	SyscallTaskInfo:    {"task_info", SYS_TASK_INFO},
}

var syscallByNumber = func() map[uintptr]Syscall {
	m := make(map[uintptr]Syscall, NumSyscalls)
	for s := Syscall(0); s < NumSyscalls; s++ {
		m[syscallInfo[s].number] = s
	}
	return m
}()

// Valid returns true if s is a known syscall kind.
func (s Syscall) Valid() bool {
	return s >= 0 && s < NumSyscalls
}

// Number returns the ABI number of s.
func (s Syscall) Number() uintptr {
	if !s.Valid() {
		panic(fmt.Sprintf("invalid syscall kind %d", int(s)))
	}
	return syscallInfo[s].number
}

// String implements fmt.Stringer.String.
func (s Syscall) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Syscall(%d)", int(s))
	}
	return syscallInfo[s].name
}

// SyscallFromNumber returns the syscall kind with ABI number sysno.
func SyscallFromNumber(sysno uintptr) (Syscall, bool) {
	s, ok := syscallByNumber[sysno]
	return s, ok
}

// SyscallFromName returns the syscall kind with the given name.
func SyscallFromName(name string) (Syscall, bool) {
	for s := Syscall(0); s < NumSyscalls; s++ {
		if syscallInfo[s].name == name {
			return s, true
		}
	}
	return 0, false
}

// Syscalls returns all syscall kinds in order.
func Syscalls() []Syscall {
	all := make([]Syscall, NumSyscalls)
	for i := range all {
		all[i] = Syscall(i)
	}
	return all
}

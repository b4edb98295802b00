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

package strace

import (
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// FormatSpecifier values describe how an individual syscall argument should be
// formatted.
type FormatSpecifier int

// Valid FormatSpecifiers.
//
// Unless otherwise specified, values are formatted before syscall execution
// and not updated after syscall execution (the same value is output).
const (
	// Hex is just a hexadecimal number.
	Hex FormatSpecifier = iota

	// Dec is a signed decimal number.
	Dec

	// FD is a file descriptor.
	FD

	// WriteBuffer is a buffer for a write-style call. The following arg is
	// used for the length.
	//
	// Contents omitted after syscall execution.
	WriteBuffer

	// Length is a byte count.
	Length

	// Prot is an mmap protection mask.
	Prot

	// PostTimeVal is a pointer to a TimeVal, formatted after syscall
	// execution.
	PostTimeVal

	// PostTaskInfo is a pointer to a TaskInfo, formatted after syscall
	// execution.
	PostTaskInfo
)

// defaultFormat is the syscall argument format to use if the actual format is
// not known. It formats all six arguments as hex.
var defaultFormat = []FormatSpecifier{Hex, Hex, Hex, Hex, Hex, Hex}

// SyscallInfo captures the name and printing format of a syscall.
type SyscallInfo struct {
	// name is the name of the syscall.
	name string

	// format contains the format specifiers for each argument.
	//
	// Syscall calls can have up to six arguments. Arguments without a
	// corresponding entry in format will not be printed.
	format []FormatSpecifier
}

// makeSyscallInfo returns a SyscallInfo for a syscall.
func makeSyscallInfo(name string, f ...FormatSpecifier) SyscallInfo {
	return SyscallInfo{name: name, format: f}
}

// SyscallMap maps syscalls into names and printing formats.
type SyscallMap map[uintptr]SyscallInfo

var _ kernel.Stracer = (SyscallMap)(nil)

// tsysSyscalls describes every syscall of the tsys ABI.
var tsysSyscalls = SyscallMap{
	tsys.SYS_WRITE:        makeSyscallInfo("write", FD, WriteBuffer, Length),
	tsys.SYS_EXIT:         makeSyscallInfo("exit", Dec),
	tsys.SYS_YIELD:        makeSyscallInfo("yield"),
	tsys.SYS_SET_PRIORITY: makeSyscallInfo("set_priority", Dec),
	tsys.SYS_GET_TIME:     makeSyscallInfo("get_time", PostTimeVal, Hex),
	tsys.SYS_MUNMAP:       makeSyscallInfo("munmap", Hex, Length),
	tsys.SYS_MMAP:         makeSyscallInfo("mmap", Hex, Length, Prot),
	tsys.SYS_TASK_INFO:    makeSyscallInfo("task_info", PostTaskInfo),
}

// Lookup returns the SyscallMap of the tsys ABI. The returned map must not be
// changed.
func Lookup() SyscallMap {
	return tsysSyscalls
}

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

// Package arch provides the syscall calling convention used by tsys tasks.
//
// Tasks follow the RISC-V convention: the syscall number is in a7, the
// arguments in a0 to a5 and the result is returned in a0. The trap handler
// advances sepc past the ecall instruction.
package arch

import (
	"fmt"

	"tsys.dev/tsys/pkg/hostarch"
)

// ecallLength is the size of the ecall instruction.
const ecallLength = 4

// SyscallArgument is an argument supplied to a syscall implementation. The
// methods used to access the arguments are named after the ***C type name***
// and they convert to the closest Go type available. For example, Int() refers to a
// 32-bit signed integer argument represented in Go as an int32.
//
// Using the accessor methods guarantees that the conversion between types is
// correct, taking into account size and signedness (i.e., zero-extension vs
// signed-extension).
type SyscallArgument struct {
	// Prefer to use accessor methods instead of 'Value' directly.
	Value uintptr
}

// SyscallArguments represents the set of arguments passed to a syscall.
type SyscallArguments [6]SyscallArgument

// Pointer returns the hostarch.Addr representation of a pointer argument.
func (a SyscallArgument) Pointer() hostarch.Addr {
	return hostarch.Addr(a.Value)
}

// Int returns the int32 representation of a 32-bit signed integer argument.
func (a SyscallArgument) Int() int32 {
	return int32(a.Value)
}

// Uint returns the uint32 representation of a 32-bit unsigned integer argument.
func (a SyscallArgument) Uint() uint32 {
	return uint32(a.Value)
}

// Int64 returns the int64 representation of a 64-bit signed integer argument.
func (a SyscallArgument) Int64() int64 {
	return int64(a.Value)
}

// Uint64 returns the uint64 representation of a 64-bit unsigned integer argument.
func (a SyscallArgument) Uint64() uint64 {
	return uint64(a.Value)
}

// SizeT returns the uint representation of a size_t argument.
func (a SyscallArgument) SizeT() uint {
	return uint(a.Value)
}

// String implements fmt.Stringer.String.
func (a SyscallArguments) String() string {
	return fmt.Sprintf("%#x, %#x, %#x, %#x, %#x, %#x",
		a[0].Value, a[1].Value, a[2].Value, a[3].Value, a[4].Value, a[5].Value)
}

// Registers is the user register state saved on a trap.
type Registers struct {
	// A holds a0 through a7.
	A [8]uintptr

	// Sepc is the user program counter at the time of the trap.
	Sepc uintptr
}

// SyscallNo returns the syscall number in a7.
func (r *Registers) SyscallNo() uintptr {
	return r.A[7]
}

// SyscallArgs returns the syscall arguments in a0 to a5.
func (r *Registers) SyscallArgs() SyscallArguments {
	var args SyscallArguments
	for i := range args {
		args[i].Value = r.A[i]
	}
	return args
}

// SetSyscall loads a syscall number and arguments the way user code does
// before executing ecall.
func (r *Registers) SetSyscall(sysno uintptr, args ...uintptr) {
	if len(args) > len(SyscallArguments{}) {
		panic(fmt.Sprintf("syscall %d called with %d arguments", sysno, len(args)))
	}
	clear(r.A[:6])
	copy(r.A[:6], args)
	r.A[7] = sysno
}

// SetReturn sets the syscall return value in a0.
func (r *Registers) SetReturn(value uintptr) {
	r.A[0] = value
}

// Return returns the value in a0.
func (r *Registers) Return() uintptr {
	return r.A[0]
}

// AdvancePC moves sepc past the ecall instruction.
func (r *Registers) AdvancePC() {
	r.Sepc += ecallLength
}

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

package kernel

import (
	"fmt"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/marshal"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/ktime"
	"tsys.dev/tsys/pkg/sentry/mm"
	"tsys.dev/tsys/pkg/sentry/usage"
)

// ThreadID is a task identifier.
type ThreadID int32

// Task represents a user task: one program running in its own address space.
//
// A Task is only used by the goroutine running its Kernel.
type Task struct {
	k *Kernel

	// id is unique within k.
	id ThreadID

	// name is used in logs.
	name string

	// regs holds the user registers saved on the last trap.
	regs arch.Registers

	// mm is the task's address space. It is released on exit.
	mm *mm.MemoryManager

	// ledger is reported by task_info.
	ledger usage.SyscallLedger

	// ioUsage accounts write syscalls.
	ioUsage usage.IO

	// prog is the task's user code.
	prog Program

	// exitCode is set by PrepareExit and final once exited is true.
	exitCode int64
	exited   bool

	// faulted is true if the task was killed by a fault.
	faulted bool

	// results records every syscall the task made, in order.
	results []SyscallResult
}

// SyscallResult records one syscall made by a task.
type SyscallResult struct {
	// Sysno is the syscall number in a7.
	Sysno uintptr

	// Name is the syscall name, or sys_N for unknown numbers.
	Name string

	// Args are the arguments in a0 to a5.
	Args arch.SyscallArguments

	// Return is the value seen by the task in a0. It is meaningless if the
	// call did not return to the task.
	Return int64

	// Err is the error the implementation returned, if any.
	Err error
}

var _ marshal.CopyContext = (*Task)(nil)

// ID returns the task's ID.
func (t *Task) ID() ThreadID {
	return t.id
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// String implements fmt.Stringer.String.
func (t *Task) String() string {
	return fmt.Sprintf("task %d (%s)", t.id, t.name)
}

// Kernel returns the kernel running t.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// Arch returns t's user registers.
func (t *Task) Arch() *arch.Registers {
	return &t.regs
}

// MemoryManager returns t's address space.
func (t *Task) MemoryManager() *mm.MemoryManager {
	return t.mm
}

// Ledger returns t's task_info ledger.
func (t *Task) Ledger() *usage.SyscallLedger {
	return &t.ledger
}

// IOUsage returns the I/O usage of t.
func (t *Task) IOUsage() *usage.IO {
	return &t.ioUsage
}

// Status returns t's scheduling state.
func (t *Task) Status() tsys.TaskStatus {
	return t.ledger.Status()
}

// Now returns the current time of t's kernel clock.
func (t *Task) Now() ktime.Time {
	return t.k.clock.Now()
}

// TaskInfo returns a task_info snapshot of t taken now.
func (t *Task) TaskInfo() tsys.TaskInfo {
	return t.ledger.Snapshot(t.Now())
}

// ExitCode returns t's exit code. ok is false if t has not exited.
func (t *Task) ExitCode() (code int64, ok bool) {
	return t.exitCode, t.exited
}

// Faulted returns true if t was killed by a fault.
func (t *Task) Faulted() bool {
	return t.faulted
}

// Results returns the syscalls t made, in order.
func (t *Task) Results() []SyscallResult {
	return t.results
}

// PrepareExit sets the exit code used when the task next enters the exit
// path.
func (t *Task) PrepareExit(code int64) {
	t.exitCode = code
}

// CopyOutBytes implements marshal.CopyContext.CopyOutBytes. It accesses
// memory with kernel privileges on behalf of t.
func (t *Task) CopyOutBytes(addr hostarch.Addr, src []byte) (int, error) {
	return t.mm.CopyOutBytes(addr, src)
}

// CopyInBytes implements marshal.CopyContext.CopyInBytes. It accesses memory
// with kernel privileges on behalf of t.
func (t *Task) CopyInBytes(addr hostarch.Addr, dst []byte) (int, error) {
	return t.mm.CopyInBytes(addr, dst)
}

// CopyOut copies the wire form of m to addr in t's address space.
func (t *Task) CopyOut(addr hostarch.Addr, m marshal.Marshallable) (int, error) {
	return marshal.CopyOut(t, addr, m)
}

// CopyIn reads the wire form of m from addr in t's address space.
func (t *Task) CopyIn(addr hostarch.Addr, m marshal.Marshallable) (int, error) {
	return marshal.CopyIn(t, addr, m)
}

// UserStore writes data to addr as the task's own store instructions would.
// A page that is unmapped or not writable makes it return EFAULT without
// writing anything; the program should then return TrapPageFault.
func (t *Task) UserStore(addr hostarch.Addr, data []byte) error {
	return t.userAccess(addr, uint64(len(data)), hostarch.Write, func(bs [][]byte) {
		n := 0
		for _, b := range bs {
			n += copy(b, data[n:])
		}
	})
}

// UserLoad reads len(dst) bytes at addr as the task's own load instructions
// would.
func (t *Task) UserLoad(addr hostarch.Addr, dst []byte) error {
	return t.userAccess(addr, uint64(len(dst)), hostarch.Read, func(bs [][]byte) {
		n := 0
		for _, b := range bs {
			n += copy(dst[n:], b)
		}
	})
}

func (t *Task) userAccess(addr hostarch.Addr, length uint64, at hostarch.AccessType, f func([][]byte)) error {
	bs, err := t.mm.Translate(addr, length, at)
	if err != nil {
		log.Debugf("%v: user %v access of %d bytes at %v faults", t, at, length, addr)
		return linuxerr.EFAULT
	}
	f(bs)
	return nil
}

// Ecall loads a syscall request into t's registers and returns TrapSyscall,
// which a Program returns to enter the kernel.
func (t *Task) Ecall(sysno uintptr, args ...uintptr) Trap {
	t.regs.SetSyscall(sysno, args...)
	return TrapSyscall
}

// Return returns the value in a0, which holds the result of the last
// syscall once it has returned.
func (t *Task) Return() int64 {
	return int64(t.regs.Return())
}

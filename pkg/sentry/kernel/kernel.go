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

// Package kernel provides an emulation of a small kernel: tasks, each with
// its own address space, entering the kernel through syscalls.
//
// Tasks are cooperatively scheduled on the goroutine that calls Kernel.Run.
// None of the types in this package are safe for concurrent use, with the
// exception of the MemoryFile shared by every task.
package kernel

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/ring0/pagetables"
	"tsys.dev/tsys/pkg/sentry/ktime"
	"tsys.dev/tsys/pkg/sentry/mm"
	"tsys.dev/tsys/pkg/sentry/pgalloc"
)

// Kernel represents an emulated kernel.
type Kernel struct {
	mf    *pgalloc.MemoryFile
	clock ktime.Clock
	sched Scheduler
	table *SyscallTable

	// stdout receives bytes written to fd 1.
	stdout io.Writer

	// strace enables syscall tracing through table.Stracer.
	strace bool

	// onExit, if set, is called for each exiting task.
	onExit func(*Task)

	// unknownSyscallLog reports calls to unknown syscall numbers.
	unknownSyscallLog log.Logger

	// tasks holds every task ever created, in ID order.
	tasks  []*Task
	nextID ThreadID
}

// InitKernelArgs holds arguments to Init.
type InitKernelArgs struct {
	// MemoryFile provides frames to every task. It is required.
	MemoryFile *pgalloc.MemoryFile

	// SyscallTable handles syscalls. It is required.
	SyscallTable *SyscallTable

	// Clock is the kernel clock. If nil, a ktime.MonotonicClock booted
	// during Init is used.
	Clock ktime.Clock

	// Scheduler orders tasks. If nil, a RoundRobin is used.
	Scheduler Scheduler

	// Stdout receives writes to fd 1. If nil, os.Stdout is used.
	Stdout io.Writer

	// Strace enables syscall tracing.
	Strace bool

	// OnExit, if set, is called for each task as it exits, before its
	// address space is released.
	OnExit func(*Task)
}

// Init initializes the Kernel with no tasks.
func (k *Kernel) Init(args InitKernelArgs) error {
	if args.MemoryFile == nil {
		return fmt.Errorf("args.MemoryFile is nil")
	}
	if args.SyscallTable == nil {
		return fmt.Errorf("args.SyscallTable is nil")
	}
	if args.Clock == nil {
		args.Clock = ktime.NewMonotonicClock(nil)
	}
	if args.Scheduler == nil {
		args.Scheduler = NewRoundRobin()
	}
	if args.Stdout == nil {
		args.Stdout = os.Stdout
	}
	k.mf = args.MemoryFile
	k.table = args.SyscallTable
	k.clock = args.Clock
	k.sched = args.Scheduler
	k.stdout = args.Stdout
	k.strace = args.Strace
	k.onExit = args.OnExit
	k.unknownSyscallLog = log.BasicRateLimitedLogger(time.Second)
	k.nextID = 1
	return nil
}

// NewTask creates a Ready task that will run prog in a new, empty address
// space.
func (k *Kernel) NewTask(name string, prog Program) (*Task, error) {
	if prog == nil {
		return nil, fmt.Errorf("task %q has no program", name)
	}
	t := &Task{
		k:    k,
		id:   k.nextID,
		name: name,
		mm:   mm.NewMemoryManager(k.mf, pagetables.NewRuntimeAllocator()),
		prog: prog,
	}
	k.nextID++
	t.ledger.SetStatus(tsys.Ready)
	k.tasks = append(k.tasks, t)
	k.sched.Enqueue(t)
	log.Debugf("Created %v", t)
	return t, nil
}

// Run runs tasks until none is runnable or ctx is done. It returns ctx.Err()
// in the latter case.
func (k *Kernel) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := k.sched.Next()
		if !ok {
			return nil
		}
		t.run()
	}
}

// Tasks returns every task created by k, in ID order.
func (k *Kernel) Tasks() []*Task {
	return k.tasks
}

// TaskWithID returns the task with the given ID, or nil.
func (k *Kernel) TaskWithID(id ThreadID) *Task {
	for _, t := range k.tasks {
		if t.id == id {
			return t
		}
	}
	return nil
}

// MemoryFile returns the frame pool shared by k's tasks.
func (k *Kernel) MemoryFile() *pgalloc.MemoryFile {
	return k.mf
}

// Clock returns the kernel clock.
func (k *Kernel) Clock() ktime.Clock {
	return k.clock
}

// Stdout returns the writer backing fd 1.
func (k *Kernel) Stdout() io.Writer {
	return k.stdout
}

// SyscallTable returns the kernel's syscall table.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.table
}

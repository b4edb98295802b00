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

package workload

import (
	"bytes"
	"errors"
	"fmt"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// Instance is a workload bound to one kernel.
type Instance struct {
	w     *Workload
	tasks []*kernel.Task

	// exits holds what each task left behind when it exited, by task.
	exits map[*kernel.Task]ExitRecord

	// mismatches holds failed load checks.
	mismatches []error
}

// ExitRecord is the state of a task captured as it exits.
type ExitRecord struct {
	// Maps is the task's address space in /proc/[pid]/maps format.
	Maps string

	// Mappings is the number of mappings in the address space.
	Mappings int

	// Frames is the number of frames held by the address space.
	Frames uint64

	// Info is the task's final TaskInfo.
	Info tsys.TaskInfo
}

// NewInstance returns an Instance running a private copy of w.
func NewInstance(w *Workload) *Instance {
	return &Instance{
		w:     w.Instantiate(),
		exits: make(map[*kernel.Task]ExitRecord),
	}
}

// Workload returns the instance's copy of the workload.
func (in *Instance) Workload() *Workload {
	return in.w
}

// Start creates the workload tasks on k.
func (in *Instance) Start(k *kernel.Kernel) error {
	for i := range in.w.Tasks {
		ts := &in.w.Tasks[i]
		t, err := k.NewTask(ts.Name, in.program(ts))
		if err != nil {
			return err
		}
		in.tasks = append(in.tasks, t)
	}
	return nil
}

// TaskExited records t's final state. It is meant to be passed as
// kernel.InitKernelArgs.OnExit.
func (in *Instance) TaskExited(t *kernel.Task) {
	mm := t.MemoryManager()
	in.exits[t] = ExitRecord{
		Maps:     mm.String(),
		Mappings: mm.NumMappings(),
		Frames:   mm.UsageFrames(),
		Info:     t.TaskInfo(),
	}
}

// Tasks returns the tasks created by Start, in workload order.
func (in *Instance) Tasks() []*kernel.Task {
	return in.tasks
}

// Exit returns the state recorded when t exited.
func (in *Instance) Exit(t *kernel.Task) (ExitRecord, bool) {
	r, ok := in.exits[t]
	return r, ok
}

func (in *Instance) program(ts *TaskSpec) kernel.Program {
	steps := make([]kernel.ProgramFunc, 0, len(ts.Steps))
	for i := range ts.Steps {
		steps = append(steps, in.step(i, &ts.Steps[i]))
	}
	return kernel.NewSequence(steps...)
}

func (in *Instance) step(idx int, s *Step) kernel.ProgramFunc {
	switch {
	case s.isSyscall():
		sysno := s.number()
		args := make([]uintptr, len(s.Args))
		for i, a := range s.Args {
			args[i] = uintptr(a)
		}
		return func(t *kernel.Task) kernel.Trap {
			return t.Ecall(sysno, args...)
		}
	case s.Store != nil:
		a := s.Store
		return func(t *kernel.Task) kernel.Trap {
			if err := t.UserStore(hostarch.Addr(a.Addr), a.Bytes); err != nil {
				return kernel.TrapPageFault
			}
			return kernel.TrapNone
		}
	default:
		a := s.Load
		return func(t *kernel.Task) kernel.Trap {
			got := make([]byte, len(a.Bytes))
			if err := t.UserLoad(hostarch.Addr(a.Addr), got); err != nil {
				return kernel.TrapPageFault
			}
			if !bytes.Equal(got, a.Bytes) {
				in.mismatches = append(in.mismatches, fmt.Errorf("%v step %d: load at %#x = %v, want %v", t, idx, a.Addr, got, a.Bytes))
			}
			return kernel.TrapNone
		}
	}
}

// Check compares the outcome of a completed run with the expectations in
// the workload. It returns every mismatch joined into one error.
func (in *Instance) Check() error {
	errs := append([]error(nil), in.mismatches...)
	for i, t := range in.tasks {
		ts := &in.w.Tasks[i]
		code, ok := t.ExitCode()
		if !ok {
			errs = append(errs, fmt.Errorf("%v did not exit", t))
			continue
		}
		if ts.Exit != nil && code != *ts.Exit {
			errs = append(errs, fmt.Errorf("%v exited with code %d, want %d", t, code, *ts.Exit))
		}

		// Each syscall step produces one result, in order.
		results := t.Results()
		n := 0
		for j := range ts.Steps {
			s := &ts.Steps[j]
			if !s.isSyscall() {
				continue
			}
			if s.Expect != nil {
				if n >= len(results) {
					errs = append(errs, fmt.Errorf("%v step %d: task exited before the syscall", t, j))
					break
				}
				if got := results[n].Return; got != *s.Expect {
					errs = append(errs, fmt.Errorf("%v step %d: %s returned %d, want %d", t, j, results[n].Name, got, *s.Expect))
				}
			}
			n++
		}
	}
	return errors.Join(errs...)
}

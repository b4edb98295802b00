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
	"tsys.dev/tsys/pkg/log"
)

// Trap is the reason user code returned control to the kernel.
type Trap int

const (
	// TrapNone means the step completed without entering the kernel.
	TrapNone Trap = iota

	// TrapSyscall is an ecall. The registers hold the syscall request.
	TrapSyscall

	// TrapPageFault is a user memory access that the page table rejected.
	TrapPageFault

	// TrapProgramEnd means the program has nothing left to run.
	TrapProgramEnd
)

// String implements fmt.Stringer.String.
func (tr Trap) String() string {
	switch tr {
	case TrapNone:
		return "none"
	case TrapSyscall:
		return "syscall"
	case TrapPageFault:
		return "page fault"
	case TrapProgramEnd:
		return "program end"
	default:
		return fmt.Sprintf("Trap(%d)", int(tr))
	}
}

// Program is the user-mode code of a task.
type Program interface {
	// Step runs user code until the next trap and reports why it stopped.
	// On TrapSyscall the kernel handles the request in t's registers and
	// calls Step again once the task runs, with the result in a0.
	Step(t *Task) Trap
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(t *Task) Trap

// Step implements Program.Step.
func (f ProgramFunc) Step(t *Task) Trap {
	return f(t)
}

// Sequence is a Program that runs each of its steps once, in order.
type Sequence struct {
	Steps []ProgramFunc
	pc    int
}

// NewSequence returns a Sequence of steps.
func NewSequence(steps ...ProgramFunc) *Sequence {
	return &Sequence{Steps: steps}
}

// Step implements Program.Step.
func (s *Sequence) Step(t *Task) Trap {
	if s.pc >= len(s.Steps) {
		return TrapProgramEnd
	}
	step := s.Steps[s.pc]
	s.pc++
	return step(t)
}

// A taskRunState is a reified state in the task state machine.
//
// Data-free taskRunStates are represented as typecast nils to avoid
// unnecessary allocation.
type taskRunState interface {
	// execute executes the code associated with this state over the given
	// task and returns the following state. If execute returns nil, the task
	// gives up the CPU.
	execute(*Task) taskRunState
}

// runApp is the taskRunState in which the task runs user code.
type runApp struct{}

func (*runApp) execute(t *Task) taskRunState {
	switch trap := t.prog.Step(t); trap {
	case TrapNone:
		return (*runApp)(nil)
	case TrapSyscall:
		return t.doSyscall()
	case TrapPageFault:
		return t.fault()
	case TrapProgramEnd:
		t.PrepareExit(0)
		return (*runExit)(nil)
	default:
		panic(fmt.Sprintf("%v: unknown trap %v", t, trap))
	}
}

// runYield is the taskRunState entered by yield.
type runYield struct{}

func (*runYield) execute(t *Task) taskRunState {
	t.ledger.SetStatus(tsys.Ready)
	t.k.sched.SuspendAndReschedule(t)
	return nil
}

// runExit is the taskRunState in which the task releases its resources.
type runExit struct{}

func (*runExit) execute(t *Task) taskRunState {
	t.exited = true
	t.ledger.SetStatus(tsys.Exited)
	if t.k.onExit != nil {
		t.k.onExit(t)
	}
	t.mm.Release()
	t.k.sched.ExitAndReschedule(t, t.exitCode)
	tasksExited.Increment()
	log.Debugf("%v exited with code %d", t, t.exitCode)
	return nil
}

// fault kills t after a memory access violation.
func (t *Task) fault() taskRunState {
	log.Warningf("[kernel] PageFault in application, kernel killed it.")
	t.faulted = true
	taskFaults.Increment()
	t.PrepareExit(FaultExitCode)
	return (*runExit)(nil)
}

// FaultExitCode is the exit code of a task killed by a fault.
const FaultExitCode = -2

// run runs t until it gives up the CPU.
func (t *Task) run() {
	t.ledger.SetStatus(tsys.Running)
	t.ledger.MarkScheduled(t.Now())
	var state taskRunState = (*runApp)(nil)
	for state != nil {
		state = state.execute(t)
	}
}

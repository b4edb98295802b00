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
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/metric"
	"tsys.dev/tsys/pkg/sentry/arch"
)

var syscallField = func() metric.Field {
	var names []string
	for _, s := range tsys.Syscalls() {
		names = append(names, s.String())
	}
	return metric.NewField("syscall", names)
}()

var (
	syscallCounter  = metric.MustCreateNewUint64Metric("/tsys/syscalls", "Number of syscalls entered, by syscall.", syscallField)
	unknownSyscalls = metric.MustCreateNewUint64Metric("/tsys/unknown_syscalls", "Number of calls to unknown syscall numbers.")
	taskFaults      = metric.MustCreateNewUint64Metric("/tsys/tasks/faults", "Number of tasks killed by a fault.")
	tasksExited     = metric.MustCreateNewUint64Metric("/tsys/tasks/exited", "Number of tasks that exited.")
)

// executeSyscall executes a syscall. Known syscalls are counted in the
// task's ledger before they run, whether or not they succeed.
func (t *Task) executeSyscall(sysno uintptr, args arch.SyscallArguments) (rval uintptr, ctrl *SyscallControl, err error) {
	s := t.k.table.Lookup(sysno)
	if s == nil {
		unknownSyscalls.Increment()
		t.k.unknownSyscallLog.Warningf("%v: unsupported syscall %d", t, sysno)
		return 0, nil, linuxerr.ENOSYS
	}
	t.ledger.Record(s.Kind)
	syscallCounter.Increment(s.Kind.String())

	var straceContext any
	if t.k.strace && t.k.table.Stracer != nil {
		straceContext = t.k.table.Stracer.SyscallEnter(t, sysno, args)
	}
	rval, ctrl, err = s.Fn(t, args)
	if straceContext != nil {
		t.k.table.Stracer.SyscallExit(straceContext, t, sysno, rval, err)
	}
	return rval, ctrl, err
}

// doSyscall is the entry point for an invocation of a system call specified
// by the current state of t's registers.
func (t *Task) doSyscall() taskRunState {
	sysno := t.regs.SyscallNo()
	args := t.regs.SyscallArgs()

	rval, ctrl, err := t.executeSyscall(sysno, args)

	if linuxerr.Equals(linuxerr.EFAULT, err) {
		// A bad user pointer kills the task instead of failing the call.
		t.results = append(t.results, SyscallResult{
			Sysno:  sysno,
			Name:   t.k.table.SyscallName(sysno),
			Args:   args,
			Return: FaultExitCode,
			Err:    err,
		})
		return t.fault()
	}

	ret := int64(rval)
	if err != nil {
		log.Debugf("%v: %s failed: %v", t, t.k.table.SyscallName(sysno), err)
		ret = -1
	}
	t.results = append(t.results, SyscallResult{
		Sysno:  sysno,
		Name:   t.k.table.SyscallName(sysno),
		Args:   args,
		Return: ret,
		Err:    err,
	})

	if ctrl == nil || !ctrl.ignoreReturn {
		t.regs.SetReturn(uintptr(ret))
	}
	t.regs.AdvancePC()

	if ctrl != nil && ctrl.next != nil {
		return ctrl.next
	}
	return (*runApp)(nil)
}

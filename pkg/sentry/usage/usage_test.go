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

package usage

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/sentry/ktime"
)

func TestRecord(t *testing.T) {
	var l SyscallLedger
	const n = 7
	for i := 0; i < n; i++ {
		l.Record(tsys.SyscallGetTime)
	}
	l.Record(tsys.SyscallMmap)

	want := map[tsys.Syscall]uint32{
		tsys.SyscallGetTime: n,
		tsys.SyscallMmap:    1,
	}
	got := make(map[tsys.Syscall]uint32)
	for _, s := range tsys.Syscalls() {
		if c := l.Count(s); c != 0 {
			got[s] = c
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	if got := l.Count(tsys.NumSyscalls); got != 0 {
		t.Errorf("Count(invalid) = %d, want 0", got)
	}
}

func TestRecordInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Record(invalid) did not panic")
		}
	}()
	var l SyscallLedger
	l.Record(tsys.Syscall(-1))
}

func TestSnapshot(t *testing.T) {
	var l SyscallLedger
	l.SetStatus(tsys.Running)
	start := ktime.FromMicroseconds(1000)
	if !l.MarkScheduled(start) {
		t.Fatalf("first MarkScheduled returned false")
	}
	if l.MarkScheduled(start.Add(time.Second)) {
		t.Errorf("second MarkScheduled returned true")
	}
	for i := 0; i < 3; i++ {
		l.Record(tsys.SyscallTaskInfo)
	}
	l.Record(tsys.SyscallWrite)

	now := start.Add(2500 * time.Millisecond)
	first := l.Snapshot(now)
	if first.Status != tsys.Running {
		t.Errorf("Status = %v, want Running", first.Status)
	}
	if first.Time != 2500 {
		t.Errorf("Time = %d, want 2500", first.Time)
	}
	if got := first.SyscallTimes[tsys.SYS_TASK_INFO]; got != 3 {
		t.Errorf("SyscallTimes[task_info] = %d, want 3", got)
	}
	if got := first.SyscallTimes[tsys.SYS_WRITE]; got != 1 {
		t.Errorf("SyscallTimes[write] = %d, want 1", got)
	}
	if got := first.Count(tsys.SyscallTaskInfo); got != 3 {
		t.Errorf("Count(task_info) = %d, want 3", got)
	}

	// Snapshots never change the ledger.
	if second := l.Snapshot(now); second != first {
		t.Errorf("second snapshot differs from the first")
	}
}

func TestSnapshotUnscheduled(t *testing.T) {
	var l SyscallLedger
	l.SetStatus(tsys.Ready)
	ti := l.Snapshot(ktime.FromMicroseconds(5e6))
	if ti.Time != 0 || ti.Status != tsys.Ready {
		t.Errorf("Snapshot = {Status: %v, Time: %d}, want {Ready, 0}", ti.Status, ti.Time)
	}
	if _, ok := l.FirstScheduled(); ok {
		t.Errorf("FirstScheduled reported a time for an unscheduled task")
	}
}

func TestIOAccounting(t *testing.T) {
	var a, b IO
	a.AccountWriteSyscall(10)
	a.AccountWriteSyscall(-1)
	b.AccountWriteSyscall(5)
	b.Accumulate(&a)
	want := IO{CharsWritten: 15, WriteSyscalls: 3}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("IO mismatch (-want +got):\n%s", diff)
	}
}

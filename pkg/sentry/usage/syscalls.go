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
	"fmt"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/sentry/ktime"
)

// SyscallLedger records the task_info view of one task: its status, how many
// times it entered each syscall and when it was first scheduled.
//
// SyscallLedger is owned by the kernel and used only while its task is
// current, so it has no locking.
type SyscallLedger struct {
	status tsys.TaskStatus

	// counts is indexed by syscall kind.
	counts [tsys.NumSyscalls]uint32

	// firstScheduled is valid only if scheduled is true.
	firstScheduled ktime.Time
	scheduled      bool
}

// Record counts one entry into s. It is called before the syscall runs, so
// calls that fail are counted too.
func (l *SyscallLedger) Record(s tsys.Syscall) {
	if !s.Valid() {
		panic(fmt.Sprintf("recording invalid syscall %v", s))
	}
	l.counts[s]++
}

// Count returns the number of recorded entries into s.
func (l *SyscallLedger) Count(s tsys.Syscall) uint32 {
	if !s.Valid() {
		return 0
	}
	return l.counts[s]
}

// SetStatus sets the reported task status.
func (l *SyscallLedger) SetStatus(s tsys.TaskStatus) {
	l.status = s
}

// Status returns the reported task status.
func (l *SyscallLedger) Status() tsys.TaskStatus {
	return l.status
}

// MarkScheduled records now as the first time the task was scheduled. Only
// the first call has an effect; it returns true if this call recorded now.
func (l *SyscallLedger) MarkScheduled(now ktime.Time) bool {
	if l.scheduled {
		return false
	}
	l.firstScheduled = now
	l.scheduled = true
	return true
}

// FirstScheduled returns the time recorded by MarkScheduled.
func (l *SyscallLedger) FirstScheduled() (ktime.Time, bool) {
	return l.firstScheduled, l.scheduled
}

// Elapsed returns the time since the task was first scheduled, or zero if it
// never was.
func (l *SyscallLedger) Elapsed(now ktime.Time) ktime.Time {
	if !l.scheduled || now.Before(l.firstScheduled) {
		return ktime.ZeroTime
	}
	return ktime.ZeroTime.Add(now.Sub(l.firstScheduled))
}

// Snapshot returns the task_info view at time now. It does not modify l.
func (l *SyscallLedger) Snapshot(now ktime.Time) tsys.TaskInfo {
	ti := tsys.TaskInfo{
		Status: l.status,
		Time:   uint64(l.Elapsed(now).Milliseconds()),
	}
	for _, s := range tsys.Syscalls() {
		ti.SyscallTimes[s.Number()] = l.counts[s]
	}
	return ti
}

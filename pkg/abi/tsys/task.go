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

package tsys

import (
	"fmt"

	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/marshal"
)

// TaskStatus is the scheduling state of a task, as reported by task_info.
type TaskStatus uint32

// Task states.
const (
	UnInit TaskStatus = iota
	Ready
	Running
	Exited
)

// String implements fmt.Stringer.String.
func (s TaskStatus) String() string {
	switch s {
	case UnInit:
		return "UnInit"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Exited:
		return "Exited"
	default:
		return fmt.Sprintf("TaskStatus(%d)", uint32(s))
	}
}

// SizeOfTimeVal is the size of a TimeVal struct in bytes.
const SizeOfTimeVal = 16

// TimeVal is the struct written by get_time.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// MicrosecondsToTimeVal splits a microsecond count into a TimeVal.
func MicrosecondsToTimeVal(us uint64) TimeVal {
	return TimeVal{
		Sec:  us / 1e6,
		Usec: us % 1e6,
	}
}

// Microseconds returns tv as a microsecond count.
func (tv TimeVal) Microseconds() uint64 {
	return tv.Sec*1e6 + tv.Usec
}

// Before returns true if tv is strictly earlier than o.
func (tv TimeVal) Before(o TimeVal) bool {
	return tv.Sec < o.Sec || (tv.Sec == o.Sec && tv.Usec < o.Usec)
}

var _ marshal.Marshallable = (*TimeVal)(nil)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*TimeVal) SizeBytes() int {
	return SizeOfTimeVal
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (tv *TimeVal) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], tv.Sec)
	hostarch.ByteOrder.PutUint64(dst[8:16], tv.Usec)
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (tv *TimeVal) UnmarshalBytes(src []byte) {
	tv.Sec = hostarch.ByteOrder.Uint64(src[0:8])
	tv.Usec = hostarch.ByteOrder.Uint64(src[8:16])
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (tv *TimeVal) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, tv)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (tv *TimeVal) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, tv)
}

// SizeOfTaskInfo is the size of a TaskInfo struct in bytes: the status word,
// the count table, 4 bytes of padding and the time.
const SizeOfTaskInfo = 4 + 4*MaxSyscallNum + 4 + 8

// TaskInfo is the struct written by task_info.
//
// C layout:
//
//	struct task_info {
//		uint32_t status;
//		uint32_t syscall_times[MAX_SYSCALL_NUM];
//		uint64_t time;
//	};
//
// The 4 bytes of padding before time are implicit.
type TaskInfo struct {
	Status TaskStatus

	// SyscallTimes is indexed by syscall number.
	SyscallTimes [MaxSyscallNum]uint32

	// Time is the number of milliseconds since the task was first
	// scheduled.
	Time uint64
}

var _ marshal.Marshallable = (*TaskInfo)(nil)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*TaskInfo) SizeBytes() int {
	return SizeOfTaskInfo
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (ti *TaskInfo) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint32(dst[0:4], uint32(ti.Status))
	dst = dst[4:]
	for i := range ti.SyscallTimes {
		hostarch.ByteOrder.PutUint32(dst[:4], ti.SyscallTimes[i])
		dst = dst[4:]
	}
	// Padding.
	clear(dst[:4])
	dst = dst[4:]
	hostarch.ByteOrder.PutUint64(dst[:8], ti.Time)
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (ti *TaskInfo) UnmarshalBytes(src []byte) {
	ti.Status = TaskStatus(hostarch.ByteOrder.Uint32(src[0:4]))
	src = src[4:]
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = hostarch.ByteOrder.Uint32(src[:4])
		src = src[4:]
	}
	src = src[4:]
	ti.Time = hostarch.ByteOrder.Uint64(src[:8])
}

// CopyOut implements marshal.Marshallable.CopyOut.
func (ti *TaskInfo) CopyOut(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyOut(cc, addr, ti)
}

// CopyIn implements marshal.Marshallable.CopyIn.
func (ti *TaskInfo) CopyIn(cc marshal.CopyContext, addr hostarch.Addr) (int, error) {
	return marshal.CopyIn(cc, addr, ti)
}

// Count returns the entry of SyscallTimes for s.
func (ti *TaskInfo) Count(s Syscall) uint32 {
	return ti.SyscallTimes[s.Number()]
}

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

// Task scheduling. Tasks run cooperatively on the kernel goroutine: a task
// keeps the CPU until it yields, exits or is killed.

// Scheduler decides which task runs next.
type Scheduler interface {
	// Enqueue adds a new Ready task.
	Enqueue(t *Task)

	// SuspendAndReschedule puts the current task, which yielded, back in
	// the run queue.
	SuspendAndReschedule(t *Task)

	// ExitAndReschedule retires the current task, which exited with code.
	ExitAndReschedule(t *Task, code int64)

	// Next removes and returns the task to run next. ok is false if no
	// task is runnable.
	Next() (t *Task, ok bool)
}

// RoundRobin is a FIFO Scheduler.
type RoundRobin struct {
	queue  []*Task
	exited []*Task
}

var _ Scheduler = (*RoundRobin)(nil)

// NewRoundRobin returns an empty RoundRobin scheduler.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Enqueue implements Scheduler.Enqueue.
func (r *RoundRobin) Enqueue(t *Task) {
	r.queue = append(r.queue, t)
}

// SuspendAndReschedule implements Scheduler.SuspendAndReschedule.
func (r *RoundRobin) SuspendAndReschedule(t *Task) {
	r.queue = append(r.queue, t)
}

// ExitAndReschedule implements Scheduler.ExitAndReschedule.
func (r *RoundRobin) ExitAndReschedule(t *Task, code int64) {
	r.exited = append(r.exited, t)
}

// Next implements Scheduler.Next.
func (r *RoundRobin) Next() (*Task, bool) {
	if len(r.queue) == 0 {
		return nil, false
	}
	t := r.queue[0]
	r.queue[0] = nil
	r.queue = r.queue[1:]
	return t, true
}

// Exited returns the tasks that exited, in exit order.
func (r *RoundRobin) Exited() []*Task {
	return r.exited
}

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

package tsys

import (
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// GetTime implements get_time. It writes the time since boot as a TimeVal to
// the address in the first argument. The second argument, a timezone, is
// ignored.
func GetTime(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()
	tv := t.Now().TimeVal()
	if _, err := tv.CopyOut(t, addr); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}

// TaskInfo implements task_info. It writes a snapshot of the caller's ledger
// to the address in the first argument.
func TaskInfo(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()
	ti := t.TaskInfo()
	if _, err := ti.CopyOut(t, addr); err != nil {
		return 0, nil, err
	}
	return 0, nil, nil
}

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
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// Exit implements exit. The task never returns from it.
func Exit(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	status := args[0].Int()
	log.Infof("[kernel] Application exited with code %d", status)
	t.PrepareExit(int64(status))
	return 0, kernel.CtrlDoExit, nil
}

// Yield implements yield: the task gives up the CPU and runs again when the
// scheduler picks it.
func Yield(t *kernel.Task, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	return 0, kernel.CtrlYield, nil
}

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

// Package strace implements the logic to print out the input and the return value
// of each traced syscall.
package strace

import (
	"fmt"
	"strings"
	"time"

	"tsys.dev/tsys/pkg/abi/tsys"
	"tsys.dev/tsys/pkg/errors/linuxerr"
	"tsys.dev/tsys/pkg/hostarch"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/sentry/arch"
	"tsys.dev/tsys/pkg/sentry/kernel"
)

// DefaultLogMaximumSize is the default LogMaximumSize.
const DefaultLogMaximumSize = 1024

// LogMaximumSize determines the maximum display size for data blobs when
// logging.
var LogMaximumSize uint = DefaultLogMaximumSize

func dump(data []byte) string {
	return fmt.Sprintf("%q", data)
}

func dumpBuffer(t *kernel.Task, addr hostarch.Addr, length uint, maximumBlobSize uint) string {
	origLength := length
	if length > maximumBlobSize {
		length = maximumBlobSize
	}
	b := make([]byte, length)
	if _, err := t.CopyInBytes(addr, b); err != nil {
		return fmt.Sprintf("%#x (error decoding buffer: %s)", uint64(addr), err)
	}
	s := dump(b)
	if origLength > length {
		s += "..."
	}
	return fmt.Sprintf("%#x %s", uint64(addr), s)
}

func timeVal(t *kernel.Task, addr hostarch.Addr) string {
	var tv tsys.TimeVal
	if _, err := tv.CopyIn(t, addr); err != nil {
		return fmt.Sprintf("%#x (error decoding timeval: %s)", uint64(addr), err)
	}
	return fmt.Sprintf("%#x {sec=%d usec=%d}", uint64(addr), tv.Sec, tv.Usec)
}

func taskInfo(t *kernel.Task, addr hostarch.Addr) string {
	var ti tsys.TaskInfo
	if _, err := ti.CopyIn(t, addr); err != nil {
		return fmt.Sprintf("%#x (error decoding task_info: %s)", uint64(addr), err)
	}
	var counts []string
	for _, s := range tsys.Syscalls() {
		if c := ti.Count(s); c != 0 {
			counts = append(counts, fmt.Sprintf("%s=%d", s, c))
		}
	}
	return fmt.Sprintf("%#x {status=%s time=%dms calls={%s}}", uint64(addr), ti.Status, ti.Time, strings.Join(counts, " "))
}

// pre fills in the pre-execution arguments for a system call. If an argument
// cannot be interpreted before the system call is executed, then a hex value
// will be used.
func (i *SyscallInfo) pre(t *kernel.Task, args arch.SyscallArguments, maximumBlobSize uint) []string {
	var output []string

	for arg := range args {
		if arg >= len(i.format) {
			break
		}
		switch i.format[arg] {
		case Dec:
			output = append(output, fmt.Sprintf("%d", args[arg].Int64()))
		case FD:
			output = append(output, fmt.Sprintf("%d", args[arg].Int()))
		case WriteBuffer:
			output = append(output, dumpBuffer(t, args[arg].Pointer(), args[arg+1].SizeT(), maximumBlobSize))
		case Length:
			output = append(output, fmt.Sprintf("%d", args[arg].Uint64()))
		case Prot:
			output = append(output, tsys.Prot(args[arg].Uint64()).String())
		default:
			output = append(output, fmt.Sprintf("%#x", args[arg].Uint64()))
		}
	}

	return output
}

// post fills in the post-execution arguments for a system call. This modifies
// the given output slice in place with arguments that may only be interpreted
// after the system call has been executed.
func (i *SyscallInfo) post(t *kernel.Task, args arch.SyscallArguments, err error, output []string) {
	if err != nil {
		return
	}
	for arg := range output {
		if arg >= len(i.format) {
			break
		}
		switch i.format[arg] {
		case PostTimeVal:
			output[arg] = timeVal(t, args[arg].Pointer())
		case PostTaskInfo:
			output[arg] = taskInfo(t, args[arg].Pointer())
		}
	}
}

// printEnter prints the given system call entry.
func (i *SyscallInfo) printEnter(t *kernel.Task, args arch.SyscallArguments) []string {
	output := i.pre(t, args, LogMaximumSize)
	log.Infof("%v E %s(%s)", t, i.name, strings.Join(output, ", "))
	return output
}

// printExit prints the given system call exit.
func (i *SyscallInfo) printExit(t *kernel.Task, elapsed time.Duration, output []string, args arch.SyscallArguments, retval uintptr, err error) {
	var rval string
	if err == nil {
		// Fill in the output after successful execution.
		i.post(t, args, err, output)
		rval = fmt.Sprintf("%d (%v)", int64(retval), elapsed)
	} else if errno, ok := linuxerr.Errno(err); ok {
		rval = fmt.Sprintf("-1 errno=%d (%s) (%v)", int(errno), err, elapsed)
	} else {
		rval = fmt.Sprintf("-1 (%s) (%v)", err, elapsed)
	}
	log.Infof("%v X %s(%s) = %s", t, i.name, strings.Join(output, ", "), rval)
}

// syscallContext is the private data passed from SyscallEnter to
// SyscallExit.
type syscallContext struct {
	info      SyscallInfo
	args      arch.SyscallArguments
	start     time.Time
	logOutput []string
}

// SyscallEnter implements kernel.Stracer.SyscallEnter. It logs the syscall
// entry trace.
func (s SyscallMap) SyscallEnter(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) any {
	info, ok := s[sysno]
	if !ok {
		info = SyscallInfo{
			name:   fmt.Sprintf("sys_%d", sysno),
			format: defaultFormat,
		}
	}
	return &syscallContext{
		info:      info,
		args:      args,
		start:     time.Now(),
		logOutput: info.printEnter(t, args),
	}
}

// SyscallExit implements kernel.Stracer.SyscallExit. It logs the syscall
// exit trace.
func (s SyscallMap) SyscallExit(context any, t *kernel.Task, sysno, rval uintptr, err error) {
	c := context.(*syscallContext)
	elapsed := time.Since(c.start)
	c.info.printExit(t, elapsed, c.logOutput, c.args, rval, err)
}

// Initialize enables tracing of every registered syscall table.
func Initialize() {
	for _, table := range kernel.SyscallTables() {
		Enable(table)
	}
}

// Enable traces table with the tsys syscall formats.
func Enable(table *kernel.SyscallTable) {
	table.Stracer = tsysSyscalls
}

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
	"tsys.dev/tsys/pkg/sentry/arch"
)

// SyscallFn is a syscall implementation.
type SyscallFn func(t *Task, args arch.SyscallArguments) (uintptr, *SyscallControl, error)

// SyscallControl is returned by syscalls to control the behavior of
// Task.doSyscall.
type SyscallControl struct {
	// next is the state that the task goroutine should switch to. If next is
	// nil, the task goroutine should continue to run the application.
	next taskRunState

	// ignoreReturn is true if the return value should not be written to the
	// task's registers.
	ignoreReturn bool
}

var (
	// CtrlDoExit is returned by the implementations of the exit syscall to
	// enter the task exit path. The exit code must have been set with
	// Task.PrepareExit.
	CtrlDoExit = &SyscallControl{next: (*runExit)(nil), ignoreReturn: true}

	// CtrlYield is returned by the implementation of yield. The return value
	// is written and the task gives up the CPU until the scheduler picks it
	// again.
	CtrlYield = &SyscallControl{next: (*runYield)(nil)}
)

// SyscallSupportLevel is a syscall support level.
type SyscallSupportLevel int

// String returns a human readable representation of the support level.
func (l SyscallSupportLevel) String() string {
	switch l {
	case SupportUnimplemented:
		return "Unimplemented"
	case SupportPartial:
		return "Partial Support"
	case SupportFull:
		return "Full Support"
	default:
		return "Undocumented"
	}
}

const (
	// SupportUndocumented indicates the syscall is not documented yet.
	SupportUndocumented SyscallSupportLevel = iota

	// SupportUnimplemented indicates the syscall is unimplemented.
	SupportUnimplemented

	// SupportPartial indicates the syscall is partially supported.
	SupportPartial

	// SupportFull indicates the syscall is fully supported.
	SupportFull
)

// Syscall includes the syscall implementation and its kind.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Kind is the syscall kind recorded in the task's ledger.
	Kind tsys.Syscall

	// Fn is the implementation of the syscall.
	Fn SyscallFn

	// SupportLevel is the level of support implemented in tsys.
	SupportLevel SyscallSupportLevel

	// Note describes the compatibility of the syscall.
	Note string
}

// Stracer traces syscall execution.
type Stracer interface {
	// SyscallEnter is called on syscall entry.
	//
	// The returned private data is passed to SyscallExit.
	SyscallEnter(t *Task, sysno uintptr, args arch.SyscallArguments) any

	// SyscallExit is called on syscall exit.
	SyscallExit(context any, t *Task, sysno, rval uintptr, err error)
}

// SyscallTable is a lookup table of system calls.
type SyscallTable struct {
	// Name identifies the table.
	Name string

	// Table is the collection of functions.
	Table map[uintptr]Syscall

	// lookup is a fixed-size array that holds the syscalls (indexed by
	// their numbers). It is used for fast look ups.
	lookup [tsys.MaxSyscallNum]*Syscall

	// Stracer traces this syscall table, if not nil.
	Stracer Stracer
}

// allSyscallTables contains all known tables.
var allSyscallTables []*SyscallTable

// SyscallTables returns a read-only slice of registered SyscallTables.
func SyscallTables() []*SyscallTable {
	return allSyscallTables
}

// LookupSyscallTable returns the SyscallTable with the given name.
func LookupSyscallTable(name string) (*SyscallTable, bool) {
	for _, s := range allSyscallTables {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// RegisterSyscallTable registers a new syscall table for use by a Kernel.
func RegisterSyscallTable(s *SyscallTable) {
	if _, ok := LookupSyscallTable(s.Name); ok {
		panic(fmt.Sprintf("duplicate syscall table %q", s.Name))
	}
	s.Init()
	allSyscallTables = append(allSyscallTables, s)
}

// Init initializes the fast lookup table. It panics if an entry's number is
// out of range or does not match its kind.
func (s *SyscallTable) Init() {
	for num, sc := range s.Table {
		if num >= tsys.MaxSyscallNum {
			panic(fmt.Sprintf("syscall %q has number %d beyond %d", sc.Name, num, tsys.MaxSyscallNum))
		}
		if kind, ok := tsys.SyscallFromNumber(num); !ok || kind != sc.Kind {
			panic(fmt.Sprintf("syscall %q at number %d has kind %v", sc.Name, num, sc.Kind))
		}
		sc := sc
		s.lookup[num] = &sc
	}
}

// Lookup returns the syscall with the given number, or nil if there is none.
func (s *SyscallTable) Lookup(sysno uintptr) *Syscall {
	if sysno < uintptr(len(s.lookup)) {
		return s.lookup[sysno]
	}
	return nil
}

// mapLookup is similar to Lookup, except that it only uses the syscall table,
// that is, it skips the fast look array. This is available for benchmarking.
func (s *SyscallTable) mapLookup(sysno uintptr) *Syscall {
	if sc, ok := s.Table[sysno]; ok {
		return &sc
	}
	return nil
}

// SyscallName returns the name of sysno, or a placeholder for unknown numbers.
func (s *SyscallTable) SyscallName(sysno uintptr) string {
	if sc := s.Lookup(sysno); sc != nil {
		return sc.Name
	}
	return fmt.Sprintf("sys_%d", sysno)
}

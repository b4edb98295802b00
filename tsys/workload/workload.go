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

// Package workload describes the tasks run by the tsys command. A workload
// file is YAML:
//
//	name: demo
//	tasks:
//	- name: writer
//	  exit: 3
//	  steps:
//	  - {syscall: mmap, args: [0x1000, 0x2000, 3], expect: 0}
//	  - store: {addr: 0x2500, bytes: [42]}
//	  - load: {addr: 0x2500, bytes: [42]}
//	  - {syscall: exit, args: [3]}
//
// Syscall steps trap into the kernel with the given arguments. Store and
// load steps access memory from user mode; an access the page tables
// reject is a page fault.
package workload

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"
	"tsys.dev/tsys/pkg/abi/tsys"
)

// Workload is a named set of tasks run on one kernel.
type Workload struct {
	Name string `yaml:"name"`

	// MemoryFrames overrides --memory-frames for this workload when set.
	MemoryFrames uint64 `yaml:"memory_frames,omitempty"`

	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec describes one task.
type TaskSpec struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`

	// Exit is the expected exit code, if set.
	Exit *int64 `yaml:"exit,omitempty"`
}

// Step is one action of a task. Exactly one of Syscall, Sysno, Store and
// Load is set.
type Step struct {
	// Syscall is the name of the syscall to make.
	Syscall string `yaml:"syscall,omitempty"`

	// Sysno is a raw syscall number, for numbers the kernel does not know.
	Sysno *uint64 `yaml:"sysno,omitempty"`

	// Args are placed in a0 to a5.
	Args []int64 `yaml:"args,omitempty"`

	// Expect is the value the syscall must leave in a0, if set.
	Expect *int64 `yaml:"expect,omitempty"`

	Store *Access `yaml:"store,omitempty"`
	Load  *Access `yaml:"load,omitempty"`
}

// Access is a user-mode memory access. For a store, Bytes are written at
// Addr. For a load, len(Bytes) bytes are read at Addr and must equal Bytes.
type Access struct {
	Addr  uint64  `yaml:"addr"`
	Bytes []uint8 `yaml:"bytes"`
}

// isSyscall returns true if s traps into the kernel.
func (s *Step) isSyscall() bool {
	return s.Syscall != "" || s.Sysno != nil
}

// number returns the syscall number of a syscall step.
func (s *Step) number() uintptr {
	if s.Sysno != nil {
		return uintptr(*s.Sysno)
	}
	kind, ok := tsys.SyscallFromName(s.Syscall)
	if !ok {
		panic(fmt.Sprintf("unknown syscall %q", s.Syscall))
	}
	return kind.Number()
}

// Parse decodes a workload. Unknown keys are errors.
func Parse(data []byte) (*Workload, error) {
	var w Workload
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("unable to decode workload: %w", err)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Load reads and parses the workload file at path. The workload name
// defaults to path.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open workload: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if w.Name == "" {
		w.Name = path
	}
	return w, nil
}

func (w *Workload) validate() error {
	if len(w.Tasks) == 0 {
		return fmt.Errorf("workload %q has no tasks", w.Name)
	}
	for i := range w.Tasks {
		ts := &w.Tasks[i]
		for j := range ts.Steps {
			if err := ts.Steps[j].validate(); err != nil {
				return fmt.Errorf("task %d step %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func (s *Step) validate() error {
	set := 0
	if s.Syscall != "" {
		set++
		if _, ok := tsys.SyscallFromName(s.Syscall); !ok {
			return fmt.Errorf("unknown syscall %q", s.Syscall)
		}
	}
	if s.Sysno != nil {
		set++
	}
	if s.Store != nil {
		set++
	}
	if s.Load != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("step must have exactly one of syscall, sysno, store or load, got %d", set)
	}
	if !s.isSyscall() && (len(s.Args) > 0 || s.Expect != nil) {
		return fmt.Errorf("args and expect only apply to syscall steps")
	}
	if len(s.Args) > 6 {
		return fmt.Errorf("%d syscall arguments, at most 6 are passed", len(s.Args))
	}
	for _, a := range []*Access{s.Store, s.Load} {
		if a != nil && len(a.Bytes) == 0 {
			return fmt.Errorf("memory access at %#x has no bytes", a.Addr)
		}
	}
	return nil
}

// Instantiate returns a private copy of w with defaults applied. Each
// kernel runs its own copy.
func (w *Workload) Instantiate() *Workload {
	c := deepcopy.Copy(w).(*Workload)
	for i := range c.Tasks {
		if c.Tasks[i].Name == "" {
			c.Tasks[i].Name = fmt.Sprintf("task-%d", i)
		}
	}
	return c
}

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

package arch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSyscallArgumentConversions(t *testing.T) {
	neg := ^uintptr(0) // -1 in two's complement.
	a := SyscallArgument{Value: neg}
	if got := a.Int(); got != -1 {
		t.Errorf("Int() = %d, want -1", got)
	}
	if got := a.Int64(); got != -1 {
		t.Errorf("Int64() = %d, want -1", got)
	}
	if got := a.Uint(); got != 0xffffffff {
		t.Errorf("Uint() = %#x, want 0xffffffff", got)
	}
	if got := (SyscallArgument{Value: 0x1000}).Pointer(); got != 0x1000 {
		t.Errorf("Pointer() = %v, want 0x1000", got)
	}
}

func TestRegistersSyscall(t *testing.T) {
	var r Registers
	r.A[5] = 99
	r.SetSyscall(222, 0x1000, 0x2000, 3)
	if got := r.SyscallNo(); got != 222 {
		t.Errorf("SyscallNo() = %d, want 222", got)
	}
	args := r.SyscallArgs()
	got := []uintptr{args[0].Value, args[1].Value, args[2].Value, args[3].Value, args[4].Value, args[5].Value}
	want := []uintptr{0x1000, 0x2000, 3, 0, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SyscallArgs() mismatch (-want +got):\n%s", diff)
	}
	if got, want := args.String(), "0x1000, 0x2000, 0x3, 0x0, 0x0, 0x0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	r.SetReturn(^uintptr(0))
	if got := int64(r.Return()); got != -1 {
		t.Errorf("Return() = %d, want -1", got)
	}

	r.AdvancePC()
	r.AdvancePC()
	if r.Sepc != 8 {
		t.Errorf("Sepc = %d, want 8", r.Sepc)
	}
}

func TestSetSyscallTooManyArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("SetSyscall with 7 arguments did not panic")
		}
	}()
	var r Registers
	r.SetSyscall(1, 1, 2, 3, 4, 5, 6, 7)
}

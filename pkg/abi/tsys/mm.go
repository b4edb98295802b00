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
	"strconv"
	"strings"

	"tsys.dev/tsys/pkg/hostarch"
)

// Prot is the protection mask passed to mmap.
type Prot uint64

// Protections for mmap.
const (
	PROT_NONE  Prot = 0
	PROT_READ  Prot = 1 << 0
	PROT_WRITE Prot = 1 << 1
	PROT_EXEC  Prot = 1 << 2

	// PROT_MASK is the set of defined protection bits.
	PROT_MASK = PROT_READ | PROT_WRITE | PROT_EXEC
)

// Valid returns true if p sets only defined bits and at least one of them.
func (p Prot) Valid() bool {
	return p&^PROT_MASK == 0 && p != PROT_NONE
}

// AccessType returns the access type granted by p.
func (p Prot) AccessType() hostarch.AccessType {
	return hostarch.AccessType{
		Read:    p&PROT_READ != 0,
		Write:   p&PROT_WRITE != 0,
		Execute: p&PROT_EXEC != 0,
	}
}

// String implements fmt.Stringer.String.
func (p Prot) String() string {
	if p == PROT_NONE {
		return "PROT_NONE"
	}
	var parts []string
	for _, b := range []struct {
		bit  Prot
		name string
	}{
		{PROT_READ, "PROT_READ"},
		{PROT_WRITE, "PROT_WRITE"},
		{PROT_EXEC, "PROT_EXEC"},
	} {
		if p&b.bit != 0 {
			parts = append(parts, b.name)
			p &^= b.bit
		}
	}
	if p != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(p), 16))
	}
	return strings.Join(parts, "|")
}

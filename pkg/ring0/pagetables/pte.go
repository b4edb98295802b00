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

package pagetables

import (
	"fmt"

	"tsys.dev/tsys/pkg/hostarch"
)

// Address constants.
const (
	pteShift = 12
	pmdShift = 21
	pgdShift = 30

	pteMask = 0x1ff << pteShift
	pmdMask = 0x1ff << pmdShift
	pgdMask = 0x1ff << pgdShift

	pteSize = 1 << pteShift
	pmdSize = 1 << pmdShift
	pgdSize = 1 << pgdShift

	// MaxAddress is the first address past the translated range.
	MaxAddress = 1 << 39

	ppnShift = 10

	entriesPerPage = 512
)

// PTE flag bits.
const (
	valid      = 1 << 0
	readable   = 1 << 1
	writable   = 1 << 2
	executable = 1 << 3
	user       = 1 << 4
	global     = 1 << 5
	accessed   = 1 << 6
	dirty      = 1 << 7

	flagsMask = 0x3ff
	leafMask  = readable | writable | executable
)

// MapOpts are the options of a leaf entry.
type MapOpts struct {
	// AccessType defines permissions.
	AccessType hostarch.AccessType

	// Global indicates the page is globally accessible.
	Global bool

	// User indicates the page is a user page.
	User bool
}

// String implements fmt.Stringer.String.
func (opts MapOpts) String() string {
	u := "-"
	if opts.User {
		u = "u"
	}
	g := "-"
	if opts.Global {
		g = "g"
	}
	return fmt.Sprintf("%s%s%s", opts.AccessType, u, g)
}

// PTE is a page table entry.
type PTE uint64

// PTEs is a collection of entries.
type PTEs [entriesPerPage]PTE

// Clear clears this PTE.
func (p *PTE) Clear() {
	*p = 0
}

// Valid returns true iff this entry is valid.
func (p *PTE) Valid() bool {
	return *p&valid != 0
}

// isTable returns true iff this entry points at the next level.
func (p *PTE) isTable() bool {
	return p.Valid() && *p&leafMask == 0
}

// Opts returns the PTE options.
//
// These are all options except Valid, Accessed and Dirty.
func (p *PTE) Opts() MapOpts {
	v := *p
	return MapOpts{
		AccessType: hostarch.AccessType{
			Read:    v&readable != 0,
			Write:   v&writable != 0,
			Execute: v&executable != 0,
		},
		Global: v&global != 0,
		User:   v&user != 0,
	}
}

// Set sets this PTE to a leaf mapping addr. An empty access type clears it.
func (p *PTE) Set(addr uintptr, opts MapOpts) {
	if !opts.AccessType.Any() {
		p.Clear()
		return
	}
	v := PTE((addr>>pteShift)<<ppnShift) | valid | accessed
	if opts.AccessType.Read {
		v |= readable
	}
	if opts.AccessType.Write {
		v |= writable | dirty
	}
	if opts.AccessType.Execute {
		v |= executable
	}
	if opts.User {
		v |= user
	}
	if opts.Global {
		v |= global
	}
	*p = v
}

// setPageTable points this PTE at the next level table ptes. Table entries
// carry no permission bits.
func (p *PTE) setPageTable(pt *PageTables, ptes *PTEs) {
	addr := pt.Allocator.PhysicalFor(ptes)
	if addr&(pteSize-1) != 0 {
		// This should never happen.
		panic(fmt.Sprintf("unaligned physical address: %v", addr))
	}
	*p = PTE((addr>>pteShift)<<ppnShift) | valid
}

// Address extracts the address. This should only be used if Valid returns true.
func (p *PTE) Address() uintptr {
	return uintptr(*p>>ppnShift) << pteShift
}

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

package hostarch

import (
	"math"
	"testing"
)

func TestRoundUp(t *testing.T) {
	for _, tc := range []struct {
		addr Addr
		want Addr
		ok   bool
	}{
		{addr: 0, want: 0, ok: true},
		{addr: 1, want: PageSize, ok: true},
		{addr: PageSize, want: PageSize, ok: true},
		{addr: PageSize + 1, want: 2 * PageSize, ok: true},
		{addr: math.MaxUint64 - PageSize + 1, want: math.MaxUint64 - PageSize + 1, ok: true},
		{addr: math.MaxUint64, want: 0, ok: false},
	} {
		got, ok := tc.addr.RoundUp()
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("%v.RoundUp() = (%v, %t), want (%v, %t)", tc.addr, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPageRoundUp(t *testing.T) {
	for _, tc := range []struct {
		length uint64
		want   uint64
		ok     bool
	}{
		{length: 1, want: PageSize, ok: true},
		{length: 0x2000, want: 0x2000, ok: true},
		{length: 0x2001, want: 0x3000, ok: true},
		{length: math.MaxUint64 - 10, ok: false},
	} {
		got, ok := PageRoundUp(tc.length)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("PageRoundUp(%#x) = (%#x, %t), want (%#x, %t)", tc.length, got, ok, tc.want, tc.ok)
		}
	}
}

func TestToRange(t *testing.T) {
	ar, ok := Addr(0x1000).ToRange(0x2000)
	if !ok || ar != (AddrRange{0x1000, 0x3000}) {
		t.Errorf("ToRange() = (%v, %t), want ([0x1000, 0x3000), true)", ar, ok)
	}
	if _, ok := Addr(math.MaxUint64 - 0xfff).ToRange(0x2000); ok {
		t.Errorf("ToRange() did not detect overflow")
	}
	if got, want := ar.String(), "[0x1000, 0x3000)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := ar.NumPages(); got != 2 {
		t.Errorf("NumPages() = %d, want 2", got)
	}
}

func TestAddrRange(t *testing.T) {
	r := AddrRange{0x2000, 0x5000}
	for _, tc := range []struct {
		name     string
		other    AddrRange
		overlaps bool
		superset bool
		inter    AddrRange
	}{
		{"inside", AddrRange{0x3000, 0x4000}, true, true, AddrRange{0x3000, 0x4000}},
		{"left", AddrRange{0x1000, 0x3000}, true, false, AddrRange{0x2000, 0x3000}},
		{"right", AddrRange{0x4000, 0x6000}, true, false, AddrRange{0x4000, 0x5000}},
		{"adjacent", AddrRange{0x5000, 0x6000}, false, false, AddrRange{0x5000, 0x5000}},
		{"equal", r, true, true, r},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Overlaps(tc.other); got != tc.overlaps {
				t.Errorf("Overlaps(%v) = %t, want %t", tc.other, got, tc.overlaps)
			}
			if got := r.IsSupersetOf(tc.other); got != tc.superset {
				t.Errorf("IsSupersetOf(%v) = %t, want %t", tc.other, got, tc.superset)
			}
			if got := r.Intersect(tc.other); got.Length() != tc.inter.Length() || (got.Length() != 0 && got != tc.inter) {
				t.Errorf("Intersect(%v) = %v, want %v", tc.other, got, tc.inter)
			}
		})
	}
	if !r.Contains(0x2000) || r.Contains(0x5000) {
		t.Errorf("Contains() does not treat %v as half open", r)
	}
}

func TestAccessType(t *testing.T) {
	rw := Read.Union(Write)
	if got := rw.String(); got != "rw-" {
		t.Errorf("String() = %q, want rw-", got)
	}
	if got := AnyAccess.String(); got != "rwx" {
		t.Errorf("String() = %q, want rwx", got)
	}
	if !rw.SupersetOf(Read) || rw.SupersetOf(Execute) {
		t.Errorf("SupersetOf() wrong for %v", rw)
	}
	if got := rw.Intersect(Execute); got.Any() {
		t.Errorf("Intersect() = %v, want ---", got)
	}
	if NoAccess.Any() {
		t.Errorf("NoAccess.Any() = true")
	}
}

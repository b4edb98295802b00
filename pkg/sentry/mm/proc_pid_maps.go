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

package mm

import (
	"bytes"
	"fmt"
	"io"
)

// WriteMapsTo writes one line per mapping to w in the format of
// /proc/[pid]/maps.
func (mm *MemoryManager) WriteMapsTo(w io.Writer) error {
	var err error
	mm.mappings.Ascend(func(m *Mapping) bool {
		_, err = fmt.Fprintf(w, "%s\n", mapsEntry(m))
		return err == nil
	})
	return err
}

// mapsEntry returns the maps line for m. The kernel supports neither file
// mappings nor sharing, so offset, device and inode are always zero and every
// mapping is private.
func mapsEntry(m *Mapping) string {
	return fmt.Sprintf("%08x-%08x %sp %08x %02x:%02x %d ", uint64(m.Range.Start), uint64(m.Range.End), m.Perms, 0, 0, 0, 0)
}

// String implements fmt.Stringer.String.
func (mm *MemoryManager) String() string {
	var buf bytes.Buffer
	mm.WriteMapsTo(&buf)
	return buf.String()
}

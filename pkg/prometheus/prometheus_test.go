// Copyright 2022 The gVisor Authors.
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

package prometheus

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestWriteAndParse(t *testing.T) {
	when := time.Unix(1700000000, 0)
	syscalls := &Metric{Name: "syscalls", Type: TypeCounter, Help: "Syscalls\nby kind."}
	frames := &Metric{Name: "frames", Type: TypeGauge}
	s := &Snapshot{When: when}
	s.Add(
		LabeledIntData(syscalls, map[string]string{"syscall": "mmap"}, 3),
		LabeledIntData(syscalls, map[string]string{"syscall": "exit"}, 1),
		NewIntData(frames, 42),
	)

	var buf bytes.Buffer
	n, err := Write(&buf, ExportOptions{CommentHeader: "line one\nline two", ExporterPrefix: "tsys_"}, s)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write returned %d, buffer holds %d bytes", n, buf.Len())
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# line one\n# line two\n") {
		t.Errorf("comment header missing:\n%s", out)
	}
	if strings.Index(out, "tsys_frames") > strings.Index(out, "tsys_syscalls") {
		t.Errorf("families not sorted by name:\n%s", out)
	}

	families, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, out)
	}
	for _, tc := range []struct {
		name   string
		labels map[string]string
		want   uint64
	}{
		{"tsys_syscalls", map[string]string{"syscall": "mmap"}, 3},
		{"tsys_syscalls", map[string]string{"syscall": "exit"}, 1},
		{"tsys_frames", nil, 42},
	} {
		got, err := GetInteger(families, tc.name, tc.labels)
		if err != nil {
			t.Errorf("GetInteger(%s, %v) failed: %v", tc.name, tc.labels, err)
			continue
		}
		if got != tc.want {
			t.Errorf("GetInteger(%s, %v) = %d, want %d", tc.name, tc.labels, got, tc.want)
		}
	}
	if got := families["tsys_syscalls"].GetHelp(); got != "Syscalls\nby kind." {
		t.Errorf("help = %q", got)
	}
	if got := families["tsys_frames"].GetMetric()[0].GetTimestampMs(); got != when.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", got, when.UnixMilli())
	}
	if _, err := GetInteger(families, "tsys_syscalls", map[string]string{"syscall": "yield"}); err == nil {
		t.Errorf("GetInteger for a missing label set succeeded")
	}
}

func TestFamiliesTypeConflict(t *testing.T) {
	s := NewSnapshot().Add(
		NewIntData(&Metric{Name: "x", Type: TypeCounter}, 1),
		NewIntData(&Metric{Name: "x", Type: TypeGauge}, 1),
	)
	if _, err := s.Families(""); err == nil {
		t.Errorf("Families with conflicting types succeeded")
	}
}

func TestFamiliesUnknownType(t *testing.T) {
	s := NewSnapshot().Add(NewIntData(&Metric{Name: "x", Type: Type(9)}, 1))
	if _, err := s.Families(""); err == nil {
		t.Errorf("Families with an unknown type succeeded")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteError(t *testing.T) {
	s := NewSnapshot().Add(NewIntData(&Metric{Name: "x", Type: TypeCounter}, 1))
	if _, err := Write(failWriter{}, ExportOptions{}, s); err == nil {
		t.Errorf("Write to a failing writer succeeded")
	}
}

func TestNewSnapshotTime(t *testing.T) {
	old := timeNow
	defer func() { timeNow = old }()
	fixed := time.Unix(42, 0)
	timeNow = func() time.Time { return fixed }
	if diff := cmp.Diff(fixed, NewSnapshot().When); diff != "" {
		t.Errorf("When mismatch (-want +got):\n%s", diff)
	}
}

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

package linuxerr_test

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
	"tsys.dev/tsys/pkg/errors"
	"tsys.dev/tsys/pkg/errors/linuxerr"
)

func TestEquals(t *testing.T) {
	derived := errors.New(unix.ENOMEM, "mmap: out of frames")
	for _, tc := range []struct {
		name string
		e    *errors.Error
		err  error
		want bool
	}{
		{name: "same", e: linuxerr.EINVAL, err: linuxerr.EINVAL, want: true},
		{name: "different", e: linuxerr.EINVAL, err: linuxerr.ENOMEM, want: false},
		{name: "derived", e: linuxerr.ENOMEM, err: derived, want: true},
		{name: "unix errno", e: linuxerr.EFAULT, err: unix.EFAULT, want: true},
		{name: "wrapped is not unwrapped", e: linuxerr.EFAULT, err: fmt.Errorf("x: %w", linuxerr.EFAULT), want: false},
		{name: "nil nil", e: nil, err: nil, want: true},
		{name: "nil error", e: linuxerr.EINVAL, err: nil, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := linuxerr.Equals(tc.e, tc.err); got != tc.want {
				t.Errorf("Equals(%v, %v) = %t, want %t", tc.e, tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorFromUnix(t *testing.T) {
	if err := linuxerr.ErrorFromUnix(0); err != nil {
		t.Errorf("ErrorFromUnix(0) = %v, want nil", err)
	}
	if err := linuxerr.ErrorFromUnix(unix.EEXIST); err != linuxerr.EEXIST {
		t.Errorf("ErrorFromUnix(EEXIST) = %v, want %v", err, linuxerr.EEXIST)
	}
	if err := linuxerr.ErrorFromUnix(unix.EAGAIN); err != unix.EAGAIN {
		t.Errorf("ErrorFromUnix(EAGAIN) = %v, want the errno itself", err)
	}
}

func TestConversions(t *testing.T) {
	if got := linuxerr.ToUnix(linuxerr.ENOSYS); got != unix.ENOSYS {
		t.Errorf("ToUnix(ENOSYS) = %v", got)
	}
	if got := linuxerr.ToUnix(nil); got != 0 {
		t.Errorf("ToUnix(nil) = %v, want 0", got)
	}
	if err := linuxerr.ToError(nil); err != nil {
		t.Errorf("ToError(nil) = %v, want untyped nil", err)
	}
	for _, tc := range []struct {
		err   error
		errno unix.Errno
		ok    bool
	}{
		{err: linuxerr.EBADF, errno: unix.EBADF, ok: true},
		{err: unix.EPERM, errno: unix.EPERM, ok: true},
		{err: fmt.Errorf("plain"), ok: false},
	} {
		errno, ok := linuxerr.Errno(tc.err)
		if errno != tc.errno || ok != tc.ok {
			t.Errorf("Errno(%v) = (%v, %t), want (%v, %t)", tc.err, errno, ok, tc.errno, tc.ok)
		}
	}
}

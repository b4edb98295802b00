// Copyright 2021 The gVisor Authors.
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

// Package linuxerr contains syscall error codes exported as an error interface
// pointers. This allows for fast comparison and return operations comperable
// to unix.Errno constants.
package linuxerr

import (
	"golang.org/x/sys/unix"
	"tsys.dev/tsys/pkg/errors"
)

// The following errors are semantically identical to Errno of type unix.Errno
// or sycall.Errno. However, since the type are distinct ( these are
// *errors.Error), they are not directly comperable. However, the Errno method
// returns an Errno number such that the error can be compared to unix/syscall.Errno
// (e.g. unix.Errno(EPERM.Errno()) == unix.EPERM is true).
var (
	noError *errors.Error = nil
	EPERM                 = errors.New(unix.EPERM, "operation not permitted")
	EBADF                 = errors.New(unix.EBADF, "bad file number")
	ENOMEM                = errors.New(unix.ENOMEM, "out of memory")
	EFAULT                = errors.New(unix.EFAULT, "bad address")
	EEXIST                = errors.New(unix.EEXIST, "file exists")
	EINVAL                = errors.New(unix.EINVAL, "invalid argument")
	ENOSYS                = errors.New(unix.ENOSYS, "invalid system call number")
)

var errorsByErrno = map[unix.Errno]*errors.Error{
	unix.EPERM:  EPERM,
	unix.EBADF:  EBADF,
	unix.ENOMEM: ENOMEM,
	unix.EFAULT: EFAULT,
	unix.EEXIST: EEXIST,
	unix.EINVAL: EINVAL,
	unix.ENOSYS: ENOSYS,
}

// ErrorFromUnix returns a linuxerr from a unix.Errno. Errnos without a
// linuxerr counterpart are returned as is.
func ErrorFromUnix(err unix.Errno) error {
	if err == unix.Errno(0) {
		return nil
	}
	if e, ok := errorsByErrno[err]; ok {
		return e
	}
	return err
}

// ToError converts a linuxerr to an error type.
func ToError(err *errors.Error) error {
	if err == noError {
		return nil
	}
	return err
}

// ToUnix converts a linuxerr to a unix.Errno.
func ToUnix(e *errors.Error) unix.Errno {
	var unixErr unix.Errno
	if e != noError {
		unixErr = e.Errno()
	}
	return unixErr
}

// Equals compars a linuxerr to a given error. Any *errors.Error carrying the
// same errno compares equal, so package-specific sentinels match the generic
// value they are derived from.
func Equals(e *errors.Error, err error) bool {
	var unixErr unix.Errno
	if e != noError {
		unixErr = e.Errno()
	}
	if err == nil {
		err = noError
	}
	if ee, ok := err.(*errors.Error); ok && ee != noError && e != noError {
		return ee.Errno() == unixErr
	}
	return e == err || unixErr == err
}

// Errno extracts the errno carried by err. ok is false if err carries none.
func Errno(err error) (unix.Errno, bool) {
	switch e := err.(type) {
	case *errors.Error:
		if e == noError {
			return 0, false
		}
		return e.Errno(), true
	case unix.Errno:
		return e, true
	}
	return 0, false
}

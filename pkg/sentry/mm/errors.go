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
	"golang.org/x/sys/unix"
	"tsys.dev/tsys/pkg/errors"
	"tsys.dev/tsys/pkg/metric"
)

// Errors returned by MMap and MUnmap. Each shares its errno with the
// corresponding linuxerr value, so linuxerr.Equals(linuxerr.EINVAL, err)
// holds for ErrInvalidAlignment.
var (
	ErrInvalidAlignment  = errors.New(unix.EINVAL, "address is not page aligned")
	ErrInvalidPermission = errors.New(unix.EINVAL, "invalid protection mask")
	ErrAddressRange      = errors.New(unix.ENOMEM, "range exceeds the user address space")
	ErrOverlap           = errors.New(unix.EEXIST, "range overlaps an existing mapping")
	ErrOutOfMemory       = errors.New(unix.ENOMEM, "out of physical frames")
	ErrNotMapped         = errors.New(unix.EINVAL, "range is not fully mapped")
)

var mmapErrorReason = metric.NewField("reason", []string{"alignment", "permission", "range", "overlap", "oom"})

// mmapErrors counts rejected mmap calls.
var mmapErrors = metric.MustCreateNewUint64Metric("/tsys/mm/mmap_errors", "Number of mmap calls rejected, by reason.", mmapErrorReason)

// mmapFailed records err in mmapErrors and returns it.
func mmapFailed(err *errors.Error) error {
	var reason string
	switch err {
	case ErrInvalidAlignment:
		reason = "alignment"
	case ErrInvalidPermission:
		reason = "permission"
	case ErrAddressRange:
		reason = "range"
	case ErrOverlap:
		reason = "overlap"
	case ErrOutOfMemory:
		reason = "oom"
	default:
		return err
	}
	mmapErrors.Increment(reason)
	return err
}

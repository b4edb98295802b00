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

// Package ktime provides an API for clocks used by the sentry.
package ktime

import (
	"fmt"
	"math"
	"time"

	"tsys.dev/tsys/pkg/abi/tsys"
)

// Time represents an instant in time with nanosecond precision.
//
// Time is measured from the boot of the Clock that produced it and has no
// meaning in the real world.
type Time struct {
	ns int64
}

var (
	// MinTime is the lowest possible time that can be represented by Time.
	MinTime = Time{ns: math.MinInt64}

	// MaxTime is the highest possible time that can be represented by
	// Time.
	MaxTime = Time{ns: math.MaxInt64}

	// ZeroTime represents the zero time in an unspecified Clock's domain.
	ZeroTime = Time{ns: 0}
)

const (
	// MinDuration is the minimum duration representable by time.Duration.
	MinDuration = time.Duration(math.MinInt64)

	// MaxDuration is the maximum duration representable by time.Duration.
	MaxDuration = time.Duration(math.MaxInt64)
)

// FromNanoseconds returns a Time representing the point ns nanoseconds after
// an unspecified Clock's zero time.
func FromNanoseconds(ns int64) Time {
	return Time{ns}
}

// FromMicroseconds returns a Time representing the point us microseconds
// after an unspecified Clock's zero time.
func FromMicroseconds(us int64) Time {
	if us > math.MaxInt64/1000 {
		return MaxTime
	}
	if us < math.MinInt64/1000 {
		return MinTime
	}
	return Time{us * 1000}
}

// Nanoseconds returns nanoseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Nanoseconds() int64 {
	return t.ns
}

// Microseconds returns microseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Microseconds() int64 {
	return t.ns / 1000
}

// Milliseconds returns milliseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Milliseconds() int64 {
	return t.ns / 1e6
}

// Seconds returns seconds elapsed since the zero time in t's Clock domain.
func (t Time) Seconds() int64 {
	return t.Nanoseconds() / time.Second.Nanoseconds()
}

// TimeVal converts t to the get_time wire structure. Negative times are
// clamped to zero.
func (t Time) TimeVal() tsys.TimeVal {
	if t.ns < 0 {
		return tsys.TimeVal{}
	}
	return tsys.MicrosecondsToTimeVal(uint64(t.Microseconds()))
}

// Add adds the duration of d to t.
func (t Time) Add(d time.Duration) Time {
	if t.ns > 0 && d.Nanoseconds() > math.MaxInt64-int64(t.ns) {
		return MaxTime
	}
	if t.ns < 0 && d.Nanoseconds() < math.MinInt64-int64(t.ns) {
		return MinTime
	}
	return Time{int64(t.ns) + d.Nanoseconds()}
}

// Equal reports whether the two times represent the same instant in time.
func (t Time) Equal(u Time) bool {
	return t.ns == u.ns
}

// Before reports whether the instant t is before the instant u.
func (t Time) Before(u Time) bool {
	return t.ns < u.ns
}

// After reports whether the instant t is after the instant u.
func (t Time) After(u Time) bool {
	return t.ns > u.ns
}

// Sub returns the duration of t - u.
func (t Time) Sub(u Time) time.Duration {
	dur := time.Duration(int64(t.ns)-int64(u.ns)) * time.Nanosecond
	switch {
	case u.Add(dur).Equal(t):
		return dur
	case t.Before(u):
		return MinDuration
	default:
		return MaxDuration
	}
}

// IsZero returns whether t represents the zero time instant in t's Clock domain.
func (t Time) IsZero() bool {
	return t == ZeroTime
}

// String returns the time represented in nanoseconds as a string.
func (t Time) String() string {
	return fmt.Sprintf("%dns", t.Nanoseconds())
}

// A Clock is an abstract time source.
type Clock interface {
	// Now returns the current time according to the Clock. Successive
	// calls never return decreasing times.
	Now() Time
}

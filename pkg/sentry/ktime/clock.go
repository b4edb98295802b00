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

package ktime

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MonotonicClock is a Clock whose zero time is the moment it was created. It
// reads time from a clockwork.Clock so tests can substitute a fake.
//
// MonotonicClock is safe for concurrent use.
type MonotonicClock struct {
	source clockwork.Clock
	boot   time.Time

	// mu protects last.
	mu   sync.Mutex
	last Time
}

var _ Clock = (*MonotonicClock)(nil)

// NewMonotonicClock returns a MonotonicClock booted now according to source.
// A nil source selects the real clock.
func NewMonotonicClock(source clockwork.Clock) *MonotonicClock {
	if source == nil {
		source = clockwork.NewRealClock()
	}
	return &MonotonicClock{
		source: source,
		boot:   source.Now(),
	}
}

// Now implements Clock.Now.
func (c *MonotonicClock) Now() Time {
	now := ZeroTime.Add(c.source.Since(c.boot))
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}

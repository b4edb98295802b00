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

package log

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusEmitter forwards log statements to a logrus logger, so that the
// kernel's output can be merged into an embedding application's log stream.
type LogrusEmitter struct {
	Logger *logrus.Logger

	// Fields are attached to every entry.
	Fields logrus.Fields
}

// NewLogrusEmitter returns a LogrusEmitter writing to l at debug verbosity.
// Filtering is left to the BasicLogger in front of the emitter.
func NewLogrusEmitter(l *logrus.Logger, fields logrus.Fields) *LogrusEmitter {
	l.SetLevel(logrus.DebugLevel)
	return &LogrusEmitter{Logger: l, Fields: fields}
}

func logrusLevel(level Level) logrus.Level {
	switch level {
	case Warning:
		return logrus.WarnLevel
	case Info:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Emit implements Emitter.Emit.
func (e *LogrusEmitter) Emit(_ int, level Level, timestamp time.Time, format string, v ...any) {
	e.Logger.WithFields(e.Fields).WithTime(timestamp).Log(logrusLevel(level), fmt.Sprintf(format, v...))
}

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

// Package config provides basic infrastructure to set configuration settings
// for tsys. Each setting that can be changed from outside (flags or config
// file) must be registered in RegisterFlags and mapped to a field of Config
// through its `flag` tag.
package config

import (
	"fmt"
)

// Log formats accepted by --log-format.
const (
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatLogrus = "logrus"
)

// Config holds configuration that is not part of the workload description.
//
// Follow these steps to add a new flag:
//  1. Create a new field in Config.
//  2. Add a field tag with the flag name.
//  3. Register the flag in RegisterFlags.
//  4. Add any validation in validate.
type Config struct {
	// LogFilename is the filename to log to, if not empty. The pattern may
	// contain %COMMAND%, %KERNEL% and %TIMESTAMP%.
	LogFilename string `flag:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// Strace indicates that strace should be enabled.
	Strace bool `flag:"strace"`

	// StraceLogSize is the max size of data blobs to display.
	StraceLogSize uint `flag:"strace-log-size"`

	// MemoryFrames is the number of physical frames available to each
	// kernel instance.
	MemoryFrames uint64 `flag:"memory-frames"`

	// ConfigFile is a TOML file supplying values for flags not set on the
	// command line.
	ConfigFile string `flag:"config"`

	// MetricsFile, if set, receives the Prometheus text export of all
	// metrics once the run completes. "-" selects stdout.
	MetricsFile string `flag:"metrics"`

	// Maps prints the final mappings of every task address space.
	Maps bool `flag:"maps"`
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatLogrus:
	default:
		return fmt.Errorf("invalid log format %q, must be one of: %s, %s, %s", c.LogFormat, LogFormatText, LogFormatJSON, LogFormatLogrus)
	}
	if c.MemoryFrames == 0 {
		return fmt.Errorf("memory-frames must be greater than 0")
	}
	return nil
}

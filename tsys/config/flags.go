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

package config

import (
	"flag"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultMemoryFrames is the default size of a kernel's frame pool.
const DefaultMemoryFrames = 4096

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr. The following variables are available: %TIMESTAMP%, %COMMAND%, %KERNEL%.")
	flagSet.String("log-format", LogFormatText, "log format: text (default), json, or logrus.")
	flagSet.Bool("debug", false, "enable debug logging.")

	// Debugging flags: strace related
	flagSet.Bool("strace", false, "enable strace.")
	flagSet.Uint("strace-log-size", 1024, "default size (in bytes) to log data argument blobs.")

	// Flags that control kernel behavior.
	flagSet.Uint64("memory-frames", DefaultMemoryFrames, "number of 4KiB physical frames available to each kernel instance.")
	flagSet.String("config", "", "TOML file whose [flags] table sets flags not given on the command line.")
	flagSet.String("metrics", "", "file path where metrics are written in Prometheus text format after a run; '-' for stdout.")
	flagSet.Bool("maps", false, "print the mappings of every task when the run completes.")
}

// NewFromFlags creates a new Config with values coming from command line flags.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		x := reflect.ValueOf(fl.Value.(flag.Getter).Get())
		obj.Field(i).Set(x)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
func (c *Config) ToFlags() []string {
	var rv []string

	// Construct a temporary set for default plumbing.
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		val := getVal(obj.Field(i))

		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == fl.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", fl.Name, val))
	}
	return rv
}

// fileConfig is the layout of the file named by --config. Each key of the
// flags table is converted to --key=value.
type fileConfig struct {
	Flags map[string]string `toml:"flags"`
}

// LoadFile sets every flag named in the [flags] table of the TOML file at
// path, unless the flag was already set on the command line.
func LoadFile(flagSet *flag.FlagSet, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decode config file %q: %w", path, err)
	}

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	names := make([]string, 0, len(fc.Flags))
	for name := range fc.Flags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if name == "config" {
			return fmt.Errorf("config file %q cannot set flag %q", path, name)
		}
		if flagSet.Lookup(name) == nil {
			return fmt.Errorf("config file %q: flag %q not found", path, name)
		}
		if explicit[name] {
			continue
		}
		if err := flagSet.Set(name, fc.Flags[name]); err != nil {
			return fmt.Errorf("config file %q: error setting flag %s=%q: %w", path, name, fc.Flags[name], err)
		}
	}
	return nil
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}

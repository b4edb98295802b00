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

// Package cli is the main entrypoint for tsys.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/metric"
	"tsys.dev/tsys/tsys/cmd"
	"tsys.dev/tsys/tsys/cmd/util"
	"tsys.dev/tsys/tsys/config"
)

// versionFlagName is the name of a flag that triggers printing the version.
const versionFlagName = "version"

// Version is the tsys version, set at link time.
var Version = "dev"

// Main is the main entrypoint.
func Main() {
	// Register all commands.
	forEachCmd(subcommands.Register)

	// Register with the main command line.
	config.RegisterFlags(flag.CommandLine)
	flag.Bool(versionFlagName, false, "show version and exit.")

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	// Are we showing the version?
	if flag.Lookup(versionFlagName).Value.(flag.Getter).Get().(bool) {
		fmt.Fprintf(os.Stdout, "tsys version %s\n", Version)
		os.Exit(0)
	}

	// Values from the config file fill flags not given on the command line.
	if path := flag.Lookup("config").Value.String(); path != "" {
		if err := config.LoadFile(flag.CommandLine, path); err != nil {
			util.Fatalf("%v", err)
		}
	}

	// Create a new Config from the flags.
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		util.Fatalf("%v", err)
	}

	subcommand := flag.CommandLine.Arg(0)
	if conf.Debug {
		log.SetLevel(log.Debug)
	}

	startTime := time.Now()
	logFile := io.Writer(os.Stderr)
	if conf.LogFilename != "" {
		f, err := log.OpenFile(conf.LogFilename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, log.PatternOpts{
			Command:   subcommand,
			Timestamp: startTime,
		})
		if err != nil {
			util.Fatalf("error opening log file %q: %v", conf.LogFilename, err)
		}
		logFile = f
	}
	log.SetTarget(newEmitter(conf.LogFormat, logFile, subcommand))

	const delimString = `**************** tsys ****************`
	log.Infof(delimString)
	log.Infof("Version %s, %s, %s, %d CPUs, %s, PID %d", Version, runtime.Version(), runtime.GOARCH, runtime.NumCPU(), runtime.GOOS, os.Getpid())
	log.Infof("Args: %v", os.Args)
	log.Infof("Config: %v", conf.ToFlags())
	log.Infof(delimString)

	if err := metric.Initialize(); err != nil {
		util.Fatalf("initializing metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)

	// Call the subcommand and pass in the configuration.
	subcmdCode := subcommands.Execute(ctx, conf)
	stop()
	if subcmdCode == subcommands.ExitSuccess {
		log.Infof("Exiting with status: %v", subcmdCode)
		os.Exit(0)
	}
	log.Warningf("Failure to execute command, err: %v", subcmdCode)
	os.Exit(int(subcmdCode))
}

// forEachCmd invokes the passed callback for each command supported by tsys.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	// Help and flags commands are generated automatically.
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")

	cb(new(cmd.Run), "")
	cb(new(cmd.Syscalls), "")
}

func newEmitter(format string, logFile io.Writer, subcommand string) log.Emitter {
	switch format {
	case config.LogFormatText:
		return log.GoogleEmitter{Writer: &log.Writer{Next: logFile}}
	case config.LogFormatJSON:
		return log.JSONEmitter{Writer: &log.Writer{Next: logFile}, Fields: map[string]string{"command": subcommand}}
	case config.LogFormatLogrus:
		l := logrus.New()
		l.SetOutput(logFile)
		return log.NewLogrusEmitter(l, logrus.Fields{"command": subcommand})
	}
	util.Fatalf("invalid log format %q, must be 'text', 'json', or 'logrus'", format)
	panic("unreachable")
}

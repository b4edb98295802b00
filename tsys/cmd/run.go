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

// Package cmd holds implementations of the tsys commands.
package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"text/tabwriter"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"tsys.dev/tsys/pkg/log"
	"tsys.dev/tsys/pkg/metric"
	"tsys.dev/tsys/pkg/prometheus"
	"tsys.dev/tsys/pkg/sentry/kernel"
	"tsys.dev/tsys/pkg/sentry/pgalloc"
	"tsys.dev/tsys/pkg/sentry/strace"
	systsys "tsys.dev/tsys/pkg/sentry/syscalls/tsys"
	"tsys.dev/tsys/tsys/cmd/util"
	"tsys.dev/tsys/tsys/config"
	"tsys.dev/tsys/tsys/workload"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	parallel      int
	metricsFilter string

	// out is where the summary and task output are written. Nil means
	// os.Stdout.
	out io.Writer
}

// report is the outcome of one workload.
type report struct {
	path     string
	instance *workload.Instance

	// stdout holds everything the workload tasks wrote to fd 1.
	stdout bytes.Buffer

	// check is the result of instance.Check.
	check error
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "run workloads, each on its own kernel"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <workload.yaml>... - run each workload on a fresh kernel and report how its tasks exited.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.parallel, "parallel", 0, "maximum number of kernels running at once; 0 means no limit.")
	f.StringVar(&r.metricsFilter, "metrics-filter", "", "If set, only export metrics whose name matches this regular expression.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	out := r.out
	if out == nil {
		out = os.Stdout
	}

	var filter func(string) bool
	if r.metricsFilter != "" {
		re, err := regexp.Compile(r.metricsFilter)
		if err != nil {
			return util.Errorf("invalid -metrics-filter: %v", err)
		}
		filter = re.MatchString
	}

	if conf.Strace {
		strace.LogMaximumSize = conf.StraceLogSize
		strace.Initialize()
	}

	reports, err := r.runAll(ctx, conf, f.Args())
	if err != nil {
		return util.Errorf("%v", err)
	}

	if err := writeSummary(out, reports); err != nil {
		return util.Errorf("Error writing summary: %v", err)
	}
	for _, rep := range reports {
		if rep.stdout.Len() > 0 {
			fmt.Fprintf(out, "\n%s stdout:\n%s\n", rep.path, rep.stdout.String())
		}
	}
	if conf.Maps {
		writeMaps(out, reports)
	}
	if conf.MetricsFile != "" {
		if err := writeMetrics(out, conf.MetricsFile, filter); err != nil {
			return util.Errorf("Error writing metrics: %v", err)
		}
	}

	status := subcommands.ExitSuccess
	for _, rep := range reports {
		if rep.check != nil {
			status = util.Errorf("%s: %v", rep.path, rep.check)
		}
	}
	return status
}

// runAll runs every workload file on its own kernel, in parallel.
func (r *Run) runAll(ctx context.Context, conf *config.Config, paths []string) ([]*report, error) {
	reports := make([]*report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if r.parallel > 0 {
		g.SetLimit(r.parallel)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rep, err := runWorkload(gctx, conf, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// runWorkload loads the workload at path and runs it until every task has
// exited or ctx is done.
func runWorkload(ctx context.Context, conf *config.Config, path string) (*report, error) {
	w, err := workload.Load(path)
	if err != nil {
		return nil, err
	}
	frames := conf.MemoryFrames
	if w.MemoryFrames != 0 {
		frames = w.MemoryFrames
	}
	mf, err := pgalloc.NewMemoryFile(pgalloc.MemoryFileOpts{Frames: frames})
	if err != nil {
		return nil, err
	}

	rep := &report{
		path:     path,
		instance: workload.NewInstance(w),
	}
	k := &kernel.Kernel{}
	if err := k.Init(kernel.InitKernelArgs{
		MemoryFile:   mf,
		SyscallTable: systsys.Table,
		Stdout:       &rep.stdout,
		Strace:       conf.Strace,
		OnExit:       rep.instance.TaskExited,
	}); err != nil {
		return nil, fmt.Errorf("initializing kernel: %w", err)
	}
	if err := rep.instance.Start(k); err != nil {
		return nil, fmt.Errorf("creating tasks: %w", err)
	}

	log.Infof("Running workload %q: %d tasks, %v", w.Name, len(w.Tasks), mf)
	if err := k.Run(ctx); err != nil {
		return nil, err
	}
	rep.check = rep.instance.Check()
	return rep, nil
}

// writeSummary prints one line per task.
func writeSummary(w io.Writer, reports []*report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "WORKLOAD\tID\tTASK\tSTATUS\tEXIT\tSYSCALLS\tTIME(ms)\n")
	for _, rep := range reports {
		for _, t := range rep.instance.Tasks() {
			code, _ := t.ExitCode()
			status := "exited"
			if t.Faulted() {
				status = "faulted"
			}
			var syscalls uint64
			var elapsed uint64
			if rec, ok := rep.instance.Exit(t); ok {
				for _, n := range rec.Info.SyscallTimes {
					syscalls += uint64(n)
				}
				elapsed = rec.Info.Time
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\n", rep.instance.Workload().Name, t.ID(), t.Name(), status, code, syscalls, elapsed)
		}
	}
	return tw.Flush()
}

// writeMaps prints the address space of every task as it exited.
func writeMaps(w io.Writer, reports []*report) {
	for _, rep := range reports {
		for _, t := range rep.instance.Tasks() {
			rec, _ := rep.instance.Exit(t)
			fmt.Fprintf(w, "\n%s %v maps (%d mappings, %d frames):\n%s", rep.path, t, rec.Mappings, rec.Frames, rec.Maps)
		}
	}
}

// writeMetrics exports all metrics in Prometheus text format to path, or to
// stdout if path is "-".
func writeMetrics(stdout io.Writer, path string, filter func(string) bool) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	snapshot := metric.GetSnapshot(metric.SnapshotOptions{Filter: filter})
	written, err := prometheus.Write(w, prometheus.ExportOptions{
		CommentHeader: "Command-line export for tsys run",
	}, snapshot)
	if err != nil {
		return err
	}
	log.Infof("Wrote %d bytes of Prometheus metric data to %s", written, path)
	return nil
}

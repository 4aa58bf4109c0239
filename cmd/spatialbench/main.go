package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sapcc/go-bits/must"
	"go.uber.org/zap"

	"spatialbench/internal/config"
	"spatialbench/internal/logging"
	"spatialbench/internal/metrics"
	"spatialbench/internal/pipeline"
	"spatialbench/internal/version"
)

const usage = `usage: spatialbench <command> [flags] [dataset]

commands:
  compare <dataset>     merge both methods' resource usage into requirements_comparison.csv
                        [--mode normalized|basic]
  stats                 statistics by task across every requirements_comparison.csv
  overlap <dataset>     significant-gene overlap, venn counts and optional plots
                        [--gene <id>] [--plots]
  venn-stats            venn count statistics across datasets
  measure <dataset> -- <cmd> [args...]
                        run a method and append its resource usage to requirements.csv
                        [--method a|b] [--task <label>]
  version               print version

every command accepts --config <file.yaml|file.toml>; SPATIALBENCH_* variables override it`

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-version":
		fmt.Fprintln(stdout, version.Current())
		return 0
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return 0
	case "compare", "stats", "overlap", "venn-stats", "measure":
		return runCommand(args[0], args[1:], stdout, stderr)
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usage)
	return 2
}

type commandFlags struct {
	config string
	mode   string
	gene   string
	plots  bool
	method string
	task   string
}

func newFlagSet(cmd string, stderr io.Writer, f *commandFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("spatialbench "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "config file (.yaml, .yml or .toml)")
	switch cmd {
	case "compare":
		fs.StringVar(&f.mode, "mode", "", "output schema: normalized|basic")
	case "overlap":
		fs.StringVar(&f.gene, "gene", "", "print both methods' statistic for this gene")
		fs.BoolVar(&f.plots, "plots", false, "render venn, scatter and rank-rank PNGs")
	case "measure":
		fs.StringVar(&f.method, "method", "a", "method key (a|b) or name")
		fs.StringVar(&f.task, "task", "", "task label (default: the method's configured task)")
	}
	return fs
}

func positionalCount(cmd string) int {
	switch cmd {
	case "stats", "venn-stats":
		return 0
	}
	return 1
}

func runCommand(cmd string, args []string, stdout, stderr io.Writer) int {
	var argv []string
	if cmd == "measure" {
		args, argv = splitCommand(args)
		if len(argv) == 0 {
			fmt.Fprintln(stderr, "usage: spatialbench measure <dataset> [--method a|b] [--task <label>] -- <cmd> [args...]")
			return 2
		}
	}

	var f commandFlags
	fs := newFlagSet(cmd, stderr, &f)
	if err := fs.Parse(reorderArgs(fs, args)); err != nil {
		return 2
	}
	if fs.NArg() != positionalCount(cmd) {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	if f.mode != "" {
		cfg.Comparison.Mode = f.mode
	}
	if f.plots {
		cfg.Plots = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	runID := logging.NewRunID()
	logger := must.Return(logging.New(cfg.Log, stderr, runID))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	m := metrics.New()
	m.SetRunInfo(runID, version.Current(), cmd)
	defer func() {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := pipeline.New(cfg, m, stdout, stderr)
	dataset := fs.Arg(0)
	switch cmd {
	case "compare":
		_, err = r.Compare(ctx, dataset)
	case "stats":
		_, err = r.Statistics(ctx)
	case "overlap":
		_, err = r.Overlap(ctx, dataset, pipeline.OverlapOptions{Gene: f.gene, Plots: cfg.Plots})
	case "venn-stats":
		_, err = r.VennStatistics(ctx)
	case "measure":
		_, err = r.Measure(ctx, dataset, pipeline.MeasureOptions{Method: f.method, Task: f.task, Argv: argv})
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// splitCommand separates arguments before "--" from the command after it.
func splitCommand(args []string) ([]string, []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

type boolFlag interface {
	IsBoolFlag() bool
}

// reorderArgs moves flags ahead of positionals so flags may follow the
// dataset name.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	pos := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			pos = append(pos, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" {
			pos = append(pos, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		fl := fs.Lookup(name)
		if fl == nil {
			continue
		}
		if b, ok := fl.Value.(boolFlag); ok && b.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, pos...)
}

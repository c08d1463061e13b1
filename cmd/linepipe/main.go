// Command linepipe applies a chain of named operations to every line of its
// input, in parallel, and writes the results in input order followed by a
// summary of how many lines were processed and how many were unique.
//
// Usage:
//
//	linepipe -t integer -o reverse,neg -p 4 -f numbers.txt
//	cat words.txt | linepipe -t text -o capitalize --out upper.txt
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/linepipe/bootstrap"
	"github.com/kbukum/linepipe/config"
	"github.com/kbukum/linepipe/errors"
	"github.com/kbukum/linepipe/lineio"
	"github.com/kbukum/linepipe/logger"
	"github.com/kbukum/linepipe/observability"
	"github.com/kbukum/linepipe/runner"
	"github.com/kbukum/linepipe/stats"
	"github.com/kbukum/linepipe/util"
	"github.com/kbukum/linepipe/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// flags holds the command-line values. Only flags the user actually set
// override the loaded configuration.
type flags struct {
	set *pflag.FlagSet

	configFile  string
	input       string
	output      string
	elementType string
	operations  string
	workers     int
	rate        float64
	distinct    string
	measure     string
	logLevel    string
	printConfig bool
	version     bool
}

func newFlags(stderr io.Writer) *flags {
	f := &flags{set: pflag.NewFlagSet("linepipe", pflag.ContinueOnError)}
	fs := f.set
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&f.input, "input", "f", "", "input file (default: standard input)")
	fs.StringVarP(&f.elementType, "type", "t", "", "element type: text, integer or real (aliases string, int, double)")
	fs.StringVarP(&f.operations, "operations", "o", "", "comma-separated operations, applied left to right")
	fs.IntVarP(&f.workers, "workers", "p", 0, "number of parallel workers (default: number of CPUs)")
	fs.StringVar(&f.output, "out", "", "output file (default: standard output)")
	fs.StringVar(&f.configFile, "config", "", "YAML config file")
	fs.StringVar(&f.distinct, "distinct", "", "distinct counting: exact or hashed")
	fs.StringVar(&f.measure, "measure", "", "counted values: output or input")
	fs.Float64Var(&f.rate, "rate", 0, "maximum records per second, 0 for unlimited")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error or disabled")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration as YAML and exit")
	fs.BoolVar(&f.version, "version", false, "print version information and exit")
	return f
}

// normalizeArgs accepts the single-dash long form of the multi-letter flags
// ("-out file") next to the usual "--out file".
func normalizeArgs(args []string) []string {
	long := map[string]bool{
		"out": true, "config": true, "distinct": true, "measure": true, "rate": true,
		"log-level": true, "print-config": true, "version": true,
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if a == "--" {
			copy(out[i:], args[i:])
			break
		}
		if strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") {
			name, _, _ := strings.Cut(a[1:], "=")
			if long[name] {
				out[i] = "-" + a
			}
		}
	}
	return out
}

// apply copies the flags the user set onto cfg.
func (f *flags) apply(cfg *config.Config) {
	fs := f.set
	if fs.Changed("input") {
		cfg.Input = f.input
	}
	if fs.Changed("out") {
		cfg.Output = f.output
	}
	if fs.Changed("type") {
		cfg.Pipeline.Type = f.elementType
	}
	if fs.Changed("operations") {
		cfg.Pipeline.Operations = util.SplitList(f.operations)
	}
	if fs.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if fs.Changed("rate") {
		cfg.Pipeline.RateLimit = f.rate
	}
	if fs.Changed("distinct") {
		cfg.Stats.Distinct = f.distinct
	}
	if fs.Changed("measure") {
		cfg.Stats.Measure = f.measure
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f := newFlags(stderr)
	if err := f.set.Parse(normalizeArgs(args)); err != nil {
		if err == pflag.ErrHelp {
			return errors.ExitOK
		}
		return errors.ExitUsage
	}
	if f.set.NArg() > 0 {
		fmt.Fprintf(stderr, "linepipe: unexpected arguments: %s\n", strings.Join(f.set.Args(), " "))
		return errors.ExitUsage
	}

	if f.version {
		fmt.Fprintln(stdout, version.Get().String())
		return errors.ExitOK
	}

	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.InvalidConfig("config", err.Error()).WithCause(err)
		}
		return fail(stderr, nil, err)
	}
	f.apply(cfg)
	cfg.ApplyDefaults()

	if f.printConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fail(stderr, nil, errors.Internal(err))
		}
		if _, err := stdout.Write(out); err != nil {
			return errors.ExitIOErr
		}
		return errors.ExitOK
	}

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, logWriter(cfg.Logging.Output, stdout, stderr))
	logger.SetGlobalLogger(log)

	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(log), bootstrap.WithVersion(version.Get().Short()))
	if err != nil {
		return fail(stderr, log, err)
	}

	var metrics *observability.RunMetrics
	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Init(ctx, cfg.Telemetry)
		if err != nil {
			return err
		}
		app.OnStop(bootstrap.Hook(shutdown))
		if cfg.Telemetry.Enabled {
			metrics, err = observability.NewRunMetrics(observability.Meter(cfg.Name))
			if err != nil {
				return err
			}
		}
		return nil
	})

	err = app.RunTask(ctx, func(ctx context.Context) error {
		return process(ctx, cfg, log, metrics, stdin, stdout)
	})
	if err != nil {
		return fail(stderr, log, err)
	}
	return errors.ExitOK
}

// process runs the pipeline from the configured input to the configured
// output and prints the summary line after the last record.
func process(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *observability.RunMetrics, stdin io.Reader, stdout io.Writer) error {
	measure, err := stats.ParseMeasure(cfg.Stats.Measure)
	if err != nil {
		return err
	}
	distinct, err := stats.ParseMode(cfg.Stats.Distinct)
	if err != nil {
		return err
	}

	var src *lineio.Reader
	if cfg.Input == "" || cfg.Input == lineio.Stdio {
		src = lineio.NewReader(stdin, cfg.MaxLineBytes())
	} else if src, err = lineio.Open(ctx, cfg.Input, cfg.MaxLineBytes()); err != nil {
		return err
	}

	var sink *lineio.Writer
	if cfg.Output == "" || cfg.Output == lineio.Stdio {
		sink = lineio.NewWriter(stdout)
	} else if sink, err = lineio.Create(cfg.Output); err != nil {
		_ = src.Close()
		return err
	}

	summary, err := runner.New(log, metrics).Run(ctx, src, sink.Write, runner.Options{
		RunID:            cfg.RunID,
		Type:             cfg.Pipeline.Type,
		Operations:       cfg.Pipeline.Operations,
		Workers:          cfg.Pipeline.Workers,
		RateLimit:        cfg.Pipeline.RateLimit,
		Measure:          measure,
		Distinct:         distinct,
		ProgressInterval: cfg.ProgressInterval,
	})
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(stdout, summary.String()); err != nil {
		return errors.IOFailed("write summary", err)
	}
	return nil
}

func logWriter(output string, stdout, stderr io.Writer) io.Writer {
	if strings.EqualFold(output, "stdout") {
		return stdout
	}
	return stderr
}

// fail reports err and maps it to an exit code. Before the logger exists
// the message goes straight to stderr.
func fail(stderr io.Writer, log *logger.Logger, err error) int {
	if log != nil {
		fields := logger.Fields("exit_code", errors.ExitCodeOf(err))
		if appErr, ok := errors.AsAppError(err); ok {
			fields["code"] = string(appErr.Code)
		}
		log.WithError(err).Error("linepipe failed", fields)
	} else {
		fmt.Fprintf(stderr, "linepipe: %v\n", err)
	}
	return errors.ExitCodeOf(err)
}

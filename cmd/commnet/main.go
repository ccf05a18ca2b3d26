// Command commnet prints the maximum communication range between two
// endpoints and the signal strength across distance bands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/calc"
	"github.com/signalsfoundry/commnet-calculator/internal/config"
	"github.com/signalsfoundry/commnet-calculator/internal/devicefile"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
	"github.com/signalsfoundry/commnet-calculator/internal/report"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configPath string
	from, to   stringList
	devices    stringList
	listOnly   bool
	asJSON     bool
	chartPath  string
	samples    int
	logLevel   string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if err := execute(ctx, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("commnet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "optional configuration file (YAML, JSON or TOML)")
	fs.Var(&opts.from, "from", "device on the transmitting side as [COUNT:]NAME (repeatable)")
	fs.Var(&opts.from, "f", "shorthand for -from")
	fs.Var(&opts.to, "to", "device on the receiving side as [COUNT:]NAME (repeatable)")
	fs.Var(&opts.to, "t", "shorthand for -to")
	fs.Var(&opts.devices, "devices", "extra device definition file (repeatable)")
	fs.BoolVar(&opts.listOnly, "antennas", false, "list the available devices and exit")
	fs.BoolVar(&opts.listOnly, "A", false, "shorthand for -antennas")
	fs.BoolVar(&opts.asJSON, "json", false, "print the report as JSON")
	fs.StringVar(&opts.chartPath, "chart", "", "write an HTML strength chart to FILE")
	fs.IntVar(&opts.samples, "samples", report.DefaultChartSamples, "chart sample points")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return options{}, err
	}
	return opts, nil
}

func execute(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.Log.Level = opts.logLevel
	cfg.Log.Output = stderr
	log := logging.New(cfg.Log)

	cfg.Tracing.Output = stderr
	tracing, err := observability.StartTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer tracing.Close(ctx)

	files := append(append([]string(nil), cfg.Devices.Files...), opts.devices...)
	batches, err := devicefile.LoadFiles(files)
	if err != nil {
		return err
	}

	calculator, err := calc.New(cfg, calc.WithLogger(log), calc.WithBatches(batches))
	if err != nil {
		return err
	}

	if opts.listOnly {
		defs, err := calculator.Devices(ctx)
		if err != nil {
			return err
		}
		return report.WriteDevices(stdout, defs)
	}

	res, err := calculator.Compute(ctx, opts.from, opts.to)
	if err != nil {
		return err
	}

	if opts.chartPath != "" {
		if err := writeChart(opts.chartPath, res, calculator, opts.samples); err != nil {
			return err
		}
		log.Info(ctx, "chart written", logging.String("path", opts.chartPath))
	}

	if opts.asJSON {
		return report.WriteJSON(stdout, res)
	}
	return report.WriteText(stdout, res)
}

func writeChart(path string, res *core.Result, calculator *calc.Calculator, samples int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close chart: %w", cerr)
		}
	}()
	return report.WriteChart(f, res, calculator.Bands(), samples)
}

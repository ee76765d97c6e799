package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/handiism/spikeview/internal/analysis"
	"github.com/handiism/spikeview/internal/config"
	"github.com/handiism/spikeview/internal/logging"
	"github.com/handiism/spikeview/internal/pipeline"
	"github.com/handiism/spikeview/internal/recording"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

var errUsage = errors.New("usage error")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// options are the flags that steer the command rather than the pipeline.
type options struct {
	verbose     bool
	writeConfig string
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	settings, opts, err := parseSettings(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	log, err := newLogger(settings, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.writeConfig != "" {
		if err := settings.Save(opts.writeConfig); err != nil {
			log.Error().Err(err).Msg("could not write settings")
			return exitFailure
		}
		log.Info().Str("path", opts.writeConfig).Msg("settings written")
		return exitOK
	}

	manager := pipeline.NewManager(settings, func(event pipeline.ProgressEvent) {
		logEvent(log, event, opts.verbose)
	})

	log.Debug().Str("dataset", settings.Dataset).Msg("starting")

	if err := manager.Initialize(ctx, settings.Dataset); err != nil {
		return fail(ctx, log, err)
	}
	if err := manager.Run(ctx, stdout); err != nil {
		return fail(ctx, log, err)
	}

	return exitOK
}

func newLogger(settings *config.Settings, w io.Writer) (zerolog.Logger, error) {
	switch settings.LogFormat {
	case "", "console":
		return logging.New(settings.LogLevel, w)
	case "json":
		return logging.NewJSON(settings.LogLevel, w)
	default:
		return zerolog.Nop(), errors.Wrapf(errUsage, "invalid log format %q", settings.LogFormat)
	}
}

// parseSettings layers defaults, the settings file, the environment and
// the command-line flags, in increasing precedence.
func parseSettings(args []string, stderr io.Writer) (*config.Settings, options, error) {
	fs := flag.NewFlagSet("spikeview", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		datasetFlag   = fs.String("dataset", "", "Dataset path(s) or URL(s) (comma-separated or newline-separated)")
		configFlag    = fs.String("config", "", "Path to settings file (.json, .yaml, .yml)")
		plotFlag      = fs.String("plot", "", "Plot output path template ({name}, {index})")
		modeFlag      = fs.String("mode", "", "Plot mode: identity or raster")
		markerFlag    = fs.String("marker", "", "Plot marker: x, +, o or .")
		scopeFlag     = fs.String("scope", "", "Plot scope: first_segment or block")
		noPlotFlag    = fs.Bool("no-plot", false, "Do not write a plot")
		countFlag     = fs.Bool("count", false, "Print the spike count")
		waveformsFlag = fs.Bool("waveforms", false, "Load waveforms")
		unitsFlag     = fs.String("units", "", "Units to load (comma-separated, empty for all)")
		logLevelFlag  = fs.String("log-level", "", "Log level: debug, verbose, info, warn, error, quiet")
		logFormatFlag = fs.String("log-format", "", "Log format: console or json")
		verboseFlag   = fs.Bool("verbose", false, "Show verbose progress")
		writeFlag     = fs.String("write-config", "", "Write the effective settings to this file and exit")
	)

	fs.Usage = func() {
		fmt.Fprintln(stderr, "spikeview - print and plot spike trains of a recording")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  spikeview -dataset <path> [options]")
		fmt.Fprintln(stderr, "  spikeview [options] <path> [path...]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "For interactive mode, use: spikeview-tui")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, options{}, err
	}

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			return nil, options{}, err
		}
	}
	settings.ApplyEnv()

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *datasetFlag != "" {
		settings.Dataset = *datasetFlag
	} else if fs.NArg() > 0 {
		settings.Dataset = strings.Join(fs.Args(), "\n")
	}
	if set["plot"] {
		settings.PlotPath = *plotFlag
	}
	if set["mode"] {
		switch *modeFlag {
		case "identity", "raster":
			settings.PlotMode = *modeFlag
		default:
			return nil, options{}, errors.Wrapf(errUsage, "invalid -mode %q", *modeFlag)
		}
	}
	if set["marker"] {
		settings.PlotMarker = *markerFlag
	}
	if set["scope"] {
		switch *scopeFlag {
		case "first_segment", "block":
			settings.PlotScope = *scopeFlag
		default:
			return nil, options{}, errors.Wrapf(errUsage, "invalid -scope %q", *scopeFlag)
		}
	}
	if set["no-plot"] {
		settings.PlotEnabled = !*noPlotFlag
	}
	if set["count"] {
		settings.ShowCount = *countFlag
	}
	if set["waveforms"] {
		settings.LoadWaveforms = *waveformsFlag
	}
	if set["units"] {
		units, err := parseUnits(*unitsFlag)
		if err != nil {
			return nil, options{}, err
		}
		settings.Units = units
	}
	if set["log-level"] {
		settings.LogLevel = *logLevelFlag
	}
	if set["log-format"] {
		settings.LogFormat = *logFormatFlag
	}

	opts := options{verbose: *verboseFlag, writeConfig: *writeFlag}

	if opts.writeConfig == "" && strings.TrimSpace(settings.Dataset) == "" {
		fs.Usage()
		return nil, options{}, errors.Wrapf(errUsage, "no dataset given (use -dataset, an argument or %s)", config.EnvDataset)
	}

	return settings, opts, nil
}

// parseUnits parses a comma-separated list of unit ids.
func parseUnits(s string) ([]int, error) {
	var units []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(errUsage, "invalid unit %q in -units", part)
		}
		units = append(units, id)
	}
	return units, nil
}

func logEvent(log zerolog.Logger, event pipeline.ProgressEvent, verbose bool) {
	switch event.Level {
	case pipeline.LevelVerbose:
		if verbose {
			log.Info().Msg(event.Message)
		} else {
			log.Debug().Msg(event.Message)
		}
	case pipeline.LevelWarning:
		log.Warn().Msg(event.Message)
	case pipeline.LevelError:
		log.Error().Msg(event.Message)
	default:
		log.Info().Msg(event.Message)
	}
}

func fail(ctx context.Context, log zerolog.Logger, err error) int {
	if ctx.Err() != nil {
		log.Warn().Msg("cancelled")
		return exitInterrupted
	}

	kind := "error"
	switch {
	case errors.Is(err, recording.ErrLoad):
		kind = "load"
	case errors.Is(err, analysis.ErrIndex):
		kind = "index"
	}
	log.Error().Str("kind", kind).Err(err).Msg("failed")
	return exitFailure
}

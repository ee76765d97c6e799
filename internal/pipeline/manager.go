package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/spikeview/internal/analysis"
	"github.com/handiism/spikeview/internal/config"
	"github.com/handiism/spikeview/internal/model"
	"github.com/handiism/spikeview/internal/plot"
	"github.com/handiism/spikeview/internal/recording"
	"github.com/handiism/spikeview/internal/report"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Dataset is one loaded and extracted input.
type Dataset struct {
	// Path is the input as given.
	Path string

	Block      *model.Block
	Extraction analysis.Extraction

	// Trains are the spike trains handed to the plotter.
	Trains []*model.SpikeTrain
}

// Manager runs the load, extract, report and plot steps over the inputs.
type Manager struct {
	settings *config.Settings
	loader   *recording.Loader
	plotter  *plot.Plotter
	mode     plot.Mode
	scope    analysis.Scope

	datasets []*Dataset

	onProgress func(ProgressEvent)
}

// NewManager creates a new Manager.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	registry := recording.DefaultRegistry(settings.BlackrockCommand)
	loader := recording.NewLoader(registry, settings.ToLoadOptions(), settings.ToFetchConfig())

	plotCfg := settings.ToPlotConfig()

	m := &Manager{
		settings:   settings,
		loader:     loader,
		plotter:    plot.NewPlotter(plotCfg),
		mode:       plotCfg.Mode,
		scope:      settings.ToScope(),
		onProgress: onProgress,
	}

	loader.OnRetry(func(attempt, max int, err error) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d: %v", attempt, max, err), Level: LevelWarning})
	})

	loader.OnDownload(func(url string, written, total int64) {
		msg := fmt.Sprintf("Downloading %s: %d bytes", url, written)
		if total > 0 {
			msg = fmt.Sprintf("Downloading %s: %d/%d bytes", url, written, total)
		}
		m.progress(ProgressEvent{Message: msg, Level: LevelVerbose})
	})

	return m
}

// Initialize loads and extracts every input.
//
// Inputs are separated by newlines or commas. Up to
// settings.MaxConcurrentLoads datasets are loaded at once. The first Load
// or Index error cancels the remaining loads and is returned; no dataset is
// kept in that case.
func (m *Manager) Initialize(ctx context.Context, inputs string) error {
	paths := ParseInputs(inputs)
	if len(paths) == 0 {
		return errors.Wrap(recording.ErrLoad, "no dataset path given")
	}

	limit := m.settings.MaxConcurrentLoads
	if limit < 1 {
		limit = 1
	}

	datasets := make([]*Dataset, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			ds, err := m.prepare(ctx, path)
			if err != nil {
				return err
			}
			datasets[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.datasets = datasets
	return nil
}

// Run prints the report of every dataset to w, in input order, and saves
// the plots when enabled.
func (m *Manager) Run(ctx context.Context, w io.Writer) error {
	reporter := report.NewReporter(w, m.settings.ShowCount)

	for i, ds := range m.datasets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := reporter.Report(ds.Block, ds.Extraction); err != nil {
			return errors.Wrap(err, "could not write report")
		}

		if !m.settings.PlotEnabled {
			continue
		}

		path, err := m.plotter.Save(ctx, ds.Block, i, ds.Trains)
		if err != nil {
			return err
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved plot: %s (%d points)", path, len(plot.Points(ds.Trains, m.mode))), Level: LevelSuccess})
	}

	return nil
}

// Datasets returns the initialized datasets in input order.
func (m *Manager) Datasets() []*Dataset {
	return m.datasets
}

// Plotter returns the plotter configured from the settings.
func (m *Manager) Plotter() *plot.Plotter {
	return m.plotter
}

// prepare loads one dataset and picks its report and plot data.
func (m *Manager) prepare(ctx context.Context, path string) (*Dataset, error) {
	m.progress(ProgressEvent{Message: fmt.Sprintf("Loading %s", path), Level: LevelVerbose})

	block, err := m.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Loaded %q: %d segment(s), %d spike train(s), fingerprint %016x",
			block.Name, len(block.Segments), len(block.SpikeTrains()), block.Fingerprint),
		Level: LevelInfo,
	})

	ex, err := analysis.Extract(block)
	if err != nil {
		return nil, err
	}

	trains, err := analysis.PlotTrains(block, m.scope)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Path:       path,
		Block:      block,
		Extraction: ex,
		Trains:     trains,
	}, nil
}

// ParseInputs splits a newline or comma separated list of dataset paths,
// dropping blanks.
func ParseInputs(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == '\n' || r == ','
	})

	var paths []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			paths = append(paths, f)
		}
	}
	return paths
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

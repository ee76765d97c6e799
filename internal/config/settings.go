package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/handiism/spikeview/internal/analysis"
	"github.com/handiism/spikeview/internal/plot"
	"github.com/handiism/spikeview/internal/recording"
)

// Environment variables read by ApplyEnv.
const (
	EnvDataset          = "SPIKEVIEW_DATASET"
	EnvPlotPath         = "SPIKEVIEW_PLOT_PATH"
	EnvLogLevel         = "SPIKEVIEW_LOG_LEVEL"
	EnvBlackrockCommand = "SPIKEVIEW_BLACKROCK_COMMAND"
)

// Settings holds all configuration options.
type Settings struct {
	// Dataset settings
	Dataset          string   `json:"dataset" yaml:"dataset"`
	LoadNSx          bool     `json:"load_nsx" yaml:"load_nsx"`
	Units            []int    `json:"units" yaml:"units"`
	LoadWaveforms    bool     `json:"load_waveforms" yaml:"load_waveforms"`
	BlackrockCommand []string `json:"blackrock_command" yaml:"blackrock_command"`

	// Remote datasets
	CacheDir              string  `json:"cache_dir" yaml:"cache_dir"`
	DownloadMaxRetries    int     `json:"download_max_retries" yaml:"download_max_retries"`
	DownloadRetryCooldown float64 `json:"download_retry_cooldown" yaml:"download_retry_cooldown"`
	DownloadRetryExponent float64 `json:"download_retry_exponent" yaml:"download_retry_exponent"`
	MaxConcurrentLoads    int     `json:"max_concurrent_loads" yaml:"max_concurrent_loads"`

	// Report settings
	ShowCount bool `json:"show_count" yaml:"show_count"`

	// Plot settings
	PlotEnabled          bool   `json:"plot_enabled" yaml:"plot_enabled"`
	PlotPath             string `json:"plot_path" yaml:"plot_path"`
	PlotFormat           string `json:"plot_format" yaml:"plot_format"` // png, svg, pdf, jpg
	PlotMode             string `json:"plot_mode" yaml:"plot_mode"`     // identity, raster
	PlotScope            string `json:"plot_scope" yaml:"plot_scope"`   // first_segment, block
	PlotMarker           string `json:"plot_marker" yaml:"plot_marker"` // x, +, o, .
	PlotWidth            int    `json:"plot_width" yaml:"plot_width"`
	PlotHeight           int    `json:"plot_height" yaml:"plot_height"`
	PlotThumbnail        bool   `json:"plot_thumbnail" yaml:"plot_thumbnail"`
	PlotThumbnailMaxSize int    `json:"plot_thumbnail_max_size" yaml:"plot_thumbnail_max_size"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"` // console, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		LoadNSx:       false,
		Units:         nil,
		LoadWaveforms: false,

		CacheDir:              filepath.Join(os.TempDir(), "spikeview"),
		DownloadMaxRetries:    5,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		MaxConcurrentLoads:    1,

		ShowCount: false,

		PlotEnabled:          true,
		PlotPath:             "{name}_spiketrains",
		PlotFormat:           "png",
		PlotMode:             "identity",
		PlotScope:            "first_segment",
		PlotMarker:           "x",
		PlotWidth:            640,
		PlotHeight:           480,
		PlotThumbnail:        false,
		PlotThumbnailMaxSize: 200,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads settings from a JSON or YAML file. The format is chosen by
// extension: .yaml and .yml are YAML, anything else JSON.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, errors.Wrapf(err, "could not read settings %s", path)
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse settings %s", path)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides settings from SPIKEVIEW_* environment variables.
// Unset or empty variables leave the current value.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvDataset); v != "" {
		s.Dataset = v
	}
	if v := os.Getenv(EnvPlotPath); v != "" {
		s.PlotPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvBlackrockCommand); v != "" {
		s.BlackrockCommand = strings.Fields(v)
	}
}

// ToLoadOptions converts settings to recording.LoadOptions.
func (s *Settings) ToLoadOptions() recording.LoadOptions {
	return recording.LoadOptions{
		LoadNSx:       s.LoadNSx,
		Units:         s.Units,
		LoadWaveforms: s.LoadWaveforms,
	}
}

// ToFetchConfig converts settings to recording.FetchConfig.
func (s *Settings) ToFetchConfig() recording.FetchConfig {
	return recording.FetchConfig{
		CacheDir:      s.CacheDir,
		MaxRetries:    s.DownloadMaxRetries,
		RetryCooldown: s.DownloadRetryCooldown,
		RetryExponent: s.DownloadRetryExponent,
	}
}

// ToPlotConfig converts settings to plot.Config.
func (s *Settings) ToPlotConfig() *plot.Config {
	var mode plot.Mode
	switch s.PlotMode {
	case "raster":
		mode = plot.ModeRaster
	default:
		mode = plot.ModeIdentity
	}

	return &plot.Config{
		PathFormat:       s.PlotPath,
		Format:           plot.ParseFormat(s.PlotFormat),
		Mode:             mode,
		Marker:           s.PlotMarker,
		Width:            s.PlotWidth,
		Height:           s.PlotHeight,
		Thumbnail:        s.PlotThumbnail,
		ThumbnailMaxSize: s.PlotThumbnailMaxSize,
	}
}

// ToScope converts the plot_scope setting.
func (s *Settings) ToScope() analysis.Scope {
	if s.PlotScope == "block" {
		return analysis.ScopeBlock
	}
	return analysis.ScopeFirstSegment
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

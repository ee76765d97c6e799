package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spikeview/internal/config"
)

const fixture = `{
  "name": "session1",
  "segments": [{"spiketrains": [
    {"name": "ch1#0", "times": [0.5, 1.25, 7.75]},
    {"name": "ch2#1", "times": [0.1, 2.2]}
  ]}]
}`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_Success(t *testing.T) {
	dataset := writeFixture(t, "session1.json", fixture)
	plotPath := filepath.Join(t.TempDir(), "{name}")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-plot", plotPath, "-count", dataset}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t, "session1\n[0.5 1.25 7.75] s\ncount: 3\n", stdout.String())
	assert.FileExists(t, filepath.Join(filepath.Dir(plotPath), "session1.png"))
}

func TestRun_LoadError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-plot", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "kind=load")
}

func TestRun_IndexError(t *testing.T) {
	dataset := writeFixture(t, "empty.json", `{"name": "empty", "segments": []}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-plot", dataset}, &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "kind=index")
}

func TestRun_Usage(t *testing.T) {
	t.Setenv(config.EnvDataset, "")

	tests := []struct {
		name string
		args []string
	}{
		{"no dataset", nil},
		{"bad mode", []string{"-mode", "polar", "a.json"}},
		{"bad scope", []string{"-scope", "all", "a.json"}},
		{"bad units", []string{"-units", "1,x", "a.json"}},
		{"bad log level", []string{"-log-level", "loud", "a.json"}},
		{"bad log format", []string{"-log-format", "xml", "a.json"}},
		{"unknown flag", []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	dataset := writeFixture(t, "session1.json", fixture)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-no-plot", dataset}, &stdout, &stderr)
	assert.Equal(t, exitInterrupted, code)
}

func TestParseSettings_Precedence(t *testing.T) {
	cfg := writeFixture(t, "settings.yaml", "dataset: from-file.json\nplot_path: file_{name}\nplot_marker: o\n")
	t.Setenv(config.EnvPlotPath, "env_{name}")
	t.Setenv(config.EnvDataset, "")

	var stderr bytes.Buffer
	settings, opts, err := parseSettings([]string{"-config", cfg, "-marker", "+", "-units", "0, 2", "-verbose"}, &stderr)
	require.NoError(t, err)

	assert.True(t, opts.verbose)
	assert.Equal(t, "from-file.json", settings.Dataset)
	assert.Equal(t, "env_{name}", settings.PlotPath)
	assert.Equal(t, "+", settings.PlotMarker)
	assert.Equal(t, []int{0, 2}, settings.Units)
}

func TestParseSettings_BoolFlagsOverrideFile(t *testing.T) {
	cfg := writeFixture(t, "settings.yaml", "dataset: a.json\nshow_count: true\nload_waveforms: true\nplot_enabled: false\n")

	tests := []struct {
		name      string
		args      []string
		count     bool
		waveforms bool
		plot      bool
	}{
		{"file values", nil, true, true, false},
		{"flags off", []string{"-count=false", "-waveforms=false", "-no-plot=false"}, false, false, true},
		{"flags on", []string{"-count", "-waveforms", "-no-plot"}, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			settings, _, err := parseSettings(append([]string{"-config", cfg}, tt.args...), &stderr)
			require.NoError(t, err)

			assert.Equal(t, tt.count, settings.ShowCount)
			assert.Equal(t, tt.waveforms, settings.LoadWaveforms)
			assert.Equal(t, tt.plot, settings.PlotEnabled)
		})
	}
}

func TestRun_WriteConfig(t *testing.T) {
	t.Setenv(config.EnvDataset, "")
	path := filepath.Join(t.TempDir(), "out.yaml")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-write-config", path, "-mode", "raster", "-count"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Empty(t, stdout.String())

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "raster", saved.PlotMode)
	assert.True(t, saved.ShowCount)
}

func TestRun_JSONLogs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-log-format", "json", "-no-plot", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), `"kind":"load"`)
	assert.Contains(t, stderr.String(), `"run":`)
}

func TestParseSettings_DatasetFromEnv(t *testing.T) {
	t.Setenv(config.EnvDataset, "env.nev")

	var stderr bytes.Buffer
	settings, _, err := parseSettings(nil, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "env.nev", settings.Dataset)
}

func TestParseSettings_PositionalBatch(t *testing.T) {
	var stderr bytes.Buffer
	settings, _, err := parseSettings([]string{"a.json", "b.json"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "a.json\nb.json", settings.Dataset)
}

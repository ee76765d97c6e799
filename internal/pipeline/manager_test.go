package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spikeview/internal/analysis"
	"github.com/handiism/spikeview/internal/config"
	"github.com/handiism/spikeview/internal/plot"
	"github.com/handiism/spikeview/internal/recording"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.CacheDir = t.TempDir()
	s.PlotPath = filepath.Join(t.TempDir(), "{name}")
	return s
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func TestManager_EndToEnd(t *testing.T) {
	settings := testSettings(t)
	var log eventLog
	m := NewManager(settings, log.add)

	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "testdata/session1.json"))

	var out bytes.Buffer
	require.NoError(t, m.Run(ctx, &out))

	assert.Equal(t, "session1\n[0.5 1.25 7.75] s\n", out.String())

	require.Len(t, m.Datasets(), 1)
	ds := m.Datasets()[0]
	assert.Equal(t, 3, ds.Extraction.Count)
	assert.Len(t, ds.Trains, 2)
	assert.Equal(t, float64(0), plot.Points(ds.Trains, plot.ModeIdentity)[0].X)
	assert.Equal(t, float64(1), plot.Points(ds.Trains, plot.ModeIdentity)[1].X)

	plotPath := m.Plotter().OutputPath(ds.Block, 0)
	_, err := os.Stat(plotPath)
	assert.NoError(t, err, "plot written")

	var saved bool
	for _, e := range log.events {
		if e.Level == LevelSuccess {
			saved = true
			assert.Contains(t, e.Message, "(2 points)")
		}
	}
	assert.True(t, saved)
}

func TestManager_IndexErrors(t *testing.T) {
	for _, fixture := range []string{"testdata/no_segments.json", "testdata/empty_segment.json"} {
		t.Run(filepath.Base(fixture), func(t *testing.T) {
			settings := testSettings(t)
			m := NewManager(settings, nil)

			err := m.Initialize(context.Background(), fixture)
			require.Error(t, err)
			assert.True(t, errors.Is(err, analysis.ErrIndex), "got %v", err)

			var out bytes.Buffer
			require.NoError(t, m.Run(context.Background(), &out))
			assert.Empty(t, out.String())

			entries, err := os.ReadDir(filepath.Dir(settings.PlotPath))
			require.NoError(t, err)
			assert.Empty(t, entries, "no plot produced")
		})
	}
}

func TestManager_LoadError(t *testing.T) {
	var log eventLog
	m := NewManager(testSettings(t), log.add)

	err := m.Initialize(context.Background(), "testdata/does_not_exist.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, recording.ErrLoad))
	for _, e := range log.events {
		assert.NotEqual(t, LevelError, e.Level, "failures are returned, not reported: %s", e.Message)
	}

	var out bytes.Buffer
	require.NoError(t, m.Run(context.Background(), &out))
	assert.Empty(t, out.String())
}

func TestManager_RemoteProgress(t *testing.T) {
	data, err := os.ReadFile("testdata/session1.json")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	settings := testSettings(t)
	settings.PlotEnabled = false
	var log eventLog
	m := NewManager(settings, log.add)

	require.NoError(t, m.Initialize(context.Background(), srv.URL+"/session1.json"))

	var downloading bool
	for _, e := range log.events {
		if e.Level == LevelVerbose && strings.HasPrefix(e.Message, "Downloading ") {
			downloading = true
		}
	}
	assert.True(t, downloading)
}

func TestManager_NoInput(t *testing.T) {
	err := NewManager(testSettings(t), nil).Initialize(context.Background(), " , \n")
	assert.True(t, errors.Is(err, recording.ErrLoad))
}

func TestManager_Batch(t *testing.T) {
	settings := testSettings(t)
	settings.MaxConcurrentLoads = 4
	settings.ShowCount = true
	settings.PlotEnabled = false
	m := NewManager(settings, nil)

	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx, "testdata/session2.json, testdata/session1.json"))

	var out bytes.Buffer
	require.NoError(t, m.Run(ctx, &out))

	want := "session2\n[12 40] ms\ncount: 2\n" +
		"session1\n[0.5 1.25 7.75] s\ncount: 3\n"
	assert.Equal(t, want, out.String())
}

func TestManager_BatchFailureIsAllOrNothing(t *testing.T) {
	settings := testSettings(t)
	settings.MaxConcurrentLoads = 2
	m := NewManager(settings, nil)

	err := m.Initialize(context.Background(), "testdata/session1.json\ntestdata/no_segments.json")
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, m.Run(context.Background(), &out))
	assert.Empty(t, out.String())
	assert.Empty(t, m.Datasets())
}

func TestManager_BlockScope(t *testing.T) {
	settings := testSettings(t)
	settings.PlotScope = "block"
	settings.PlotEnabled = false
	m := NewManager(settings, nil)

	require.NoError(t, m.Initialize(context.Background(), "testdata/session2.json"))
	assert.Len(t, m.Datasets()[0].Trains, 2)
}

func TestParseInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "a.json", []string{"a.json"}},
		{"comma separated", "a.json, b.json", []string{"a.json", "b.json"}},
		{"newline separated", "a.json\n\n b.json \n", []string{"a.json", "b.json"}},
		{"blank", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInputs(tt.input))
		})
	}
}

package recording

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/spikeview/internal/model"
)

func newTestLoader(t *testing.T, reg *Registry) *Loader {
	t.Helper()
	return NewLoader(reg, LoadOptions{}, FetchConfig{
		CacheDir:      t.TempDir(),
		MaxRetries:    3,
		RetryCooldown: 0,
		RetryExponent: 1,
	})
}

func TestLoader_LoadJSON(t *testing.T) {
	loader := newTestLoader(t, DefaultRegistry(nil))

	block, err := loader.Load(context.Background(), "testdata/session1.json")
	require.NoError(t, err)

	data, err := os.ReadFile("testdata/session1.json")
	require.NoError(t, err)

	assert.Equal(t, "session1", block.Name)
	assert.Equal(t, "session1.json", block.FileOrigin)
	assert.Equal(t, xxhash.Sum64(data), block.Fingerprint)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("hello"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(dir, "missing.json")},
		{"unknown extension", unknown},
		{"missing blackrock base", filepath.Join(dir, "l101210-001")},
		{"blackrock without exporter", writeFile(t, dir, "session.nev", "NEURALEV")},
	}

	loader := newTestLoader(t, DefaultRegistry(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLoad), "got %v", err)
		})
	}
}

func TestLoader_BlackrockBaseName(t *testing.T) {
	tests := []struct {
		name string
		base string
	}{
		{"plain", "l101210-001"},
		{"dotted", "rat1.day3-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			base := filepath.Join(dir, tt.base)
			writeFile(t, dir, tt.base+".nev", "NEURALEV")

			var gotPath string
			reg := NewRegistry()
			reg.Register(".nev", ReaderFunc(func(ctx context.Context, path string, opts LoadOptions) (*model.Block, error) {
				gotPath = path
				return &model.Block{Name: tt.base}, nil
			}))

			block, err := newTestLoader(t, reg).Load(context.Background(), base)
			require.NoError(t, err)

			assert.Equal(t, base, gotPath, "exporter receives the path as given")
			assert.Equal(t, tt.base+".nev", block.FileOrigin)
			assert.NotZero(t, block.Fingerprint)
		})
	}
}

func TestLoader_NilBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.json", "{}")

	reg := NewRegistry()
	reg.Register(".json", ReaderFunc(func(ctx context.Context, path string, opts LoadOptions) (*model.Block, error) {
		return nil, nil
	}))

	_, err := newTestLoader(t, reg).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
}

func TestLoader_Remote(t *testing.T) {
	data, err := os.ReadFile("testdata/session1.json")
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	loader := newTestLoader(t, DefaultRegistry(nil))
	var retries int
	loader.OnRetry(func(attempt, max int, err error) { retries++ })

	block, err := loader.Load(context.Background(), srv.URL+"/data/session1.json")
	require.NoError(t, err)

	assert.Equal(t, "session1", block.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, retries)
}

func TestLoader_RemoteProgress(t *testing.T) {
	data, err := os.ReadFile("testdata/session1.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	type update struct{ written, total int64 }
	var updates []update

	loader := newTestLoader(t, DefaultRegistry(nil))
	loader.OnDownload(func(url string, written, total int64) {
		assert.Equal(t, srv.URL+"/session1.json", url)
		updates = append(updates, update{written, total})
	})

	_, err = loader.Load(context.Background(), srv.URL+"/session1.json")
	require.NoError(t, err)

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, int64(len(data)), last.written)
	assert.LessOrEqual(t, len(updates), 6)
}

func TestLoader_RemoteNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestLoader(t, DefaultRegistry(nil)).Load(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestExecReader(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")

	// The exporter records its arguments and prints the fixture.
	reader := NewExecReader([]string{
		"sh", "-c", `echo "$1 $2 $3" > "$4"; cat testdata/session1.json`, "sh",
		"--nsx={nsx}", "--units={units}", "--waveforms={waveforms}", argsFile,
	})

	block, err := reader.Read(context.Background(), "ignored", LoadOptions{LoadNSx: true, Units: []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "session1", block.Name)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "--nsx=true --units=1,2 --waveforms=false\n", string(args))
}

func TestExecReader_Failure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	reader := NewExecReader([]string{"sh", "-c", "echo cannot open {path} >&2; exit 3"})
	_, err := reader.Read(context.Background(), "/data/x.nev", LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
	assert.Contains(t, err.Error(), "cannot open /data/x.nev")
}

func TestExecReader_Expand(t *testing.T) {
	reader := NewExecReader([]string{"export", "{path}", "units={units}", "nsx={nsx}"})
	got := reader.expand("/data/a.nev", LoadOptions{})
	assert.Equal(t, []string{"export", "/data/a.nev", "units=", "nsx=false"}, got)
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	reg := DefaultRegistry(nil)
	reader, file, err := reg.ReaderFor("/data/SESSION.JSON")
	require.NoError(t, err)
	assert.IsType(t, &JSONReader{}, reader)
	assert.Equal(t, "/data/SESSION.JSON", file)

	reader, _, err = reg.ReaderFor("/data/session.ns5")
	require.NoError(t, err)
	assert.IsType(t, &ExecReader{}, reader)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

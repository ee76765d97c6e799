package recording

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/http"
	"github.com/handiism/spikeview/internal/model"
)

// FetchConfig controls how remote datasets are downloaded.
type FetchConfig struct {
	// CacheDir receives downloaded datasets.
	CacheDir string

	// MaxRetries is the number of download attempts. Values below 1 mean 1.
	MaxRetries int

	// RetryCooldown and RetryExponent give the wait before retry n as
	// RetryCooldown * RetryExponent^n seconds.
	RetryCooldown float64
	RetryExponent float64
}

// Loader opens datasets through a Registry of readers.
//
// Local paths are read directly. http(s) URLs are downloaded into the
// cache directory first, then dispatched on the extension of the URL path.
//
// Example:
//
//	loader := NewLoader(DefaultRegistry(nil), LoadOptions{}, FetchConfig{CacheDir: os.TempDir()})
//	block, err := loader.Load(ctx, "/data/session1.json")
//	if errors.Is(err, ErrLoad) {
//	    // path missing, unreadable or not a recording
//	}
type Loader struct {
	registry *Registry
	opts     LoadOptions
	fetch    FetchConfig
	client   *http.Client

	onRetry    func(attempt, max int, err error)
	onDownload func(url string, written, total int64)
}

// NewLoader creates a Loader.
func NewLoader(registry *Registry, opts LoadOptions, fetch FetchConfig) *Loader {
	return &Loader{
		registry: registry,
		opts:     opts,
		fetch:    fetch,
		client:   http.NewClient(),
	}
}

// OnRetry registers a callback invoked before each remote download retry.
func (l *Loader) OnRetry(fn func(attempt, max int, err error)) {
	l.onRetry = fn
}

// OnDownload registers a callback that receives the progress of remote
// downloads. It is called at most about four times per attempt, plus once at
// completion; total is -1 when the server sends no length.
func (l *Loader) OnDownload(fn func(url string, written, total int64)) {
	l.onDownload = fn
}

// Load opens the dataset at path and returns its Block.
//
// Every error returned wraps ErrLoad.
func (l *Loader) Load(ctx context.Context, datasetPath string) (*model.Block, error) {
	if datasetPath == "" {
		return nil, errors.Wrap(ErrLoad, "no dataset path given")
	}

	localPath := datasetPath
	if isRemote(datasetPath) {
		var err error
		if localPath, err = l.download(ctx, datasetPath); err != nil {
			return nil, err
		}
	}

	reader, file, err := l.registry.ReaderFor(localPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(file); err != nil {
		return nil, errors.Wrapf(ErrLoad, "%v", err)
	}

	block, err := reader.Read(ctx, localPath, l.opts)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, errors.Wrapf(ErrLoad, "reader returned no recording for %s", datasetPath)
	}

	if block.FileOrigin == "" {
		block.FileOrigin = filepath.Base(file)
	}
	if sum, err := fingerprint(file); err == nil {
		block.Fingerprint = sum
	}

	return block, nil
}

// download fetches a remote dataset into the cache directory, retrying with
// exponential backoff, and returns the local path.
func (l *Loader) download(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(ErrLoad, "invalid dataset URL %s: %v", rawURL, err)
	}

	if err := os.MkdirAll(l.fetch.CacheDir, 0755); err != nil {
		return "", errors.Wrapf(ErrLoad, "cache directory: %v", err)
	}

	// Cache files are keyed by URL so distinct sources never collide, and
	// keep the URL's base name so the extension still selects the reader.
	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		base = "dataset"
	}
	dest := filepath.Join(l.fetch.CacheDir, fmt.Sprintf("%016x-%s", xxhash.Sum64String(rawURL), base))

	maxRetries := l.fetch.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for tries := 0; tries < maxRetries; tries++ {
		err = l.client.DownloadFile(ctx, rawURL, dest, l.downloadProgress(rawURL))
		if err == nil {
			return dest, nil
		}
		if ctx.Err() != nil {
			break
		}
		if tries+1 < maxRetries {
			if l.onRetry != nil {
				l.onRetry(tries+1, maxRetries, err)
			}
			l.waitForRetry(ctx, tries)
		}
	}

	return "", errors.Wrapf(ErrLoad, "download %s: %v", rawURL, err)
}

// downloadProgress throttles byte-level progress to quarter steps of the
// total, or 1 MiB steps when the length is unknown.
func (l *Loader) downloadProgress(rawURL string) func(written, total int64) {
	if l.onDownload == nil {
		return nil
	}

	var next int64
	return func(written, total int64) {
		if written < next && written != total {
			return
		}
		step := total / 4
		if step <= 0 {
			step = 1 << 20
		}
		next = written + step
		l.onDownload(rawURL, written, total)
	}
}

func (l *Loader) waitForRetry(ctx context.Context, tries int) {
	cooldown := l.fetch.RetryCooldown * math.Pow(l.fetch.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func isRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// fingerprint returns the xxhash64 of the file contents.
func fingerprint(file string) (uint64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

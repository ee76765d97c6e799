package recording

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/model"
)

// Reader turns a local dataset path into a Block.
//
// Implementations must wrap their failures with ErrLoad.
type Reader interface {
	Read(ctx context.Context, path string, opts LoadOptions) (*model.Block, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, path string, opts LoadOptions) (*model.Block, error)

// Read calls f(ctx, path, opts).
func (f ReaderFunc) Read(ctx context.Context, path string, opts LoadOptions) (*model.Block, error) {
	return f(ctx, path, opts)
}

// BlackrockExtensions are the file extensions of a Blackrock session:
// the event file and the six continuous sampling groups.
var BlackrockExtensions = []string{".nev", ".ns1", ".ns2", ".ns3", ".ns4", ".ns5", ".ns6"}

// Registry maps file extensions to readers.
//
// Example:
//
//	reg := NewRegistry()
//	reg.Register(".json", NewJSONReader())
//	reader, file, err := reg.ReaderFor("/data/session1.json")
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// DefaultRegistry returns a Registry with the JSON document reader on
// ".json" and an ExecReader running blackrockCommand on every Blackrock
// extension.
func DefaultRegistry(blackrockCommand []string) *Registry {
	reg := NewRegistry()
	reg.Register(".json", NewJSONReader())

	exporter := NewExecReader(blackrockCommand)
	for _, ext := range BlackrockExtensions {
		reg.Register(ext, exporter)
	}
	return reg
}

// Register binds a reader to an extension (with the leading dot).
// Extensions are matched case-insensitively.
func (r *Registry) Register(ext string, reader Reader) {
	r.readers[strings.ToLower(ext)] = reader
}

// ReaderFor selects the reader for a local path and returns the file that
// backs it.
//
// A path whose extension has no registered reader is treated as a
// Blackrock base name when path+".nev" exists. Session names often carry
// dots ("rat1.day3-001"), so this applies to any unknown extension, not only
// an empty one. The returned file is then the .nev file.
func (r *Registry) ReaderFor(path string) (Reader, string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if reader, ok := r.readers[ext]; ok && ext != "" {
		return reader, path, nil
	}

	nev := path + ".nev"
	if _, err := os.Stat(nev); err == nil {
		if reader, ok := r.readers[".nev"]; ok {
			return reader, nev, nil
		}
	}

	reader, ok := r.readers[ext]
	if !ok {
		return nil, "", errors.Wrapf(ErrLoad, "no reader for %s", path)
	}
	return reader, path, nil
}

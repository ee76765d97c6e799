package recording

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/model"
)

// JSONReader reads recording documents stored as JSON files.
// See Decode for the layout.
type JSONReader struct{}

// NewJSONReader creates a new JSONReader.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

// Read decodes the JSON document at path.
func (r *JSONReader) Read(ctx context.Context, path string, opts LoadOptions) (*model.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "%v", err)
	}

	block, err := Decode(data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return block, nil
}

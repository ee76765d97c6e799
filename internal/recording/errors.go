package recording

import "github.com/pkg/errors"

// ErrLoad is the kind of every failure to turn a dataset path into a
// Block: missing file, no matching reader, exporter failure, invalid
// document. Use errors.Is to test for it.
var ErrLoad = errors.New("recording could not be loaded")

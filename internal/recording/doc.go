// Package recording loads datasets into model.Block values.
//
// Parsing of acquisition formats is not done here. A Reader either decodes
// a JSON recording document (JSONReader) or runs an external exporter that
// produces one (ExecReader), for example a neo based script for Blackrock
// sessions.
//
// # Loading
//
//	reg := recording.DefaultRegistry([]string{"neo-export", "--nsx={nsx}", "{path}"})
//	loader := recording.NewLoader(reg, recording.LoadOptions{}, fetchCfg)
//	block, err := loader.Load(ctx, "/data/l101210-001")
//
// # Readers
//
// The Registry picks a reader by extension:
//   - .json - JSONReader
//   - .nev, .ns1 ... .ns6 - ExecReader
//   - no extension - ExecReader when <path>.nev exists
//
// # Errors
//
// Every failure wraps ErrLoad:
//
//	if errors.Is(err, recording.ErrLoad) {
//	    os.Exit(1)
//	}
package recording

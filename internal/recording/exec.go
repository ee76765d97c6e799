package recording

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/model"
)

// ExecReader delegates parsing to an external exporter command that prints
// the recording as a JSON document (see Decode) on stdout.
//
// Each argument of the command template may contain placeholders:
//   - {path} - the dataset path
//   - {nsx} - "true" or "false" from LoadOptions.LoadNSx
//   - {units} - comma separated unit ids, empty for all units
//   - {waveforms} - "true" or "false" from LoadOptions.LoadWaveforms
//
// Example:
//
//	r := NewExecReader([]string{"neo-export", "--nsx={nsx}", "--units={units}", "{path}"})
//	block, err := r.Read(ctx, "/data/l101210-001", LoadOptions{})
type ExecReader struct {
	command []string
}

// NewExecReader creates an ExecReader for the given command template.
// An empty template makes every Read fail with ErrLoad.
func NewExecReader(command []string) *ExecReader {
	return &ExecReader{command: command}
}

// Read runs the exporter for path and decodes its output.
func (r *ExecReader) Read(ctx context.Context, path string, opts LoadOptions) (*model.Block, error) {
	if len(r.command) == 0 {
		return nil, errors.Wrapf(ErrLoad, "no exporter command configured for %s", path)
	}

	args := r.expand(path, opts)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrapf(ErrLoad, "exporter %s: %v", args[0], err)
		}
		return nil, errors.Wrapf(ErrLoad, "exporter %s: %v: %s", args[0], err, msg)
	}

	block, err := Decode(stdout.Bytes(), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "exporter %s output for %s", args[0], path)
	}
	return block, nil
}

// expand substitutes the placeholders of the command template.
func (r *ExecReader) expand(path string, opts LoadOptions) []string {
	units := make([]string, len(opts.Units))
	for i, u := range opts.Units {
		units[i] = strconv.Itoa(u)
	}

	replacer := strings.NewReplacer(
		"{path}", path,
		"{nsx}", strconv.FormatBool(opts.LoadNSx),
		"{units}", strings.Join(units, ","),
		"{waveforms}", strconv.FormatBool(opts.LoadWaveforms),
	)

	args := make([]string, len(r.command))
	for i, arg := range r.command {
		args[i] = replacer.Replace(arg)
	}
	return args
}

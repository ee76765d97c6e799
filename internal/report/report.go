// Package report prints the human-readable summary of a loaded recording.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/handiism/spikeview/internal/analysis"
	"github.com/handiism/spikeview/internal/model"
)

// Reporter writes the block name and the extracted timestamps.
//
// Output for a block "session1" whose first train has three spikes:
//
//	session1
//	[0.1 0.2 0.3] s
//
// With ShowCount a third line "count: 3" follows.
type Reporter struct {
	w         io.Writer
	showCount bool
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer, showCount bool) *Reporter {
	return &Reporter{w: w, showCount: showCount}
}

// Report writes the report for one block.
func (r *Reporter) Report(block *model.Block, ex analysis.Extraction) error {
	units := model.DefaultTimeUnits
	if ex.Train != nil && ex.Train.Units != "" {
		units = ex.Train.Units
	}

	var sb strings.Builder
	sb.WriteString(block.Name)
	sb.WriteString("\n")
	sb.WriteString(FormatTimes(ex.Times, units))
	sb.WriteString("\n")
	if r.showCount {
		sb.WriteString(fmt.Sprintf("count: %d\n", ex.Count))
	}

	_, err := io.WriteString(r.w, sb.String())
	return err
}

// FormatTimes renders timestamps as "[t0 t1 ...] units" using the shortest
// representation of each value.
//
//	FormatTimes([]float64{0.5, 1.25}, "s") // "[0.5 1.25] s"
//	FormatTimes(nil, "ms")                 // "[] ms"
func FormatTimes(times []float64, units string) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}

	s := "[" + strings.Join(parts, " ") + "]"
	if units != "" {
		s += " " + units
	}
	return s
}

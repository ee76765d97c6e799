package recording

// LoadOptions selects what a reader decodes from a dataset.
//
// The zero value loads spike trains only: no continuous signals, no unit
// filter, no waveforms.
type LoadOptions struct {
	// LoadNSx asks exporters to include continuous signal files (.ns1-.ns6).
	LoadNSx bool

	// Units restricts the spike trains to the listed unit ids.
	// Empty means every unit the source provides.
	Units []int

	// LoadWaveforms keeps the per-spike waveform samples.
	LoadWaveforms bool
}

// keepUnit reports whether a spike train of the given unit passes the
// Units filter.
func (o LoadOptions) keepUnit(unit int) bool {
	if len(o.Units) == 0 {
		return true
	}
	for _, u := range o.Units {
		if u == unit {
			return true
		}
	}
	return false
}

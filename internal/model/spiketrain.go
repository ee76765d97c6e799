package model

import (
	"fmt"
)

// DefaultTimeUnits is assumed when a source does not name the time units
// of a spike train.
const DefaultTimeUnits = "s"

// SpikeTrain is the sequence of firing timestamps of one recorded unit.
//
// Times are kept in the order the source delivered them. Waveforms is nil
// unless the recording was loaded with waveforms enabled, in which case
// Waveforms[i] holds the samples of the spike at Times[i].
type SpikeTrain struct {
	// Name is the train label, typically "<channel>#<unit>".
	Name string

	// ChannelID is the electrode channel the unit was recorded on.
	ChannelID int

	// UnitID is the sorted unit number. 0 means unclassified.
	UnitID int

	// Units is the time unit of Times, TStart and TStop (e.g. "s", "ms").
	Units string

	// TStart and TStop bound the train.
	TStart float64
	TStop  float64

	// Times holds the spike timestamps.
	Times []float64

	// Waveforms holds one sample slice per spike, if loaded.
	Waveforms [][]float64
}

// Len returns the number of timestamps in the train.
func (s *SpikeTrain) Len() int {
	return len(s.Times)
}

// Duration returns TStop - TStart.
func (s *SpikeTrain) Duration() float64 {
	return s.TStop - s.TStart
}

// Rate returns the mean firing rate in spikes per time unit.
// Returns 0 when the train has no positive duration.
func (s *SpikeTrain) Rate() float64 {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	return float64(s.Len()) / d
}

// Label returns Name, or "<channel>#<unit>" when the train is unnamed.
func (s *SpikeTrain) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%d#%d", s.ChannelID, s.UnitID)
}

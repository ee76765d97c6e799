package model

import (
	"time"
)

// Block is the root container of one recording session.
//
// A Block is produced once by a recording reader and is not mutated
// afterwards. It holds the ordered segments of the session:
//
//	block := &Block{
//	    Name: "session1",
//	    Segments: []*Segment{
//	        {Name: "seg0", SpikeTrains: []*SpikeTrain{train}},
//	    },
//	}
//
// Whether a Block has segments, or whether a segment has spike trains, is
// not checked at construction time. Callers that need the first spike train
// go through the analysis package, which reports the missing data.
type Block struct {
	// Name is the recording name as given by the source file.
	Name string

	// Description is free text attached by the acquisition software.
	Description string

	// FileOrigin is the name of the file the block was read from.
	FileOrigin string

	// RecordedAt is when the session was recorded.
	// Zero if the source does not carry a recording date.
	RecordedAt time.Time

	// Segments contains the recording epochs in order.
	Segments []*Segment

	// Fingerprint is the xxhash64 of the bytes the reader consumed.
	// Zero when the reader could not hash its input.
	Fingerprint uint64
}

// Segment is a contiguous time epoch within a Block.
type Segment struct {
	// Name is the segment label.
	Name string

	// Index is the position of the segment within its block.
	Index int

	// TStart and TStop bound the epoch, in the units of its spike trains.
	TStart float64
	TStop  float64

	// SpikeTrains contains one entry per recorded unit, in source order.
	SpikeTrains []*SpikeTrain
}

// SpikeTrains returns the spike trains of every segment, flattened in
// segment order.
func (b *Block) SpikeTrains() []*SpikeTrain {
	var trains []*SpikeTrain
	for _, seg := range b.Segments {
		trains = append(trains, seg.SpikeTrains...)
	}
	return trains
}

// SpikeCount returns the number of spikes across all segments.
func (b *Block) SpikeCount() int {
	n := 0
	for _, st := range b.SpikeTrains() {
		n += st.Len()
	}
	return n
}

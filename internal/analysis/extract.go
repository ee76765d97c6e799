package analysis

import (
	"github.com/pkg/errors"

	"github.com/handiism/spikeview/internal/model"
)

// ErrIndex is returned when the block lacks the segment or spike train an
// operation needs.
var ErrIndex = errors.New("recording structure is missing")

// Extraction is the spike train picked for reporting.
type Extraction struct {
	// Train is the first spike train of the first segment.
	Train *model.SpikeTrain

	// Times are the train's timestamps.
	Times []float64

	// Count is len(Times).
	Count int
}

// Extract returns the timestamps of the first spike train of the first
// segment.
//
// Returns an error wrapping ErrIndex if the block is nil, has no segments,
// or its first segment has no spike trains.
func Extract(block *model.Block) (Extraction, error) {
	seg, err := firstSegment(block)
	if err != nil {
		return Extraction{}, err
	}
	if len(seg.SpikeTrains) == 0 || seg.SpikeTrains[0] == nil {
		return Extraction{}, errors.Wrapf(ErrIndex, "block %q: first segment has no spike trains", block.Name)
	}

	train := seg.SpikeTrains[0]
	return Extraction{
		Train: train,
		Times: train.Times,
		Count: train.Len(),
	}, nil
}

// Scope selects which spike trains are plotted.
type Scope int

const (
	// ScopeFirstSegment plots the spike trains of the first segment.
	ScopeFirstSegment Scope = iota

	// ScopeBlock plots every spike train of the block, flattened in
	// segment order.
	ScopeBlock
)

// String returns the settings name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeBlock:
		return "block"
	default:
		return "first_segment"
	}
}

// PlotTrains returns the spike trains to plot for the given scope.
//
// ScopeFirstSegment fails with ErrIndex when the block has no segments.
func PlotTrains(block *model.Block, scope Scope) ([]*model.SpikeTrain, error) {
	if scope == ScopeBlock {
		if block == nil {
			return nil, errors.Wrap(ErrIndex, "no block")
		}
		return block.SpikeTrains(), nil
	}

	seg, err := firstSegment(block)
	if err != nil {
		return nil, err
	}
	return seg.SpikeTrains, nil
}

func firstSegment(block *model.Block) (*model.Segment, error) {
	if block == nil {
		return nil, errors.Wrap(ErrIndex, "no block")
	}
	if len(block.Segments) == 0 || block.Segments[0] == nil {
		return nil, errors.Wrapf(ErrIndex, "block %q has no segments", block.Name)
	}
	return block.Segments[0], nil
}

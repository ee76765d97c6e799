// Package plot renders spike trains as a scatter using gonum/plot.
//
// In identity mode each spike train is one marker at (index, 0). In raster
// mode each spike is one marker at (time, train index):
//
//	p := plot.NewPlotter(&plot.Config{Mode: plot.ModeIdentity, Marker: "x", PathFormat: "{name}"})
//	path, err := p.Save(ctx, block, 0, block.Segments[0].SpikeTrains)
//
// Points exposes the coordinates without rendering.
package plot

// Package model defines the recording structures shared by the loader,
// the extractor, the reporter and the plotter.
//
// # Block
//
// Block is the root of a loaded recording:
//
//	block, _ := loader.Load(ctx, "/data/session1.json")
//	fmt.Println(block.Name)
//	for _, seg := range block.Segments {
//	    fmt.Println(seg.Name, len(seg.SpikeTrains))
//	}
//
// # SpikeTrain
//
// SpikeTrain holds the timestamps of one unit:
//
//	st := block.Segments[0].SpikeTrains[0]
//	fmt.Println(st.Len(), st.Units, st.Rate())
//
// Values in this package are built once by a reader and then only read.
package model

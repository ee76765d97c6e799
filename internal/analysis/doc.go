// Package analysis picks the data the reporter and the plotter work on.
//
//	ex, err := analysis.Extract(block)
//	if errors.Is(err, analysis.ErrIndex) {
//	    // no segment or no spike train
//	}
//	fmt.Println(ex.Count, ex.Times)
//
//	trains, _ := analysis.PlotTrains(block, analysis.ScopeFirstSegment)
package analysis

// Package pipeline runs the load, extract, report and plot steps.
//
// # Manager
//
// The Manager coordinates one run:
//
//  1. Parse the input dataset list
//  2. Load every dataset (local file or http(s) URL)
//  3. Extract the first spike train of the first segment
//  4. Print the reports in input order
//  5. Save the plots (optional)
//
// # Basic Usage
//
//	manager := pipeline.NewManager(settings, func(event pipeline.ProgressEvent) {
//	    fmt.Fprintln(os.Stderr, event.Message)
//	})
//
//	if err := manager.Initialize(ctx, "/data/session1.json"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := manager.Run(ctx, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failure
//
// Initialize is all-or-nothing: a Load or Index error on any dataset is
// returned before anything is printed.
//
// # Concurrency
//
// settings.MaxConcurrentLoads bounds how many datasets load in parallel.
// Reports and plots are always produced sequentially.
package pipeline

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/spikeview/internal/config"
	"github.com/handiism/spikeview/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to settings file (.json, .yaml, .yml)")
	flag.Parse()

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(2)
		}
	}
	settings.ApplyEnv()
	if flag.NArg() > 0 {
		settings.Dataset = flag.Arg(0)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

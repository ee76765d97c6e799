// Package config provides configuration management for spikeview.
//
// Settings are read from a JSON or YAML file and then overridden by
// SPIKEVIEW_* environment variables and command-line flags, in that order.
//
//	settings, err := config.Load("spikeview.yaml")
//	if err != nil {
//	    return err
//	}
//	settings.ApplyEnv()
//
// A missing file is not an error; Load returns DefaultSettings().
//
// The To* methods convert the flat settings into the option types of the
// recording, plot and analysis packages.
package config

// Command tara-client runs on the operator's machine: it samples the
// leader arm, streams commands to the robot host, and displays the
// observations that come back.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run   RunCommand   `command:"run" alias:"teleoperate" description:"Start teleoperation"`
	Setup SetupCommand `command:"setup" description:"Detect and calibrate this machine's leader arm"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Tara teleoperation client - control a remote Tara arm with a leader arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

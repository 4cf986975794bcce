// Command tara-host runs on the robot: it serves the teleoperation
// transport, drives the arm from incoming commands, and streams
// observations back. The watchdog stops the motors if the command
// stream goes silent.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run   RunCommand   `command:"run" description:"Start the robot host loop"`
	Setup SetupCommand `command:"setup" description:"Detect and calibrate this machine's robot arm"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Tara robot host - serves teleoperation for a Tara arm"

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

package main

import (
	"fmt"

	"github.com/tarabotics/teleop/pkg/robot"
	"github.com/tarabotics/teleop/pkg/setup"
)

type SetupCommand struct {
	Config string `long:"config" default:"tara.json" description:"Path to the configuration file"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println("Tara host setup")
	fmt.Println()

	// Keep existing settings (network, client section) if present.
	cfg, err := robot.LoadConfigFrom(c.Config)
	if err != nil {
		cfg = &robot.Config{}
	}

	port, err := setup.DetectArmPort()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Calibrating robot arm")
	cal, err := setup.CalibrateArm(port)
	if err != nil {
		return err
	}

	cfg.Robot = robot.ArmConfig{Port: port, Calibration: cal}
	if err := cfg.SaveTo(c.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println("Start the host with: tara-host run")
	return nil
}

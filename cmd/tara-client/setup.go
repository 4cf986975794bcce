package main

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/tarabotics/teleop/pkg/robot"
	"github.com/tarabotics/teleop/pkg/setup"
)

type SetupCommand struct {
	Config string `long:"config" default:"tara.json" description:"Path to the configuration file"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println("Tara client setup")
	fmt.Println()

	cfg, err := robot.LoadConfigFrom(c.Config)
	if err != nil {
		cfg = &robot.Config{}
	}

	port, err := setup.DetectArmPort()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Calibrating leader arm")
	cal, err := setup.CalibrateArm(port)
	if err != nil {
		return err
	}
	cfg.Leader = robot.ArmConfig{Port: port, Calibration: cal}

	host := cfg.Network.HostAddress
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Robot host address").
				Description("IP or hostname of the machine running tara-host").
				Placeholder("192.168.1.20").
				Value(&host),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Network.HostAddress = host

	if err := cfg.SaveTo(c.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println("Start teleoperation with: tara-client run")
	return nil
}

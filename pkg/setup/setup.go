// Package setup implements the interactive first-run flow for one
// machine's arm: find the serial port it is attached to and record
// its range of motion. The host machine runs it for the robot arm,
// the controller machine for the leader arm.
package setup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/tarabotics/teleop/pkg/robot"
)

// armPortCandidate is a serial port confirmed to have a Tara arm on it.
type armPortCandidate struct {
	port   string
	servos []feetech.FoundServo
}

// DetectArmPort scans serial ports for a Tara arm (six STS servos
// with IDs 1-6). With several candidates the operator picks one; the
// wiggle confirms which physical arm is on the port being offered.
func DetectArmPort() (string, error) {
	candidates, err := scanPorts()
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no Tara arm found; check that the arm is connected and powered on")
	}
	if len(candidates) == 1 {
		fmt.Printf("Found arm on %s\n", candidates[0].port)
		return candidates[0].port, nil
	}

	var options []huh.Option[string]
	for _, c := range candidates {
		wiggle(c)
		options = append(options, huh.NewOption(c.port, c.port))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Multiple arms found. Which port is this machine's arm on?").
				Description("Each arm wiggled in turn, last one first").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}

func scanPorts() ([]armPortCandidate, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	var candidates []armPortCandidate
	for _, port := range ports {
		// Bluetooth pseudo-ports on macOS hang the scan.
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}
		servos, err := bus.Scan(ctx, 1, 6)
		cancel()
		bus.Close()
		if err != nil {
			continue
		}

		if isTaraArm(servos) {
			candidates = append(candidates, armPortCandidate{port: port, servos: servos})
		}
	}
	return candidates, nil
}

// isTaraArm reports whether the scan found exactly servos 1-6.
func isTaraArm(servos []feetech.FoundServo) bool {
	if len(servos) != 6 {
		return false
	}
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

// wiggle moves the shoulder pan servo gently so the operator can tell
// which physical arm is on the port.
func wiggle(c armPortCandidate) {
	ctx := context.Background()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     c.port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return
	}
	defer bus.Close()

	var servo *feetech.Servo
	for _, s := range c.servos {
		if s.ID == 1 {
			servo = feetech.NewServo(bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		return
	}
	if err := servo.Enable(ctx); err != nil {
		return
	}
	defer servo.Disable(ctx)

	fmt.Printf("Wiggling arm on %s...\n", c.port)

	const wiggleAmount = 30
	const moveTimeMs = 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep((moveTimeMs + 100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep((moveTimeMs + 100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep((moveTimeMs + 100) * time.Millisecond)
}

// CalibrateArm connects to the arm on port, drops torque so the
// operator can move it freely, and records each joint's range of
// motion interactively.
func CalibrateArm(port string) (robot.Calibration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus %s: %w", port, err)
	}
	defer bus.Close()

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", port, err)
	}
	if !isTaraArm(servos) {
		return nil, fmt.Errorf("port %s: not a Tara arm (expected 6 servos with IDs 1-6)", port)
	}

	servoMap := make(map[int]*feetech.Servo, len(servos))
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}
	for _, servo := range servoMap {
		servo.Disable(context.Background())
	}

	return recordRange(robot.AllMotors(), servoMap)
}

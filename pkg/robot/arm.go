package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/tarabotics/teleop/pkg/wire"
)

// Arm drives one serial bus of STS servos. On the robot side it is
// the host loop's actuator; on the controller side a Leader wraps it
// as the input device. The owning loop is the only caller while it
// runs.
type Arm struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
	torqueOn    bool
}

// NewArm opens the serial bus and builds the servo group from the
// calibration's motor IDs.
func NewArm(port string, cal Calibration) (*Arm, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus %s: %w", port, err)
	}
	group := feetech.NewServoGroupByIDs(bus, cal.MotorIDs()...)
	return &Arm{bus: bus, group: group, calibration: cal}, nil
}

// Close releases the serial bus.
func (a *Arm) Close() error {
	return a.bus.Close()
}

// Enable powers servo torque.
func (a *Arm) Enable(ctx context.Context) error {
	if err := a.group.EnableAll(ctx); err != nil {
		return fmt.Errorf("enable torque: %w", err)
	}
	a.torqueOn = true
	return nil
}

// Disable drops servo torque, letting the arm go limp. Safe to call
// repeatedly; the watchdog and the shutdown path both use it.
func (a *Arm) Disable(ctx context.Context) error {
	if err := a.group.DisableAll(ctx); err != nil {
		return fmt.Errorf("disable torque: %w", err)
	}
	a.torqueOn = false
	return nil
}

// Apply drives the axes named in cmd. Axes the calibration doesn't
// know are skipped — validating axis sets is the actuator's job, not
// the protocol's. Targets are clamped to the calibrated range.
// Returns the command as actually applied. Torque is re-enabled first
// if a watchdog trip had dropped it.
func (a *Arm) Apply(ctx context.Context, cmd wire.Command) (wire.Command, error) {
	if !a.torqueOn {
		if err := a.Enable(ctx); err != nil {
			return nil, err
		}
	}

	raw := make(feetech.PositionMap, len(cmd))
	applied := make(wire.Command, len(cmd))
	for axis, target := range cmd {
		cal, ok := a.calibration[MotorName(axis)]
		if !ok {
			continue
		}
		clamped := clamp(target, -100, 100)
		raw[cal.ID] = cal.Denormalize(clamped)
		applied[axis] = clamped
	}
	if len(raw) == 0 {
		return applied, nil
	}
	if err := a.group.SetPositions(ctx, raw); err != nil {
		return nil, fmt.Errorf("write positions: %w", err)
	}
	return applied, nil
}

// Sample reads the current normalized position of every calibrated
// motor, keyed by axis name.
func (a *Arm) Sample(ctx context.Context) (map[string]float64, error) {
	raw, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	state := make(map[string]float64, len(raw))
	for id, pos := range raw {
		name, cal, ok := a.calibration.ByID(id)
		if !ok {
			continue
		}
		state[string(name)] = cal.Normalize(pos)
	}
	return state, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Leader exposes an arm as the operator's input device: the arm is
// held limp (torque off) and its joint angles are read as the desired
// command each tick.
type Leader struct {
	arm *Arm
}

// NewLeader opens the leader arm and drops its torque so the operator
// can move it freely.
func NewLeader(ctx context.Context, port string, cal Calibration) (*Leader, error) {
	arm, err := NewArm(port, cal)
	if err != nil {
		return nil, fmt.Errorf("leader arm: %w", err)
	}
	if err := arm.Disable(ctx); err != nil {
		arm.Close()
		return nil, fmt.Errorf("leader arm: %w", err)
	}
	return &Leader{arm: arm}, nil
}

// Sample reads the leader's current joint angles as a command.
func (l *Leader) Sample(ctx context.Context) (wire.Command, error) {
	state, err := l.arm.Sample(ctx)
	if err != nil {
		return nil, err
	}
	return wire.Command(state), nil
}

// Close releases the leader's serial bus.
func (l *Leader) Close() error {
	return l.arm.Close()
}

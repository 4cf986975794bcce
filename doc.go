// Package teleop provides network teleoperation for Tara robot arms.
//
// A leader arm on the operator's machine drives a follower arm on the
// robot in real-time. Commands and observations travel over two TCP
// streams with latest-wins delivery: nothing is queued, the newest
// value always supersedes an unconsumed older one, and a watchdog on
// the robot stops the motors when the command stream goes silent.
//
// # Installation
//
//	go install github.com/tarabotics/teleop/cmd/tara-host@latest
//	go install github.com/tarabotics/teleop/cmd/tara-client@latest
//
// # Usage
//
// On the robot, detect and calibrate the arm, then start the host:
//
//	tara-host setup
//	tara-host run
//
// On the operator's machine, calibrate the leader arm and point it at
// the robot:
//
//	tara-client setup
//	tara-client run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/tara-host: robot-side binary (host loop + transport)
//   - cmd/tara-client: operator-side binary (client loop + display)
//   - pkg/wire: message types, CBOR codec, and frame format
//   - pkg/link: latest-wins transport endpoints
//   - pkg/watchdog: command-silence safety state machine
//   - pkg/host: robot-resident control loop
//   - pkg/client: controller-resident control loop
//   - pkg/robot: arm control, calibration, and configuration
//   - pkg/camera: frame capture seam
//   - pkg/setup: interactive port detection and calibration
//   - pkg/telemetry: display fan-out for the client TUI
package teleop

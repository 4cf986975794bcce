// Package robot provides the hardware collaborators for
// teleoperation: the follower arm as actuator and the leader arm as
// input device, both over a Feetech STS servo bus.
package robot

// MotorName identifies a motor in the arm. The same strings serve as
// command axis names and observation channel names on the wire.
type MotorName string

// Motor names for the Tara arm, matching servo IDs 1-6.
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// AllMotors returns all motor names in servo ID order.
func AllMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
		Gripper,
	}
}

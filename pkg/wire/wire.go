// Package wire defines the messages exchanged between the teleoperation
// client and the robot host, and their byte-level encoding.
package wire

// Command maps axis names to numeric targets. A Command is a total
// override for the axes it names; axes it omits keep the host's last
// commanded value. Axis names are opaque at this layer — units and
// range checks belong to the actuator.
type Command map[string]float64

// Clone returns a copy of the command.
func (c Command) Clone() Command {
	out := make(Command, len(c))
	for name, v := range c {
		out[name] = v
	}
	return out
}

// ValueKind discriminates observation channel values.
type ValueKind uint8

const (
	// ScalarValue is a plain float channel (joint position, velocity).
	ScalarValue ValueKind = iota
	// ImageValue is an encoded camera frame. Raw pixel data never
	// crosses the transport; frames are compressed on the host.
	ImageValue
)

// Value is a single observation channel: either a scalar or an
// encoded image, never both.
type Value struct {
	Kind   ValueKind
	Scalar float64
	Image  []byte
}

// Scalar wraps a float as an observation value.
func Scalar(v float64) Value {
	return Value{Kind: ScalarValue, Scalar: v}
}

// Image wraps an encoded frame as an observation value.
func Image(data []byte) Value {
	return Value{Kind: ImageValue, Image: data}
}

// Observation is one snapshot of robot state, keyed by channel name.
// Camera channels carry encoded frames; everything else is scalar.
// A snapshot is produced once per host tick and superseded, never
// queued, by the next one.
type Observation map[string]Value

// Message is a decoded wire payload: a Command or an Observation.
type Message interface {
	message()
}

func (Command) message()     {}
func (Observation) message() {}

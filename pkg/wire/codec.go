package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Payload type tags. The envelope is self-describing so a single
// decode path serves both transport directions.
const (
	typeCommand     = "cmd"
	typeObservation = "obs"
)

// Channel value kind tags. Decoders skip kinds they don't recognize
// so newer hosts can add channel types without breaking old clients.
const (
	kindScalar = "scalar"
	kindImage  = "image"
)

// encMode uses Core Deterministic Encoding: sorted map keys, smallest
// integer encoding. The same message always produces identical bytes.
var encMode cbor.EncMode

// decMode accepts standard CBOR; unknown struct fields are ignored,
// which is what makes the envelope forward-compatible.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// DecodeError reports a malformed or truncated payload. Receivers
// treat it like "no message this tick": log it, drop the payload,
// keep looping.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

type envelope struct {
	Type     string               `cbor:"type"`
	Axes     map[string]float64   `cbor:"axes,omitempty"`
	Channels map[string]wireValue `cbor:"channels,omitempty"`
}

type wireValue struct {
	Kind   string  `cbor:"kind"`
	Scalar float64 `cbor:"scalar,omitempty"`
	Image  []byte  `cbor:"image,omitempty"`
}

// EncodeCommand serializes a command for the command direction.
func EncodeCommand(cmd Command) ([]byte, error) {
	return encMode.Marshal(envelope{Type: typeCommand, Axes: cmd})
}

// EncodeObservation serializes an observation snapshot for the
// observation direction.
func EncodeObservation(obs Observation) ([]byte, error) {
	env := envelope{Type: typeObservation}
	if len(obs) > 0 {
		env.Channels = make(map[string]wireValue, len(obs))
	}
	for name, v := range obs {
		switch v.Kind {
		case ScalarValue:
			env.Channels[name] = wireValue{Kind: kindScalar, Scalar: v.Scalar}
		case ImageValue:
			env.Channels[name] = wireValue{Kind: kindImage, Image: v.Image}
		default:
			return nil, fmt.Errorf("wire: channel %q: unknown value kind %d", name, v.Kind)
		}
	}
	return encMode.Marshal(env)
}

// Decode parses a payload into a Command or an Observation depending
// on its type tag. Malformed input yields a *DecodeError; channel
// values with unrecognized kind tags are silently dropped.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	switch env.Type {
	case typeCommand:
		cmd := make(Command, len(env.Axes))
		for name, v := range env.Axes {
			cmd[name] = v
		}
		return cmd, nil
	case typeObservation:
		obs := make(Observation, len(env.Channels))
		for name, v := range env.Channels {
			switch v.Kind {
			case kindScalar:
				obs[name] = Scalar(v.Scalar)
			case kindImage:
				obs[name] = Image(v.Image)
			}
		}
		return obs, nil
	default:
		return nil, &DecodeError{Cause: fmt.Errorf("unknown payload type %q", env.Type)}
	}
}

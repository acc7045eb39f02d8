// Package reading decodes inbound sensor messages and shapes them for display.
package reading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Discriminant values carried in the "type" field.
const (
	TypeAir         = "air"
	TypeIndoor      = "indoor"
	TypeTemperature = "temperature"
)

// Field names with special meaning.
const (
	FieldType     = "type"
	FieldSensorID = "sensor_id"
	FieldTime     = "time"
)

// ErrMalformed is returned when a payload is not a JSON object.
var ErrMalformed = errors.New("malformed sensor message")

// Variant is the routing decision for one message.
type Variant int

// Message variants. Unrecognized messages are inert.
const (
	Unrecognized Variant = iota
	Outdoor
	Indoor
	Temperature1
	Temperature2
)

func (v Variant) String() string {
	switch v {
	case Outdoor:
		return "outdoor"
	case Indoor:
		return "indoor"
	case Temperature1:
		return "temperature_1"
	case Temperature2:
		return "temperature_2"
	default:
		return "unrecognized"
	}
}

// Raw is an inbound reading before formatting. All fields are kept verbatim.
type Raw struct {
	Type     string
	SensorID *int
	Time     json.RawMessage
	fields   map[string]json.RawMessage
}

// Message is a decoded frame together with its routing variant.
type Message struct {
	Variant Variant
	Raw     Raw
}

// Decode parses one inbound frame.
func Decode(data []byte) (Message, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Variant: classify(raw), Raw: raw}, nil
}

func decodeRaw(data []byte) (Raw, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Raw{}, fmt.Errorf("%w: expected JSON object", ErrMalformed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Raw{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	raw := Raw{fields: fields, Time: fields[FieldTime]}

	// A non-string type or non-integer sensor_id never matches a slot.
	if v, ok := fields[FieldType]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			raw.Type = s
		}
	}
	if v, ok := fields[FieldSensorID]; ok {
		raw.SensorID = decodeSensorID(v)
	}
	return raw, nil
}

func decodeSensorID(v json.RawMessage) *int {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	id := int(f)
	return &id
}

// classify applies the routing precedence: air, indoor, temperature 1,
// temperature 2, then nothing.
func classify(r Raw) Variant {
	switch {
	case r.Type == TypeAir:
		return Outdoor
	case r.Type == TypeIndoor:
		return Indoor
	case r.Type == TypeTemperature && r.SensorID != nil && *r.SensorID == 1:
		return Temperature1
	case r.Type == TypeTemperature && r.SensorID != nil && *r.SensorID == 2:
		return Temperature2
	default:
		return Unrecognized
	}
}

// Field returns a raw field value by name.
func (r Raw) Field(name string) (json.RawMessage, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// MarshalJSON re-encodes the reading with every original field.
func (r Raw) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

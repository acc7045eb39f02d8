package reading

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/ashureev/sensorview/internal/timefmt"
)

// Shaped is a reading whose time has been rendered for display. Instant keeps
// the parsed value; it is not part of the JSON form.
type Shaped struct {
	Type     string
	SensorID *int
	Time     string
	Instant  time.Time
	fields   map[string]json.RawMessage
}

// Formatter turns raw readings into shaped ones.
type Formatter struct {
	norm timefmt.Normalizer
}

// NewFormatter returns a Formatter rendering times with norm.
func NewFormatter(norm timefmt.Normalizer) Formatter {
	return Formatter{norm: norm}
}

// Shape replaces the time field with its display form. The raw reading is
// left untouched.
func (f Formatter) Shape(r Raw) (Shaped, error) {
	display, instant, err := f.norm.Normalize(r.Time)
	if err != nil {
		return Shaped{}, fmt.Errorf("format %s reading: %w", r.Type, err)
	}

	encoded, err := json.Marshal(display)
	if err != nil {
		return Shaped{}, fmt.Errorf("encode display time: %w", err)
	}

	fields := maps.Clone(r.fields)
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	fields[FieldTime] = encoded

	var sensorID *int
	if r.SensorID != nil {
		id := *r.SensorID
		sensorID = &id
	}

	return Shaped{
		Type:     r.Type,
		SensorID: sensorID,
		Time:     display,
		Instant:  instant,
		fields:   fields,
	}, nil
}

// Field returns a field value by name. The time field holds the display string.
func (s Shaped) Field(name string) (json.RawMessage, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// Decode unmarshals the shaped record into v, typically one of AirQuality,
// IndoorAir or Climate.
func (s Shaped) Decode(v any) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MarshalJSON encodes the record with all original fields and the display time.
func (s Shaped) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

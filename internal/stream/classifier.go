// Package stream consumes the push channel and routes sensor readings into
// the view's slots.
package stream

import (
	"github.com/ashureev/sensorview/internal/reading"
	"github.com/ashureev/sensorview/internal/view"
)

// Classifier routes decoded messages to their slot.
type Classifier struct {
	slots  view.SensorSlots
	format reading.Formatter
}

// NewClassifier creates a classifier writing to slots.
func NewClassifier(slots view.SensorSlots, format reading.Formatter) *Classifier {
	return &Classifier{slots: slots, format: format}
}

// Dispatch formats msg and writes it to the slot its variant selects. It
// reports whether a slot changed. Unrecognized messages are a no-op.
func (c *Classifier) Dispatch(msg reading.Message) (bool, error) {
	if msg.Variant == reading.Unrecognized {
		return false, nil
	}
	shaped, err := c.format.Shape(msg.Raw)
	if err != nil {
		return false, err
	}
	return c.slots.Set(msg.Variant, shaped), nil
}

// Handle decodes one frame and dispatches it.
func (c *Classifier) Handle(data []byte) (bool, error) {
	msg, err := reading.Decode(data)
	if err != nil {
		return false, err
	}
	return c.Dispatch(msg)
}

// Package timefmt converts sensor instants into the fixed display format used
// by the view.
package timefmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Layout is the en-GB short form: weekday, dd/mm/yy, then 24-hour HH:MM.
const Layout = "Mon, 02/01/06 15:04"

var (
	// ErrMissingTime is returned when a reading carries no time value.
	ErrMissingTime = errors.New("missing time value")
	// ErrInvalidTime is returned when a time value cannot be parsed.
	ErrInvalidTime = errors.New("invalid time value")
)

// Accepted string layouts, tried in order.
var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Normalizer formats instants in a fixed location.
type Normalizer struct {
	loc *time.Location
}

// New returns a Normalizer for loc. A nil loc means UTC.
func New(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{loc: loc}
}

// Location returns the location instants are rendered in.
func (n Normalizer) Location() *time.Location {
	if n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Format renders t using Layout.
func (n Normalizer) Format(t time.Time) string {
	return t.In(n.Location()).Format(Layout)
}

// Normalize parses a serialized instant and formats it.
func (n Normalizer) Normalize(raw json.RawMessage) (string, time.Time, error) {
	t, err := ParseInstant(raw)
	if err != nil {
		return "", time.Time{}, err
	}
	return n.Format(t), t, nil
}

// ParseInstant decodes a JSON time value. Numbers are epoch milliseconds,
// strings are ISO-8601 timestamps; zone-less timestamps are read as UTC.
func ParseInstant(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, ErrMissingTime
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
		}
		return parseString(s)
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTime, raw)
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, fmt.Errorf("%w: %s out of range", ErrInvalidTime, raw)
	}
	whole := int64(ms)
	frac := time.Duration((ms - float64(whole)) * float64(time.Millisecond))
	return time.UnixMilli(whole).Add(frac).UTC(), nil
}

// 8.64e15 ms is the largest instant an ECMAScript Date can hold.
const maxEpochMillis = 8.64e15

func parseString(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrMissingTime
	}
	for _, layout := range stringLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

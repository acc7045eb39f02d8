// Package view holds the slots a single display session renders from.
package view

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/ashureev/sensorview/internal/reading"
)

// Slot names as seen by the renderer.
const (
	SlotOutdoorSensor = "outdoorSensor"
	SlotIndoorSensor  = "indoorSensor"
	SlotTempSensor1   = "tempSensor1"
	SlotTempSensor2   = "tempSensor2"
	SlotWeatherData   = "weatherData"
	SlotPollutionData = "pollutionData"
)

// SlotNames lists every slot in display order.
var SlotNames = []string{
	SlotOutdoorSensor,
	SlotIndoorSensor,
	SlotTempSensor1,
	SlotTempSensor2,
	SlotWeatherData,
	SlotPollutionData,
}

// State is the mutable container of slots for one view. Readers use
// Snapshot; writers go through SensorSlots or SnapshotSlots.
type State struct {
	mu        sync.RWMutex
	outdoor   *reading.Shaped
	indoor    *reading.Shaped
	temp1     *reading.Shaped
	temp2     *reading.Shaped
	weather   json.RawMessage
	pollution json.RawMessage
	version   uint64
}

// New returns a State with every slot absent.
func New() *State {
	return &State{}
}

// Snapshot is a point-in-time copy of all slots. Nil means not yet populated.
type Snapshot struct {
	OutdoorSensor *reading.Shaped `json:"outdoorSensor"`
	IndoorSensor  *reading.Shaped `json:"indoorSensor"`
	TempSensor1   *reading.Shaped `json:"tempSensor1"`
	TempSensor2   *reading.Shaped `json:"tempSensor2"`
	WeatherData   json.RawMessage `json:"weatherData"`
	PollutionData json.RawMessage `json:"pollutionData"`
	Version       uint64          `json:"version"`
}

// Snapshot returns a consistent copy of the slots.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		OutdoorSensor: s.outdoor,
		IndoorSensor:  s.indoor,
		TempSensor1:   s.temp1,
		TempSensor2:   s.temp2,
		WeatherData:   bytes.Clone(s.weather),
		PollutionData: bytes.Clone(s.pollution),
		Version:       s.version,
	}
}

// Version returns the number of slot writes so far.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Slot returns one slot by its renderer name. ok is false for unknown names;
// value is nil when the slot is absent.
func (snap Snapshot) Slot(name string) (value any, ok bool) {
	switch name {
	case SlotOutdoorSensor:
		return shapedOrNil(snap.OutdoorSensor), true
	case SlotIndoorSensor:
		return shapedOrNil(snap.IndoorSensor), true
	case SlotTempSensor1:
		return shapedOrNil(snap.TempSensor1), true
	case SlotTempSensor2:
		return shapedOrNil(snap.TempSensor2), true
	case SlotWeatherData:
		return rawOrNil(snap.WeatherData), true
	case SlotPollutionData:
		return rawOrNil(snap.PollutionData), true
	}
	return nil, false
}

func shapedOrNil(r *reading.Shaped) any {
	if r == nil {
		return nil
	}
	return r
}

func rawOrNil(r json.RawMessage) any {
	if r == nil {
		return nil
	}
	return r
}

// SensorSlots writes the four stream-fed slots.
type SensorSlots struct {
	s *State
}

// SensorSlots returns the write handle for the stream slots.
func (s *State) SensorSlots() SensorSlots {
	return SensorSlots{s: s}
}

// Set overwrites the slot selected by v. Unrecognized variants are ignored
// and report false.
func (w SensorSlots) Set(v reading.Variant, r reading.Shaped) bool {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	switch v {
	case reading.Outdoor:
		w.s.outdoor = &r
	case reading.Indoor:
		w.s.indoor = &r
	case reading.Temperature1:
		w.s.temp1 = &r
	case reading.Temperature2:
		w.s.temp2 = &r
	default:
		return false
	}
	w.s.version++
	return true
}

// SnapshotSlots writes the two pull-fed slots.
type SnapshotSlots struct {
	s *State
}

// SnapshotSlots returns the write handle for the snapshot slots.
func (s *State) SnapshotSlots() SnapshotSlots {
	return SnapshotSlots{s: s}
}

// SetWeather installs the weather snapshot verbatim.
func (w SnapshotSlots) SetWeather(doc json.RawMessage) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.weather = bytes.Clone(doc)
	w.s.version++
}

// SetPollution installs the air-pollution snapshot verbatim.
func (w SnapshotSlots) SetPollution(doc json.RawMessage) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.pollution = bytes.Clone(doc)
	w.s.version++
}

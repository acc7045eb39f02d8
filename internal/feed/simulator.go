package feed

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ashureev/sensorview/internal/reading"
)

// Sensor IDs used by the simulator. Temperature sensors must be 1 and 2 for
// the view to pick them up.
const (
	SimAirSensorID    = 3
	SimIndoorSensorID = 4
)

type airFrame struct {
	Type string `json:"type"`
	reading.AirQuality
}

type indoorFrame struct {
	Type string `json:"type"`
	reading.IndoorAir
}

type climateFrame struct {
	Type string `json:"type"`
	reading.Climate
}

// Simulator publishes plausible readings for every sensor on a fixed interval.
type Simulator struct {
	hub      *Hub
	interval time.Duration
	rng      *rand.Rand
	now      func() time.Time
}

// NewSimulator creates a simulator broadcasting on hub. The seed makes the
// generated values reproducible.
func NewSimulator(hub *Hub, interval time.Duration, seed uint64) *Simulator {
	return &Simulator{
		hub:      hub,
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:      time.Now,
	}
}

// Run publishes one round immediately and then one per interval until ctx is
// cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.publish(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Simulator) publish(ctx context.Context) {
	for _, frame := range s.Round() {
		n, err := s.hub.Broadcast(ctx, frame)
		if err != nil {
			slog.Error("Failed to encode simulated reading", "error", err)
			continue
		}
		slog.Debug("Simulated reading sent", "clients", n)
	}
}

// Round returns one reading per simulated sensor.
func (s *Simulator) Round() []any {
	ts := s.now().UTC().Format(time.RFC3339Nano)

	temp := s.around(12, 4)
	hum := s.around(70, 10)
	pres := s.around(1013, 8)
	signal := -40 - s.rng.IntN(40)

	return []any{
		airFrame{Type: reading.TypeAir, AirQuality: reading.AirQuality{
			SensorID:    SimAirSensorID,
			Time:        ts,
			PM10:        s.around(18, 8),
			PM25:        s.around(9, 5),
			Temperature: &temp,
			Humidity:    &hum,
			Pressure:    &pres,
			Signal:      &signal,
		}},
		indoorFrame{Type: reading.TypeIndoor, IndoorAir: reading.IndoorAir{
			SensorID: SimIndoorSensorID,
			Time:     ts,
			Status:   0,
			AQI:      1 + s.rng.IntN(3),
			TVOC:     50 + s.rng.IntN(300),
			ECO2:     400 + s.rng.IntN(600),
		}},
		climateFrame{Type: reading.TypeTemperature, Climate: reading.Climate{
			SensorID:    1,
			Time:        ts,
			Temperature: s.around(21, 2),
			Humidity:    s.around(45, 8),
		}},
		climateFrame{Type: reading.TypeTemperature, Climate: reading.Climate{
			SensorID:    2,
			Time:        ts,
			Temperature: s.around(19, 3),
			Humidity:    s.around(50, 8),
			Pressure:    &pres,
		}},
	}
}

// around returns a value within spread of mid, rounded to one decimal.
func (s *Simulator) around(mid, spread float64) float64 {
	v := mid + (s.rng.Float64()*2-1)*spread
	return math.Round(v*10) / 10
}

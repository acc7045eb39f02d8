package reading

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/sensorview/internal/timefmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVariants(t *testing.T) {
	t.Parallel()

	cases := []struct {
		payload string
		want    Variant
	}{
		{`{"type":"air","time":"2024-03-05T07:15:00Z"}`, Outdoor},
		{`{"type":"indoor","time":"2024-03-05T07:15:00Z"}`, Indoor},
		{`{"type":"temperature","sensor_id":1}`, Temperature1},
		{`{"type":"temperature","sensor_id":2}`, Temperature2},
		{`{"type":"temperature","sensor_id":2.0}`, Temperature2},
		{`{"type":"temperature","sensor_id":3}`, Unrecognized},
		{`{"type":"temperature","sensor_id":"1"}`, Unrecognized},
		{`{"type":"temperature","sensor_id":1.5}`, Unrecognized},
		{`{"type":"temperature"}`, Unrecognized},
		{`{"type":"unknown"}`, Unrecognized},
		{`{"type":7}`, Unrecognized},
		{`{}`, Unrecognized},
		// Air and indoor ignore sensor_id entirely.
		{`{"type":"air","sensor_id":2}`, Outdoor},
	}
	for _, tc := range cases {
		msg, err := Decode([]byte(tc.payload))
		require.NoError(t, err, tc.payload)
		assert.Equal(t, tc.want, msg.Variant, tc.payload)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{``, `not json`, `[1,2]`, `"air"`, `{"type":`} {
		_, err := Decode([]byte(payload))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", payload, err)
		}
	}
}

func TestShapeReplacesTimeOnly(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"temperature","sensor_id":2,"time":"2024-03-05T07:15:00Z","value":21.5}`))
	require.NoError(t, err)

	shaped, err := NewFormatter(timefmt.New(nil)).Shape(msg.Raw)
	require.NoError(t, err)

	assert.Equal(t, "Tue, 05/03/24 07:15", shaped.Time)
	assert.True(t, shaped.Instant.Equal(time.Date(2024, 3, 5, 7, 15, 0, 0, time.UTC)))
	require.NotNil(t, shaped.SensorID)
	assert.Equal(t, 2, *shaped.SensorID)

	data, err := json.Marshal(shaped)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"temperature","sensor_id":2,"time":"Tue, 05/03/24 07:15","value":21.5}`, string(data))

	// The raw reading still carries the machine-readable instant.
	rawTime, ok := msg.Raw.Field(FieldTime)
	require.True(t, ok)
	assert.JSONEq(t, `"2024-03-05T07:15:00Z"`, string(rawTime))
}

func TestShapePreservesExtraFieldsVerbatim(t *testing.T) {
	t.Parallel()

	payload := `{"type":"air","time":1709622900000,"pm10":12.30,"nested":{"a":[1,2]},"note":null}`
	msg, err := Decode([]byte(payload))
	require.NoError(t, err)

	shaped, err := NewFormatter(timefmt.New(nil)).Shape(msg.Raw)
	require.NoError(t, err)

	pm10, ok := shaped.Field("pm10")
	require.True(t, ok)
	assert.Equal(t, "12.30", string(pm10))

	nested, ok := shaped.Field("nested")
	require.True(t, ok)
	assert.Equal(t, `{"a":[1,2]}`, string(nested))

	note, ok := shaped.Field("note")
	require.True(t, ok)
	assert.Equal(t, "null", string(note))
}

func TestShapeInvalidTime(t *testing.T) {
	t.Parallel()

	f := NewFormatter(timefmt.New(nil))

	msg, err := Decode([]byte(`{"type":"indoor","time":"soon"}`))
	require.NoError(t, err)
	_, err = f.Shape(msg.Raw)
	assert.ErrorIs(t, err, timefmt.ErrInvalidTime)

	msg, err = Decode([]byte(`{"type":"indoor"}`))
	require.NoError(t, err)
	_, err = f.Shape(msg.Raw)
	assert.ErrorIs(t, err, timefmt.ErrMissingTime)
}

func TestShapedDecodeFamilies(t *testing.T) {
	t.Parallel()

	f := NewFormatter(timefmt.New(nil))

	msg, err := Decode([]byte(`{"type":"air","sensor_id":3,"time":"2024-03-05T07:15:00Z","pm10":14.2,"pm25":8.1,"signal":-61}`))
	require.NoError(t, err)
	shaped, err := f.Shape(msg.Raw)
	require.NoError(t, err)

	var air AirQuality
	require.NoError(t, shaped.Decode(&air))
	assert.Equal(t, 3, air.SensorID)
	assert.Equal(t, "Tue, 05/03/24 07:15", air.Time)
	assert.InDelta(t, 14.2, air.PM10, 1e-9)
	assert.InDelta(t, 8.1, air.PM25, 1e-9)
	require.NotNil(t, air.Signal)
	assert.Equal(t, -61, *air.Signal)
	assert.Nil(t, air.Temperature)

	msg, err = Decode([]byte(`{"type":"indoor","sensor_id":4,"time":"2024-03-05T07:15:00Z","status":0,"aqi":2,"tvoc":120,"eco2":640}`))
	require.NoError(t, err)
	shaped, err = f.Shape(msg.Raw)
	require.NoError(t, err)

	var indoor IndoorAir
	require.NoError(t, shaped.Decode(&indoor))
	assert.Equal(t, IndoorAir{SensorID: 4, Time: "Tue, 05/03/24 07:15", AQI: 2, TVOC: 120, ECO2: 640}, indoor)
}

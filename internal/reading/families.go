package reading

// AirQuality is an outdoor particulate reading (SDS011 via airrohr, with an
// optional BME280 on the same board).
type AirQuality struct {
	SensorID    int      `json:"sensor_id"`
	Time        string   `json:"time"`
	PM10        float64  `json:"pm10"`
	PM25        float64  `json:"pm25"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Signal      *int     `json:"signal,omitempty"`
}

// IndoorAir is an ENS160 indoor air quality reading.
type IndoorAir struct {
	SensorID int    `json:"sensor_id"`
	Time     string `json:"time"`
	Status   int    `json:"status"`
	AQI      int    `json:"aqi"`
	TVOC     int    `json:"tvoc"`
	ECO2     int    `json:"eco2"`
}

// Climate is a temperature/humidity reading (BME280 or AM2302).
type Climate struct {
	SensorID    int      `json:"sensor_id"`
	Time        string   `json:"time"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	Pressure    *float64 `json:"pressure,omitempty"`
}

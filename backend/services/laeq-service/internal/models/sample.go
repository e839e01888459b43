package models

import "time"

// LiveSample is one sensor reading received over MQTT.
type LiveSample struct {
	CellID     string    `json:"cellId"`
	Time       time.Time `json:"time"`
	NoiseLevel float64   `json:"noiseLevel"`
}

package types

import "time"

// Report is one metrics reading produced by an agent probe and shipped to the
// relay as a JSON text message. The relay never inspects it beyond verifying
// that the payload is valid JSON.
type Report struct {
	// DeviceID identifies the emitting device. Defaults to a generated UUID
	// when not configured.
	DeviceID string `json:"device_id"`

	// Probe is the ID of the probe that produced this report.
	Probe string `json:"probe"`

	// Timestamp is the collection time in RFC3339 format.
	Timestamp string `json:"timestamp"`

	// Metrics holds the numeric readings, keyed by metric name.
	Metrics map[string]float64 `json:"metrics"`

	// Uptime is a human-readable uptime string ("72h3m10s"), system probe only.
	Uptime string `json:"uptime,omitempty"`
}

// NewReport returns a Report stamped with the current time and an allocated
// metrics map.
func NewReport(deviceID, probe string) *Report {
	return &Report{
		DeviceID:  deviceID,
		Probe:     probe,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metrics:   make(map[string]float64),
	}
}

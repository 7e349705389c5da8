package model

import (
	"encoding/json"
	"strings"
)

// Health is the traffic-light status the API reports for a trap
// subsystem or the trap overall.
type Health string

const (
	HealthGreen   Health = "green"
	HealthAmber   Health = "amber"
	HealthRed     Health = "red"
	HealthUnknown Health = "unknown"
)

// ParseHealth normalises an upstream health string. Anything outside
// the traffic-light set maps to HealthUnknown.
func ParseHealth(s string) Health {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return HealthGreen
	case "amber":
		return HealthAmber
	case "red":
		return HealthRed
	default:
		return HealthUnknown
	}
}

func (h *Health) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = ParseHealth(s)
	return nil
}

// IsHealthy reports whether the status counts as operational for
// summary purposes. Only green qualifies.
func (h Health) IsHealthy() bool {
	return h == HealthGreen
}

func (h Health) String() string {
	return string(h)
}

package model

import "time"

// Condition classifies a raw sensor value against threshold bands. The bands
// live on the device; this service accepts the classification as given.
type Condition string

const (
	ConditionGood    Condition = "Good"
	ConditionOkay    Condition = "Okay"
	ConditionBad     Condition = "Bad"
	ConditionUnknown Condition = "Unknown"
)

// ParseCondition normalizes a submitted condition string, defaulting to
// Unknown for anything unrecognized (including the empty string).
func ParseCondition(s string) Condition {
	switch Condition(s) {
	case ConditionGood, ConditionOkay, ConditionBad:
		return Condition(s)
	default:
		return ConditionUnknown
	}
}

// IsBad reports whether the condition is the degraded state.
func (c Condition) IsBad() bool {
	return c == ConditionBad
}

// Reading is one sensor sample from a device. Immutable once stored.
type Reading struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"deviceId"`
	SoilValue      int       `json:"soilValue"`
	LightValue     int       `json:"ldrValue"`
	SoilCondition  Condition `json:"soilCondition"`
	LightCondition Condition `json:"lightCondition"`
	WifiRSSI       *int      `json:"wifiRSSI,omitempty"`
	FreeHeap       *int      `json:"freeHeap,omitempty"`
	SendAttempt    *int      `json:"sendAttempt,omitempty"`
	ReceivedAt     time.Time `json:"receivedAt"`
}

// Device connectivity status, derived from recency of the latest reading.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// DevicePresence is the derived per-device record returned by GET /api/devices.
type DevicePresence struct {
	DeviceID          string    `json:"deviceId"`
	Status            string    `json:"status"`
	FirstSeenAt       time.Time `json:"firstSeenAt"`
	LastSeenAt        time.Time `json:"lastSeenAt"`
	TotalReadingCount int64     `json:"totalReadingCount"`
	LastReading       *Reading  `json:"lastReading,omitempty"`
}

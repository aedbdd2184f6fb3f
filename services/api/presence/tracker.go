package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

type record struct {
	firstSeenAt time.Time
	lastSeenAt  time.Time
	count       int64
	last        model.Reading
}

// Tracker derives per-device connectivity from the recency of each device's
// latest reading. Status is computed at read time, never stored, so it cannot
// go stale. Updates are last-write-wins per device.
type Tracker struct {
	clock     clockwork.Clock
	threshold time.Duration

	mu      sync.Mutex
	devices map[string]*record
}

// NewTracker creates a tracker that reports a device connected while the gap
// since its last reading is below threshold.
func NewTracker(clock clockwork.Clock, threshold time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = 3 * time.Minute
	}
	return &Tracker{
		clock:     clock,
		threshold: threshold,
		devices:   make(map[string]*record),
	}
}

// Touch records an accepted reading for its device, creating the presence
// record on first sight. Returns the device's total reading count.
func (t *Tracker) Touch(r model.Reading) int64 {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.devices[r.DeviceID]
	if !ok {
		rec = &record{firstSeenAt: now}
		t.devices[r.DeviceID] = rec
	}
	rec.lastSeenAt = now
	rec.count++
	rec.last = r
	return rec.count
}

// Snapshot returns presence records for all known devices with their status
// computed against the current clock, sorted by device id.
func (t *Tracker) Snapshot() []model.DevicePresence {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.DevicePresence, 0, len(t.devices))
	for id, rec := range t.devices {
		status := model.StatusDisconnected
		if now.Sub(rec.lastSeenAt) < t.threshold {
			status = model.StatusConnected
		}
		last := rec.last
		out = append(out, model.DevicePresence{
			DeviceID:          id,
			Status:            status,
			FirstSeenAt:       rec.firstSeenAt,
			LastSeenAt:        rec.lastSeenAt,
			TotalReadingCount: rec.count,
			LastReading:       &last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Count returns the number of known devices.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.devices)
}

// Reset drops all presence state (bulk reset utility).
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = make(map[string]*record)
}

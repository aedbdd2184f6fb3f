package presence

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

func testReading(deviceID string) model.Reading {
	return model.Reading{DeviceID: deviceID, SoilValue: 2800, LightValue: 3200}
}

func TestStatusFlipsAtFreshnessThreshold(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	tracker := NewTracker(clock, 180*time.Second)

	tracker.Touch(testReading("D1"))

	clock.Advance(179 * time.Second)
	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, model.StatusConnected, snapshot[0].Status)

	clock.Advance(2 * time.Second) // now 181s since last reading
	snapshot = tracker.Snapshot()
	assert.Equal(t, model.StatusDisconnected, snapshot[0].Status)
}

func TestTouchCreatesThenUpdates(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	tracker := NewTracker(clock, 180*time.Second)

	firstSeen := clock.Now()
	count := tracker.Touch(testReading("D1"))
	assert.Equal(t, int64(1), count)

	clock.Advance(time.Minute)
	count = tracker.Touch(testReading("D1"))
	assert.Equal(t, int64(2), count)

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	rec := snapshot[0]
	assert.Equal(t, "D1", rec.DeviceID)
	assert.Equal(t, firstSeen, rec.FirstSeenAt)
	assert.Equal(t, clock.Now(), rec.LastSeenAt)
	assert.Equal(t, int64(2), rec.TotalReadingCount)
	require.NotNil(t, rec.LastReading)
	assert.Equal(t, "D1", rec.LastReading.DeviceID)
}

func TestSnapshotSortedByDeviceID(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	tracker := NewTracker(clock, 180*time.Second)

	tracker.Touch(testReading("D3"))
	tracker.Touch(testReading("D1"))
	tracker.Touch(testReading("D2"))

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "D1", snapshot[0].DeviceID)
	assert.Equal(t, "D2", snapshot[1].DeviceID)
	assert.Equal(t, "D3", snapshot[2].DeviceID)
	assert.Equal(t, 3, tracker.Count())
}

func TestResetClearsAllState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	tracker := NewTracker(clock, 180*time.Second)

	tracker.Touch(testReading("D1"))
	tracker.Touch(testReading("D2"))
	tracker.Reset()

	assert.Equal(t, 0, tracker.Count())
	assert.Empty(t, tracker.Snapshot())

	// A device seen again after reset starts a fresh record.
	count := tracker.Touch(testReading("D1"))
	assert.Equal(t, int64(1), count)
}

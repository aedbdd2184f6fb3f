package db

import (
	"context"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

// ReadingQuery holds filters for listing readings. Results are always
// newest-first.
type ReadingQuery struct {
	DeviceID string
	Limit    int
	Skip     int
}

// Store is the persistence contract for readings. Both the in-memory and the
// Postgres implementations satisfy it, so deployments can swap backends via
// configuration alone.
type Store interface {
	// InsertReading appends a reading, evicting the oldest entries when the
	// retention cap is exceeded.
	InsertReading(ctx context.Context, r *model.Reading) error

	// ListReadings returns readings newest-first, optionally scoped to a
	// device and bounded by limit/skip.
	ListReadings(ctx context.Context, q ReadingQuery) ([]model.Reading, error)

	// LatestReading returns the most recent reading, scoped to deviceID when
	// non-empty. Returns nil when no reading matches.
	LatestReading(ctx context.Context, deviceID string) (*model.Reading, error)

	// CountReadings returns the number of retained readings, optionally
	// scoped to a device.
	CountReadings(ctx context.Context, deviceID string) (int64, error)

	// DeleteAllReadings clears every retained reading.
	DeleteAllReadings(ctx context.Context) error

	// Close releases any backing resources.
	Close()
}

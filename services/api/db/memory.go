package db

import (
	"context"
	"sync"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

const defaultCapacity = 1000

// MemoryStore keeps readings in a bounded in-memory buffer, evicting
// oldest-first once the capacity is reached. Used when no DATABASE_URL is
// configured, and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	buffer   []model.Reading
	capacity int
}

// NewMemoryStore creates a store retaining at most capacity readings. A
// non-positive capacity falls back to the default of 1000.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{
		buffer:   make([]model.Reading, 0, capacity),
		capacity: capacity,
	}
}

// InsertReading appends the reading, dropping the oldest entry when full.
func (s *MemoryStore) InsertReading(_ context.Context, r *model.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) >= s.capacity {
		s.buffer = s.buffer[1:]
	}
	s.buffer = append(s.buffer, *r)
	return nil
}

// ListReadings returns readings newest-first with optional device filter and
// limit/skip pagination.
func (s *MemoryStore) ListReadings(_ context.Context, q ReadingQuery) ([]model.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Reading, 0, len(s.buffer))
	for i := len(s.buffer) - 1; i >= 0; i-- {
		r := s.buffer[i]
		if q.DeviceID != "" && r.DeviceID != q.DeviceID {
			continue
		}
		matched = append(matched, r)
	}

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			return []model.Reading{}, nil
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// LatestReading returns the most recent reading, optionally per device.
func (s *MemoryStore) LatestReading(_ context.Context, deviceID string) (*model.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.buffer) - 1; i >= 0; i-- {
		if deviceID == "" || s.buffer[i].DeviceID == deviceID {
			r := s.buffer[i]
			return &r, nil
		}
	}
	return nil, nil
}

// CountReadings returns the number of retained readings.
func (s *MemoryStore) CountReadings(_ context.Context, deviceID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if deviceID == "" {
		return int64(len(s.buffer)), nil
	}
	var n int64
	for _, r := range s.buffer {
		if r.DeviceID == deviceID {
			n++
		}
	}
	return n, nil
}

// DeleteAllReadings clears the buffer.
func (s *MemoryStore) DeleteAllReadings(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = s.buffer[:0]
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

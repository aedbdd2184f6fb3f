package db

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

// PostgresStore persists readings in Postgres via a pgx pool.
type PostgresStore struct {
	pool        *pgxpool.Pool
	maxReadings int
}

// NewPostgresStore connects to the database, retrying with exponential
// backoff so the service survives a database that is still coming up, and
// ensures the schema exists. maxReadings bounds retention; non-positive
// disables eviction.
func NewPostgresStore(ctx context.Context, databaseURL string, maxReadings int) (*PostgresStore, error) {
	var pool *pgxpool.Pool

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(func() error {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool, maxReadings: maxReadings}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the pool resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS readings (
    id            TEXT PRIMARY KEY,
    device_id     TEXT NOT NULL,
    soil_value    INTEGER NOT NULL,
    light_value   INTEGER NOT NULL,
    soil_cond     TEXT NOT NULL,
    light_cond    TEXT NOT NULL,
    wifi_rssi     INTEGER,
    free_heap     INTEGER,
    send_attempt  INTEGER,
    received_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS readings_device_ts_idx ON readings (device_id, received_at DESC);
CREATE INDEX IF NOT EXISTS readings_ts_idx ON readings (received_at DESC)
`

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

const insertReadingSQL = `
    INSERT INTO readings (id, device_id, soil_value, light_value, soil_cond, light_cond, wifi_rssi, free_heap, send_attempt, received_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`

const evictOldestSQL = `
    DELETE FROM readings
    WHERE id IN (
        SELECT id FROM readings
        ORDER BY received_at DESC, id
        OFFSET $1
    )
`

// InsertReading appends the reading and trims the table back down to the
// retention cap.
func (s *PostgresStore) InsertReading(ctx context.Context, r *model.Reading) error {
	_, err := s.pool.Exec(ctx, insertReadingSQL,
		r.ID,
		r.DeviceID,
		r.SoilValue,
		r.LightValue,
		string(r.SoilCondition),
		string(r.LightCondition),
		r.WifiRSSI,
		r.FreeHeap,
		r.SendAttempt,
		r.ReceivedAt,
	)
	if err != nil {
		return err
	}

	if s.maxReadings > 0 {
		if _, err := s.pool.Exec(ctx, evictOldestSQL, s.maxReadings); err != nil {
			return err
		}
	}
	return nil
}

const listReadingsBase = `
    SELECT id, device_id, soil_value, light_value, soil_cond, light_cond, wifi_rssi, free_heap, send_attempt, received_at
    FROM readings
`

// ListReadings returns readings newest-first based on the query.
func (s *PostgresStore) ListReadings(ctx context.Context, q ReadingQuery) ([]model.Reading, error) {
	sql := listReadingsBase
	args := []any{}
	argPos := 1

	if q.DeviceID != "" {
		sql += " WHERE device_id = $1"
		args = append(args, q.DeviceID)
		argPos++
	}
	sql += " ORDER BY received_at DESC, id"
	if q.Limit > 0 {
		sql += " LIMIT $" + strconv.Itoa(argPos)
		args = append(args, q.Limit)
		argPos++
	}
	if q.Skip > 0 {
		sql += " OFFSET $" + strconv.Itoa(argPos)
		args = append(args, q.Skip)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]model.Reading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestReading returns the most recent reading, optionally per device.
func (s *PostgresStore) LatestReading(ctx context.Context, deviceID string) (*model.Reading, error) {
	sql := listReadingsBase
	args := []any{}
	if deviceID != "" {
		sql += " WHERE device_id = $1"
		args = append(args, deviceID)
	}
	sql += " ORDER BY received_at DESC, id LIMIT 1"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanReading(rows)
	if err != nil {
		return nil, err
	}
	return &r, rows.Err()
}

// CountReadings returns the number of retained readings.
func (s *PostgresStore) CountReadings(ctx context.Context, deviceID string) (int64, error) {
	sql := "SELECT COUNT(*) FROM readings"
	args := []any{}
	if deviceID != "" {
		sql += " WHERE device_id = $1"
		args = append(args, deviceID)
	}

	var count int64
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteAllReadings clears the readings table.
func (s *PostgresStore) DeleteAllReadings(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM readings")
	return err
}

func scanReading(rows pgx.Rows) (model.Reading, error) {
	var r model.Reading
	var soilCond, lightCond string
	if err := rows.Scan(
		&r.ID,
		&r.DeviceID,
		&r.SoilValue,
		&r.LightValue,
		&soilCond,
		&lightCond,
		&r.WifiRSSI,
		&r.FreeHeap,
		&r.SendAttempt,
		&r.ReceivedAt,
	); err != nil {
		return model.Reading{}, err
	}
	r.SoilCondition = model.Condition(soilCond)
	r.LightCondition = model.Condition(lightCond)
	return r, nil
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*MemoryStore)(nil)

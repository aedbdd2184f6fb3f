package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/alert"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/config"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/db"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/ingest"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/presence"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(_ context.Context, _ alert.Notification) error { return nil }

func newTestServer(t *testing.T) (*Server, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 4, 15, 0, 0, time.UTC))
	cfg := config.Config{
		Port:               8080,
		CORSOrigins:        []string{"*"},
		MaxReadings:        100,
		FreshnessThreshold: 180 * time.Second,
	}
	store := db.NewMemoryStore(cfg.MaxReadings)
	tracker := presence.NewTracker(clock, cfg.FreshnessThreshold)
	engine := alert.NewEngine(alert.Config{
		Cooldown:       30 * time.Minute,
		NightStartHour: 19,
		NightEndHour:   6,
		CivilOffset:    345 * time.Minute,
	}, noopDispatcher{}, clock)
	svc := ingest.NewService(store, tracker, engine, clock)
	return New(cfg, store, svc, tracker, clock), clock
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func submitBody(deviceID string) map[string]any {
	return map[string]any{
		"deviceId":       deviceID,
		"soilValue":      2800,
		"ldrValue":       3200,
		"soilCondition":  "Good",
		"lightCondition": "Okay",
	}
}

func TestSubmitReadingCreated(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		Reading struct {
			ID             string `json:"id"`
			DeviceID       string `json:"deviceId"`
			SoilValue      int    `json:"soilValue"`
			LightValue     int    `json:"ldrValue"`
			LightCondition string `json:"lightCondition"`
		} `json:"reading"`
		TotalReadings      int64 `json:"totalReadings"`
		DeviceReadingCount int64 `json:"deviceReadingCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Reading.ID)
	assert.Equal(t, "D1", result.Reading.DeviceID)
	assert.Equal(t, 2800, result.Reading.SoilValue)
	assert.Equal(t, 3200, result.Reading.LightValue)
	assert.Equal(t, "Okay", result.Reading.LightCondition)
	assert.Equal(t, int64(1), result.TotalReadings)
	assert.Equal(t, int64(1), result.DeviceReadingCount)
}

func TestSubmitReadingValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing deviceId", map[string]any{"soilValue": 1, "ldrValue": 2}},
		{"missing soilValue", map[string]any{"deviceId": "D1", "ldrValue": 2}},
		{"missing ldrValue", map[string]any{"deviceId": "D1", "soilValue": 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/readings", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestListReadingsPagination(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D2"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/readings?deviceId=D1&limit=2&skip=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int `json:"count"`
		Readings []struct {
			DeviceID string `json:"deviceId"`
		} `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	for _, r := range body.Readings {
		assert.Equal(t, "D1", r.DeviceID)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/readings?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestReading(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/readings/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1")).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D2")).Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/readings/latest?deviceId=D1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reading struct {
		DeviceID string `json:"deviceId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reading))
	assert.Equal(t, "D1", reading.DeviceID)

	rec = doJSON(t, srv, http.MethodGet, "/api/readings/latest?deviceId=D9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDevicesPresence(t *testing.T) {
	srv, clock := newTestServer(t)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1")).Code)
	clock.Advance(200 * time.Second)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D2")).Code)

	rec := doJSON(t, srv, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int `json:"count"`
		Devices []struct {
			DeviceID          string `json:"deviceId"`
			Status            string `json:"status"`
			TotalReadingCount int64  `json:"totalReadingCount"`
		} `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "D1", body.Devices[0].DeviceID)
	assert.Equal(t, "disconnected", body.Devices[0].Status)
	assert.Equal(t, "D2", body.Devices[1].DeviceID)
	assert.Equal(t, "connected", body.Devices[1].Status)
}

func TestDeleteReadingsResets(t *testing.T) {
	srv, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1")).Code)

	rec := doJSON(t, srv, http.MethodDelete, "/api/readings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/readings/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestRootLiveness(t *testing.T) {
	srv, clock := newTestServer(t)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/readings", submitBody("D1")).Code)
	clock.Advance(90 * time.Second)

	rec := doJSON(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status        string `json:"status"`
		TotalReadings int64  `json:"totalReadings"`
		TotalDevices  int    `json:"totalDevices"`
		UptimeSeconds int64  `json:"uptimeSeconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, int64(1), body.TotalReadings)
	assert.Equal(t, 1, body.TotalDevices)
	assert.Equal(t, int64(90), body.UptimeSeconds)
}

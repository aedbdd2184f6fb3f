package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/alert"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/db"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/metrics"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/presence"
)

// SubmitRequest is the wire shape of one reading submission, shared by the
// HTTP handler and the MQTT bridge. Required numeric fields are pointers so
// a missing field is distinguishable from zero.
type SubmitRequest struct {
	DeviceID       string `json:"deviceId"`
	SoilValue      *int   `json:"soilValue"`
	LightValue     *int   `json:"ldrValue"`
	SoilCondition  string `json:"soilCondition"`
	LightCondition string `json:"lightCondition"`
	WifiRSSI       *int   `json:"wifiRSSI"`
	FreeHeap       *int   `json:"freeHeap"`
	SendAttempt    *int   `json:"sendAttempt"`
	// Timestamp is accepted from devices but ignored: ReceivedAt is always
	// the server clock.
	Timestamp string `json:"timestamp"`
}

// SubmitResult is the stored reading plus running totals.
type SubmitResult struct {
	Reading            model.Reading `json:"reading"`
	TotalReadings      int64         `json:"totalReadings"`
	DeviceReadingCount int64         `json:"deviceReadingCount"`
}

// ValidationError marks a submission rejected before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Service is the ingestion pipeline: validate, persist, update presence, then
// hand the reading to the alert engine. Alerting never fails ingestion.
type Service struct {
	store    db.Store
	presence *presence.Tracker
	alerts   *alert.Engine
	clock    clockwork.Clock
}

// NewService wires the ingestion pipeline.
func NewService(store db.Store, tracker *presence.Tracker, alerts *alert.Engine, clock clockwork.Clock) *Service {
	return &Service{store: store, presence: tracker, alerts: alerts, clock: clock}
}

// Submit validates and persists one reading. Validation failures return a
// *ValidationError with no state mutated; persistence failures propagate with
// no partial state; alert dispatch outcomes are isolated entirely.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := validate(req); err != nil {
		metrics.ReadingsRejected.Inc()
		return nil, err
	}

	reading := model.Reading{
		ID:             uuid.NewString(),
		DeviceID:       req.DeviceID,
		SoilValue:      *req.SoilValue,
		LightValue:     *req.LightValue,
		SoilCondition:  model.ParseCondition(req.SoilCondition),
		LightCondition: model.ParseCondition(req.LightCondition),
		WifiRSSI:       req.WifiRSSI,
		FreeHeap:       req.FreeHeap,
		SendAttempt:    req.SendAttempt,
		ReceivedAt:     s.clock.Now().UTC(),
	}

	if err := s.store.InsertReading(ctx, &reading); err != nil {
		return nil, err
	}
	metrics.ReadingsIngested.Inc()

	deviceCount := s.presence.Touch(reading)

	if s.alerts != nil {
		s.alerts.Evaluate(reading)
	}

	total, err := s.store.CountReadings(ctx, "")
	if err != nil {
		// The reading is already stored; report totals as best-effort.
		total = 0
	}

	return &SubmitResult{
		Reading:            reading,
		TotalReadings:      total,
		DeviceReadingCount: deviceCount,
	}, nil
}

func validate(req SubmitRequest) error {
	if req.DeviceID == "" {
		return &ValidationError{Reason: "deviceId is required"}
	}
	if req.SoilValue == nil {
		return &ValidationError{Reason: "soilValue is required"}
	}
	if req.LightValue == nil {
		return &ValidationError{Reason: "ldrValue is required"}
	}
	return nil
}

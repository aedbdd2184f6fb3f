package alert

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/metrics"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/model"
)

// Trigger names which condition(s) caused a dispatched alert.
type Trigger string

const (
	TriggerSoil  Trigger = "soil"
	TriggerLight Trigger = "light"
	TriggerBoth  Trigger = "both"
)

// Outcome is the result of evaluating one reading against the alert policy.
type Outcome string

const (
	// OutcomeNone means no degraded condition was eligible to alert.
	OutcomeNone Outcome = "none"
	// OutcomeNightSuppressed means only light was Bad and it is night.
	OutcomeNightSuppressed Outcome = "night_suppressed"
	// OutcomeCooldownSuppressed means an alert was eligible but a prior
	// dispatch is still within the cooldown window.
	OutcomeCooldownSuppressed Outcome = "cooldown_suppressed"
	// OutcomeDispatched means a notification was handed to the dispatcher.
	OutcomeDispatched Outcome = "dispatched"
)

// Decision reports what the engine decided for one reading.
type Decision struct {
	Outcome Outcome
	Trigger Trigger
}

// Notification is the composed alert payload handed to a Dispatcher.
type Notification struct {
	DeviceID   string
	Trigger    Trigger
	SoilValue  int
	LightValue int
	At         time.Time
}

// Dispatcher delivers a composed alert notification. Implementations must be
// safe for concurrent use; errors are logged by the engine and never
// propagate to ingestion.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Config holds the tunables of the alert policy.
type Config struct {
	// Cooldown is the minimum gap between two dispatched notifications.
	Cooldown time.Duration
	// NightStartHour/NightEndHour bound the nightly suppression window for
	// light alerts, as local civil hours: night is [start, end).
	NightStartHour int
	NightEndHour   int
	// CivilOffset shifts UTC to the device's local civil time.
	CivilOffset time.Duration
	// DispatchTimeout bounds a single dispatcher call.
	DispatchTimeout time.Duration
}

// Engine decides, for each accepted reading, whether to dispatch an alert
// notification. It owns the process-wide cooldown timestamp; the cooldown
// check and the timestamp update happen under one lock so near-simultaneous
// degraded readings cannot both pass the check.
type Engine struct {
	cfg        Config
	clock      clockwork.Clock
	dispatcher Dispatcher

	mu               sync.Mutex
	lastDispatchedAt time.Time

	// dispatches tracks in-flight detached dispatcher calls so tests and
	// shutdown can wait for them.
	dispatches sync.WaitGroup
}

// NewEngine constructs an alert engine with the given policy configuration,
// collaborating dispatcher and time source.
func NewEngine(cfg Config, dispatcher Dispatcher, clock clockwork.Clock) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Minute
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}
	return &Engine{cfg: cfg, clock: clock, dispatcher: dispatcher}
}

// Evaluate applies the alert policy to one accepted reading. Exactly one
// cooldown mutation happens per dispatched alert and none on suppression.
// The dispatcher call itself runs detached from the caller: its outcome never
// affects ingestion.
func (e *Engine) Evaluate(r model.Reading) Decision {
	if !r.SoilCondition.IsBad() && !r.LightCondition.IsBad() {
		return Decision{Outcome: OutcomeNone}
	}

	now := e.clock.Now()

	eligibleSoil := r.SoilCondition.IsBad()
	eligibleLight := r.LightCondition.IsBad() && !e.isNight(now)

	if !eligibleSoil && !eligibleLight {
		metrics.AlertsSuppressed.WithLabelValues(string(OutcomeNightSuppressed)).Inc()
		return Decision{Outcome: OutcomeNightSuppressed}
	}

	trigger := TriggerSoil
	switch {
	case eligibleSoil && eligibleLight:
		trigger = TriggerBoth
	case eligibleLight:
		trigger = TriggerLight
	}

	e.mu.Lock()
	if !e.lastDispatchedAt.IsZero() && now.Sub(e.lastDispatchedAt) < e.cfg.Cooldown {
		e.mu.Unlock()
		metrics.AlertsSuppressed.WithLabelValues(string(OutcomeCooldownSuppressed)).Inc()
		return Decision{Outcome: OutcomeCooldownSuppressed, Trigger: trigger}
	}
	// Consume the cooldown on attempt, not on confirmed delivery, so a
	// failing dispatcher cannot cause a notification storm.
	e.lastDispatchedAt = now
	e.mu.Unlock()

	n := Notification{
		DeviceID:   r.DeviceID,
		Trigger:    trigger,
		SoilValue:  r.SoilValue,
		LightValue: r.LightValue,
		At:         now,
	}

	e.dispatches.Add(1)
	go func() {
		defer e.dispatches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DispatchTimeout)
		defer cancel()
		if err := e.dispatcher.Dispatch(ctx, n); err != nil {
			metrics.DispatchFailures.Inc()
			log.Printf("alert dispatch failed (device=%s trigger=%s): %v", n.DeviceID, n.Trigger, err)
		}
	}()

	metrics.AlertsDispatched.WithLabelValues(string(trigger)).Inc()
	return Decision{Outcome: OutcomeDispatched, Trigger: trigger}
}

// Wait blocks until all in-flight dispatcher calls have finished.
func (e *Engine) Wait() {
	e.dispatches.Wait()
}

// LastDispatchedAt returns the current cooldown timestamp (zero before any
// dispatch).
func (e *Engine) LastDispatchedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDispatchedAt
}

// isNight reports whether t falls within [NightStartHour, NightEndHour) in
// the configured civil time zone. A window wrapping midnight (start > end,
// the default 19 → 6) is handled; start == end disables suppression.
func (e *Engine) isNight(t time.Time) bool {
	h := t.UTC().Add(e.cfg.CivilOffset).Hour()
	start, end := e.cfg.NightStartHour, e.cfg.NightEndHour
	switch {
	case start == end:
		return false
	case start < end:
		return h >= start && h < end
	default:
		return h >= start || h < end
	}
}

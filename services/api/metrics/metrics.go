package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ReadingsIngested counts readings accepted and persisted.
	ReadingsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "readings_ingested_total",
			Help:      "Number of sensor readings accepted and stored",
		},
	)

	// ReadingsRejected counts submissions failing validation.
	ReadingsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "readings_rejected_total",
			Help:      "Number of sensor submissions rejected by validation",
		},
	)

	// AlertsDispatched counts dispatched alert notifications by trigger.
	AlertsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "alerts_dispatched_total",
			Help:      "Number of alert notifications handed to the dispatcher",
		}, []string{"trigger"},
	)

	// AlertsSuppressed counts alert evaluations suppressed by policy.
	AlertsSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "alerts_suppressed_total",
			Help:      "Number of degraded readings suppressed by cooldown or night window",
		}, []string{"reason"},
	)

	// DispatchFailures counts dispatcher errors (logged, never surfaced).
	DispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "dispatch_failures_total",
			Help:      "Number of failed notification dispatch attempts",
		},
	)

	// MQTTMessages counts messages consumed from the MQTT bridge.
	MQTTMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantmonitor",
			Name:      "mqtt_messages_total",
			Help:      "Number of MQTT messages consumed, by result",
		}, []string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		ReadingsIngested,
		ReadingsRejected,
		AlertsDispatched,
		AlertsSuppressed,
		DispatchFailures,
		MQTTMessages,
	)
}

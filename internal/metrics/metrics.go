// Package metrics registers the Prometheus instruments for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	// Session metrics
	ConnectedSessions prometheus.Gauge
	AuthFailures      *prometheus.CounterVec

	// Pipeline metrics
	AudioEnqueued      prometheus.Counter
	AudioDroppedFull   prometheus.Counter
	AudioDroppedMuted  prometheus.Counter
	QueueDepth         prometheus.Gauge
	PipelineItemErrors prometheus.Counter

	// Gateway metrics
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	PersistErrors          prometheus.Counter

	// Delivery metrics
	FramesDelivered  prometheus.Counter
	DeliveryFailures prometheus.Counter
	RosterBroadcasts prometheus.Counter
}

// New creates and registers all relay metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-provided registry; tests pass a fresh one.
func NewWith(reg prometheus.Registerer) *Metrics {
	promauto := promauto.With(reg)
	return &Metrics{
		ConnectedSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connected_sessions",
			Help: "Number of sessions with a live connection",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_auth_failures_total",
			Help: "Rejected connection attempts by reason",
		}, []string{"reason"}),
		AudioEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_audio_enqueued_total",
			Help: "Audio messages accepted into the pipeline queue",
		}),
		AudioDroppedFull: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_audio_dropped_overflow_total",
			Help: "Audio messages dropped by the queue overflow policy",
		}),
		AudioDroppedMuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_audio_dropped_global_mute_total",
			Help: "Audio messages dropped because global mute was active",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relay_pipeline_queue_depth",
			Help: "Current number of queued audio messages",
		}),
		PipelineItemErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_pipeline_item_errors_total",
			Help: "Pipeline items that failed and were skipped",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcription_successes_total",
			Help: "Successful transcription gateway calls",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcription_failures_total",
			Help: "Failed transcription gateway calls (sentinel substituted)",
		}),
		PersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_persist_errors_total",
			Help: "Best-effort persistence calls that failed",
		}),
		FramesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_frames_delivered_total",
			Help: "Frames written to recipient connections",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_delivery_failures_total",
			Help: "Writes that failed and demoted a session",
		}),
		RosterBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_roster_broadcasts_total",
			Help: "Full roster broadcasts triggered by membership changes",
		}),
	}
}

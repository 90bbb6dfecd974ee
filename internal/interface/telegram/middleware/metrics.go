package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS MIDDLEWARE
// Prometheus instrumentation for the bot's interactive surface. Exposed
// through the health server's /metrics endpoint alongside the dispatch
// counters.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// updatesReceived counts incoming Telegram updates by type.
	updatesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Total number of Telegram updates received.",
		},
		[]string{"type"},
	)

	// commandsHandled counts commands by name and outcome.
	commandsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_handled_total",
			Help: "Total number of bot commands handled.",
		},
		[]string{"command", "outcome"},
	)

	// commandDuration records handler latency per command.
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_command_duration_seconds",
			Help:    "Time spent handling a bot command.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// rateLimited counts updates rejected by the per-chat rate limiter.
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Total number of updates rejected by rate limiting.",
		},
	)

	// panicsRecovered counts panics caught by the recovery middleware.
	panicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_panics_recovered_total",
			Help: "Total number of panics recovered in handlers.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		updatesReceived,
		commandsHandled,
		commandDuration,
		rateLimited,
		panicsRecovered,
	)
}

// Metrics records bot interface metrics.
type Metrics struct{}

// NewMetrics creates the metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// UpdateReceived records an incoming update of the given type
// ("message", "callback_query", "other").
func (m *Metrics) UpdateReceived(updateType string) {
	updatesReceived.WithLabelValues(updateType).Inc()
}

// CommandHandled records a completed command with its duration.
func (m *Metrics) CommandHandled(command string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commandsHandled.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RateLimited records a rejected update.
func (m *Metrics) RateLimited() {
	rateLimited.Inc()
}

// PanicRecovered records a recovered panic.
func (m *Metrics) PanicRecovered() {
	panicsRecovered.Inc()
}

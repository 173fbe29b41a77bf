// Package metrics exposes the Prometheus collectors of the platform.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "remnanthub"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	supabaseRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supabase",
			Name:      "requests_total",
			Help:      "Requests sent to the Supabase project, by outcome.",
		},
		[]string{"method", "status"},
	)

	supabaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "supabase",
			Name:      "request_duration_seconds",
			Help:      "Latency of Supabase requests including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method"},
	)

	chatMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages stored.",
		},
	)

	chatSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "subscribers",
			Help:      "Open chat websocket connections.",
		},
	)

	reminderRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "runs_total",
			Help:      "Reading reminder job runs.",
		},
		[]string{"success"},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "notifications_total",
			Help:      "Reading reminder notifications stored.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		supabaseRequests,
		supabaseDuration,
		chatMessages,
		chatSubscribers,
		reminderRuns,
		remindersSent,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted and RequestFinished bracket an HTTP request.
func RequestStarted() { httpInFlight.Inc() }

func RequestFinished(method, path string, status int, duration time.Duration) {
	httpInFlight.Dec()
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSupabase matches client.Observer and records outbound Supabase calls.
func ObserveSupabase(method string, status int, elapsed time.Duration, err error) {
	label := strconv.Itoa(status)
	if err != nil && status == 0 {
		label = "error"
	}
	supabaseRequests.WithLabelValues(strings.ToUpper(method), label).Inc()
	supabaseDuration.WithLabelValues(strings.ToUpper(method)).Observe(elapsed.Seconds())
}

// RecordChatMessage counts a stored chat message.
func RecordChatMessage() { chatMessages.Inc() }

// ChatSubscriberConnected and ChatSubscriberDisconnected track live sockets.
func ChatSubscriberConnected() { chatSubscribers.Inc() }

func ChatSubscriberDisconnected() { chatSubscribers.Dec() }

// RecordReminderRun records one run of the reading reminder job.
func RecordReminderRun(sent int, err error) {
	result := "true"
	if err != nil {
		result = "false"
	}
	reminderRuns.WithLabelValues(result).Inc()
	if sent > 0 {
		remindersSent.Add(float64(sent))
	}
}

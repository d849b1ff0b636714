// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	plays         prometheus.Counter
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodtunes_http_requests_total",
				Help: "HTTP requests by route template and status code",
			},
			[]string{"route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moodtunes_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		plays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moodtunes_song_plays_total",
			Help: "Song detail views, each counted as a play",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moodtunes_registrations_total",
			Help: "Accounts created",
		}),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodtunes_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.plays,
		m.registrations,
		m.logins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SongPlayed counts a detail view.
func (m *Metrics) SongPlayed() {
	m.plays.Inc()
}

// UserRegistered counts a new account.
func (m *Metrics) UserRegistered() {
	m.registrations.Inc()
}

// LoginAttempt counts a login by outcome, e.g. "success" or "invalid".
func (m *Metrics) LoginAttempt(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// Package metrics exposes scan and attempt counters for Prometheus scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/maxvaer/gobauto/internal/gobuster"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compile-time interface check.
var _ gobuster.Recorder = (*Recorder)(nil)

// Recorder implements gobuster.Recorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	mismatchesTotal *prometheus.CounterVec
	scansTotal      *prometheus.CounterVec
	attemptSeconds  *prometheus.HistogramVec
	scanSeconds     *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobauto_attempts_total",
			Help: "gobuster processes run, by mode, dialect and exit code",
		},
		[]string{"mode", "dialect", "exit_code"},
	)
	r.mismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobauto_syntax_mismatches_total",
			Help: "Attempts whose output showed the installed gobuster rejected the argument style",
		},
		[]string{"mode", "dialect"},
	)
	r.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobauto_scans_total",
			Help: "Completed scans by mode, final state and invocation used",
		},
		[]string{"mode", "state", "invocation"},
	)
	r.attemptSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gobauto_attempt_duration_seconds",
			Help:    "Wall time of a single gobuster process",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"mode", "dialect"},
	)
	r.scanSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gobauto_scan_duration_seconds",
			Help:    "Wall time of a scan across all attempts",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"mode", "state"},
	)

	r.registry.MustRegister(
		r.attemptsTotal,
		r.mismatchesTotal,
		r.scansTotal,
		r.attemptSeconds,
		r.scanSeconds,
	)
	return r
}

// ObserveAttempt records one gobuster process.
func (r *Recorder) ObserveAttempt(mode gobuster.Mode, dialect gobuster.Dialect, exitCode int, mismatch bool, d time.Duration) {
	r.attemptsTotal.WithLabelValues(string(mode), string(dialect), strconv.Itoa(exitCode)).Inc()
	if mismatch {
		r.mismatchesTotal.WithLabelValues(string(mode), string(dialect)).Inc()
	}
	r.attemptSeconds.WithLabelValues(string(mode), string(dialect)).Observe(d.Seconds())
}

// ObserveScan records a finished scan.
func (r *Recorder) ObserveScan(res *gobuster.Result) {
	mode := string(res.Request.Mode)
	r.scansTotal.WithLabelValues(mode, string(res.State), res.InvocationUsed).Inc()
	r.scanSeconds.WithLabelValues(mode, string(res.State)).Observe(res.Duration.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

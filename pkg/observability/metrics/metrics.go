package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "circuit_tracker"

// Row outcomes recorded by the importer.
const (
	OutcomeCreated     = "created"
	OutcomeUpdated     = "updated"
	OutcomeDecodeError = "decode_error"
	OutcomeApplyError  = "apply_error"
)

var (
	ImportRunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_runs_started_total",
		Help:      "Imports accepted and handed to a background run.",
	})

	ImportRunsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_runs_finished_total",
		Help:      "Import runs that drained their payload.",
	})

	ImportRunsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "import_runs_in_flight",
		Help:      "Import runs currently draining rows.",
	})

	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Imported rows by outcome.",
	}, []string{"outcome"})

	ImportRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_run_duration_seconds",
		Help:      "Wall time of one import run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	HTTPRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

func ObserveRow(outcome string) {
	ImportRows.WithLabelValues(outcome).Inc()
}

func ObserveHTTP(method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

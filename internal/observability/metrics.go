package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usbboot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	loaderInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usbboot",
			Subsystem: "loader",
			Name:      "invocations_total",
			Help:      "Loader tool invocations by family, phase and result.",
		},
		[]string{"family", "phase", "result"},
	)
	loaderRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "usbboot",
			Subsystem: "loader",
			Name:      "retries_total",
			Help:      "Loader tool re-invocations inside a retry window.",
		},
		[]string{"family", "phase"},
	)
	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "usbboot",
			Name:      "load_duration_seconds",
			Help:      "Wall time of one driver load call.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"family", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, loaderInvocations, loaderRetries, loadDuration)
	})
}

func RecordHTTPRequest(method, path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func RecordInvocation(family, phase string, success bool) {
	RegisterMetrics()
	loaderInvocations.WithLabelValues(family, phase, resultLabel(success)).Inc()
}

func RecordRetry(family, phase string) {
	RegisterMetrics()
	loaderRetries.WithLabelValues(family, phase).Inc()
}

func RecordLoad(family string, duration time.Duration, success bool) {
	RegisterMetrics()
	loadDuration.WithLabelValues(family, resultLabel(success)).Observe(duration.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}

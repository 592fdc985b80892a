package userapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/frahmantamala/rsms-admin/internal"
)

const namespace = "rsms_admin"

// RequestsTotal counts records API calls.
// Labels:
//   - operation: endpoint operation name (e.g. "list_users")
//   - outcome: "ok" or the lower-cased error type (e.g. "not_found", "transport_error")
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_api_requests_total",
		Help:      "Total number of records API calls by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// RequestDuration measures records API round trips, pre-flight rejections included.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "records_api_request_duration_seconds",
		Help:      "Duration of records API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

func observe(operation string, err error, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(operation, outcome(err)).Inc()
	RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := internal.IsAppError(err); ok {
		switch appErr.Type {
		case internal.ErrorTypeValidation:
			return "validation_error"
		case internal.ErrorTypeUnauthorized:
			return "unauthorized"
		case internal.ErrorTypeForbidden:
			return "forbidden"
		case internal.ErrorTypeNotFound:
			return "not_found"
		case internal.ErrorTypeConflict:
			return "conflict"
		case internal.ErrorTypeTransport:
			return "transport_error"
		}
	}
	return "internal_error"
}

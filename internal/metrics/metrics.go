package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CarrierRequests counts carrier API calls by carrier, operation and outcome
	CarrierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "carrier_api_requests_total", Help: "Carrier API requests."},
		[]string{"carrier", "operation", "outcome"},
	)
	// CarrierDuration records carrier API call durations in seconds
	CarrierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "carrier_api_request_duration_seconds", Help: "Carrier API request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"carrier", "operation"},
	)
	// CodeCacheLookups counts shared code cache lookups by result (hit, miss, error)
	CodeCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "shipping_code_cache_lookups_total", Help: "Shared code cache lookups."},
		[]string{"result"},
	)
	// ChargeCalculations counts charge calculations by carrier and final state
	ChargeCalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "shipping_charge_calculations_total", Help: "Shipping charge calculations by final state."},
		[]string{"carrier", "state"},
	)
)

var regOnce sync.Once

// RegisterDefault registers the collectors on the default registry
func RegisterDefault() {
	regOnce.Do(func() {
		prometheus.MustRegister(CarrierRequests)
		prometheus.MustRegister(CarrierDuration)
		prometheus.MustRegister(CodeCacheLookups)
		prometheus.MustRegister(ChargeCalculations)
	})
}

// ObserveCarrierCall records one carrier API call
func ObserveCarrierCall(carrier, operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CarrierRequests.WithLabelValues(carrier, operation, outcome).Inc()
	CarrierDuration.WithLabelValues(carrier, operation).Observe(time.Since(started).Seconds())
}

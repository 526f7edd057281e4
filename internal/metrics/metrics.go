// README: Prometheus collectors for the API and the payout engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry served on /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PayoutResolutions counts resolved trips by the rule that produced the amount.
	PayoutResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "payout_resolutions_total", Help: "Payout resolutions by source."},
		[]string{"source"},
	)
	// ZeroDistanceTrips is the data-quality signal for trips with no recorded distance.
	ZeroDistanceTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "payout_zero_distance_trips_total", Help: "Trips resolved to zero because no distance was recorded."},
		[]string{"service_level"},
	)
	DeductionsFloored = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "payout_deductions_floored_total", Help: "Deduction runs whose net amount was floored at zero."},
	)
	ProfileCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rate_profile_cache_lookups_total", Help: "Rate profile cache lookups by result."},
		[]string{"result"},
	)
)

// RegisterDefault registers every collector on Registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PayoutResolutions)
		Registry.MustRegister(ZeroDistanceTrips)
		Registry.MustRegister(DeductionsFloored)
		Registry.MustRegister(ProfileCacheLookups)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

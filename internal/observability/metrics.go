package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	projectionsTotal        *prometheus.CounterVec
	dashboardCacheTotal     *prometheus.CounterVec
	screenshotExtractions   *prometheus.CounterVec
	extractionLatency       *prometheus.HistogramVec
	riskAlertsTotal         *prometheus.CounterVec
	calculatorSocketsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bunkwise_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		projectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_projections_total",
			Help: "Attendance projections computed, by source and resulting status.",
		}, []string{"source", "status"})

		dashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_dashboard_cache_total",
			Help: "Dashboard cache lookups by outcome.",
		}, []string{"result"})

		screenshotExtractions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_screenshot_extractions_total",
			Help: "Screenshot extraction attempts by provider and outcome.",
		}, []string{"provider", "status"})

		extractionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bunkwise_screenshot_extraction_seconds",
			Help:    "Time spent extracting attendance from screenshots.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"provider"})

		riskAlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bunkwise_risk_alerts_total",
			Help: "Risk alerts published when a subject falls into danger.",
		}, []string{"status"})

		calculatorSocketsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bunkwise_calculator_sockets_active",
			Help: "Open live calculator websocket connections.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			projectionsTotal,
			dashboardCacheTotal,
			screenshotExtractions,
			extractionLatency,
			riskAlertsTotal,
			calculatorSocketsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Projections counts computed projections.
func Projections() *prometheus.CounterVec {
	RegisterMetrics()
	return projectionsTotal
}

// DashboardCache counts dashboard cache hits and misses.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheTotal
}

// ScreenshotExtractions counts extraction outcomes.
func ScreenshotExtractions() *prometheus.CounterVec {
	RegisterMetrics()
	return screenshotExtractions
}

// ExtractionLatency exposes the extraction latency histogram.
func ExtractionLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return extractionLatency
}

// RiskAlerts counts published risk alerts.
func RiskAlerts() *prometheus.CounterVec {
	RegisterMetrics()
	return riskAlertsTotal
}

// CalculatorSockets tracks open live calculator sockets.
func CalculatorSockets() prometheus.Gauge {
	RegisterMetrics()
	return calculatorSocketsActive
}

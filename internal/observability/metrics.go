package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency. Watch for: p95 growth on /events (fetch latency leaks into it).
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Open-Meteo call rate by status label.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Open-Meteo latency. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Failed fetches by category (timeout, network, upstream_5xx, parsing, ...).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Dashboard events by type (country, city, show_trend, ...).
	DashboardEventsTotal *prometheus.CounterVec

	// Chart images rendered by chart id.
	ChartRendersTotal *prometheus.CounterVec

	// Chart render latency.
	ChartRenderDuration prometheus.Histogram

	// Per-country selection count (allow-list; others go to "other").
	LocationSelectionsTotal *prometheus.CounterVec

	// Rate limit denials on event routes.
	RateLimitDeniedTotal prometheus.Counter

	// Rows loaded into the location catalog.
	CatalogLocations prometheus.Gauge

	trackedCountriesMu sync.RWMutex
	trackedCountries   map[string]struct{}

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of Open-Meteo forecast API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Open-Meteo forecast API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Failed forecast fetches by error category",
		},
		[]string{"category"},
	)
	DashboardEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboardEventsTotal",
			Help: "Dashboard events dispatched, by event type",
		},
		[]string{"event"},
	)
	ChartRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartRendersTotal",
			Help: "Chart images rendered, by chart id",
		},
		[]string{"chart"},
	)
	ChartRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chartRenderDurationSeconds",
			Help:    "Chart PNG render latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5},
		},
	)
	LocationSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationSelectionsTotal",
			Help: "Location selections by country (allow-list; others use country=other)",
		},
		[]string{"country"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CatalogLocations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogLocations",
			Help: "Number of rows loaded from the location dataset",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		DashboardEventsTotal, ChartRendersTotal, ChartRenderDuration,
		LocationSelectionsTotal, RateLimitDeniedTotal, CatalogLocations,
	)
}

// RegisterTrafficGauges registers sliding-window gauges over upstream fetch outcomes.
// Call once from main with the same window the health check uses.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "fetchErrorsInWindow",
					Help: "Failed forecast fetches in sliding window; drives degraded health",
				},
				func() float64 {
					errs, _ := traffic.ErrorRate(window)
					return float64(errs)
				},
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// SetTrackedCountries sets the allow-list for per-country selection metrics.
func SetTrackedCountries(countries []string) {
	trackedCountriesMu.Lock()
	defer trackedCountriesMu.Unlock()
	trackedCountries = make(map[string]struct{}, len(countries))
	for _, c := range countries {
		trackedCountries[normalizeLabel(c)] = struct{}{}
	}
}

// RecordLocationSelection counts a resolved country selection.
func RecordLocationSelection(country string) {
	label := normalizeLabel(country)
	trackedCountriesMu.RLock()
	_, ok := trackedCountries[label]
	trackedCountriesMu.RUnlock()
	if !ok {
		label = "other"
	}
	LocationSelectionsTotal.WithLabelValues(label).Inc()
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

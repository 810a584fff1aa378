package http

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

// HealthConfig holds the thresholds behind GET /health.
type HealthConfig struct {
	// DegradedWindow is the sliding window over upstream fetch outcomes.
	DegradedWindow time.Duration
	// DegradedErrorPct is the failed-fetch percentage at which health turns degraded.
	DegradedErrorPct int
	// DegradedMinSamples is the fewest outcomes in the window before degraded can be reported.
	DegradedMinSamples int
	// Version is reported as-is.
	Version string
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
}

type healthTracker struct {
	mu   sync.Mutex
	prev string
}

// swap stores status and returns the previous one.
func (t *healthTracker) swap(status string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.prev
	t.prev = status
	return prev
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	if prev := h.healthState.swap(result.status); prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}

	checks := map[string]string{"weatherApi": "healthy"}
	if result.reason == "error_rate_breach" {
		checks["weatherApi"] = "unhealthy"
	}
	version := "dev"
	if h.health != nil && h.health.Version != "" {
		version = h.health.Version
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   version,
		"checks":    checks,
		"uptime":    lifecycle.Uptime().Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates, in order: shutting-down > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.health == nil || h.health.DegradedWindow <= 0 || h.health.DegradedErrorPct <= 0 {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	errs, total := traffic.ErrorRate(h.health.DegradedWindow)
	if total > 0 && total >= h.health.DegradedMinSamples {
		pct := float64(errs) * 100 / float64(total)
		if pct >= float64(h.health.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

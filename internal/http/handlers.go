package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/chart"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// maxEventBody bounds POST /api/events bodies.
const maxEventBody = 4 << 10

// LocationLookup is the read-only part of the catalog the API exposes.
type LocationLookup interface {
	Countries() []string
	CitiesFor(country string) []string
	HasCountry(country string) bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	controller *dashboard.Controller
	locations  LocationLookup
	health     *HealthConfig
	logger     *zap.Logger

	chartWidth  int
	chartHeight int

	healthState healthTracker
}

// NewHandler returns a Handler. A nil health config reports only the shutdown flag.
func NewHandler(controller *dashboard.Controller, locations LocationLookup, health *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller:  controller,
		locations:   locations,
		health:      health,
		logger:      logger,
		chartWidth:  chart.DefaultWidth,
		chartHeight: chart.DefaultHeight,
	}
}

type pageData struct {
	View    dashboard.View
	Version string
}

// GetIndex handles GET /.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, h.controller.View())
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, v dashboard.View) {
	var buf bytes.Buffer
	data := pageData{View: v, Version: observability.CorrelationID(r.Context())}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		observability.LoggerFromContextOr(r.Context(), h.logger).Error("render page", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// PostEvents handles POST /events from the HTML form and redirects back to /.
func (h *Handler) PostEvents(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FORM", "Unable to parse form")
		return
	}
	ev, err := decodeEvent(eventRequest{Type: r.PostForm.Get("type"), Value: r.PostForm.Get("value")})
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	h.controller.Dispatch(r.Context(), ev)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetView handles GET /api/view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.View())
}

// PostAPIEvents handles POST /api/events with a JSON {"type", "value"} body.
// The resulting view is returned even when the event was rejected or the fetch failed.
func (h *Handler) PostAPIEvents(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be {\"type\": string, \"value\": string}")
		return
	}
	ev, err := decodeEvent(req)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Dispatch(r.Context(), ev))
}

// GetCountries handles GET /api/countries.
func (h *Handler) GetCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"countries": h.locations.Countries()})
}

// GetCities handles GET /api/countries/{country}/cities.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	country := strings.TrimSpace(mux.Vars(r)["country"])
	if !h.locations.HasCountry(country) {
		writeError(w, r, http.StatusNotFound, "COUNTRY_NOT_FOUND", "No cities for country "+country)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"country": country, "cities": h.locations.CitiesFor(country)})
}

// GetChart handles GET /charts/{id}.png for charts of the current trend view.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := h.controller.Chart(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "CHART_NOT_FOUND", "Chart "+id+" is not part of the current view")
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, c, h.chartWidth, h.chartHeight); err != nil {
		observability.LoggerFromContextOr(r.Context(), h.logger).Error("render chart",
			zap.String("chart", id), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render chart")
		return
	}
	observability.ChartRendersTotal.WithLabelValues(id).Inc()
	observability.ChartRenderDuration.Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": {"code", "message", "requestId"}}.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

func writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	code := "INVALID_VALUE"
	if errors.Is(err, ErrUnknownEvent) {
		code = "UNKNOWN_EVENT"
	}
	observability.LoggerFromContext(r.Context()).Debug("event rejected at decode", zap.Error(err))
	writeError(w, r, http.StatusBadRequest, code, err.Error())
}

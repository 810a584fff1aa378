package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires every route. Event routes sit behind limiter; a nil limiter disables it.
func NewRouter(h *Handler, limiter *rate.Limiter, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/", h.GetIndex).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/charts/{id:[a-z-]+}.png", h.GetChart).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/view", h.GetView).Methods(http.MethodGet)
	api.HandleFunc("/countries", h.GetCountries).Methods(http.MethodGet)
	api.HandleFunc("/countries/{country}/cities", h.GetCities).Methods(http.MethodGet)

	events := router.NewRoute().Subrouter()
	events.Use(RateLimitMiddleware(limiter))
	events.HandleFunc("/events", h.PostEvents).Methods(http.MethodPost)
	events.HandleFunc("/api/events", h.PostAPIEvents).Methods(http.MethodPost)

	return router
}

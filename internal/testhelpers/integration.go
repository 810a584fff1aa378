//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/catalog"
	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// IntegrationTestConfig holds configuration for tests against the live Open-Meteo API.
type IntegrationTestConfig struct {
	APIURL  string
	Timeout time.Duration
}

// GetIntegrationConfig reads the live-test configuration from the environment.
// Skips the test unless OPEN_METEO_LIVE is set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("OPEN_METEO_LIVE") == "" {
		t.Skip("OPEN_METEO_LIVE not set, skipping integration test")
	}
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = client.DefaultAPIURL
	}
	return IntegrationTestConfig{APIURL: apiURL, Timeout: 10 * time.Second}
}

// SetupIntegrationClient returns a client for the live API.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) client.WeatherClient {
	t.Helper()
	c, err := client.NewOpenMeteoClient(cfg.APIURL, cfg.Timeout)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}

// IntegrationCatalog is a small catalog of well-known cities.
func IntegrationCatalog() *catalog.Catalog {
	return catalog.New([]models.LocationRecord{
		{Country: "Finland", City: "Helsinki", Latitude: 60.1699, Longitude: 24.9384},
		{Country: "Finland", City: "Tampere", Latitude: 61.4978, Longitude: 23.761},
		{Country: "Japan", City: "Tokyo", Latitude: 35.6897, Longitude: 139.6922},
		{Country: "Chile", City: "Santiago", Latitude: -33.4372, Longitude: -70.6506},
	})
}

// SetupIntegrationController returns a controller wired to the live API.
func SetupIntegrationController(t *testing.T, cfg IntegrationTestConfig, logger *zap.Logger) (*dashboard.Controller, *catalog.Catalog) {
	t.Helper()
	cat := IntegrationCatalog()
	return dashboard.NewController(cat, SetupIntegrationClient(t, cfg), dashboard.DefaultSettings(), logger), cat
}

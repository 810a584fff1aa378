//go:build integration
// +build integration

package client

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestOpenMeteoClient_Fetch_Integration calls the live API. Set OPEN_METEO_LIVE=1 to run.
func TestOpenMeteoClient_Fetch_Integration(t *testing.T) {
	if os.Getenv("OPEN_METEO_LIVE") == "" {
		t.Skip("OPEN_METEO_LIVE not set, skipping integration test")
	}
	apiURL := os.Getenv("WEATHER_API_URL")

	c, err := NewOpenMeteoClient(apiURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}

	spec := testSpec()
	spec.IncludeDaily = true
	resp, err := c.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Hourly.Empty() {
		t.Error("Fetch() returned no hourly samples")
	}
	wantHours := (spec.PastDays + spec.ForecastDays) * 24
	if got := len(resp.Hourly.Time); got != wantHours {
		t.Errorf("hourly samples = %d, want %d", got, wantHours)
	}
	if resp.Current == nil {
		t.Error("Fetch() returned no current_weather")
	}
	if resp.Daily.Empty() {
		t.Error("Fetch() returned no daily block")
	}
}

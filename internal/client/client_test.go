package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

const sampleBody = `{
	"latitude": 48.86, "longitude": 2.35,
	"timezone": "Europe/Paris", "utc_offset_seconds": 3600,
	"current_weather": {"time": "2024-01-01T12:00", "temperature": 7.5, "windspeed": 12.3},
	"hourly": {"time": ["2024-01-01T00:00", "2024-01-01T01:00"], "temperature_2m": [5.0, null]},
	"daily": {"time": ["2024-01-01"], "temperature_2m_max": [9.1], "temperature_2m_min": [2.2],
		"rain_sum": [0.4], "snowfall_sum": [0], "sunrise": ["2024-01-01T08:44"]}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenMeteoClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewOpenMeteoClient(server.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}

func testSpec() models.QuerySpec {
	return models.QuerySpec{
		Latitude:     48.8567,
		Longitude:    2.3522,
		PastDays:     5,
		ForecastDays: 5,
		Variable:     "temperature_2m",
		Timezone:     "auto",
	}
}

func TestNewOpenMeteoClient_URL(t *testing.T) {
	tests := []struct {
		name    string
		apiURL  string
		wantErr bool
	}{
		{"default when empty", "", false},
		{"https", "https://api.open-meteo.com/v1/forecast", false},
		{"no scheme", "api.open-meteo.com/v1/forecast", true},
		{"ftp", "ftp://example.com", true},
		{"unparsable", "http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewOpenMeteoClient(tt.apiURL, 0)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewOpenMeteoClient() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpenMeteoClient() error = %v", err)
			}
			if c.client.Timeout != 0 {
				t.Errorf("client timeout = %v, want transport default", c.client.Timeout)
			}
		})
	}
}

func TestFetch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Correlation-ID"); got != "corr-1" {
			t.Errorf("X-Correlation-ID = %q, want corr-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	ctx := observability.WithCorrelationID(context.Background(), "corr-1")
	got, err := c.Fetch(ctx, testSpec())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Timezone != "Europe/Paris" || got.UTCOffsetSeconds != 3600 {
		t.Errorf("timezone = %q/%d, want Europe/Paris/3600", got.Timezone, got.UTCOffsetSeconds)
	}
	if got.Current == nil || got.Current.Temperature == nil || *got.Current.Temperature != 7.5 {
		t.Errorf("Current = %+v, want temperature 7.5", got.Current)
	}
	if got.Hourly == nil || len(got.Hourly.Time) != 2 {
		t.Fatalf("Hourly = %+v, want 2 timestamps", got.Hourly)
	}
	temps := got.Hourly.Variables["temperature_2m"]
	if len(temps) != 2 || temps[0] == nil || *temps[0] != 5.0 || temps[1] != nil {
		t.Errorf("temperature_2m = %v, want [5.0, nil]", temps)
	}
	if got.Daily == nil {
		t.Fatal("Daily = nil, want block")
	}
	if _, ok := got.Daily.Variables["sunrise"]; ok {
		t.Error("non-numeric daily array should be skipped")
	}
}

// TestFetch_QueryParamsMatchInputs checks every day combination in range is sent unchanged.
func TestFetch_QueryParamsMatchInputs(t *testing.T) {
	for past := 0; past <= 30; past++ {
		for forecast := 1; forecast <= 16; forecast++ {
			spec := testSpec()
			spec.PastDays = past
			spec.ForecastDays = forecast
			q := QueryParams(spec)
			if got := q.Get("past_days"); got != strconv.Itoa(past) {
				t.Fatalf("past_days = %q, want %d", got, past)
			}
			if got := q.Get("forecast_days"); got != strconv.Itoa(forecast) {
				t.Fatalf("forecast_days = %q, want %d", got, forecast)
			}
		}
	}
}

func TestFetch_RequestParameters(t *testing.T) {
	tests := []struct {
		name         string
		includeDaily bool
		wantDaily    string
	}{
		{"without daily", false, ""},
		{"with daily", true, "temperature_2m_max,temperature_2m_min,rain_sum,snowfall_sum,precipitation_sum,windgusts_10m_max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var query url.Values
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query()
				_, _ = w.Write([]byte(`{"hourly": {"time": [], "temperature_2m": []}}`))
			})
			spec := testSpec()
			spec.PastDays = 0
			spec.ForecastDays = 16
			spec.IncludeDaily = tt.includeDaily
			if _, err := c.Fetch(context.Background(), spec); err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}

			want := map[string]string{
				"latitude":        "48.8567",
				"longitude":       "2.3522",
				"past_days":       "0",
				"forecast_days":   "16",
				"hourly":          "temperature_2m",
				"timezone":        "auto",
				"current_weather": "true",
			}
			for k, v := range want {
				if got := query.Get(k); got != v {
					t.Errorf("query %s = %q, want %q", k, got, v)
				}
			}
			if _, ok := query["daily"]; ok != tt.includeDaily {
				t.Errorf("daily present = %v, want %v", ok, tt.includeDaily)
			}
			if got := query.Get("daily"); got != tt.wantDaily {
				t.Errorf("daily = %q, want %q", got, tt.wantDaily)
			}
		})
	}
}

func TestFetch_ErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		wantText   string
	}{
		{"500", http.StatusInternalServerError, "", ErrTransport, "HTTP 500"},
		{"400 with reason", http.StatusBadRequest, `{"error": true, "reason": "Latitude must be in range of -90 to 90°."}`, ErrTransport, "Latitude must be in range"},
		{"429", http.StatusTooManyRequests, "", ErrTransport, "HTTP 429"},
		{"missing hourly", http.StatusOK, `{"current_weather": {"time": "2024-01-01T00:00"}}`, ErrMalformedResponse, "missing hourly"},
		{"not json", http.StatusOK, `<html>`, ErrMalformedResponse, "parse response"},
		{"hourly wrong type", http.StatusOK, `{"hourly": "nope"}`, ErrMalformedResponse, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Fetch(context.Background(), testSpec())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Fetch() error = %q, want containing %q", err, tt.wantText)
			}
			if n := atomic.LoadInt32(&calls); n != 1 {
				t.Errorf("upstream calls = %d, want exactly 1 (no retries)", n)
			}
		})
	}
}

func TestFetch_StatusErrorCarriesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Fetch(context.Background(), testSpec())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Fetch() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", statusErr.StatusCode)
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	apiURL := server.URL
	server.Close()

	c, err := NewOpenMeteoClient(apiURL, time.Second)
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	_, err = c.Fetch(context.Background(), testSpec())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Fetch() error = %v, want ErrTransport", err)
	}
	if cat := CategorizeError(err); cat != ErrorCategoryNetwork {
		t.Errorf("CategorizeError() = %q, want network", cat)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Fetch(ctx, testSpec())
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Fetch() error = %v, want ErrTransport wrapping DeadlineExceeded", err)
	}
	if cat := CategorizeError(err); cat != ErrorCategoryTimeout {
		t.Errorf("CategorizeError() = %q, want timeout", cat)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{200: "success", 204: "success", 429: "rate_limited", 404: "client_error", 503: "server_error", 302: "error"}
	for code, want := range tests {
		if got := statusLabel(code); got != want {
			t.Errorf("statusLabel(%d) = %q, want %q", code, got, want)
		}
	}
}

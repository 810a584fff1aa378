package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// DefaultAPIURL is the Open-Meteo forecast endpoint.
const DefaultAPIURL = "https://api.open-meteo.com/v1/forecast"

// DailyVariables are requested whenever a query asks for daily aggregates.
var DailyVariables = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"rain_sum",
	"snowfall_sum",
	"precipitation_sum",
	"windgusts_10m_max",
}

// WeatherClient fetches a forecast document for a query.
type WeatherClient interface {
	Fetch(ctx context.Context, spec models.QuerySpec) (models.WeatherResponse, error)
}

var (
	// ErrTransport covers calls that did not complete or returned a non-2xx status.
	ErrTransport = errors.New("weather API transport failure")
	// ErrMalformedResponse covers successful calls whose body lacks the expected structure.
	ErrMalformedResponse = errors.New("malformed weather API response")
)

// StatusError carries the upstream HTTP status of a failed call. It wraps ErrTransport.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: HTTP %d: %s", ErrTransport, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%v: HTTP %d", ErrTransport, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// OpenMeteoClient calls the Open-Meteo forecast API. One call per Fetch, no retries.
type OpenMeteoClient struct {
	apiURL *url.URL
	client *http.Client
}

// NewOpenMeteoClient returns a client for apiURL. A zero timeout leaves the
// transport default in place.
func NewOpenMeteoClient(apiURL string, timeout time.Duration) (*OpenMeteoClient, error) {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", apiURL)
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &OpenMeteoClient{apiURL: u, client: hc}, nil
}

// Fetch performs the forecast request described by spec.
func (c *OpenMeteoClient) Fetch(ctx context.Context, spec models.QuerySpec) (models.WeatherResponse, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, spec)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherResponse{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.WeatherResponse{}, fmt.Errorf("%w: request timeout: %w", ErrTransport, err)
		}
		return models.WeatherResponse{}, fmt.Errorf("%w: http request failed: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherResponse{}, fmt.Errorf("%w: read response body: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.WeatherResponse{}, &StatusError{StatusCode: resp.StatusCode, Reason: errorReason(body)}
	}
	return parseResponse(body)
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, spec models.QuerySpec) (*http.Request, error) {
	u := *c.apiURL
	u.RawQuery = QueryParams(spec).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// QueryParams returns the query string values for spec. Values are passed through
// unchanged; range checks belong to the caller.
func QueryParams(spec models.QuerySpec) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(spec.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(spec.Longitude, 'f', -1, 64))
	params.Set("past_days", strconv.Itoa(spec.PastDays))
	params.Set("forecast_days", strconv.Itoa(spec.ForecastDays))
	params.Set("hourly", spec.Variable)
	params.Set("timezone", spec.Timezone)
	params.Set("current_weather", "true")
	if spec.IncludeDaily {
		params.Set("daily", strings.Join(DailyVariables, ","))
	}
	return params
}

// parseResponse decodes a 2xx body. The hourly key must be present.
func parseResponse(body []byte) (models.WeatherResponse, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return models.WeatherResponse{}, fmt.Errorf("%w: parse response: %v", ErrMalformedResponse, err)
	}
	if _, ok := keys["hourly"]; !ok {
		return models.WeatherResponse{}, fmt.Errorf("%w: missing hourly key", ErrMalformedResponse)
	}
	var out models.WeatherResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return models.WeatherResponse{}, fmt.Errorf("%w: parse response: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

// errorReason extracts Open-Meteo's {"error": true, "reason": "..."} message.
func errorReason(body []byte) string {
	var apiErr struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return apiErr.Reason
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

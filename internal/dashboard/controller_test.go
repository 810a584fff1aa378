package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

type fakeWeatherClient struct {
	mu    sync.Mutex
	body  string
	err   error
	calls []models.QuerySpec
}

func (f *fakeWeatherClient) Fetch(ctx context.Context, spec models.QuerySpec) (models.WeatherResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)
	if f.err != nil {
		return models.WeatherResponse{}, f.err
	}
	var resp models.WeatherResponse
	if err := json.Unmarshal([]byte(f.body), &resp); err != nil {
		return models.WeatherResponse{}, err
	}
	return resp, nil
}

func (f *fakeWeatherClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const fullBody = `{
	"timezone": "Europe/Helsinki",
	"utc_offset_seconds": 7200,
	"current_weather": {"time": "2024-01-02T12:00", "temperature": -3.5, "windspeed": 12.1},
	"hourly": {"time": ["2024-01-02T11:00", "2024-01-02T12:00", "2024-01-02T13:00"], "temperature_2m": [-4.0, -3.5, -3.0]},
	"daily": {"time": ["2024-01-02", "2024-01-03"],
		"temperature_2m_max": [-2.0, -1.0], "temperature_2m_min": [-6.0, -7.0],
		"rain_sum": [0, 0.4], "snowfall_sum": [1.2, null], "precipitation_sum": [1.2, 0.4],
		"windgusts_10m_max": [30, 25]}
}`

func newTestController(wc client.WeatherClient) (*Controller, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewController(testCatalog(), wc, DefaultSettings(), zap.New(core)), logs
}

func TestController_InitialView(t *testing.T) {
	c, _ := newTestController(&fakeWeatherClient{body: fullBody})
	v := c.View()
	if v.Title != DefaultTitle || v.Phase != "idle" {
		t.Errorf("title/phase = %q/%q", v.Title, v.Phase)
	}
	if len(v.Controls.Countries) != 2 || v.Controls.Countries[0] != "Finland" {
		t.Errorf("Countries = %v, want [Finland Japan]", v.Controls.Countries)
	}
	if v.Location != "" || v.Current != nil || v.Trend != nil {
		t.Error("idle view should show no location or panels")
	}
	if v.Controls.PastDays.Max != 30 || v.Controls.ForecastDays.Min != 1 || v.Controls.ForecastDays.Max != 16 {
		t.Errorf("range controls = %+v %+v", v.Controls.PastDays, v.Controls.ForecastDays)
	}
}

func TestController_FullCycle(t *testing.T) {
	wc := &fakeWeatherClient{body: fullBody}
	c, _ := newTestController(wc)
	ctx := context.Background()

	v := c.Dispatch(ctx, SelectCountry{Country: "Finland"})
	if v.Location != "Selected location: Helsinki in Finland" {
		t.Errorf("Location = %q", v.Location)
	}
	if v.Phase != "data_fetched" {
		t.Errorf("Phase = %q, want data_fetched", v.Phase)
	}

	c.Dispatch(ctx, ShowCurrent{})
	v = c.Dispatch(ctx, ShowTrend{})
	if wc.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (panels reuse held data)", wc.callCount())
	}

	if v.Current == nil || !v.Current.Available {
		t.Fatalf("Current = %+v, want available", v.Current)
	}
	if v.Current.Info != InfoCurrentRefresh {
		t.Errorf("Info = %q", v.Current.Info)
	}
	wantMetrics := map[string]string{"Time": "2024-01-02T12:00", "Temperature (°C)": "-3.5", "Wind speed (km/h)": "12.1"}
	for _, m := range v.Current.Metrics {
		if wantMetrics[m.Label] != m.Value {
			t.Errorf("metric %q = %q, want %q", m.Label, m.Value, wantMetrics[m.Label])
		}
	}

	if v.Trend == nil || len(v.Trend.Charts) != 1 {
		t.Fatalf("Trend = %+v, want hourly chart only", v.Trend)
	}
	hourly := v.Trend.Charts[0]
	if hourly.ID != ChartHourly || len(hourly.Series[0].Points) != 3 {
		t.Errorf("hourly chart = %+v", hourly)
	}
	if !strings.Contains(hourly.Title, "past 5 days & next 5 days") {
		t.Errorf("hourly title = %q", hourly.Title)
	}
	if len(hourly.Markers) != 1 || hourly.Markers[0].Point.V != -3.5 {
		t.Errorf("markers = %+v, want current value -3.5", hourly.Markers)
	}
}

func TestController_DailyCharts(t *testing.T) {
	wc := &fakeWeatherClient{body: fullBody}
	c, _ := newTestController(wc)
	ctx := context.Background()

	c.Dispatch(ctx, SelectCountry{Country: "Finland"})
	c.Dispatch(ctx, SetDailyTemperature{Enabled: true})
	c.Dispatch(ctx, SetDailyPrecipitation{Enabled: true})
	v := c.Dispatch(ctx, ShowTrend{})

	if last := wc.calls[len(wc.calls)-1]; !last.IncludeDaily {
		t.Error("last fetch did not request daily data")
	}
	temp, ok := v.FindChart(ChartDailyTemperature)
	if !ok {
		t.Fatal("daily temperature chart missing")
	}
	if len(temp.Series) != 2 || temp.Series[0].Label != "Max temp (°C)" || temp.Series[1].Points[1].V != -7.0 {
		t.Errorf("temperature chart = %+v", temp)
	}
	precip, ok := c.Chart(ChartDailyPrecipitation)
	if !ok {
		t.Fatal("daily precipitation chart missing")
	}
	if precip.Series[0].Label != "total_snow" || precip.Series[1].Label != "total_rain" {
		t.Errorf("precipitation series = %q/%q", precip.Series[0].Label, precip.Series[1].Label)
	}
	if !precip.Series[0].Points[0].T.Equal(temp.Series[0].Points[0].T) {
		t.Error("daily charts should share dates")
	}
}

func TestController_AbsentCurrentShowsNotice(t *testing.T) {
	wc := &fakeWeatherClient{body: `{"hourly": {"time": ["2024-01-01T00:00"], "temperature_2m": [1]}}`}
	c, _ := newTestController(wc)
	ctx := context.Background()

	c.Dispatch(ctx, SelectCountry{Country: "Japan"})
	v := c.Dispatch(ctx, ShowCurrent{})
	if v.Current == nil {
		t.Fatal("Current panel missing")
	}
	if v.Current.Available || v.Current.Notice != NoticeCurrentUnavailable {
		t.Errorf("Current = %+v, want unavailable notice", v.Current)
	}
	if v.Error != "" {
		t.Errorf("Error = %q, want none", v.Error)
	}
}

func TestController_AbsentDailyOmitsDailyCharts(t *testing.T) {
	wc := &fakeWeatherClient{body: `{"hourly": {"time": ["2024-01-01T00:00"], "temperature_2m": [1]}}`}
	c, _ := newTestController(wc)
	ctx := context.Background()

	c.Dispatch(ctx, SelectCountry{Country: "Japan"})
	c.Dispatch(ctx, SetDailyTemperature{Enabled: true})
	v := c.Dispatch(ctx, ShowTrend{})
	if v.Error != "" {
		t.Errorf("Error = %q, want none", v.Error)
	}
	if _, ok := v.FindChart(ChartDailyTemperature); ok {
		t.Error("daily chart shown without daily data")
	}
	if _, ok := v.FindChart(ChartHourly); !ok {
		t.Error("hourly chart missing")
	}
}

func TestController_NoHourlyData(t *testing.T) {
	wc := &fakeWeatherClient{body: `{"hourly": {}}`}
	c, _ := newTestController(wc)
	ctx := context.Background()

	c.Dispatch(ctx, SelectCountry{Country: "Japan"})
	v := c.Dispatch(ctx, ShowTrend{})
	if len(v.Notices) != 1 || v.Notices[0] != NoticeNoHourly {
		t.Errorf("Notices = %v, want no-hourly notice", v.Notices)
	}
	if _, ok := v.FindChart(ChartHourly); ok {
		t.Error("hourly chart shown without data")
	}
}

func TestController_FetchFailureKeepsPriorState(t *testing.T) {
	wc := &fakeWeatherClient{body: fullBody}
	c, logs := newTestController(wc)
	ctx := context.Background()

	c.Dispatch(ctx, SelectCountry{Country: "Finland"})
	c.Dispatch(ctx, ShowTrend{})

	wc.err = &client.StatusError{StatusCode: 500}
	v := c.Dispatch(ctx, Refresh{})

	if v.Error == "" {
		t.Fatal("Error empty after upstream 500")
	}
	if !errors.Is(c.State().Err, client.ErrTransport) {
		t.Errorf("state Err = %v, want ErrTransport", c.State().Err)
	}
	if _, ok := v.FindChart(ChartHourly); !ok {
		t.Error("prior chart lost after failed refresh")
	}
	if v.Location != "Selected location: Helsinki in Finland" {
		t.Errorf("Location = %q", v.Location)
	}

	warns := logs.FilterMessage("forecast fetch failed").All()
	if len(warns) != 1 {
		t.Fatalf("got %d fetch-failure logs, want 1", len(warns))
	}
	if got := warns[0].ContextMap()["category"]; got != string(client.ErrorCategoryUpstream5xx) {
		t.Errorf("category = %v, want upstream_5xx", got)
	}

	wc.err = nil
	v = c.Dispatch(ctx, Refresh{})
	if v.Error != "" {
		t.Errorf("Error = %q after successful refresh, want cleared", v.Error)
	}
}

func TestController_MalformedHourly(t *testing.T) {
	wc := &fakeWeatherClient{body: `{"hourly": {"time": ["2024-01-01T00:00"], "temperature_2m": [1, 2]}}`}
	c, _ := newTestController(wc)

	c.Dispatch(context.Background(), SelectCountry{Country: "Japan"})
	s := c.State()
	if !errors.Is(s.Err, client.ErrMalformedResponse) {
		t.Errorf("Err = %v, want ErrMalformedResponse", s.Err)
	}
	if s.Phase != PhaseLocationSelected {
		t.Errorf("Phase = %v, want location_selected", s.Phase)
	}
}

func TestController_ConcurrentDispatch(t *testing.T) {
	wc := &fakeWeatherClient{body: fullBody}
	c, _ := newTestController(wc)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Dispatch(ctx, SelectCountry{Country: "Finland"})
			} else {
				c.Dispatch(ctx, SelectCountry{Country: "Japan"})
			}
		}(i)
	}
	wg.Wait()

	s := c.State()
	if s.Phase != PhaseDataFetched {
		t.Errorf("Phase = %v, want data_fetched", s.Phase)
	}
	if _, _, err := testCatalog().CoordinatesFor(s.Country, s.City); err != nil {
		t.Errorf("inconsistent selection %s/%s: %v", s.Country, s.City, err)
	}
}

package dashboard

import "github.com/kjstillabower/weather-dashboard/internal/models"

// Event is a user action or a fetch outcome fed to Reduce.
type Event interface {
	// Name is the stable event label used in metrics and logs.
	Name() string
}

// SelectCountry picks a country; the city resets to that country's first city.
type SelectCountry struct{ Country string }

// SelectCity picks a city of the selected country.
type SelectCity struct{ City string }

// SetPastDays sets the number of historical days.
type SetPastDays struct{ Days int }

// SetForecastDays sets the number of forecast days.
type SetForecastDays struct{ Days int }

// SetDailyTemperature toggles the daily max/min temperature chart.
type SetDailyTemperature struct{ Enabled bool }

// SetDailyPrecipitation toggles the daily snow/rain chart.
type SetDailyPrecipitation struct{ Enabled bool }

// ShowCurrent opens the current-weather panel.
type ShowCurrent struct{}

// ShowTrend opens the trend charts.
type ShowTrend struct{}

// Refresh refetches for the current selection, keeping open views.
type Refresh struct{}

// FetchSucceeded carries a parsed response and its hourly series.
type FetchSucceeded struct {
	Response models.WeatherResponse
	Hourly   []models.HourlyPoint
}

// FetchFailed carries the error of a failed fetch.
type FetchFailed struct{ Err error }

func (SelectCountry) Name() string         { return "country" }
func (SelectCity) Name() string            { return "city" }
func (SetPastDays) Name() string           { return "past_days" }
func (SetForecastDays) Name() string       { return "forecast_days" }
func (SetDailyTemperature) Name() string   { return "daily_temperature" }
func (SetDailyPrecipitation) Name() string { return "daily_precipitation" }
func (ShowCurrent) Name() string           { return "show_current" }
func (ShowTrend) Name() string             { return "show_trend" }
func (Refresh) Name() string               { return "refresh" }
func (FetchSucceeded) Name() string        { return "fetch_succeeded" }
func (FetchFailed) Name() string           { return "fetch_failed" }

// Effect is work Reduce asks the controller to perform.
type Effect interface {
	isEffect()
}

// Fetch requests one forecast call for Spec.
type Fetch struct {
	Spec models.QuerySpec
}

func (Fetch) isEffect() {}

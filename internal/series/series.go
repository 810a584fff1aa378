// Package series turns a forecast document into time-indexed series.
package series

import (
	"fmt"
	"math"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Daily variable names read by BuildDaily.
const (
	DailyTempMax          = "temperature_2m_max"
	DailyTempMin          = "temperature_2m_min"
	DailyRainSum          = "rain_sum"
	DailySnowfallSum      = "snowfall_sum"
	DailyPrecipitationSum = "precipitation_sum"
	DailyWindGustMax      = "windgusts_10m_max"
)

var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses an Open-Meteo timestamp. Local timestamps are placed in loc;
// RFC3339 input keeps its own offset.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Location returns the fixed zone described by the response, or UTC.
func Location(resp models.WeatherResponse) *time.Location {
	if resp.UTCOffsetSeconds == 0 && (resp.Timezone == "" || resp.Timezone == "GMT" || resp.Timezone == "UTC") {
		return time.UTC
	}
	name := resp.Timezone
	if name == "" {
		name = fmt.Sprintf("UTC%+d", resp.UTCOffsetSeconds/3600)
	}
	return time.FixedZone(name, resp.UTCOffsetSeconds)
}

// BuildHourly returns the hourly samples of variable in API order. An absent or
// empty hourly block yields an empty slice and no error.
func BuildHourly(resp models.WeatherResponse, variable string) ([]models.HourlyPoint, error) {
	if resp.Hourly.Empty() {
		return []models.HourlyPoint{}, nil
	}
	values, ok := resp.Hourly.Variables[variable]
	if !ok {
		return nil, fmt.Errorf("%w: hourly %q missing", client.ErrMalformedResponse, variable)
	}
	if len(values) != len(resp.Hourly.Time) {
		return nil, fmt.Errorf("%w: hourly %q has %d values for %d timestamps",
			client.ErrMalformedResponse, variable, len(values), len(resp.Hourly.Time))
	}

	loc := Location(resp)
	out := make([]models.HourlyPoint, 0, len(values))
	for i, ts := range resp.Hourly.Time {
		t, err := ParseTime(ts, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: hourly time[%d]: %v", client.ErrMalformedResponse, i, err)
		}
		out = append(out, models.HourlyPoint{Time: t, Value: valueAt(values, i)})
	}
	return out, nil
}

// BuildDaily returns one point per date of the daily block, or an empty slice when
// the response has no daily data. Variables the response lacks read as NaN.
func BuildDaily(resp models.WeatherResponse) ([]models.DailyPoint, error) {
	if resp.Daily.Empty() {
		return []models.DailyPoint{}, nil
	}
	vars := resp.Daily.Variables
	n := len(resp.Daily.Time)
	for name, values := range vars {
		if len(values) != n {
			return nil, fmt.Errorf("%w: daily %q has %d values for %d dates",
				client.ErrMalformedResponse, name, len(values), n)
		}
	}

	loc := Location(resp)
	out := make([]models.DailyPoint, 0, n)
	for i, ds := range resp.Daily.Time {
		d, err := ParseTime(ds, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: daily time[%d]: %v", client.ErrMalformedResponse, i, err)
		}
		out = append(out, models.DailyPoint{
			Date:             d,
			TempMax:          valueAt(vars[DailyTempMax], i),
			TempMin:          valueAt(vars[DailyTempMin], i),
			RainSum:          valueAt(vars[DailyRainSum], i),
			SnowfallSum:      valueAt(vars[DailySnowfallSum], i),
			PrecipitationSum: valueAt(vars[DailyPrecipitationSum], i),
			WindGustMax:      valueAt(vars[DailyWindGustMax], i),
		})
	}
	return out, nil
}

// ExtractCurrent returns the current snapshot and true, or false when the response
// carries no current_weather object. An unparsable time leaves Time zero but keeps RawTime.
func ExtractCurrent(resp models.WeatherResponse) (models.CurrentSnapshot, bool) {
	cw := resp.Current
	if cw == nil {
		return models.CurrentSnapshot{}, false
	}
	snap := models.CurrentSnapshot{
		RawTime:     cw.Time,
		Temperature: cw.Temperature,
		Windspeed:   cw.Windspeed,
	}
	if t, err := ParseTime(cw.Time, Location(resp)); err == nil {
		snap.Time = t
	}
	return snap, true
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LocationRecord is one row of the location dataset.
type LocationRecord struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QuerySpec describes a single forecast request.
type QuerySpec struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PastDays     int     `json:"pastDays"`
	ForecastDays int     `json:"forecastDays"`
	Variable     string  `json:"variable"`
	Timezone     string  `json:"timezone"`
	IncludeDaily bool    `json:"includeDaily"`
}

// WeatherResponse is the parsed forecast document. Hourly and Daily are nil when
// the corresponding key was absent.
type WeatherResponse struct {
	Timezone         string          `json:"timezone"`
	UTCOffsetSeconds int             `json:"utc_offset_seconds"`
	Current          *CurrentWeather `json:"current_weather,omitempty"`
	Hourly           *Block          `json:"hourly,omitempty"`
	Daily            *Block          `json:"daily,omitempty"`
}

// CurrentWeather mirrors the current_weather object. Missing numeric fields stay nil.
type CurrentWeather struct {
	Time        string   `json:"time"`
	Temperature *float64 `json:"temperature,omitempty"`
	Windspeed   *float64 `json:"windspeed,omitempty"`
}

// Block holds parallel arrays: Time plus one array per requested variable.
// JSON nulls inside a variable array are kept as nil entries.
type Block struct {
	Time      []string
	Variables map[string][]*float64
}

// UnmarshalJSON decodes {"time": [...], "<var>": [...], ...}. Arrays that are not
// numeric (e.g. sunrise strings) are skipped.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse block: %w", err)
	}
	b.Time = nil
	b.Variables = make(map[string][]*float64, len(raw))
	for key, msg := range raw {
		if key == "time" {
			if err := json.Unmarshal(msg, &b.Time); err != nil {
				return fmt.Errorf("parse block time: %w", err)
			}
			continue
		}
		var values []*float64
		if err := json.Unmarshal(msg, &values); err != nil {
			continue
		}
		b.Variables[key] = values
	}
	return nil
}

// MarshalJSON writes the block back in the API's shape.
func (b Block) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(b.Variables)+1)
	out["time"] = b.Time
	for k, v := range b.Variables {
		out[k] = v
	}
	return json.Marshal(out)
}

// Empty reports whether the block carries no samples.
func (b *Block) Empty() bool {
	return b == nil || len(b.Time) == 0
}

// CurrentSnapshot is the current-conditions value extracted from a response.
type CurrentSnapshot struct {
	Time        time.Time `json:"time"`
	RawTime     string    `json:"rawTime"`
	Temperature *float64  `json:"temperature,omitempty"`
	Windspeed   *float64  `json:"windspeed,omitempty"`
}

// HourlyPoint is one sample of the hourly variable. Value is NaN for a null sample.
type HourlyPoint struct {
	Time  time.Time
	Value float64
}

// DailyPoint holds the daily aggregates for one date. Missing values are NaN.
type DailyPoint struct {
	Date             time.Time
	TempMax          float64
	TempMin          float64
	RainSum          float64
	SnowfallSum      float64
	PrecipitationSum float64
	WindGustMax      float64
}

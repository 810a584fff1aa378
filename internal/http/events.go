package http

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// ErrUnknownEvent is returned for an event type the dashboard does not accept.
var ErrUnknownEvent = errors.New("unknown event type")

// eventRequest is the body of POST /api/events and the fields of the POST /events form.
type eventRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// decodeEvent maps a wire event onto a dashboard event. Range checks are left to the reducer.
func decodeEvent(req eventRequest) (dashboard.Event, error) {
	switch req.Type {
	case "country":
		return dashboard.SelectCountry{Country: req.Value}, nil
	case "city":
		return dashboard.SelectCity{City: req.Value}, nil
	case "past_days":
		n, err := validation.ParseInt(req.Value)
		if err != nil {
			return nil, fmt.Errorf("past_days: %w", err)
		}
		return dashboard.SetPastDays{Days: n}, nil
	case "forecast_days":
		n, err := validation.ParseInt(req.Value)
		if err != nil {
			return nil, fmt.Errorf("forecast_days: %w", err)
		}
		return dashboard.SetForecastDays{Days: n}, nil
	case "daily_temperature":
		on, err := validation.ParseBool(req.Value)
		if err != nil {
			return nil, fmt.Errorf("daily_temperature: %w", err)
		}
		return dashboard.SetDailyTemperature{Enabled: on}, nil
	case "daily_precipitation":
		on, err := validation.ParseBool(req.Value)
		if err != nil {
			return nil, fmt.Errorf("daily_precipitation: %w", err)
		}
		return dashboard.SetDailyPrecipitation{Enabled: on}, nil
	case "show_current":
		return dashboard.ShowCurrent{}, nil
	case "show_trend":
		return dashboard.ShowTrend{}, nil
	case "refresh":
		return dashboard.Refresh{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, req.Type)
	}
}

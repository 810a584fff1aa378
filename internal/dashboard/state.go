package dashboard

import (
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// Phase is the position of the dashboard in its fetch-and-render cycle.
type Phase int

const (
	// PhaseIdle means no location has been selected yet.
	PhaseIdle Phase = iota
	// PhaseLocationSelected means coordinates are resolved but no response is held.
	PhaseLocationSelected
	// PhaseDataFetched means a response and its hourly series are held.
	PhaseDataFetched
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLocationSelected:
		return "location_selected"
	case PhaseDataFetched:
		return "data_fetched"
	default:
		return "unknown"
	}
}

// Defaults applied to a fresh State.
const (
	DefaultPastDays     = 5
	DefaultForecastDays = 5
	DefaultVariable     = "temperature_2m"
	DefaultTimezone     = "auto"
	DefaultTitle        = "Weather Dashboard"
)

// Settings holds the fixed query parameters that are not user controls.
type Settings struct {
	Title        string
	Variable     string
	Timezone     string
	PastDays     int
	ForecastDays int
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Title:        DefaultTitle,
		Variable:     DefaultVariable,
		Timezone:     DefaultTimezone,
		PastDays:     DefaultPastDays,
		ForecastDays: DefaultForecastDays,
	}
}

// State is everything the dashboard knows between events. It is a value:
// Reduce returns a new State and never mutates its input's slices.
type State struct {
	Phase Phase

	Country   string
	City      string
	Cities    []string
	Latitude  float64
	Longitude float64

	PastDays        int
	ForecastDays    int
	ShowDailyTemp   bool
	ShowDailyPrecip bool
	Variable        string
	Timezone        string

	ShowCurrent bool
	ShowTrend   bool

	Response *models.WeatherResponse
	Hourly   []models.HourlyPoint

	// Err is the inline error of the last cycle, cleared by the next successful one.
	Err error
}

// NewState returns the Idle state for settings. Out-of-range day defaults fall back
// to the built-in ones.
func NewState(s Settings) State {
	if s.Variable == "" {
		s.Variable = DefaultVariable
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if validation.ValidatePastDays(s.PastDays) != nil {
		s.PastDays = DefaultPastDays
	}
	if validation.ValidateForecastDays(s.ForecastDays) != nil {
		s.ForecastDays = DefaultForecastDays
	}
	return State{
		Phase:        PhaseIdle,
		PastDays:     s.PastDays,
		ForecastDays: s.ForecastDays,
		Variable:     s.Variable,
		Timezone:     s.Timezone,
	}
}

// IncludeDaily reports whether the next fetch should request daily aggregates.
func (s State) IncludeDaily() bool {
	return s.ShowDailyTemp || s.ShowDailyPrecip
}

// QuerySpec builds the fetch request for the current selection.
func (s State) QuerySpec() models.QuerySpec {
	return models.QuerySpec{
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		PastDays:     s.PastDays,
		ForecastDays: s.ForecastDays,
		Variable:     s.Variable,
		Timezone:     s.Timezone,
		IncludeDaily: s.IncludeDaily(),
	}
}

// invalidate drops the held response and views; the cycle restarts at LocationSelected.
func (s State) invalidate() State {
	s.Response = nil
	s.Hourly = nil
	s.ShowCurrent = false
	s.ShowTrend = false
	if s.Phase > PhaseLocationSelected {
		s.Phase = PhaseLocationSelected
	}
	return s
}

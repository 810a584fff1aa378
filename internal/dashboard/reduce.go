package dashboard

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/weather-dashboard/internal/catalog"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// ErrNoLocation is returned by actions that need a selected location.
var ErrNoLocation = errors.New("select a country and city first")

// Catalog is the read-only location lookup the reducer needs.
type Catalog interface {
	Countries() []string
	CitiesFor(country string) []string
	CoordinatesFor(country, city string) (float64, float64, error)
}

// Reduce applies ev to s and returns the next state and the effects to run.
// It performs no I/O. A rejected event sets Err and otherwise leaves s unchanged.
func Reduce(cat Catalog, s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case SelectCountry:
		return selectCountry(cat, s, e.Country)
	case SelectCity:
		return selectCity(cat, s, e.City)
	case SetPastDays:
		if err := validation.ValidatePastDays(e.Days); err != nil {
			return fail(s, err)
		}
		if e.Days == s.PastDays {
			return clearErr(s), nil
		}
		s.PastDays = e.Days
		return changed(s)
	case SetForecastDays:
		if err := validation.ValidateForecastDays(e.Days); err != nil {
			return fail(s, err)
		}
		if e.Days == s.ForecastDays {
			return clearErr(s), nil
		}
		s.ForecastDays = e.Days
		return changed(s)
	case SetDailyTemperature:
		if e.Enabled == s.ShowDailyTemp {
			return clearErr(s), nil
		}
		s.ShowDailyTemp = e.Enabled
		return changed(s)
	case SetDailyPrecipitation:
		if e.Enabled == s.ShowDailyPrecip {
			return clearErr(s), nil
		}
		s.ShowDailyPrecip = e.Enabled
		return changed(s)
	case ShowCurrent:
		if s.Phase == PhaseIdle {
			return fail(s, ErrNoLocation)
		}
		s.ShowCurrent = true
		return needData(s)
	case ShowTrend:
		if s.Phase == PhaseIdle {
			return fail(s, ErrNoLocation)
		}
		s.ShowTrend = true
		return needData(s)
	case Refresh:
		if s.Phase == PhaseIdle {
			return fail(s, ErrNoLocation)
		}
		s.Err = nil
		return s, []Effect{Fetch{Spec: s.QuerySpec()}}
	case FetchSucceeded:
		resp := e.Response
		s.Response = &resp
		s.Hourly = e.Hourly
		s.Phase = PhaseDataFetched
		s.Err = nil
		return s, nil
	case FetchFailed:
		return fail(s, e.Err)
	default:
		return fail(s, fmt.Errorf("unsupported event %T", ev))
	}
}

func selectCountry(cat Catalog, s State, country string) (State, []Effect) {
	country, err := validation.ValidateSelection(country)
	if err != nil {
		return fail(s, err)
	}
	if country == s.Country && s.Phase != PhaseIdle {
		return clearErr(s), nil
	}
	cities := cat.CitiesFor(country)
	if len(cities) == 0 {
		return fail(s, fmt.Errorf("%w: country %q", catalog.ErrNotFound, country))
	}
	lat, lon, err := cat.CoordinatesFor(country, cities[0])
	if err != nil {
		return fail(s, err)
	}
	s.Country = country
	s.Cities = cities
	s.City = cities[0]
	s.Latitude, s.Longitude = lat, lon
	s.Phase = PhaseLocationSelected
	return changed(s)
}

func selectCity(cat Catalog, s State, city string) (State, []Effect) {
	if s.Phase == PhaseIdle {
		return fail(s, ErrNoLocation)
	}
	city, err := validation.ValidateSelection(city)
	if err != nil {
		return fail(s, err)
	}
	if city == s.City {
		return clearErr(s), nil
	}
	lat, lon, err := cat.CoordinatesFor(s.Country, city)
	if err != nil {
		return fail(s, err)
	}
	s.City = city
	s.Latitude, s.Longitude = lat, lon
	return changed(s)
}

// changed invalidates held data after an input change and, once a location is
// known, requests a new fetch.
func changed(s State) (State, []Effect) {
	s = s.invalidate()
	s.Err = nil
	if s.Phase == PhaseIdle {
		return s, nil
	}
	return s, []Effect{Fetch{Spec: s.QuerySpec()}}
}

func needData(s State) (State, []Effect) {
	s.Err = nil
	if s.Response != nil {
		return s, nil
	}
	return s, []Effect{Fetch{Spec: s.QuerySpec()}}
}

func fail(s State, err error) (State, []Effect) {
	s.Err = err
	return s, nil
}

func clearErr(s State) State {
	s.Err = nil
	return s
}

package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Control ranges of the dashboard sliders.
const (
	MinPastDays     = 0
	MaxPastDays     = 30
	MinForecastDays = 1
	MaxForecastDays = 16
)

// ErrOutOfRange is returned when a control value falls outside its slider range.
var ErrOutOfRange = errors.New("value out of range")

// ErrNotANumber is returned when a numeric control value cannot be parsed.
var ErrNotANumber = errors.New("value is not an integer")

// ErrEmptySelection is returned when a country or city selection is blank after trim.
var ErrEmptySelection = errors.New("selection is required")

// ValidatePastDays checks n against the past-days range. Values are never clamped.
func ValidatePastDays(n int) error {
	return checkRange("past_days", n, MinPastDays, MaxPastDays)
}

// ValidateForecastDays checks n against the forecast-days range. Values are never clamped.
func ValidateForecastDays(n int) error {
	return checkRange("forecast_days", n, MinForecastDays, MaxForecastDays)
}

func checkRange(name string, n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s must be in [%d,%d], got %d", ErrOutOfRange, name, lo, hi, n)
	}
	return nil
}

// ParseInt trims s and parses it as a base-10 integer.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return n, nil
}

// ParseBool accepts the values an HTML checkbox or JSON client sends.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "", "0", "false", "off", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ValidateSelection trims a country or city name and rejects blanks.
func ValidateSelection(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptySelection
	}
	return s, nil
}

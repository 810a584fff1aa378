package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kjstillabower/weather-dashboard/internal/chart"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/series"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// Chart IDs of the trend view.
const (
	ChartHourly             = "hourly"
	ChartDailyTemperature   = "daily-temperature"
	ChartDailyPrecipitation = "daily-precipitation"
)

// User-facing notices.
const (
	NoticeNoHourly           = "No hourly data returned from API."
	NoticeCurrentUnavailable = "Current weather information not available in this response."
	InfoCurrentRefresh       = "Current weather is refreshed in every 15 minutes."
)

// View is what the presentation layer renders after each cycle.
type View struct {
	Title    string        `json:"title"`
	Phase    string        `json:"phase"`
	Location string        `json:"location,omitempty"`
	Controls Controls      `json:"controls"`
	Error    string        `json:"error,omitempty"`
	Notices  []string      `json:"notices,omitempty"`
	Current  *CurrentPanel `json:"current,omitempty"`
	Trend    *TrendPanel   `json:"trend,omitempty"`
}

// Controls mirrors the input widgets and their current values.
type Controls struct {
	Countries       []string     `json:"countries"`
	Country         string       `json:"country"`
	Cities          []string     `json:"cities"`
	City            string       `json:"city"`
	PastDays        RangeControl `json:"pastDays"`
	ForecastDays    RangeControl `json:"forecastDays"`
	ShowDailyTemp   bool         `json:"showDailyTemperature"`
	ShowDailyPrecip bool         `json:"showDailyPrecipitation"`
}

// RangeControl is a bounded integer slider.
type RangeControl struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value int    `json:"value"`
}

// CurrentPanel is the three-metric summary or an unavailable notice.
type CurrentPanel struct {
	Info      string   `json:"info"`
	Available bool     `json:"available"`
	Notice    string   `json:"notice,omitempty"`
	Metrics   []Metric `json:"metrics,omitempty"`
}

// Metric is one labelled value of the summary panel.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TrendPanel holds up to three charts.
type TrendPanel struct {
	Charts []chart.Chart `json:"charts"`
}

// BuildView renders s into a View. Panels appear only once data has been fetched.
func BuildView(title string, countries []string, s State) View {
	v := View{
		Title: title,
		Phase: s.Phase.String(),
		Controls: Controls{
			Countries: countries,
			Country:   s.Country,
			Cities:    s.Cities,
			City:      s.City,
			PastDays: RangeControl{
				Label: "Past days (historical)",
				Min:   validation.MinPastDays,
				Max:   validation.MaxPastDays,
				Value: s.PastDays,
			},
			ForecastDays: RangeControl{
				Label: "Forecast days",
				Min:   validation.MinForecastDays,
				Max:   validation.MaxForecastDays,
				Value: s.ForecastDays,
			},
			ShowDailyTemp:   s.ShowDailyTemp,
			ShowDailyPrecip: s.ShowDailyPrecip,
		},
	}
	if s.Phase != PhaseIdle {
		v.Location = fmt.Sprintf("Selected location: %s in %s", s.City, s.Country)
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}
	if s.Phase != PhaseDataFetched || s.Response == nil {
		return v
	}

	if len(s.Hourly) == 0 {
		v.Notices = append(v.Notices, NoticeNoHourly)
	}
	if s.ShowCurrent {
		v.Current = currentPanel(*s.Response)
	}
	if s.ShowTrend {
		charts, notices := trendCharts(s)
		v.Trend = &TrendPanel{Charts: charts}
		v.Notices = append(v.Notices, notices...)
	}
	return v
}

func currentPanel(resp models.WeatherResponse) *CurrentPanel {
	p := &CurrentPanel{Info: InfoCurrentRefresh}
	snap, ok := series.ExtractCurrent(resp)
	if !ok {
		p.Notice = NoticeCurrentUnavailable
		return p
	}
	p.Available = true
	p.Metrics = append(p.Metrics, Metric{Label: "Time", Value: snap.RawTime})
	if snap.Temperature != nil {
		p.Metrics = append(p.Metrics, Metric{Label: "Temperature (°C)", Value: formatValue(*snap.Temperature)})
	}
	if snap.Windspeed != nil {
		p.Metrics = append(p.Metrics, Metric{Label: "Wind speed (km/h)", Value: formatValue(*snap.Windspeed)})
	}
	return p
}

// trendCharts builds the hourly chart and the enabled daily charts. Both daily
// charts read their dates from the response currently held in s.
func trendCharts(s State) ([]chart.Chart, []string) {
	var charts []chart.Chart
	var notices []string

	if len(s.Hourly) > 0 {
		charts = append(charts, hourlyChart(s))
	}
	if !s.ShowDailyTemp && !s.ShowDailyPrecip {
		return charts, notices
	}

	days, err := series.BuildDaily(*s.Response)
	if err != nil {
		return charts, append(notices, "Daily data could not be read: "+err.Error())
	}
	if len(days) == 0 {
		return charts, notices
	}
	if s.ShowDailyTemp {
		charts = append(charts, chart.Chart{
			ID:     ChartDailyTemperature,
			Title:  "Daily Temperature Max/Min",
			XLabel: "Date",
			YLabel: "Temperature (°C)",
			Series: []chart.Series{
				dailySeries("Max temp (°C)", days, func(d models.DailyPoint) float64 { return d.TempMax }),
				dailySeries("Min temp (°C)", days, func(d models.DailyPoint) float64 { return d.TempMin }),
			},
		})
	}
	if s.ShowDailyPrecip {
		charts = append(charts, chart.Chart{
			ID:     ChartDailyPrecipitation,
			Title:  "Daily Total Snow/Rain",
			XLabel: "Date",
			YLabel: "Total snow (cm)/rain (mm)",
			Series: []chart.Series{
				dailySeries("total_snow", days, func(d models.DailyPoint) float64 { return d.SnowfallSum }),
				dailySeries("total_rain", days, func(d models.DailyPoint) float64 { return d.RainSum }),
			},
		})
	}
	return charts, notices
}

func hourlyChart(s State) chart.Chart {
	label := variableLabel(s.Variable)
	pts := make([]chart.Point, len(s.Hourly))
	for i, h := range s.Hourly {
		pts[i] = chart.Point{T: h.Time, V: h.Value}
	}
	c := chart.Chart{
		ID:     ChartHourly,
		Title:  fmt.Sprintf("Hourly %s for past %d days & next %d days", strings.ToLower(label), s.PastDays, s.ForecastDays),
		XLabel: "Time",
		YLabel: label,
		Series: []chart.Series{{Label: s.Variable, Points: pts}},
	}
	// The snapshot only carries temperature, so the marker is limited to temperature variables.
	if !strings.Contains(s.Variable, "temperature") {
		return c
	}
	if snap, ok := series.ExtractCurrent(*s.Response); ok && !snap.Time.IsZero() && snap.Temperature != nil {
		c.Markers = []chart.Marker{{
			Label: "Current value",
			Point: chart.Point{T: snap.Time, V: *snap.Temperature},
		}}
	}
	return c
}

func dailySeries(label string, days []models.DailyPoint, value func(models.DailyPoint) float64) chart.Series {
	pts := make([]chart.Point, len(days))
	for i, d := range days {
		pts[i] = chart.Point{T: d.Date, V: value(d)}
	}
	return chart.Series{Label: label, Points: pts}
}

// FindChart returns the trend chart with id, if the view shows it.
func (v View) FindChart(id string) (chart.Chart, bool) {
	if v.Trend == nil {
		return chart.Chart{}, false
	}
	for _, c := range v.Trend.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return chart.Chart{}, false
}

var variableLabels = map[string]string{
	"temperature_2m":            "Temperature",
	"apparent_temperature":      "Apparent temperature",
	"relative_humidity_2m":      "Relative humidity",
	"precipitation":             "Precipitation",
	"precipitation_probability": "Precipitation probability",
	"wind_speed_10m":            "Wind speed",
	"cloud_cover":               "Cloud cover",
	"surface_pressure":          "Surface pressure",
}

func variableLabel(variable string) string {
	if l, ok := variableLabels[variable]; ok {
		return l
	}
	return variable
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

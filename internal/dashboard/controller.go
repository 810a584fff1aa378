// Package dashboard holds the dashboard state machine and the controller that
// drives it: events in, one fetch per effect, a View out.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/chart"
	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/series"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

// Controller serializes events against a single dashboard State.
type Controller struct {
	mu      sync.Mutex
	catalog Catalog
	client  client.WeatherClient
	logger  *zap.Logger
	title   string
	state   State
}

// NewController returns a Controller in the Idle phase.
func NewController(cat Catalog, wc client.WeatherClient, settings Settings, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	title := settings.Title
	if title == "" {
		title = DefaultTitle
	}
	return &Controller{
		catalog: cat,
		client:  wc,
		logger:  logger,
		title:   title,
		state:   NewState(settings),
	}
}

// Dispatch applies ev, runs any fetch it triggers, and returns the resulting View.
// Fetch failures land in the View's Error; Dispatch itself never fails.
func (c *Controller) Dispatch(ctx context.Context, ev Event) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := observability.LoggerFromContextOr(ctx, c.logger)
	observability.DashboardEventsTotal.WithLabelValues(ev.Name()).Inc()

	prevCountry := c.state.Country
	next, effects := Reduce(c.catalog, c.state, ev)
	if next.Err != nil {
		logger.Info("event rejected",
			zap.String("event", ev.Name()),
			zap.Error(next.Err),
		)
	}
	c.state = next
	if c.state.Country != prevCountry && c.state.Country != "" {
		observability.RecordLocationSelection(c.state.Country)
	}

	for _, eff := range effects {
		if f, ok := eff.(Fetch); ok {
			c.state, _ = Reduce(c.catalog, c.state, c.runFetch(ctx, logger, f))
		}
	}
	return BuildView(c.title, c.catalog.Countries(), c.state)
}

// runFetch performs one upstream call and converts the outcome into an event.
func (c *Controller) runFetch(ctx context.Context, logger *zap.Logger, f Fetch) Event {
	start := time.Now()
	resp, err := c.client.Fetch(ctx, f.Spec)
	if err != nil {
		return c.fetchFailed(logger, f, err, start)
	}
	hourly, err := series.BuildHourly(resp, f.Spec.Variable)
	if err != nil {
		return c.fetchFailed(logger, f, err, start)
	}
	traffic.RecordFetchSuccess()
	logger.Debug("forecast fetched",
		zap.Float64("latitude", f.Spec.Latitude),
		zap.Float64("longitude", f.Spec.Longitude),
		zap.Int("hourlyPoints", len(hourly)),
		zap.Bool("daily", f.Spec.IncludeDaily),
		zap.Duration("duration", time.Since(start)),
	)
	return FetchSucceeded{Response: resp, Hourly: hourly}
}

func (c *Controller) fetchFailed(logger *zap.Logger, f Fetch, err error, start time.Time) Event {
	category := client.CategorizeError(err)
	traffic.RecordFetchError()
	observability.WeatherAPIErrorsTotal.WithLabelValues(string(category)).Inc()
	logger.Warn("forecast fetch failed",
		zap.Float64("latitude", f.Spec.Latitude),
		zap.Float64("longitude", f.Spec.Longitude),
		zap.String("category", string(category)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return FetchFailed{Err: err}
}

// View returns the View of the current state without running any effects.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildView(c.title, c.catalog.Countries(), c.state)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Chart returns the currently shown chart with id.
func (c *Controller) Chart(id string) (chart.Chart, bool) {
	return c.View().FindChart(id)
}

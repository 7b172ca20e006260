package screen

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vzahanych/weather-now/internal/weather"
)

const rowDateLayout = "02/01/2006"

// ForecastRow is one display line of the forecast screen.
type ForecastRow struct {
	Date      string  `json:"date"`
	Icon      string  `json:"icon"`
	Condition string  `json:"condition"`
	MaxTempC  float64 `json:"maxtemp_c"`
	MinTempC  float64 `json:"mintemp_c"`
}

// FormatDate renders a calendar date as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(rowDateLayout)
}

func NewForecastRows(days []weather.ForecastDay) []ForecastRow {
	rows := make([]ForecastRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, ForecastRow{
			Date:      FormatDate(d.Date),
			Icon:      d.Condition.IconURL(),
			Condition: d.Condition.Text,
			MaxTempC:  d.MaxTempC,
			MinTempC:  d.MinTempC,
		})
	}
	return rows
}

// ForecastScreen shows a multi-day forecast for a fixed place. It does not
// consult the device location.
type ForecastScreen struct {
	client ForecastFetcher
	router Router
	place  string
	days   int
	logger *zap.Logger

	machine *machine[[]ForecastRow]
	life    *lifecycle
}

func NewForecastScreen(client ForecastFetcher, router Router, place string, days int, logger *zap.Logger) *ForecastScreen {
	return &ForecastScreen{
		client:  client,
		router:  router,
		place:   place,
		days:    days,
		logger:  logger.With(zap.String("screen", string(RouteForecast))),
		machine: newMachine[[]ForecastRow](),
		life:    newLifecycle(),
	}
}

func (s *ForecastScreen) Route() Route { return RouteForecast }

func (s *ForecastScreen) State() State { return s.machine.State() }

func (s *ForecastScreen) OnChange(fn func(State)) { s.machine.setListener(fn) }

func (s *ForecastScreen) Done() <-chan struct{} { return s.life.done }

func (s *ForecastScreen) Place() string { return s.place }

func (s *ForecastScreen) Mount(ctx context.Context) {
	s.life.start(ctx, s.run)
}

func (s *ForecastScreen) Unmount() {
	s.machine.close()
	s.life.stop()
}

// GoHome navigates back to the current-conditions screen.
func (s *ForecastScreen) GoHome() error {
	return s.router.Back()
}

func (s *ForecastScreen) run(ctx context.Context) {
	if err := s.machine.begin(); err != nil {
		return
	}

	days, err := s.client.FetchForecast(ctx, s.place, s.days)
	if err != nil {
		s.logger.Error("Failed to fetch forecast",
			zap.String("place", s.place),
			zap.Int("days", s.days),
			zap.Error(err))
		err = s.machine.fail(fetchError(err))
	} else {
		err = s.machine.ready(NewForecastRows(days))
	}

	if err != nil && !errors.Is(err, ErrUnmounted) {
		s.logger.Error("Unexpected state transition", zap.Error(err))
	}
}

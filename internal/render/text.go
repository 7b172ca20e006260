package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-now/internal/screen"
	"github.com/vzahanych/weather-now/internal/weather"
)

const (
	forecastTitle   = "7-Day Weather Forecast"
	currentAction   = "See Full Forecast"
	forecastAction  = "Go to Home"
	loadingLocation = "Loading location..."
	loading         = "Loading..."
)

// Text paints screen states as plain text.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Render(route screen.Route, st screen.State) error {
	var b strings.Builder
	switch route {
	case screen.RouteCurrent:
		writeCurrent(&b, st)
	case screen.RouteForecast:
		writeForecast(&b, st)
	default:
		return fmt.Errorf("no view for route %q", route)
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func writeCurrent(b *strings.Builder, st screen.State) {
	switch s := st.(type) {
	case screen.Failed:
		fmt.Fprintln(b, s.Err.Message)
	case screen.Ready[weather.CurrentConditions]:
		c := s.Data
		fmt.Fprintf(b, "Weather Forecast for %s\n", c.Location.Name)
		if c.Location.Region != "" || c.Location.Country != "" {
			fmt.Fprintf(b, "%s\n", joinNonEmpty(", ", c.Location.Region, c.Location.Country))
		}
		fmt.Fprintf(b, "Condition: %s\n", c.Condition.Text)
		fmt.Fprintf(b, "Temperature: %s°C (%s°F)\n", num(c.TempC), num(c.TempF))
		fmt.Fprintf(b, "Feels like: %s°C (%s°F)\n", num(c.FeelsLikeC), num(c.FeelsLikeF))
		fmt.Fprintf(b, "Humidity: %d%%\n", c.Humidity)
		fmt.Fprintf(b, "Pressure: %s mb\n", num(c.PressureMb))
		fmt.Fprintf(b, "Wind: %s kph, %s\n", num(c.WindKph), c.WindDir)
		if icon := c.Condition.IconURL(); icon != "" {
			fmt.Fprintf(b, "Icon: %s\n", icon)
		}
	default:
		fmt.Fprintln(b, loadingLocation)
	}
	fmt.Fprintf(b, "[%s]\n", currentAction)
}

func writeForecast(b *strings.Builder, st screen.State) {
	fmt.Fprintln(b, forecastTitle)
	switch s := st.(type) {
	case screen.Failed:
		fmt.Fprintln(b, s.Err.Message)
	case screen.Ready[[]screen.ForecastRow]:
		for _, row := range s.Data {
			fmt.Fprintf(b, "%s  %-28s Max: %s°C  Min: %s°C\n",
				row.Date, row.Condition, num(row.MaxTempC), num(row.MinTempC))
		}
	default:
		fmt.Fprintln(b, loading)
	}
	fmt.Fprintf(b, "[%s]\n", forecastAction)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

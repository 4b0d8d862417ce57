package viewmodel

import (
	"fmt"

	"github.com/i474232898/weather-app/internal/weather"
)

// NotAvailable is shown by every accessor while no snapshot is loaded.
const NotAvailable = "N/A"

// Display is the formatted presentation of the current snapshot.
type Display struct {
	Location         string                `json:"location"`
	LocalTime        string                `json:"localTime"`
	Temperature      string                `json:"temperature"`
	FeelsLike        string                `json:"feelsLike"`
	Humidity         string                `json:"humidity"`
	WindSpeed        string                `json:"windSpeed"`
	WindDirection    string                `json:"windDirection"`
	ChanceOfRain     string                `json:"chanceOfRain"`
	UVIndex          string                `json:"uvIndex"`
	Condition        string                `json:"condition"`
	ConditionIconURL string                `json:"conditionIconUrl,omitempty"`
	Category         weather.Category      `json:"category"`
	IsDaytime        bool                  `json:"isDaytime"`
	IsFavorite       bool                  `json:"isFavorite"`
	Forecast         []weather.ForecastDay `json:"forecast"`
	Hourly           []weather.Hour        `json:"hourly"`
}

// Display collects all accessors from one consistent state.
func (m *WeatherModel) Display() Display {
	st := m.State()
	snap := st.Snapshot
	d := Display{
		Location:         locationName(snap),
		LocalTime:        localTime(snap),
		Temperature:      temperature(snap, func(s *weather.Snapshot) float64 { return s.Current.TempC }),
		FeelsLike:        temperature(snap, func(s *weather.Snapshot) float64 { return s.Current.FeelsLikeC }),
		Humidity:         humidity(snap),
		WindSpeed:        windSpeed(snap),
		WindDirection:    windDirection(snap),
		ChanceOfRain:     chanceOfRain(snap),
		UVIndex:          uvIndex(snap),
		Condition:        conditionText(snap),
		ConditionIconURL: conditionIconURL(snap),
		Category:         conditionCategory(snap),
		IsDaytime:        isDaytime(snap),
		IsFavorite:       st.IsCurrentFavorite,
		Forecast:         forecastDays(snap),
		Hourly:           hourlyForecast(snap),
	}
	return d
}

// CurrentTemperature returns e.g. "18.3°C".
func (m *WeatherModel) CurrentTemperature() string {
	return temperature(m.State().Snapshot, func(s *weather.Snapshot) float64 { return s.Current.TempC })
}

func (m *WeatherModel) FeelsLike() string {
	return temperature(m.State().Snapshot, func(s *weather.Snapshot) float64 { return s.Current.FeelsLikeC })
}

func (m *WeatherModel) Humidity() string      { return humidity(m.State().Snapshot) }
func (m *WeatherModel) WindSpeed() string     { return windSpeed(m.State().Snapshot) }
func (m *WeatherModel) WindDirection() string { return windDirection(m.State().Snapshot) }
func (m *WeatherModel) UVIndex() string       { return uvIndex(m.State().Snapshot) }
func (m *WeatherModel) ConditionText() string { return conditionText(m.State().Snapshot) }

// ChanceOfRain is today's chance of rain.
func (m *WeatherModel) ChanceOfRain() string { return chanceOfRain(m.State().Snapshot) }

// ConditionIconURL is the absolute icon URL, or "" without a snapshot.
func (m *WeatherModel) ConditionIconURL() string { return conditionIconURL(m.State().Snapshot) }

func (m *WeatherModel) ConditionCategory() weather.Category {
	return conditionCategory(m.State().Snapshot)
}

// IsDaytime defaults to true while nothing is loaded.
func (m *WeatherModel) IsDaytime() bool { return isDaytime(m.State().Snapshot) }

func (m *WeatherModel) ForecastDays() []weather.ForecastDay { return forecastDays(m.State().Snapshot) }

// HourlyForecast returns today's hours.
func (m *WeatherModel) HourlyForecast() []weather.Hour { return hourlyForecast(m.State().Snapshot) }

// LocalTime returns the location's time as "Monday, 2 January, 15:04".
func (m *WeatherModel) LocalTime() string { return localTime(m.State().Snapshot) }

func locationName(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%s, %s", s.Location.Name, s.Location.Country)
}

func temperature(s *weather.Snapshot, pick func(*weather.Snapshot) float64) string {
	if s == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f°C", pick(s))
}

func humidity(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%d%%", s.Current.Humidity)
}

func windSpeed(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f km/h", s.Current.WindKph)
}

func windDirection(s *weather.Snapshot) string {
	if s == nil || s.Current.WindDir == "" {
		return NotAvailable
	}
	return s.Current.WindDir
}

func chanceOfRain(s *weather.Snapshot) string {
	if s == nil || len(s.Forecast) == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%d%%", s.Forecast[0].Day.ChanceOfRain)
}

func uvIndex(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", s.Current.UV)
}

func conditionText(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return s.Current.Condition.Text
}

func conditionIconURL(s *weather.Snapshot) string {
	if s == nil {
		return ""
	}
	return s.Current.Condition.IconURL()
}

func conditionCategory(s *weather.Snapshot) weather.Category {
	if s == nil {
		return weather.CategoryUnknown
	}
	return s.Current.Condition.Category()
}

func isDaytime(s *weather.Snapshot) bool {
	if s == nil {
		return true
	}
	return s.Current.IsDay
}

func forecastDays(s *weather.Snapshot) []weather.ForecastDay {
	if s == nil {
		return []weather.ForecastDay{}
	}
	return s.Forecast
}

func hourlyForecast(s *weather.Snapshot) []weather.Hour {
	if s == nil || len(s.Forecast) == 0 {
		return []weather.Hour{}
	}
	return s.Forecast[0].Hours
}

func localTime(s *weather.Snapshot) string {
	if s == nil {
		return NotAvailable
	}
	return s.Location.LocalTimeFormatted()
}

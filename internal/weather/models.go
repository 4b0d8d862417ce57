package weather

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ForecastDays is the number of forecast days requested on every fetch.
const ForecastDays = 3

// Category is a normalized high-level weather condition derived from the
// provider's free-text label.
type Category string

const (
	CategoryUnknown Category = "unknown"
	CategoryClear   Category = "clear"
	CategoryCloudy  Category = "cloudy"
	CategoryRain    Category = "rain"
	CategorySnow    Category = "snow"
	CategoryStorm   Category = "storm"
	CategoryMist    Category = "mist"
)

// Condition is a provider condition label with its icon reference.
// Icon is scheme-relative ("//cdn.weatherapi.com/...") as delivered.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// IconURL rewrites the scheme-relative icon reference into an absolute
// https URL. It returns "" when there is no usable icon.
func (c Condition) IconURL() string {
	icon := strings.TrimSpace(c.Icon)
	if icon == "" {
		return ""
	}
	if strings.HasPrefix(icon, "//") {
		icon = "https:" + icon
	}
	u, err := url.Parse(icon)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.String()
}

// Category maps the label onto a normalized category.
func (c Condition) Category() Category {
	text := strings.ToLower(c.Text)
	switch {
	case text == "":
		return CategoryUnknown
	case containsAny(text, "thunder", "storm"):
		return CategoryStorm
	case containsAny(text, "snow", "sleet", "blizzard", "ice pellets"):
		return CategorySnow
	case containsAny(text, "rain", "shower", "drizzle"):
		return CategoryRain
	case containsAny(text, "mist", "fog"):
		return CategoryMist
	case containsAny(text, "cloud", "overcast"):
		return CategoryCloudy
	case containsAny(text, "sunny", "clear"):
		return CategoryClear
	default:
		return CategoryUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Location is the resolved location metadata of a snapshot.
type Location struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TimezoneID     string  `json:"tzId"`
	LocalTimeEpoch int64   `json:"localtimeEpoch"`
	LocalTime      string  `json:"localtime"` // "2006-01-02 15:04" in the location's zone
}

// LocalTimeFormatted renders LocalTime as "Monday, 2 January, 15:04",
// falling back to the raw value when it cannot be parsed.
func (l Location) LocalTimeFormatted() string {
	t, err := time.Parse("2006-01-02 15:04", l.LocalTime)
	if err != nil {
		return l.LocalTime
	}
	return t.Format("Monday, 2 January, 15:04")
}

// Current holds the current conditions.
type Current struct {
	LastUpdatedEpoch int64     `json:"lastUpdatedEpoch"`
	TempC            float64   `json:"tempC"`
	FeelsLikeC       float64   `json:"feelsLikeC"`
	Humidity         int       `json:"humidity"`
	WindKph          float64   `json:"windKph"`
	WindDir          string    `json:"windDir"`
	WindDegree       int       `json:"windDegree"`
	UV               float64   `json:"uv"`
	IsDay            bool      `json:"isDay"`
	Condition        Condition `json:"condition"`
}

// Hour is one hourly forecast record; it carries the same fields as
// Current plus the chance of rain.
type Hour struct {
	TimeEpoch    int64     `json:"timeEpoch"`
	Time         string    `json:"time"`
	TempC        float64   `json:"tempC"`
	FeelsLikeC   float64   `json:"feelsLikeC"`
	Humidity     int       `json:"humidity"`
	WindKph      float64   `json:"windKph"`
	WindDir      string    `json:"windDir"`
	WindDegree   int       `json:"windDegree"`
	UV           float64   `json:"uv"`
	IsDay        bool      `json:"isDay"`
	ChanceOfRain int       `json:"chanceOfRain"`
	Condition    Condition `json:"condition"`
}

// TimeFormatted returns the hour as "15:04".
func (h Hour) TimeFormatted() string {
	t, err := time.Parse("2006-01-02 15:04", h.Time)
	if err != nil {
		return h.Time
	}
	return t.Format("15:04")
}

// Day is the daily summary of a forecast day.
type Day struct {
	MaxTempC     float64   `json:"maxTempC"`
	MinTempC     float64   `json:"minTempC"`
	AvgTempC     float64   `json:"avgTempC"`
	ChanceOfRain int       `json:"chanceOfRain"`
	Condition    Condition `json:"condition"`
}

// ForecastDay is one day of the forecast with its ordered hours.
type ForecastDay struct {
	Date      string `json:"date"`
	DateEpoch int64  `json:"dateEpoch"`
	Day       Day    `json:"day"`
	Hours     []Hour `json:"hours"`
}

// Snapshot is a complete, immutable weather result for one fetch. A new
// fetch produces a new Snapshot; nothing patches an existing one.
type Snapshot struct {
	Location Location      `json:"location"`
	Current  Current       `json:"current"`
	Forecast []ForecastDay `json:"forecast"`
}

// LocationSuggestion is one geocoding result. ID is generated locally and
// only serves presentation; it never takes part in equality.
type LocationSuggestion struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Country   string    `json:"country"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// NewSuggestion builds a suggestion with a fresh local identifier.
func NewSuggestion(name, region, country string, lat, lon float64) LocationSuggestion {
	return LocationSuggestion{
		ID:        uuid.New(),
		Name:      name,
		Region:    region,
		Country:   country,
		Latitude:  lat,
		Longitude: lon,
	}
}

// DisplayName returns "{name}, {country}".
func (s LocationSuggestion) DisplayName() string {
	return fmt.Sprintf("%s, %s", s.Name, s.Country)
}

// Coordinates returns the "lat,lon" query form of the suggestion.
func (s LocationSuggestion) Coordinates() string {
	return FormatCoordinates(s.Latitude, s.Longitude)
}

// SameLocality reports whether both suggestions name the same (name,
// country) pair; this is the de-duplication key of recent searches.
func (s LocationSuggestion) SameLocality(o LocationSuggestion) bool {
	return s.Name == o.Name && s.Country == o.Country
}

// FormatCoordinates renders a coordinate pair as "lat,lon" using the
// shortest exact decimal form of each value.
func FormatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

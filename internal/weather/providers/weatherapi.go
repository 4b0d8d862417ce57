package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-app/internal/platform/obs"
	"github.com/i474232898/weather-app/internal/weather"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 endpoint.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// WeatherAPIConfig configures a WeatherAPIProvider.
type WeatherAPIConfig struct {
	APIKey  string
	BaseURL string  // defaults to DefaultWeatherAPIBaseURL
	RPS     float64 // <= 0 disables client-side limiting
	Burst   int
}

// WeatherAPIProvider implements weather.Provider and weather.Geocoder for
// WeatherAPI.com (forecast.json and search.json).
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig

	// one breaker per endpoint so failing lookups never block forecasts
	forecastCircuit *gobreaker.CircuitBreaker
	searchCircuit   *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, cfg WeatherAPIConfig) *WeatherAPIProvider {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultWeatherAPIBaseURL
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  cfg.APIKey,
		baseURL: base,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Limiter: limiter,
		},
		forecastCircuit: newBreaker("weatherapi.forecast"),
		searchCircuit:   newBreaker("weatherapi.search"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Forecast fetches current conditions plus a days-day forecast for query.
func (p *WeatherAPIProvider) Forecast(ctx context.Context, query string, days int) (_ weather.Snapshot, err error) {
	defer obs.Time(ctx, "weatherapi.forecast")(&err)

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", query)
	values.Set("days", strconv.Itoa(days))
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	u, err := buildURL(p.baseURL, "/forecast.json", values)
	if err != nil {
		return weather.Snapshot{}, err
	}

	body, err := doGet(ctx, p.httpCfg, p.forecastCircuit, u)
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload forecastResponse
	if err := decodeValidated(body, &payload); err != nil {
		return weather.Snapshot{}, err
	}
	return payload.toSnapshot(), nil
}

// Search resolves partial text through search.json. Each suggestion gets a
// fresh local identifier.
func (p *WeatherAPIProvider) Search(ctx context.Context, query string) (_ []weather.LocationSuggestion, err error) {
	defer obs.Time(ctx, "weatherapi.search")(&err)

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", query)

	u, err := buildURL(p.baseURL, "/search.json", values)
	if err != nil {
		return nil, err
	}

	body, err := doGet(ctx, p.httpCfg, p.searchCircuit, u)
	if err != nil {
		return nil, err
	}

	var payload searchResponse
	if err := decodeValidated(body, &payload); err != nil {
		return nil, err
	}

	out := make([]weather.LocationSuggestion, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, weather.NewSuggestion(r.Name, r.Region, r.Country, r.Lat, r.Lon))
	}
	return out, nil
}

// Wire format of forecast.json. Only the fields the app uses are listed;
// validate tags define what a conforming body must carry.
type forecastResponse struct {
	Location struct {
		Name           string  `json:"name" validate:"required"`
		Region         string  `json:"region"`
		Country        string  `json:"country" validate:"required"`
		Lat            float64 `json:"lat" validate:"latitude"`
		Lon            float64 `json:"lon" validate:"longitude"`
		TzID           string  `json:"tz_id"`
		LocaltimeEpoch int64   `json:"localtime_epoch"`
		Localtime      string  `json:"localtime"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64        `json:"last_updated_epoch"`
		TempC            float64      `json:"temp_c"`
		FeelslikeC       float64      `json:"feelslike_c"`
		Humidity         int          `json:"humidity" validate:"min=0,max=100"`
		WindKph          float64      `json:"wind_kph"`
		WindDir          string       `json:"wind_dir"`
		WindDegree       int          `json:"wind_degree"`
		UV               float64      `json:"uv"`
		IsDay            int          `json:"is_day"`
		Condition        apiCondition `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []apiForecastDay `json:"forecastday" validate:"min=1,dive"`
	} `json:"forecast"`
}

type apiCondition struct {
	Text string `json:"text" validate:"required"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type apiForecastDay struct {
	Date      string `json:"date" validate:"required"`
	DateEpoch int64  `json:"date_epoch"`
	Day       struct {
		MaxtempC          float64      `json:"maxtemp_c"`
		MintempC          float64      `json:"mintemp_c"`
		AvgtempC          float64      `json:"avgtemp_c"`
		DailyChanceOfRain int          `json:"daily_chance_of_rain"`
		Condition         apiCondition `json:"condition"`
	} `json:"day"`
	Hour []apiHour `json:"hour" validate:"dive"`
}

type apiHour struct {
	TimeEpoch    int64        `json:"time_epoch"`
	Time         string       `json:"time" validate:"required"`
	TempC        float64      `json:"temp_c"`
	FeelslikeC   float64      `json:"feelslike_c"`
	Humidity     int          `json:"humidity"`
	WindKph      float64      `json:"wind_kph"`
	WindDir      string       `json:"wind_dir"`
	WindDegree   int          `json:"wind_degree"`
	UV           float64      `json:"uv"`
	IsDay        int          `json:"is_day"`
	ChanceOfRain int          `json:"chance_of_rain"`
	Condition    apiCondition `json:"condition"`
}

// searchResponse wraps the top-level array of search.json so it can be
// validated as a struct.
type searchResponse struct {
	Results []struct {
		ID      int     `json:"id"`
		Name    string  `json:"name" validate:"required"`
		Region  string  `json:"region"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat" validate:"latitude"`
		Lon     float64 `json:"lon" validate:"longitude"`
		URL     string  `json:"url"`
	} `validate:"dive"`
}

func (r *searchResponse) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Results)
}

func (c apiCondition) toCondition() weather.Condition {
	return weather.Condition{Text: c.Text, Icon: c.Icon, Code: c.Code}
}

func (r forecastResponse) toSnapshot() weather.Snapshot {
	loc := r.Location
	cur := r.Current

	snap := weather.Snapshot{
		Location: weather.Location{
			Name:           loc.Name,
			Region:         loc.Region,
			Country:        loc.Country,
			Lat:            loc.Lat,
			Lon:            loc.Lon,
			TimezoneID:     loc.TzID,
			LocalTimeEpoch: loc.LocaltimeEpoch,
			LocalTime:      loc.Localtime,
		},
		Current: weather.Current{
			LastUpdatedEpoch: cur.LastUpdatedEpoch,
			TempC:            cur.TempC,
			FeelsLikeC:       cur.FeelslikeC,
			Humidity:         cur.Humidity,
			WindKph:          cur.WindKph,
			WindDir:          cur.WindDir,
			WindDegree:       cur.WindDegree,
			UV:               cur.UV,
			IsDay:            cur.IsDay == 1,
			Condition:        cur.Condition.toCondition(),
		},
		Forecast: make([]weather.ForecastDay, 0, len(r.Forecast.ForecastDay)),
	}

	for _, fd := range r.Forecast.ForecastDay {
		day := weather.ForecastDay{
			Date:      fd.Date,
			DateEpoch: fd.DateEpoch,
			Day: weather.Day{
				MaxTempC:     fd.Day.MaxtempC,
				MinTempC:     fd.Day.MintempC,
				AvgTempC:     fd.Day.AvgtempC,
				ChanceOfRain: fd.Day.DailyChanceOfRain,
				Condition:    fd.Day.Condition.toCondition(),
			},
			Hours: make([]weather.Hour, 0, len(fd.Hour)),
		}
		for _, h := range fd.Hour {
			day.Hours = append(day.Hours, weather.Hour{
				TimeEpoch:    h.TimeEpoch,
				Time:         h.Time,
				TempC:        h.TempC,
				FeelsLikeC:   h.FeelslikeC,
				Humidity:     h.Humidity,
				WindKph:      h.WindKph,
				WindDir:      h.WindDir,
				WindDegree:   h.WindDegree,
				UV:           h.UV,
				IsDay:        h.IsDay == 1,
				ChanceOfRain: h.ChanceOfRain,
				Condition:    h.Condition.toCondition(),
			})
		}
		snap.Forecast = append(snap.Forecast, day)
	}

	return snap
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dayeon-k/weather-lookup/internal/weather"
)

// DefaultBaseURL is the OpenWeather 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Config carries the upstream settings for the OpenWeather client.
type Config struct {
	APIKey     string
	BaseURL    string // defaults to DefaultBaseURL
	Lang       string // language for condition descriptions
	MaxRetries int
}

// OpenWeatherClient implements weather.Provider against the OpenWeather API.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, cfg Config) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		lang:    cfg.Lang,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (c *OpenWeatherClient) Name() string {
	return c.name
}

// get issues one resilient GET against the named endpoint and decodes the
// body into out. Decode failures are invalid-response errors; everything
// transport-level is already wrapped by doRequestWithResilience.
func (c *OpenWeatherClient) get(ctx context.Context, endpoint string, loc weather.LocationQuery, units weather.UnitSystem, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: openweather api key is not configured", weather.ErrUpstreamUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", string(units))
		if c.lang != "" {
			values.Set("lang", c.lang)
		}

		if loc.IsCoordinate() {
			values.Set("lat", strconv.FormatFloat(*loc.Lat, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(*loc.Lon, 'f', -1, 64))
		} else {
			q := loc.City
			if loc.Country != "" {
				q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
			}
			values.Set("q", q)
		}

		u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrInvalidResponse, err)
	}
	return nil
}

// CurrentWeather fetches current conditions for the location.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, loc weather.LocationQuery, units weather.UnitSystem) (weather.CurrentConditions, error) {
	var payload struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Dt      int64 `json:"dt"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   *int    `json:"deg"`
		} `json:"wind"`
		Visibility *int `json:"visibility"`
		Coord      struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	}

	if err := c.get(ctx, "weather", loc, units, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	if len(payload.Weather) == 0 {
		return weather.CurrentConditions{}, fmt.Errorf("%w: missing weather block", weather.ErrInvalidResponse)
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	return weather.CurrentConditions{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Timestamp:   ts,
		Condition:   payload.Weather[0].Main,
		Description: payload.Weather[0].Description,
		Icon:        payload.Weather[0].Icon,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		WindDeg:     payload.Wind.Deg,
		Visibility:  payload.Visibility,
		Lat:         payload.Coord.Lat,
		Lon:         payload.Coord.Lon,
	}, nil
}

// forecastPeriod is one 3-hour slot from the upstream forecast list.
type forecastPeriod struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Pop float64 `json:"pop"`
}

// Forecast fetches the 3-hourly forecast and folds it into daily entries.
// Fewer aggregated days than requested is treated as an invalid response;
// partial forecasts are not surfaced.
func (c *OpenWeatherClient) Forecast(ctx context.Context, loc weather.LocationQuery, units weather.UnitSystem, days int) ([]weather.ForecastDay, error) {
	var payload struct {
		List []forecastPeriod `json:"list"`
	}

	if err := c.get(ctx, "forecast", loc, units, &payload); err != nil {
		return nil, err
	}

	if len(payload.List) == 0 {
		return nil, fmt.Errorf("%w: empty forecast list", weather.ErrInvalidResponse)
	}

	daily := aggregateDaily(payload.List)
	if len(daily) < days {
		return nil, fmt.Errorf("%w: upstream returned %d forecast days, wanted %d", weather.ErrInvalidResponse, len(daily), days)
	}

	return daily[:days], nil
}

// aggregateDaily groups 3-hour periods by UTC date and reduces each group:
// min/max/avg temperature, max precipitation probability, averaged humidity
// and wind, majority icon with its condition.
func aggregateDaily(periods []forecastPeriod) []weather.ForecastDay {
	type bucket struct {
		temps      []float64
		humidity   float64
		wind       float64
		maxPop     float64
		iconCounts map[string]int
		iconCond   map[string]string
	}

	buckets := make(map[string]*bucket)
	for _, p := range periods {
		date := time.Unix(p.Dt, 0).UTC().Format("2006-01-02")

		b, ok := buckets[date]
		if !ok {
			b = &bucket{
				iconCounts: make(map[string]int),
				iconCond:   make(map[string]string),
			}
			buckets[date] = b
		}

		b.temps = append(b.temps, p.Main.Temp)
		b.humidity += p.Main.Humidity
		b.wind += p.Wind.Speed
		if pop := p.Pop * 100; pop > b.maxPop {
			b.maxPop = pop
		}
		if len(p.Weather) > 0 {
			icon := p.Weather[0].Icon
			b.iconCounts[icon]++
			if _, seen := b.iconCond[icon]; !seen {
				b.iconCond[icon] = p.Weather[0].Main
			}
		}
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]weather.ForecastDay, 0, len(dates))
	for _, date := range dates {
		b := buckets[date]

		low, high, sum := b.temps[0], b.temps[0], 0.0
		for _, t := range b.temps {
			if t < low {
				low = t
			}
			if t > high {
				high = t
			}
			sum += t
		}
		n := float64(len(b.temps))

		bestIcon, bestCount := "", 0
		for icon, count := range b.iconCounts {
			if count > bestCount {
				bestCount = count
				bestIcon = icon
			}
		}

		out = append(out, weather.ForecastDay{
			Date:         date,
			HighTemp:     high,
			LowTemp:      low,
			AvgTemp:      sum / n,
			PrecipChance: b.maxPop,
			Condition:    b.iconCond[bestIcon],
			Icon:         bestIcon,
			AvgHumidity:  b.humidity / n,
			AvgWindSpeed: b.wind / n,
		})
	}

	return out
}

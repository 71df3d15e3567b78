package weather

import (
	"fmt"
	"time"
)

// UnitSystem selects the temperature scale for upstream requests and
// responses. Values match the upstream API's own vocabulary:
// metric is Celsius, imperial is Fahrenheit, standard is Kelvin.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
	UnitsStandard UnitSystem = "standard"
)

// ParseUnitSystem validates a raw unit selector. An empty string defaults
// to metric.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(s) {
	case "":
		return UnitsMetric, nil
	case UnitsMetric, UnitsImperial, UnitsStandard:
		return UnitSystem(s), nil
	}
	return "", fmt.Errorf("unknown unit system %q", s)
}

// TempSymbol returns the display symbol for the unit system.
func (u UnitSystem) TempSymbol() string {
	switch u {
	case UnitsImperial:
		return "°F"
	case UnitsStandard:
		return "K"
	default:
		return "°C"
	}
}

// LocationQuery is the canonical request descriptor produced by Normalize.
// It is one of two variants: a city name with an optional country code, or
// a coordinate pair. Lat/Lon are both set for the coordinate variant and
// both nil otherwise.
type LocationQuery struct {
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// IsCoordinate reports whether the query is the coordinate variant.
func (l LocationQuery) IsCoordinate() bool {
	return l.Lat != nil && l.Lon != nil
}

// Key returns a canonical string key for this location, used for caching
// and history. Coordinate queries are keyed by their numeric values so the
// same pair always maps to the same entry.
func (l LocationQuery) Key() string {
	if l.IsCoordinate() {
		return fmt.Sprintf("geo:%g,%g", *l.Lat, *l.Lon)
	}
	if l.Country != "" {
		return "q:" + l.City + "," + l.Country
	}
	return "q:" + l.City
}

// String renders the query the way a user would have typed it.
func (l LocationQuery) String() string {
	if l.IsCoordinate() {
		return fmt.Sprintf("%g,%g", *l.Lat, *l.Lon)
	}
	if l.Country != "" {
		return l.City + "," + l.Country
	}
	return l.City
}

// CurrentConditions is the normalized current-weather snapshot.
type CurrentConditions struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidityPercent"`
	Pressure    int       `json:"pressureHpa"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDeg     *int      `json:"windDeg,omitempty"`
	Visibility  *int      `json:"visibilityM,omitempty"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
}

// ForecastDay is one aggregated day of the forecast, built from the
// upstream's 3-hourly periods.
type ForecastDay struct {
	Date         string  `json:"date"` // YYYY-MM-DD, UTC
	HighTemp     float64 `json:"highTemp"`
	LowTemp      float64 `json:"lowTemp"`
	AvgTemp      float64 `json:"avgTemp"`
	PrecipChance float64 `json:"precipChancePercent"`
	Condition    string  `json:"condition"`
	Icon         string  `json:"icon"`
	AvgHumidity  float64 `json:"avgHumidityPercent"`
	AvgWindSpeed float64 `json:"avgWindSpeed"`
}

// WeatherData is the immutable snapshot returned to callers: current
// conditions plus an ordered multi-day forecast. The forecast length equals
// the requested day count.
type WeatherData struct {
	Units    UnitSystem        `json:"units"`
	TempUnit string            `json:"tempUnit"`
	Current  CurrentConditions `json:"current"`
	Forecast []ForecastDay     `json:"forecast"`
}

// Forecast day counts accepted by the service; the upstream free tier
// serves at most five days of 3-hourly periods.
const (
	MinForecastDays = 1
	MaxForecastDays = 5
)

package weather

import "context"

// Provider abstracts the upstream weather API.
type Provider interface {
	Name() string
	CurrentWeather(ctx context.Context, loc LocationQuery, units UnitSystem) (CurrentConditions, error)
	Forecast(ctx context.Context, loc LocationQuery, units UnitSystem, days int) ([]ForecastDay, error)
}

// Fetcher returns a full weather snapshot for a normalized query. The
// caching client satisfies this; the service depends on nothing more.
type Fetcher interface {
	Fetch(ctx context.Context, loc LocationQuery, units UnitSystem, days int) (WeatherData, error)
}

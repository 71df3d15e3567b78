package weather

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// HistoryRecorder receives one record per lookup attempt. Implemented by
// the storage layer; failures there must not fail the lookup.
type HistoryRecorder interface {
	AddSearch(query string, success bool) error
}

// Service ties normalization and the cached fetch together and records
// each lookup in the search history.
type Service struct {
	fetcher Fetcher
	history HistoryRecorder
	log     zerolog.Logger
}

// NewService creates a new Service. history may be nil.
func NewService(fetcher Fetcher, history HistoryRecorder, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		history: history,
		log:     log.With().Str("component", "weather-service").Logger(),
	}
}

// Lookup normalizes raw user input and returns current conditions plus a
// days-long forecast. Errors keep their sentinel identity so callers can
// dispatch on them.
func (s *Service) Lookup(ctx context.Context, raw string, units UnitSystem, days int) (WeatherData, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return WeatherData{}, fmt.Errorf("days must be between %d and %d", MinForecastDays, MaxForecastDays)
	}

	loc, err := Normalize(raw)
	if err != nil {
		s.log.Debug().Str("input", raw).Err(err).Msg("rejected location input")
		return WeatherData{}, err
	}

	data, err := s.fetcher.Fetch(ctx, loc, units, days)
	s.recordSearch(loc.String(), err == nil)
	if err != nil {
		s.log.Warn().Str("location", loc.Key()).Err(err).Msg("lookup failed")
		return WeatherData{}, err
	}

	return data, nil
}

// FetchLocation skips normalization for callers that already hold a
// LocationQuery, such as the cache warmer.
func (s *Service) FetchLocation(ctx context.Context, loc LocationQuery, units UnitSystem, days int) (WeatherData, error) {
	return s.fetcher.Fetch(ctx, loc, units, days)
}

func (s *Service) recordSearch(query string, success bool) {
	if s.history == nil {
		return
	}
	if err := s.history.AddSearch(query, success); err != nil {
		s.log.Warn().Err(err).Msg("failed to record search history")
	}
}

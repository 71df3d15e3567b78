// Package cache wraps a weather provider with an in-memory TTL cache and
// per-key request deduplication.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dayeon-k/weather-lookup/internal/weather"
)

// Key identifies one cached lookup: canonical location, unit system and
// forecast day count.
type Key string

// NewKey derives the deterministic cache key for a request.
func NewKey(loc weather.LocationQuery, units weather.UnitSystem, days int) Key {
	return Key(fmt.Sprintf("%s|%s|%d", loc.Key(), units, days))
}

// entry is one cached snapshot. Entries are replaced whole on refresh,
// never mutated.
type entry struct {
	data      weather.WeatherData
	fetchedAt time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
}

// Client serves weather snapshots from an in-memory cache, falling back to
// the wrapped provider on a miss. A fresh entry (age below TTL) is returned
// with no upstream call; concurrent misses for the same key share a single
// in-flight fetch.
type Client struct {
	provider   weather.Provider
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[Key]entry
	hits    int
	misses  int

	group singleflight.Group
	now   func() time.Time
	log   zerolog.Logger
}

// NewClient creates a caching client around provider. maxEntries <= 0 means
// unbounded.
func NewClient(provider weather.Provider, ttl time.Duration, maxEntries int, log zerolog.Logger) *Client {
	return &Client{
		provider:   provider,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[Key]entry),
		now:        time.Now,
		log:        log.With().Str("component", "weather-cache").Logger(),
	}
}

// Fetch returns the weather snapshot for the request, serving from cache
// when a fresh entry exists. On a miss it performs one current-conditions
// call and one forecast call, stores the result, and returns it. Failed
// fetches leave the cache untouched.
func (c *Client) Fetch(ctx context.Context, loc weather.LocationQuery, units weather.UnitSystem, days int) (weather.WeatherData, error) {
	key := NewKey(loc, units, days)

	if data, ok := c.lookup(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		// A concurrent flight may have populated the entry while this
		// caller waited on the singleflight lock.
		if data, ok := c.peek(key); ok {
			return data, nil
		}

		data, err := c.fetchUpstream(ctx, loc, units, days)
		if err != nil {
			return nil, err
		}

		c.store(key, data)
		return data, nil
	})
	if err != nil {
		return weather.WeatherData{}, err
	}

	return v.(weather.WeatherData), nil
}

// Stats returns hit/miss counters and the current entry count.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

func (c *Client) fetchUpstream(ctx context.Context, loc weather.LocationQuery, units weather.UnitSystem, days int) (weather.WeatherData, error) {
	c.log.Debug().Str("location", loc.Key()).Str("units", string(units)).Int("days", days).Msg("cache miss, fetching upstream")

	current, err := c.provider.CurrentWeather(ctx, loc, units)
	if err != nil {
		return weather.WeatherData{}, err
	}

	forecast, err := c.provider.Forecast(ctx, loc, units, days)
	if err != nil {
		return weather.WeatherData{}, err
	}

	return weather.WeatherData{
		Units:    units,
		TempUnit: units.TempSymbol(),
		Current:  current,
		Forecast: forecast,
	}, nil
}

// lookup returns a fresh entry for key, if any, and counts the outcome.
func (c *Client) lookup(key Key) (weather.WeatherData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.hits++
		return e.data, true
	}
	c.misses++
	return weather.WeatherData{}, false
}

// peek is lookup without touching the counters, used for the re-check
// inside a single flight.
func (c *Client) peek(key Key) (weather.WeatherData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.data, true
	}
	return weather.WeatherData{}, false
}

// store replaces the entry for key and enforces the entry bound by
// evicting the least recently fetched entries.
func (c *Client) store(key Key, data weather.WeatherData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, fetchedAt: c.now()}

	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		var oldest Key
		var oldestAt time.Time
		first := true
		for k, e := range c.entries {
			if first || e.fetchedAt.Before(oldestAt) {
				oldest, oldestAt, first = k, e.fetchedAt, false
			}
		}
		delete(c.entries, oldest)
	}
}

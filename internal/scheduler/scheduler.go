// Package scheduler keeps cache entries for favorite locations warm by
// refreshing them on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/dayeon-k/weather-lookup/internal/storage"
	"github.com/dayeon-k/weather-lookup/internal/weather"
)

// FavoriteSource lists the locations worth keeping warm.
type FavoriteSource interface {
	Favorites() ([]storage.Favorite, error)
}

// Warmer periodically re-fetches weather for every favorite so interactive
// lookups hit a fresh cache.
type Warmer struct {
	scheduler    *gocron.Scheduler
	service      *weather.Service
	favorites    FavoriteSource
	defaultQuery string
	interval     time.Duration
	log          zerolog.Logger
}

// New creates a new Warmer. defaultQuery is refreshed when no favorites
// exist yet; empty disables the fallback.
func New(favorites FavoriteSource, defaultQuery string, interval time.Duration, service *weather.Service, log zerolog.Logger) *Warmer {
	return &Warmer{
		scheduler:    gocron.NewScheduler(time.UTC),
		service:      service,
		favorites:    favorites,
		defaultQuery: defaultQuery,
		interval:     interval,
		log:          log.With().Str("component", "cache-warmer").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (w *Warmer) Start() error {
	minutes := int(w.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := w.scheduler.Every(minutes).Minutes().Do(w.refreshAll)
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

func (w *Warmer) refreshAll() {
	favs, err := w.favorites.Favorites()
	if err != nil {
		w.log.Warn().Err(err).Msg("cannot list favorites")
		return
	}

	queries := make([]string, 0, len(favs))
	for _, fav := range favs {
		queries = append(queries, fav.Query)
	}
	if len(queries) == 0 && w.defaultQuery != "" {
		queries = append(queries, w.defaultQuery)
	}
	if len(queries) == 0 {
		return
	}

	w.log.Debug().Int("locations", len(queries)).Msg("refreshing cached locations")

	var wg sync.WaitGroup
	for _, query := range queries {
		query := query
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			loc, err := weather.Normalize(query)
			if err != nil {
				w.log.Warn().Str("query", query).Err(err).Msg("stored query no longer parses")
				return
			}

			if _, err := w.service.FetchLocation(ctx, loc, weather.UnitsMetric, weather.MaxForecastDays); err != nil {
				w.log.Warn().Str("query", query).Err(err).Msg("refresh failed")
			}
		}()
	}
	wg.Wait()
}

// Package storage persists favorites, search history and saved weather
// records as JSON files under a data directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dayeon-k/weather-lookup/internal/weather"
)

const (
	favoritesFile = "favorites.json"
	historyFile   = "search_history.json"
	recordsFile   = "saved_weather.json"

	maxHistory = 50
	maxRecords = 100
)

// ErrNotFound is returned when a favorite or record id does not exist.
var ErrNotFound = errors.New("not found")

// Favorite is a named location the user wants quick access to.
type Favorite struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Query   string    `json:"query"`
	AddedAt time.Time `json:"addedAt"`
}

// SearchRecord is one entry in the lookup history, newest first.
type SearchRecord struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// SavedRecord is a weather snapshot the user chose to keep, with an
// optional note.
type SavedRecord struct {
	ID       string              `json:"id"`
	Location string              `json:"location"`
	SavedAt  time.Time           `json:"savedAt"`
	Note     string              `json:"note,omitempty"`
	Data     weather.WeatherData `json:"data"`
}

// Store is a mutex-guarded JSON-file store. Files are rewritten whole on
// each mutation; corrupt or missing files load as empty lists.
type Store struct {
	dir string
	mu  sync.Mutex
	log zerolog.Logger
}

// NewStore creates the data directory if needed and returns a Store.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "storage").Logger(),
	}, nil
}

// Favorites returns all favorites in insertion order.
func (s *Store) Favorites() ([]Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []Favorite
	s.load(favoritesFile, &favs)
	return favs, nil
}

// AddFavorite stores a new favorite. Queries are deduplicated
// case-insensitively; adding an existing query is a no-op that returns the
// existing favorite.
func (s *Store) AddFavorite(name, query string) (Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []Favorite
	s.load(favoritesFile, &favs)

	for _, f := range favs {
		if strings.EqualFold(f.Query, query) {
			return f, nil
		}
	}

	fav := Favorite{
		ID:      uuid.NewString(),
		Name:    name,
		Query:   query,
		AddedAt: time.Now().UTC(),
	}
	favs = append(favs, fav)

	if err := s.save(favoritesFile, favs); err != nil {
		return Favorite{}, err
	}
	return fav, nil
}

// RemoveFavorite deletes a favorite by id.
func (s *Store) RemoveFavorite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []Favorite
	s.load(favoritesFile, &favs)

	kept := favs[:0]
	for _, f := range favs {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(favs) {
		return ErrNotFound
	}
	return s.save(favoritesFile, kept)
}

// IsFavorite reports whether a query is already stored, case-insensitively.
func (s *Store) IsFavorite(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []Favorite
	s.load(favoritesFile, &favs)
	for _, f := range favs {
		if strings.EqualFold(f.Query, query) {
			return true
		}
	}
	return false
}

// AddSearch prepends a history entry, collapsing duplicates of the same
// query and trimming the list to its bound.
func (s *Store) AddSearch(query string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []SearchRecord
	s.load(historyFile, &history)

	kept := make([]SearchRecord, 0, len(history)+1)
	kept = append(kept, SearchRecord{
		Query:     query,
		Timestamp: time.Now().UTC(),
		Success:   success,
	})
	for _, h := range history {
		if !strings.EqualFold(h.Query, query) {
			kept = append(kept, h)
		}
	}
	if len(kept) > maxHistory {
		kept = kept[:maxHistory]
	}

	return s.save(historyFile, kept)
}

// History returns up to limit history entries, newest first. limit <= 0
// means all.
func (s *Store) History(limit int) ([]SearchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []SearchRecord
	s.load(historyFile, &history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// ClearHistory drops all history entries.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(historyFile, []SearchRecord{})
}

// SaveRecord prepends a saved weather record and trims the list to its
// bound.
func (s *Store) SaveRecord(location, note string, data weather.WeatherData) (SavedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []SavedRecord
	s.load(recordsFile, &records)

	rec := SavedRecord{
		ID:       uuid.NewString(),
		Location: location,
		SavedAt:  time.Now().UTC(),
		Note:     note,
		Data:     data,
	}

	kept := make([]SavedRecord, 0, len(records)+1)
	kept = append(kept, rec)
	kept = append(kept, records...)
	if len(kept) > maxRecords {
		kept = kept[:maxRecords]
	}

	if err := s.save(recordsFile, kept); err != nil {
		return SavedRecord{}, err
	}
	return rec, nil
}

// Records returns all saved records, newest first.
func (s *Store) Records() ([]SavedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []SavedRecord
	s.load(recordsFile, &records)
	return records, nil
}

// DeleteRecord removes a saved record by id.
func (s *Store) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []SavedRecord
	s.load(recordsFile, &records)

	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return ErrNotFound
	}
	return s.save(recordsFile, kept)
}

// load reads a JSON file into out. Missing or corrupt files are logged and
// leave out untouched, so callers start from an empty list.
func (s *Store) load(name string, out interface{}) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Str("file", path).Err(err).Msg("failed to read storage file")
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn().Str("file", path).Err(err).Msg("corrupt storage file, starting empty")
	}
}

// save writes v to the named file via a temp file and rename, so a crash
// mid-write never leaves a truncated file behind.
func (s *Store) save(name string, v interface{}) error {
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

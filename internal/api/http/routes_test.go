package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayeon-k/weather-lookup/internal/storage"
	"github.com/dayeon-k/weather-lookup/internal/weather"
)

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, loc weather.LocationQuery, units weather.UnitSystem, days int) (weather.WeatherData, error) {
	if f.err != nil {
		return weather.WeatherData{}, f.err
	}
	return weather.WeatherData{
		Units:    units,
		TempUnit: units.TempSymbol(),
		Current:  weather.CurrentConditions{City: loc.City, Temperature: 21.5},
		Forecast: make([]weather.ForecastDay, days),
	}, nil
}

func newTestApp(t *testing.T, fetcher weather.Fetcher) (*fiber.App, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	service := weather.NewService(fetcher, store, zerolog.Nop())

	app := fiber.New()
	RegisterRoutes(app, service, store)
	return app, store
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWeatherEndpointSuccess(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/weather?location=Seoul,KR&units=metric&days=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data weather.WeatherData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.Equal(t, "Seoul", data.Current.City)
	assert.Len(t, data.Forecast, 3)
	assert.Equal(t, "°C", data.TempUnit)
}

func TestWeatherEndpointDefaultsUnitsAndDays(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/weather?location=Seoul", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data weather.WeatherData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.Equal(t, weather.UnitsMetric, data.Units)
	assert.Len(t, data.Forecast, weather.MaxForecastDays)
}

func TestWeatherEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{})

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing location", target: "/api/v1/weather"},
		{name: "days above range", target: "/api/v1/weather?location=Seoul&days=8"},
		{name: "days below range", target: "/api/v1/weather?location=Seoul&days=0"},
		{name: "unknown units", target: "/api/v1/weather?location=Seoul&units=parsecs"},
		{name: "latitude out of range", target: "/api/v1/weather?location=91,0"},
		{name: "empty city with country", target: "/api/v1/weather?location=,KR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestWeatherEndpointUpstreamFailure(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{err: fmt.Errorf("%w: status 503", weather.ErrUpstreamUnavailable)})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/weather?location=Seoul,KR", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWeatherEndpointInvalidUpstreamPayload(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{err: fmt.Errorf("%w: truncated body", weather.ErrInvalidResponse)})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/weather?location=Seoul,KR", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLookupsAreRecordedInHistory(t *testing.T) {
	app, store := newTestApp(t, &stubFetcher{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/weather?location=Seoul,KR", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history, err := store.History(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Seoul,KR", history[0].Query)
	assert.True(t, history[0].Success)
}

func TestFavoritesEndpoints(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{})

	// A query that cannot be normalized is rejected up front.
	resp := doRequest(t, app, http.MethodPost, "/api/v1/favorites", favoriteBody{Name: "Broken", Query: ",KR"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/favorites", favoriteBody{Name: "Home", Query: "Seoul,KR"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var fav storage.Favorite
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fav))
	assert.NotEmpty(t, fav.ID)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/favorites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Favorites []storage.Favorite `json:"favorites"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Len(t, listing.Favorites, 1)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/favorites/"+fav.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/favorites/"+fav.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryEndpoints(t *testing.T) {
	app, store := newTestApp(t, &stubFetcher{})

	require.NoError(t, store.AddSearch("Seoul,KR", true))
	require.NoError(t, store.AddSearch("Busan,KR", false))

	resp := doRequest(t, app, http.MethodGet, "/api/v1/history?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		History []storage.SearchRecord `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.History, 1)
	assert.Equal(t, "Busan,KR", listing.History[0].Query)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/history", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	history, err := store.History(0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordsEndpoints(t *testing.T) {
	app, _ := newTestApp(t, &stubFetcher{})

	resp := doRequest(t, app, http.MethodPost, "/api/v1/records", recordBody{Location: "Seoul,KR", Note: "first snow"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec storage.SavedRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "first snow", rec.Note)
	assert.Equal(t, "Seoul", rec.Data.Current.City)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/records", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Records []storage.SavedRecord `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Len(t, listing.Records, 1)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/records/"+rec.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRecordsEndpointUpstreamFailureDoesNotSave(t *testing.T) {
	app, store := newTestApp(t, &stubFetcher{err: fmt.Errorf("%w: down", weather.ErrUpstreamUnavailable)})

	resp := doRequest(t, app, http.MethodPost, "/api/v1/records", recordBody{Location: "Seoul,KR"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	records, err := store.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

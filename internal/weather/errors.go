package weather

import "errors"

// Sentinel errors for the lookup pipeline. Callers dispatch with errors.Is;
// wrapped messages carry the detail.
var (
	// ErrInvalidLocation marks empty or unparseable location input.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidCoordinate marks a coordinate pair outside the valid
	// latitude/longitude ranges.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrUpstreamUnavailable marks network failures, timeouts and
	// non-2xx responses from the weather API.
	ErrUpstreamUnavailable = errors.New("weather upstream unavailable")

	// ErrInvalidResponse marks an upstream payload that could not be
	// decoded into weather data.
	ErrInvalidResponse = errors.New("invalid upstream response")
)

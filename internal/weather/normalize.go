package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts raw user input into a canonical LocationQuery.
//
// Input that parses as two comma- or space-separated numbers becomes the
// coordinate variant, range-checked to lat in [-90,90] and lon in
// [-180,180]. Anything else is treated as a city specifier of the form
// "City" or "City,CC"; the country code is upper-cased.
//
// Normalize is pure: no I/O, deterministic, safe for concurrent use.
func Normalize(raw string) (LocationQuery, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LocationQuery{}, fmt.Errorf("%w: empty input", ErrInvalidLocation)
	}

	if lat, lon, ok := splitCoordinates(raw); ok {
		if lat < -90 || lat > 90 {
			return LocationQuery{}, fmt.Errorf("%w: latitude %g not in [-90,90]", ErrInvalidCoordinate, lat)
		}
		if lon < -180 || lon > 180 {
			return LocationQuery{}, fmt.Errorf("%w: longitude %g not in [-180,180]", ErrInvalidCoordinate, lon)
		}
		return LocationQuery{Lat: &lat, Lon: &lon}, nil
	}

	city, country := raw, ""
	if i := strings.Index(raw, ","); i >= 0 {
		city = strings.TrimSpace(raw[:i])
		country = strings.ToUpper(strings.TrimSpace(raw[i+1:]))
	}
	if city == "" {
		return LocationQuery{}, fmt.Errorf("%w: empty city name", ErrInvalidLocation)
	}

	return LocationQuery{City: city, Country: country}, nil
}

// splitCoordinates tries to read the input as "<lat>,<lon>" or
// "<lat> <lon>". Both halves must be plain floating point numbers;
// otherwise the input falls through to city parsing.
func splitCoordinates(s string) (lat, lon float64, ok bool) {
	sep := ","
	if !strings.Contains(s, ",") {
		sep = " "
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

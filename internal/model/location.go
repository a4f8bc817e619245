package model

import "math"

// Coordinate is a validated geographic position
type Coordinate struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy,omitempty"` // metres, 0 if unknown
}

// RawCoordinate is the wire shape of an unvalidated position payload.
// Pointers distinguish absent fields from zero values.
type RawCoordinate struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// ParseCoordinate validates a raw position payload. It returns either a
// fully-populated Coordinate or an error, never a partial value.
func ParseCoordinate(raw RawCoordinate) (Coordinate, error) {
	if raw.Lat == nil || raw.Lon == nil {
		return Coordinate{}, ErrMalformedLocation
	}
	lat, lon := *raw.Lat, *raw.Lon
	if !isFinite(lat) || !isFinite(lon) {
		return Coordinate{}, ErrMalformedLocation
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinate{}, ErrMalformedLocation
	}

	c := Coordinate{Lat: lat, Lon: lon}
	if raw.Accuracy != nil {
		if !isFinite(*raw.Accuracy) || *raw.Accuracy < 0 {
			return Coordinate{}, ErrMalformedLocation
		}
		c.Accuracy = *raw.Accuracy
	}
	return c, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

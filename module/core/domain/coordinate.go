package domain

import (
	"fmt"
	"math"

	"github.com/chalosafe/safezone/module/core/geo"
)

type Coordinate struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lon float64 `json:"longitude" yaml:"longitude"`
}

// Validate rejects NaN and out-of-range coordinates with ErrInvalidPosition.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidPosition, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidPosition, c.Lon)
	}
	return nil
}

func (c Coordinate) Point() geo.Point {
	return geo.Point{Lat: c.Lat, Lon: c.Lon}
}

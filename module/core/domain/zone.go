package domain

import (
	"encoding/json"
	"fmt"

	"github.com/chalosafe/safezone/module/core/geo"
)

type Classification string

const (
	ClassificationSafe     Classification = "safe"
	ClassificationCaution  Classification = "caution"
	ClassificationDanger   Classification = "danger"
	ClassificationGeofence Classification = "geofence"
)

// ParseClassification accepts the canonical names plus "geofence-restricted".
func ParseClassification(s string) (Classification, error) {
	switch Classification(s) {
	case ClassificationSafe, ClassificationCaution, ClassificationDanger, ClassificationGeofence:
		return Classification(s), nil
	case "geofence-restricted", "restricted":
		return ClassificationGeofence, nil
	}
	return "", fmt.Errorf("unknown zone classification %q", s)
}

// AlertWorthy reports whether entering a zone of this class raises an alert.
func (c Classification) AlertWorthy() bool {
	return c == ClassificationCaution || c == ClassificationDanger || c == ClassificationGeofence
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown alert level %q", s)
}

type GeometryType string

const (
	GeometryCircle  GeometryType = "circle"
	GeometryPolygon GeometryType = "polygon"
)

// Geometry is either a circle (Center + Radius in meters) or a polygon
// (Points, ordered). A polygon may repeat its first point at the end.
type Geometry struct {
	Type   GeometryType `json:"type"`
	Center Coordinate   `json:"center"`
	Radius float64      `json:"radius,omitempty"`
	Points []Coordinate `json:"points,omitempty"`
}

// MarshalJSON writes center and radius only for circles.
func (g Geometry) MarshalJSON() ([]byte, error) {
	out := struct {
		Type   GeometryType `json:"type"`
		Center *Coordinate  `json:"center,omitempty"`
		Radius float64      `json:"radius,omitempty"`
		Points []Coordinate `json:"points,omitempty"`
	}{Type: g.Type, Points: g.Points}
	if g.Type == GeometryCircle {
		center := g.Center
		out.Center = &center
		out.Radius = g.Radius
	}
	return json.Marshal(out)
}

type Zone struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Classification Classification `json:"classification"`
	AlertLevel     Severity       `json:"alert_level"`
	Geometry       Geometry       `json:"geometry"`

	ring []geo.Point
}

// Validate checks identity, classification and geometry. Geometry problems
// wrap ErrInvalidZoneGeometry.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("%w: zone id is required", ErrInvalidZoneGeometry)
	}
	if _, err := ParseClassification(string(z.Classification)); err != nil {
		return fmt.Errorf("zone %s: %w: %v", z.ID, ErrInvalidZoneGeometry, err)
	}
	if _, err := ParseSeverity(string(z.AlertLevel)); err != nil {
		return fmt.Errorf("zone %s: %w: %v", z.ID, ErrInvalidZoneGeometry, err)
	}

	switch z.Geometry.Type {
	case GeometryCircle:
		if err := z.Geometry.Center.Validate(); err != nil {
			return fmt.Errorf("zone %s: %w: center: %v", z.ID, ErrInvalidZoneGeometry, err)
		}
		if !(z.Geometry.Radius > 0) {
			return fmt.Errorf("zone %s: %w: radius must be positive, got %v", z.ID, ErrInvalidZoneGeometry, z.Geometry.Radius)
		}
	case GeometryPolygon:
		for i, p := range z.Geometry.Points {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("zone %s: %w: point %d: %v", z.ID, ErrInvalidZoneGeometry, i, err)
			}
		}
		ring := toRing(z.Geometry.Points)
		if len(ring) < 3 {
			return fmt.Errorf("zone %s: %w: polygon needs at least 3 distinct points, got %d", z.ID, ErrInvalidZoneGeometry, len(ring))
		}
		if !geo.IsSimple(ring) {
			return fmt.Errorf("zone %s: %w: polygon is degenerate or self-intersecting", z.ID, ErrInvalidZoneGeometry)
		}
	default:
		return fmt.Errorf("zone %s: %w: unknown geometry type %q", z.ID, ErrInvalidZoneGeometry, z.Geometry.Type)
	}
	return nil
}

// Contains is a pure function of the zone geometry and c.
func (z *Zone) Contains(c Coordinate) bool {
	switch z.Geometry.Type {
	case GeometryCircle:
		return geo.InCircle(c.Point(), z.Geometry.Center.Point(), z.Geometry.Radius)
	case GeometryPolygon:
		ring := z.ring
		if ring == nil {
			ring = toRing(z.Geometry.Points)
		}
		return geo.InPolygon(c.Point(), ring)
	}
	return false
}

// Prepare normalizes classification aliases and caches the polygon ring.
// Zones held by the registry are prepared once at load time and never mutated
// afterwards.
func (z *Zone) Prepare() {
	if c, err := ParseClassification(string(z.Classification)); err == nil {
		z.Classification = c
	}
	if z.Geometry.Type == GeometryPolygon {
		z.ring = toRing(z.Geometry.Points)
	}
}

// toRing converts points to an open ring, dropping a closing point that
// repeats the first.
func toRing(points []Coordinate) []geo.Point {
	if n := len(points); n > 1 && points[0] == points[n-1] {
		points = points[:n-1]
	}
	ring := make([]geo.Point, len(points))
	for i, p := range points {
		ring[i] = p.Point()
	}
	return ring
}

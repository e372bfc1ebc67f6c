package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
)

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func restrictedForest() domain.Zone {
	return domain.Zone{
		ID:             "restricted-forest",
		Name:           "RestrictedForest",
		Classification: domain.ClassificationDanger,
		AlertLevel:     domain.SeverityHigh,
		Geometry: domain.Geometry{
			Type:   domain.GeometryCircle,
			Center: domain.Coordinate{Lat: 12.9000, Lon: 77.5000},
			Radius: 500,
		},
	}
}

func circleZone(id string, class domain.Classification, level domain.Severity, lat, lon, radius float64) domain.Zone {
	return domain.Zone{
		ID:             id,
		Name:           id,
		Classification: class,
		AlertLevel:     level,
		Geometry: domain.Geometry{
			Type:   domain.GeometryCircle,
			Center: domain.Coordinate{Lat: lat, Lon: lon},
			Radius: radius,
		},
	}
}

func triangleZone() domain.Zone {
	return domain.Zone{
		ID:             "triangle",
		Name:           "Triangle",
		Classification: domain.ClassificationCaution,
		AlertLevel:     domain.SeverityMedium,
		Geometry: domain.Geometry{
			Type: domain.GeometryPolygon,
			Points: []domain.Coordinate{
				{Lat: 0, Lon: 0},
				{Lat: 0, Lon: 10},
				{Lat: 10, Lon: 0},
			},
		},
	}
}

func newRegistry(t *testing.T, zones ...domain.Zone) *ZoneRegistry {
	t.Helper()
	r := NewZoneRegistry(zap.NewNop())
	require.Empty(t, r.LoadZones(zones))
	return r
}

func at(offset time.Duration) time.Time {
	return baseTime.Add(offset)
}

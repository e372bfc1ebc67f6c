package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chalosafe/safezone/module/core/domain"
)

type zoneDocument struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description"`
	Classification string        `yaml:"classification"`
	AlertLevel     string        `yaml:"alert_level"`
	Geometry       geometryEntry `yaml:"geometry"`
}

type geometryEntry struct {
	Type   string              `yaml:"type"`
	Center domain.Coordinate   `yaml:"center"`
	Radius float64             `yaml:"radius"`
	Points []domain.Coordinate `yaml:"points"`
}

// LoadZones reads a zone document from path. JSON documents parse too, since
// JSON is a subset of YAML. Zones are returned unvalidated; the registry
// decides which to accept.
func LoadZones(path string) ([]domain.Zone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	return ParseZones(raw)
}

func ParseZones(raw []byte) ([]domain.Zone, error) {
	var doc zoneDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	zones := make([]domain.Zone, 0, len(doc.Zones))
	for _, e := range doc.Zones {
		zones = append(zones, domain.Zone{
			ID:             e.ID,
			Name:           e.Name,
			Description:    e.Description,
			Classification: domain.Classification(e.Classification),
			AlertLevel:     domain.Severity(e.AlertLevel),
			Geometry: domain.Geometry{
				Type:   domain.GeometryType(e.Geometry.Type),
				Center: e.Geometry.Center,
				Radius: e.Geometry.Radius,
				Points: e.Geometry.Points,
			},
		})
	}
	return zones, nil
}

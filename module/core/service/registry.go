package service

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
)

type zoneSet struct {
	zones []domain.Zone
	byID  map[string]int
}

// ZoneRegistry holds the active zone set. LoadZones swaps in a new immutable
// snapshot, so evaluators read it without locking.
type ZoneRegistry struct {
	current atomic.Pointer[zoneSet]
	logger  *zap.Logger
}

func NewZoneRegistry(logger *zap.Logger) *ZoneRegistry {
	r := &ZoneRegistry{logger: logger}
	r.current.Store(&zoneSet{byID: map[string]int{}})
	return r
}

// LoadZones replaces the active set with every valid zone in zones. Each
// rejected zone is reported in the returned slice; the rest still load.
func (r *ZoneRegistry) LoadZones(zones []domain.Zone) []error {
	var errs []error
	next := &zoneSet{
		zones: make([]domain.Zone, 0, len(zones)),
		byID:  make(map[string]int, len(zones)),
	}

	for _, z := range zones {
		if err := z.Validate(); err != nil {
			errs = append(errs, err)
			r.logger.Warn("zone rejected", zap.String("zone_id", z.ID), zap.Error(err))
			continue
		}
		if _, dup := next.byID[z.ID]; dup {
			err := fmt.Errorf("zone %s: %w: duplicate zone id", z.ID, domain.ErrInvalidZoneGeometry)
			errs = append(errs, err)
			r.logger.Warn("zone rejected", zap.String("zone_id", z.ID), zap.Error(err))
			continue
		}
		z.Geometry.Points = append([]domain.Coordinate(nil), z.Geometry.Points...)
		z.Prepare()
		next.byID[z.ID] = len(next.zones)
		next.zones = append(next.zones, z)
	}

	r.current.Store(next)
	r.logger.Info("zones loaded", zap.Int("accepted", len(next.zones)), zap.Int("rejected", len(errs)))
	return errs
}

// ListZones returns a copy of the active zones in load order.
func (r *ZoneRegistry) ListZones() []domain.Zone {
	set := r.current.Load()
	out := make([]domain.Zone, len(set.zones))
	copy(out, set.zones)
	return out
}

// Snapshot returns the shared active slice. Callers must not modify it.
func (r *ZoneRegistry) Snapshot() []domain.Zone {
	return r.current.Load().zones
}

func (r *ZoneRegistry) Zone(id string) (domain.Zone, bool) {
	set := r.current.Load()
	i, ok := set.byID[id]
	if !ok {
		return domain.Zone{}, false
	}
	return set.zones[i], true
}

package service

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalosafe/safezone/module/core/domain"
)

func TestEvaluate_RestrictedForest(t *testing.T) {
	e := NewEvaluator("DT-1001", newRegistry(t, restrictedForest()))

	events, err := e.Evaluate(domain.Coordinate{Lat: 12.9000, Lon: 77.5000}, at(0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "restricted-forest", events[0].ZoneID)
	assert.Equal(t, domain.DirectionEntering, events[0].Direction)
	assert.Equal(t, "DT-1001", events[0].SubjectID)
	assert.Equal(t, at(0), events[0].Timestamp)

	events, err = e.Evaluate(domain.Coordinate{Lat: 12.9100, Lon: 77.5100}, at(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "restricted-forest", events[0].ZoneID)
	assert.Equal(t, domain.DirectionExiting, events[0].Direction)
	assert.Empty(t, e.Membership())
}

func TestEvaluate_NoOpOnStasis(t *testing.T) {
	e := NewEvaluator("DT-1001", newRegistry(t, restrictedForest()))
	pos := domain.Coordinate{Lat: 12.9001, Lon: 77.5001}

	events, err := e.Evaluate(pos, at(0))
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = e.Evaluate(pos, at(time.Second))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEvaluate_InvalidPositionKeepsState(t *testing.T) {
	e := NewEvaluator("DT-1001", newRegistry(t, restrictedForest()))
	_, err := e.Evaluate(domain.Coordinate{Lat: 12.9, Lon: 77.5}, at(0))
	require.NoError(t, err)

	for _, bad := range []domain.Coordinate{
		{Lat: 91, Lon: 0},
		{Lat: -90.5, Lon: 0},
		{Lat: 0, Lon: 180.1},
		{Lat: 0, Lon: -181},
	} {
		events, err := e.Evaluate(bad, at(time.Second))
		assert.ErrorIs(t, err, domain.ErrInvalidPosition)
		assert.Nil(t, events)
		assert.Equal(t, []string{"restricted-forest"}, e.Membership())
	}
}

func TestEvaluate_OverlappingZonesEmitOneEventEach(t *testing.T) {
	zones := newRegistry(t,
		circleZone("inner", domain.ClassificationDanger, domain.SeverityHigh, 28.6139, 77.2090, 100),
		circleZone("outer", domain.ClassificationCaution, domain.SeverityMedium, 28.6139, 77.2090, 1000),
		circleZone("far", domain.ClassificationSafe, domain.SeverityLow, 28.5, 77.0, 100),
	)
	e := NewEvaluator("DT-1001", zones)

	events, err := e.Evaluate(domain.Coordinate{Lat: 28.6139, Lon: 77.2090}, at(0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "inner", events[0].ZoneID)
	assert.Equal(t, "outer", events[1].ZoneID)

	// step out of the inner circle but stay in the outer one
	events, err = e.Evaluate(domain.Coordinate{Lat: 28.6160, Lon: 77.2090}, at(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "inner", events[0].ZoneID)
	assert.Equal(t, domain.DirectionExiting, events[0].Direction)
	assert.Equal(t, []string{"outer"}, e.Membership())
}

func TestEvaluate_TrianglePolygon(t *testing.T) {
	e := NewEvaluator("DT-1001", newRegistry(t, triangleZone()))

	events, err := e.Evaluate(domain.Coordinate{Lat: 1, Lon: 1}, at(0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.DirectionEntering, events[0].Direction)

	events, err = e.Evaluate(domain.Coordinate{Lat: 9, Lon: 9}, at(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.DirectionExiting, events[0].Direction)
}

func TestEvaluate_ZoneRemovedFromRegistryExits(t *testing.T) {
	zones := newRegistry(t, restrictedForest())
	e := NewEvaluator("DT-1001", zones)
	pos := domain.Coordinate{Lat: 12.9, Lon: 77.5}

	_, err := e.Evaluate(pos, at(0))
	require.NoError(t, err)

	require.Empty(t, zones.LoadZones(nil))
	events, err := e.Evaluate(pos, at(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.DirectionExiting, events[0].Direction)
}

func TestEvaluate_ExitsBeforeEntries(t *testing.T) {
	zones := newRegistry(t,
		circleZone("a", domain.ClassificationCaution, domain.SeverityLow, 0, 0, 1000),
		circleZone("b", domain.ClassificationCaution, domain.SeverityLow, 0, 1, 1000),
	)
	e := NewEvaluator("DT-1001", zones)

	_, err := e.Evaluate(domain.Coordinate{Lat: 0, Lon: 0}, at(0))
	require.NoError(t, err)

	events, err := e.Evaluate(domain.Coordinate{Lat: 0, Lon: 1}, at(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.DirectionExiting, events[0].Direction)
	assert.Equal(t, "a", events[0].ZoneID)
	assert.Equal(t, domain.DirectionEntering, events[1].Direction)
	assert.Equal(t, "b", events[1].ZoneID)
}

func TestEvaluate_TransitionsReconstructMembership(t *testing.T) {
	zones := newRegistry(t,
		circleZone("c1", domain.ClassificationDanger, domain.SeverityHigh, 28.60, 77.20, 800),
		circleZone("c2", domain.ClassificationCaution, domain.SeverityMedium, 28.61, 77.21, 1200),
		circleZone("c3", domain.ClassificationSafe, domain.SeverityLow, 28.62, 77.19, 600),
		domain.Zone{
			ID:             "poly",
			Name:           "poly",
			Classification: domain.ClassificationGeofence,
			AlertLevel:     domain.SeverityLow,
			Geometry: domain.Geometry{
				Type: domain.GeometryPolygon,
				Points: []domain.Coordinate{
					{Lat: 28.595, Lon: 77.195},
					{Lat: 28.595, Lon: 77.215},
					{Lat: 28.615, Lon: 77.215},
					{Lat: 28.615, Lon: 77.195},
				},
			},
		},
	)
	e := NewEvaluator("DT-1001", zones)
	rng := rand.New(rand.NewSource(42))

	replayed := map[string]bool{}
	for i := 0; i < 500; i++ {
		pos := domain.Coordinate{
			Lat: 28.59 + rng.Float64()*0.04,
			Lon: 77.18 + rng.Float64()*0.04,
		}
		events, err := e.Evaluate(pos, at(time.Duration(i)*time.Second))
		require.NoError(t, err)

		for _, ev := range events {
			switch ev.Direction {
			case domain.DirectionEntering:
				require.False(t, replayed[ev.ZoneID], "entered %s twice", ev.ZoneID)
				replayed[ev.ZoneID] = true
			case domain.DirectionExiting:
				require.True(t, replayed[ev.ZoneID], "exited %s without entering", ev.ZoneID)
				delete(replayed, ev.ZoneID)
			}
		}

		want := make([]string, 0, len(replayed))
		for id := range replayed {
			want = append(want, id)
		}
		sort.Strings(want)
		require.Equal(t, want, e.Membership())
	}
}

func TestEvaluate_ContainmentIsDeterministic(t *testing.T) {
	zones := []domain.Zone{restrictedForest(), triangleZone()}
	positions := []domain.Coordinate{
		{Lat: 12.9, Lon: 77.5},
		{Lat: 12.9045, Lon: 77.5},
		{Lat: 0, Lon: 5},
		{Lat: 5, Lon: 5},
		{Lat: 1, Lon: 1},
	}

	for _, z := range zones {
		for _, p := range positions {
			first := z.Contains(p)
			for i := 0; i < 10; i++ {
				assert.Equal(t, first, z.Contains(p))
			}
		}
	}
}

func TestEvaluator_Restore(t *testing.T) {
	e := NewEvaluator("DT-1001", newRegistry(t, restrictedForest()))
	e.Restore([]string{"restricted-forest"})

	events, err := e.Evaluate(domain.Coordinate{Lat: 12.9, Lon: 77.5}, at(0))
	require.NoError(t, err)
	assert.Empty(t, events)
}

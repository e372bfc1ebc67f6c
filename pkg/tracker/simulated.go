package tracker

import (
	"context"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/geo"
)

// SimulatedProvider walks a route of waypoints, interpolating Steps samples
// between consecutive waypoints and adding up to Jitter meters of noise. The
// final waypoint is emitted once before io.EOF unless Loop is set.
type SimulatedProvider struct {
	SubjectID string
	Route     []domain.Coordinate
	Steps     int
	Interval  time.Duration
	Jitter    float64
	Loop      bool

	start time.Time
	rng   *rand.Rand
	leg   int
	step  int
	count int
	done  bool
}

func NewSimulatedProvider(subjectID string, route []domain.Coordinate, start time.Time, seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		SubjectID: subjectID,
		Route:     route,
		Steps:     10,
		Interval:  5 * time.Second,
		start:     start,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (p *SimulatedProvider) Next(ctx context.Context) (domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}
	if len(p.Route) == 0 {
		return domain.Sample{}, io.EOF
	}

	steps := p.Steps
	if steps < 1 {
		steps = 1
	}

	if p.leg >= len(p.Route)-1 {
		if !p.Loop || len(p.Route) == 1 {
			if p.done {
				return domain.Sample{}, io.EOF
			}
			p.done = true
			return p.emit(p.Route[len(p.Route)-1]), nil
		}
		p.leg, p.step = 0, 0
	}

	from, to := p.Route[p.leg], p.Route[p.leg+1]
	f := float64(p.step) / float64(steps)
	pos := domain.Coordinate{
		Lat: from.Lat + (to.Lat-from.Lat)*f,
		Lon: from.Lon + (to.Lon-from.Lon)*f,
	}

	p.step++
	if p.step >= steps {
		p.leg, p.step = p.leg+1, 0
	}
	return p.emit(pos), nil
}

func (p *SimulatedProvider) emit(pos domain.Coordinate) domain.Sample {
	if p.Jitter > 0 {
		pos = p.jitter(pos)
	}
	s := domain.Sample{
		SubjectID: p.SubjectID,
		Position:  pos,
		Timestamp: p.start.Add(time.Duration(p.count) * p.Interval),
		Accuracy:  p.Jitter,
	}
	p.count++
	return s
}

func (p *SimulatedProvider) jitter(c domain.Coordinate) domain.Coordinate {
	d := p.Jitter * p.rng.Float64()
	bearing := 2 * math.Pi * p.rng.Float64()
	dLat := d * math.Cos(bearing) / geo.EarthRadiusMeters
	out := domain.Coordinate{
		Lat: math.Max(-90, math.Min(90, c.Lat+dLat*180/math.Pi)),
		Lon: c.Lon,
	}
	// longitude is undefined at the poles
	if cosLat := math.Cos(c.Lat * math.Pi / 180); cosLat > 1e-9 {
		dLon := d * math.Sin(bearing) / (geo.EarthRadiusMeters * cosLat)
		out.Lon = wrapLon(c.Lon + dLon*180/math.Pi)
	}
	return out
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

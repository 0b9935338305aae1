// Package zoneindex answers containment and proximity queries against the
// set of active protected zones.
package zoneindex

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r2"
	geo "github.com/kellydunn/golang-geo"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/models"
)

// earthRadiusMeters is the mean radius used by the local projection
const earthRadiusMeters = 6371008.8

type entry struct {
	zone    models.Zone
	polygon *geo.Polygon
}

type snapshot struct {
	entries  []entry
	loadedAt time.Time
}

// Index holds an immutable snapshot of active zones. Readers never see a
// partially applied update: Replace builds a new snapshot and swaps it in.
type Index struct {
	current atomic.Pointer[snapshot]
}

func New() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{})
	return idx
}

// Replace swaps in a new zone set. Inactive zones and rings with fewer than
// three vertices are skipped. Load order is kept for first-match lookups.
func (i *Index) Replace(zones []models.Zone) int {
	entries := make([]entry, 0, len(zones))
	for _, z := range zones {
		if !z.IsActive {
			continue
		}
		if len(z.Ring) < 3 {
			log.Warn().Int64("zone_id", z.ID).Str("zone", z.Name).Msg("Skipping zone with degenerate ring")
			continue
		}
		points := make([]*geo.Point, 0, len(z.Ring))
		for _, v := range z.Ring {
			points = append(points, geo.NewPoint(v.Lat, v.Lon))
		}
		entries = append(entries, entry{zone: z, polygon: geo.NewPolygon(points)})
	}
	i.current.Store(&snapshot{entries: entries, loadedAt: time.Now()})
	return len(entries)
}

// Contains returns the first active zone, in load order, whose polygon
// contains the point.
func (i *Index) Contains(lat, lon float64) (models.Zone, bool) {
	snap := i.current.Load()
	pt := geo.NewPoint(lat, lon)
	for _, e := range snap.entries {
		if e.polygon.Contains(pt) {
			return e.zone, true
		}
	}
	return models.Zone{}, false
}

// WithinDistance returns every active zone whose boundary lies within
// maxMeters of the point, nearest first. A point inside a zone is at
// distance zero from it. Distances are planar meters in a local projection
// centered on the query point and are not rounded.
func (i *Index) WithinDistance(lat, lon, maxMeters float64) []models.ZoneDistance {
	snap := i.current.Load()
	pt := geo.NewPoint(lat, lon)

	var out []models.ZoneDistance
	for _, e := range snap.entries {
		d := 0.0
		if !e.polygon.Contains(pt) {
			d = boundaryDistance(lat, lon, e.zone.Ring)
		}
		if d <= maxMeters {
			out = append(out, models.ZoneDistance{Zone: e.zone, Distance: d})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Distance < out[b].Distance })
	return out
}

// Zones returns the active zones in load order
func (i *Index) Zones() []models.Zone {
	snap := i.current.Load()
	zones := make([]models.Zone, len(snap.entries))
	for n, e := range snap.entries {
		zones[n] = e.zone
	}
	return zones
}

func (i *Index) Len() int {
	return len(i.current.Load().entries)
}

func (i *Index) LoadedAt() time.Time {
	return i.current.Load().loadedAt
}

// RoundMeters rounds a distance to centimeters for reporting
func RoundMeters(d float64) float64 {
	return math.Round(d*100) / 100
}

// project maps lon/lat onto a plane tangent at (lat0, lon0), in meters.
func project(lat0, lon0 float64, v models.LonLat) r2.Point {
	rad := math.Pi / 180
	return r2.Point{
		X: earthRadiusMeters * (v.Lon - lon0) * rad * math.Cos(lat0*rad),
		Y: earthRadiusMeters * (v.Lat - lat0) * rad,
	}
}

func boundaryDistance(lat, lon float64, ring []models.LonLat) float64 {
	origin := r2.Point{}
	best := math.Inf(1)
	for n := range ring {
		a := project(lat, lon, ring[n])
		b := project(lat, lon, ring[(n+1)%len(ring)])
		if d := segmentDistance(origin, a, b); d < best {
			best = d
		}
	}
	return best
}

func segmentDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Norm()
}

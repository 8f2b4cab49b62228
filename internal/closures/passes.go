// Package closures determines whether the straight line between an origin and
// a tour start crosses a seasonally closed mountain pass. It is a relevance
// heuristic for drive-time expectations, not route planning: the real road
// topology is never consulted.
package closures

import (
	"math"

	"tourfinder/internal/geo"
	"tourfinder/internal/types"
)

// Pass is one seasonally closed mountain pass.
type Pass struct {
	Name         string
	Lat          float64
	Lon          float64
	ClosedMonths map[int]bool // calendar months (1-12)
	DetourKm     float64
}

const (
	// corridorToleranceT allows a pass to sit slightly before the origin or
	// beyond the destination (10% overshoot on the projection parameter).
	corridorToleranceT = 0.1

	// corridorWidthKm is the maximum perpendicular distance from the
	// origin-destination line for a pass to count as blocking.
	corridorWidthKm = 30.0

	// degenerateSegmentDeg2 guards against division blow-up when origin and
	// destination nearly coincide (squared degrees, roughly 1 km).
	degenerateSegmentDeg2 = 1e-4

	// startProximityKm is how close a tour start must be to a closed pass for
	// the catalog to flag the approach road as winter closed.
	startProximityKm = 10.0
)

func months(ms ...int) map[int]bool {
	set := make(map[int]bool, len(ms))
	for _, m := range ms {
		set[m] = true
	}
	return set
}

// defaultPasses are the high mountain crossings around Jotunheimen and
// Hemsedal with regular winter closures. Detours are rough figures for the
// usual signed alternative.
func defaultPasses() []Pass {
	return []Pass{
		{Name: "Sognefjellet (Rv55)", Lat: 61.566, Lon: 7.994, ClosedMonths: months(11, 12, 1, 2, 3, 4), DetourKm: 120},
		{Name: "Valdresflye (Fv51)", Lat: 61.430, Lon: 8.800, ClosedMonths: months(12, 1, 2, 3), DetourKm: 70},
		{Name: "Aurlandsfjellet (Fv243)", Lat: 60.978, Lon: 7.251, ClosedMonths: months(11, 12, 1, 2, 3, 4, 5), DetourKm: 45},
		{Name: "Gamle Strynefjellsvegen (Fv258)", Lat: 61.970, Lon: 7.280, ClosedMonths: months(10, 11, 12, 1, 2, 3, 4, 5), DetourKm: 40},
		{Name: "Trollstigen (Fv63)", Lat: 62.455, Lon: 7.671, ClosedMonths: months(10, 11, 12, 1, 2, 3, 4, 5), DetourKm: 60},
	}
}

// Advisor answers winter-closure questions against a static pass table.
type Advisor struct {
	passes []Pass
}

// NewAdvisor creates an Advisor with the built-in pass table.
func NewAdvisor() *Advisor {
	return &Advisor{passes: defaultPasses()}
}

// NewAdvisorWithPasses creates an Advisor with a caller-supplied pass table.
func NewAdvisorWithPasses(passes []Pass) *Advisor {
	return &Advisor{passes: passes}
}

// FindBlockingPasses returns the passes closed in the given month (1-12) that
// lie on or near the straight line from origin to destination.
//
// For each closed pass, the pass location is projected onto the segment in the
// (lat,lon) plane treated as locally Euclidean. Passes project within the
// corridor tolerance and closer than corridorWidthKm (haversine, against the
// projected point) are returned with their detour and rounded off-route
// distance.
func (a *Advisor) FindBlockingPasses(originLat, originLon, destLat, destLon float64, month int) []types.BlockedPass {
	dLat := destLat - originLat
	dLon := destLon - originLon
	segLen2 := dLat*dLat + dLon*dLon

	var blocked []types.BlockedPass
	for _, p := range a.passes {
		if !p.ClosedMonths[month] {
			continue
		}
		if segLen2 < degenerateSegmentDeg2 {
			continue
		}

		t := ((p.Lat-originLat)*dLat + (p.Lon-originLon)*dLon) / segLen2
		if t < -corridorToleranceT || t > 1+corridorToleranceT {
			continue
		}

		projLat := originLat + t*dLat
		projLon := originLon + t*dLon
		offKm := geo.HaversineKm(p.Lat, p.Lon, projLat, projLon)
		if offKm >= corridorWidthKm {
			continue
		}

		blocked = append(blocked, types.BlockedPass{
			Name:           p.Name,
			DetourKm:       p.DetourKm,
			DistanceFromKm: math.Round(offKm*10) / 10,
		})
	}
	return blocked
}

// NearClosedPass reports whether a point lies within startProximityKm of a
// pass closed in the given month. The catalog uses it to flag tours whose
// approach road is winter closed.
func (a *Advisor) NearClosedPass(lat, lon float64, month int) bool {
	for _, p := range a.passes {
		if !p.ClosedMonths[month] {
			continue
		}
		if geo.HaversineKm(lat, lon, p.Lat, p.Lon) <= startProximityKm {
			return true
		}
	}
	return false
}

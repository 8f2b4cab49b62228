package cache

import (
	"fmt"
	"math"
)

// Cache keys are explicit typed structs bucketed to integer grid cells at a
// named precision. Rounding continuous coordinates onto a grid raises the hit
// rate across nearby queries: two summits in the same cell share one fetch.

// Grid precisions, expressed as cells per degree.
const (
	// WeatherCellsPerDegree buckets weather lookups into 0.1 degree cells
	// (roughly 11 km). Mountain weather varies slower than that.
	WeatherCellsPerDegree = 10

	// DaylightCellsPerDegree buckets daylight lookups into 0.2 degree cells.
	// Sunrise times shift by well under a minute across such a cell.
	DaylightCellsPerDegree = 5

	// ObservationCellsPerDegree buckets observation searches into whole-degree
	// cells (roughly 111 km). Intentionally coarse; observations are sparse.
	ObservationCellsPerDegree = 1

	// RouteCellsPerDegree buckets route endpoints into 0.01 degree cells so
	// nearly identical drives share a cached route.
	RouteCellsPerDegree = 100
)

// DefaultDateSentinel is stored in DaylightKey when no target date was given.
const DefaultDateSentinel = "default"

func gridCell(coord float64, cellsPerDegree int) int {
	return int(math.Round(coord * float64(cellsPerDegree)))
}

// WeatherKey identifies a weather forecast cache cell.
type WeatherKey struct {
	LatCell int
	LonCell int
}

// WeatherKeyFor derives the weather cache key for a summit coordinate.
func WeatherKeyFor(lat, lon float64) WeatherKey {
	return WeatherKey{
		LatCell: gridCell(lat, WeatherCellsPerDegree),
		LonCell: gridCell(lon, WeatherCellsPerDegree),
	}
}

func (k WeatherKey) String() string {
	return fmt.Sprintf("weather:%d:%d", k.LatCell, k.LonCell)
}

// AvalancheKey identifies an avalanche forecast cache entry. One forecast is
// published per administrative region, so the region id is the whole key.
type AvalancheKey struct {
	RegionID int
}

func (k AvalancheKey) String() string {
	return fmt.Sprintf("avalanche:%d", k.RegionID)
}

// DaylightKey identifies a daylight cache cell for one target date.
type DaylightKey struct {
	LatCell int
	LonCell int
	Date    string
}

// DaylightKeyFor derives the daylight cache key for a summit coordinate and
// target date. An empty date is replaced by DefaultDateSentinel.
func DaylightKeyFor(lat, lon float64, date string) DaylightKey {
	if date == "" {
		date = DefaultDateSentinel
	}
	return DaylightKey{
		LatCell: gridCell(lat, DaylightCellsPerDegree),
		LonCell: gridCell(lon, DaylightCellsPerDegree),
		Date:    date,
	}
}

func (k DaylightKey) String() string {
	return fmt.Sprintf("daylight:%d:%d:%s", k.LatCell, k.LonCell, k.Date)
}

// ObservationKey identifies an observation search cache cell.
type ObservationKey struct {
	LatCell int
	LonCell int
}

// ObservationKeyFor derives the observation cache key for a summit coordinate.
func ObservationKeyFor(lat, lon float64) ObservationKey {
	return ObservationKey{
		LatCell: gridCell(lat, ObservationCellsPerDegree),
		LonCell: gridCell(lon, ObservationCellsPerDegree),
	}
}

func (k ObservationKey) String() string {
	return fmt.Sprintf("observation:%d:%d", k.LatCell, k.LonCell)
}

// RouteKey identifies a drive-route cache entry by bucketed origin and
// destination coordinates.
type RouteKey struct {
	OriginLatCell int
	OriginLonCell int
	DestLatCell   int
	DestLonCell   int
}

// RouteKeyFor derives the route cache key for an origin/destination pair.
func RouteKeyFor(originLat, originLon, destLat, destLon float64) RouteKey {
	return RouteKey{
		OriginLatCell: gridCell(originLat, RouteCellsPerDegree),
		OriginLonCell: gridCell(originLon, RouteCellsPerDegree),
		DestLatCell:   gridCell(destLat, RouteCellsPerDegree),
		DestLonCell:   gridCell(destLon, RouteCellsPerDegree),
	}
}

func (k RouteKey) String() string {
	return fmt.Sprintf("route:%d:%d:%d:%d",
		k.OriginLatCell, k.OriginLonCell, k.DestLatCell, k.DestLonCell)
}

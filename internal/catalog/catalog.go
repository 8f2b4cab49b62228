// Package catalog loads the static tour catalog from a GeoJSON route file and
// holds it immutably for the session. Start point = lowest-elevation vertex,
// summit = highest; descent-alternative features are attached to the main
// route sharing their name rather than listed as tours of their own.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"tourfinder/internal/closures"
	"tourfinder/internal/types"
)

// DefaultAvalancheRegionID is assumed for routes without an explicit region
// property (3023 covers the Hallingdal area the catalog centers on).
const DefaultAvalancheRegionID = 3023

// Catalog is the immutable tour list for this process.
type Catalog struct {
	tours []*types.Tour
}

type geoJSON struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
		Geometry   struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat, z]
		} `json:"geometry"`
	} `json:"features"`
}

// New wraps an already-built tour list in a Catalog, bypassing the GeoJSON
// loader. Used by tests and tooling.
func New(tours []*types.Tour) *Catalog {
	return &Catalog{tours: tours}
}

// Load reads and parses the catalog file. A load failure is fatal to the
// session: the engine cannot run without a catalog.
func Load(path string, advisor *closures.Advisor, clock types.Clock, logger *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCatalog,
			fmt.Sprintf("opening tour catalog %s", path), err)
	}
	defer f.Close()
	return LoadFromReader(f, advisor, clock, logger)
}

// LoadFromReader parses a GeoJSON FeatureCollection of tour routes.
func LoadFromReader(r io.Reader, advisor *closures.Advisor, clock types.Clock, logger *slog.Logger) (*Catalog, error) {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var raw geoJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCatalog, "parsing tour catalog GeoJSON", err)
	}

	month := int(clock.Now().Month())
	mainRoutes := make(map[string]*types.Tour)
	var tours []*types.Tour
	var descents, winterClosed int

	type pendingDescent struct {
		name  string
		route []types.RoutePoint
		kast  int
	}
	var pending []pendingDescent

	for _, feature := range raw.Features {
		props := feature.Properties
		coords := feature.Geometry.Coordinates
		if len(coords) == 0 {
			continue
		}

		name := propString(props, "Rutenavn", "name")
		route := make([]types.RoutePoint, 0, len(coords))
		for _, c := range coords {
			if len(c) < 2 {
				continue
			}
			route = append(route, types.RoutePoint{Lat: c[1], Lon: c[0]})
		}

		if isDescentAlternative(props) {
			descents++
			pending = append(pending, pendingDescent{
				name:  name,
				route: route,
				kast:  propInt(props, "KAST"),
			})
			continue
		}

		// Lowest Z vertex is the start, highest is the summit.
		minZ, maxZ := math.Inf(1), math.Inf(-1)
		var start, summit []float64
		for _, c := range coords {
			z := 0.0
			if len(c) > 2 {
				z = c[2]
			}
			if z < minZ {
				minZ = z
				start = c
			}
			if z > maxZ {
				maxZ = z
				summit = c
			}
		}
		if start == nil || summit == nil || len(start) < 2 || len(summit) < 2 {
			continue
		}

		regionID := propInt(props, "varsom_region_id")
		if regionID == 0 {
			regionID = DefaultAvalancheRegionID
		}

		id := propString(props, "fid", "id")
		if id == "" {
			id = name
		}

		tour := &types.Tour{
			ID:                id,
			Name:              name,
			Region:            propString(props, "region"),
			AvalancheRegionID: regionID,
			Start: types.Location{
				Lat:         start[1],
				Lon:         start[0],
				DisplayName: propString(props, "start_name"),
			},
			Summit: types.Summit{
				Lat:       summit[1],
				Lon:       summit[0],
				Elevation: int(math.Round(maxZ)),
			},
			VerticalGain: int(math.Round(maxZ - minZ)),
			SlopeAvgDeg:  propFloat(props, "slope_avg_deg"),
			Kast:         propInt(props, "KAST"),
			Difficulty:   propString(props, "difficulty", "vanskelighetsgrad"),
			Description:  propString(props, "description", "beskrivelse"),
			Aspect:       propString(props, "aspect", "himmelretning"),
			Route:        route,
		}

		if advisor != nil && advisor.NearClosedPass(tour.Start.Lat, tour.Start.Lon, month) {
			tour.WinterClosed = true
			winterClosed++
		}

		mainRoutes[name] = tour
		tours = append(tours, tour)
	}

	// Attach descent alternatives to their main routes by name.
	for _, d := range pending {
		main, ok := mainRoutes[d.name]
		if !ok {
			continue
		}
		main.DescentAlternatives = append(main.DescentAlternatives, types.DescentAlternative{
			Route: d.route,
			Kast:  d.kast,
		})
	}

	logger.Info("tour catalog loaded",
		"tours", len(tours),
		"descent_alternatives", descents,
		"winter_closed", winterClosed,
	)

	return &Catalog{tours: tours}, nil
}

// All returns every tour in catalog order.
func (c *Catalog) All() []*types.Tour {
	return c.tours
}

// Len reports the number of tours.
func (c *Catalog) Len() int {
	return len(c.tours)
}

// isDescentAlternative checks the descent-alternative flag, tolerating the
// encoding variants Norwegian property names show up with in exported files.
func isDescentAlternative(props map[string]any) bool {
	v := propAny(props, "Nedkjøringsalternativ", "Nedkjoringsalternativ", "nedkjoring")
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "sann" || val == "1"
	case float64:
		return val == 1
	}
	return false
}

// propAny finds a property value by exact key, falling back to a
// case-insensitive substring match for keys mangled by encoding issues.
func propAny(props map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := props[key]; ok {
			return v
		}
	}
	for propKey, v := range props {
		for _, wanted := range keys {
			if strings.Contains(strings.ToLower(propKey), strings.ToLower(wanted)) {
				return v
			}
		}
	}
	return nil
}

func propString(props map[string]any, keys ...string) string {
	switch v := propAny(props, keys...).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func propInt(props map[string]any, keys ...string) int {
	switch v := propAny(props, keys...).(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func propFloat(props map[string]any, keys ...string) float64 {
	switch v := propAny(props, keys...).(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

package catalog

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourfinder/internal/closures"
)

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {
        "fid": 1,
        "Rutenavn": "Storhøgda fra Bjøberg",
        "region": "Hemsedal",
        "varsom_region_id": 3027,
        "KAST": 2,
        "start_name": "Bjøberg",
        "difficulty": "middels"
      },
      "geometry": {
        "type": "LineString",
        "coordinates": [
          [8.30, 61.10, 1020],
          [8.31, 61.11, 1350],
          [8.32, 61.12, 1689]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {
        "Rutenavn": "Storhøgda fra Bjøberg",
        "Nedkjøringsalternativ": true,
        "KAST": 3
      },
      "geometry": {
        "type": "LineString",
        "coordinates": [
          [8.32, 61.12, 1689],
          [8.34, 61.10, 1100]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {
        "Rutenavn": "Veslehøi",
        "region": "Jotunheimen"
      },
      "geometry": {
        "type": "LineString",
        "coordinates": [
          [8.50, 61.40, 1400],
          [8.51, 61.41, 1900]
        ]
      }
    }
  ]
}`

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFromReader(t *testing.T) {
	clock := fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cat, err := LoadFromReader(strings.NewReader(testGeoJSON), nil, clock, testLogger())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len(), "descent alternatives are not standalone tours")

	tour := cat.All()[0]
	assert.Equal(t, "1", tour.ID)
	assert.Equal(t, "Storhøgda fra Bjøberg", tour.Name)
	assert.Equal(t, "Hemsedal", tour.Region)
	assert.Equal(t, 3027, tour.AvalancheRegionID)
	assert.Equal(t, 2, tour.Kast)
	assert.Equal(t, "middels", tour.Difficulty)

	// Start is the lowest vertex, summit the highest.
	assert.InDelta(t, 61.10, tour.Start.Lat, 1e-9)
	assert.Equal(t, "Bjøberg", tour.Start.DisplayName)
	assert.InDelta(t, 61.12, tour.Summit.Lat, 1e-9)
	assert.Equal(t, 1689, tour.Summit.Elevation)
	assert.Equal(t, 669, tour.VerticalGain)
	assert.Len(t, tour.Route, 3)

	// The descent alternative is attached to its main route by name.
	require.Len(t, tour.DescentAlternatives, 1)
	assert.Equal(t, 3, tour.DescentAlternatives[0].Kast)
	assert.Len(t, tour.DescentAlternatives[0].Route, 2)
}

func TestLoadDefaultsRegionID(t *testing.T) {
	cat, err := LoadFromReader(strings.NewReader(testGeoJSON), nil, fixedClock{}, testLogger())
	require.NoError(t, err)

	vesle := cat.All()[1]
	assert.Equal(t, "Veslehøi", vesle.Name)
	assert.Equal(t, DefaultAvalancheRegionID, vesle.AvalancheRegionID)
	assert.Equal(t, "Veslehøi", vesle.ID, "falls back to the route name when fid is absent")
}

func TestLoadFlagsWinterClosedStarts(t *testing.T) {
	advisor := closures.NewAdvisorWithPasses([]closures.Pass{
		{
			Name: "Testpasset",
			Lat:  61.10, Lon: 8.30,
			ClosedMonths: map[int]bool{3: true},
			DetourKm:     40,
		},
	})

	march := fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cat, err := LoadFromReader(strings.NewReader(testGeoJSON), advisor, march, testLogger())
	require.NoError(t, err)
	assert.True(t, cat.All()[0].WinterClosed)
	assert.False(t, cat.All()[1].WinterClosed, "Veslehøi starts far from the pass")

	july := fixedClock{now: time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)}
	cat, err = LoadFromReader(strings.NewReader(testGeoJSON), advisor, july, testLogger())
	require.NoError(t, err)
	assert.False(t, cat.All()[0].WinterClosed, "pass is open in July")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`{"features": [`), nil, fixedClock{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal_catalog_load_failed")
}

func TestPropertyLookupToleratesMangledKeys(t *testing.T) {
	// Some exports ASCII-fy the Norwegian property names.
	mangled := `{
	  "features": [
	    {
	      "properties": {"Rutenavn": "Hovedruta", "region": "Hemsedal"},
	      "geometry": {"type": "LineString", "coordinates": [[8.1, 61.0, 900], [8.2, 61.1, 1500]]}
	    },
	    {
	      "properties": {"Rutenavn": "Hovedruta", "nedkjoringsalternativ": true},
	      "geometry": {"type": "LineString", "coordinates": [[8.2, 61.1, 1500], [8.15, 61.05, 1000]]}
	    }
	  ]
	}`

	cat, err := LoadFromReader(strings.NewReader(mangled), nil, fixedClock{}, testLogger())
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
	assert.Len(t, cat.All()[0].DescentAlternatives, 1)
}

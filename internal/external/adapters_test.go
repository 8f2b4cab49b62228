package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourfinder/internal/types"
)

func noopSleep(time.Duration) {}

func newTestBase(t *testing.T) *BaseClient {
	t.Helper()
	return NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		"test-"+t.Name(),
		RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: 10 * time.Millisecond},
		"TourFinder-Test/1.0",
		WithSleepFunc(noopSleep),
	)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// --- Weather ---

const metCompactPayload = `{
  "properties": {
    "timeseries": [
      {
        "time": "2026-03-01T06:00:00Z",
        "data": {
          "instant": {"details": {"air_temperature": -7.2, "wind_speed": 3.4, "cloud_area_fraction": 42.0}},
          "next_1_hours": {"summary": {"symbol_code": "clearsky_day"}, "details": {"precipitation_amount": 0.0}}
        }
      },
      {
        "time": "2026-03-01T07:00:00Z",
        "data": {
          "instant": {"details": {"air_temperature": -6.8, "wind_speed": 4.1, "cloud_area_fraction": 55.0}},
          "next_6_hours": {"summary": {"symbol_code": "cloudy"}, "details": {"precipitation_amount": 1.2}}
        }
      }
    ]
  }
}`

func TestWeatherFetchForecast(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(metCompactPayload))
	}))
	defer server.Close()

	client := NewWeatherClient(newTestBase(t), server.URL, nil)
	entries, err := client.FetchForecast(context.Background(), 61.1534, 8.3021)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Contains(t, gotQuery, "lat=61.1534")
	assert.Contains(t, gotQuery, "lon=8.3021")

	first := entries[0]
	assert.Equal(t, "2026-03-01T06:00:00Z", first.Time)
	require.NotNil(t, first.TempC)
	assert.InDelta(t, -7.2, *first.TempC, 1e-9)
	require.NotNil(t, first.PrecipitationMM)
	assert.Zero(t, *first.PrecipitationMM)
	assert.Equal(t, "clearsky_day", first.Symbol)

	// Second entry takes precipitation from next_6_hours.
	second := entries[1]
	require.NotNil(t, second.PrecipitationMM)
	assert.InDelta(t, 1.2, *second.PrecipitationMM, 1e-9)
	assert.Equal(t, "cloudy", second.Symbol)
}

func TestWeatherFetchForecastUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewWeatherClient(newTestBase(t), server.URL, nil)
	_, err := client.FetchForecast(context.Background(), 61.15, 8.30)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}

// --- Avalanche ---

func TestAvalancheFetchWarnings(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"ValidFrom": "2026-03-01T00:00:00", "DangerLevel": "2", "RegionName": "Jotunheimen", "RegionId": 3028, "MainText": "Vedvarende svakt lag."},
			{"ValidFrom": "2026-03-02T00:00:00", "DangerLevel": 3, "RegionName": "Jotunheimen", "RegionId": 3028, "MainText": "Økende vind."}
		]`))
	}))
	defer server.Close()

	clock := fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	client := NewAvalancheClient(newTestBase(t), server.URL, clock, nil)

	warnings, err := client.FetchWarnings(context.Background(), 3028)
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	assert.Equal(t, "/AvalancheWarningByRegion/Simple/3028/1/2026-03-01/2026-03-03", gotPath)

	assert.Equal(t, "2026-03-01", warnings[0].Date)
	assert.Equal(t, 2, warnings[0].DangerLevel)
	assert.Equal(t, "Moderat", warnings[0].DangerName)

	// DangerLevel as a bare JSON number decodes the same way.
	assert.Equal(t, 3, warnings[1].DangerLevel)
	assert.Equal(t, "Betydelig", warnings[1].DangerName)
}

// --- Routing ---

func TestRouteFetchDriveTime(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "Ok", "routes": [{"distance": 187450.0, "duration": 9930.0}]}`))
	}))
	defer server.Close()

	client := NewRouteClient(newTestBase(t), server.URL, nil)
	est, err := client.FetchDriveTime(context.Background(), 59.9139, 10.7522, 61.1534, 8.3021)
	require.NoError(t, err)
	require.NotNil(t, est)

	// OSRM takes lon,lat pairs.
	assert.Contains(t, gotPath, "10.752200,59.913900;8.302100,61.153400")

	assert.InDelta(t, 187.5, est.DistanceKm, 1e-9)   // 1 decimal
	assert.InDelta(t, 2.76, est.DurationHours, 1e-9) // 2 decimals
	assert.Equal(t, types.DriveSourceRouted, est.Source)
}

func TestRouteFetchDriveTimeNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer server.Close()

	client := NewRouteClient(newTestBase(t), server.URL, nil)
	est, err := client.FetchDriveTime(context.Background(), 59.91, 10.75, 61.15, 8.30)
	require.NoError(t, err)
	assert.Nil(t, est, "no route resolves to nil estimate, not an error")
}

// --- Daylight ---

func TestDaylightFetchDaylight(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"properties": {
				"sunrise": {"time": "2026-03-01T07:12:00+01:00"},
				"sunset":  {"time": "2026-03-01T17:48:00+01:00"}
			}
		}`))
	}))
	defer server.Close()

	client := NewDaylightClient(newTestBase(t), server.URL, "+01:00", fixedClock{}, nil)
	info, err := client.FetchDaylight(context.Background(), 61.1534, 8.3021, "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Contains(t, gotQuery, "date=2026-03-01")
	assert.Contains(t, gotQuery, "offset=%2B01%3A00")

	assert.Equal(t, "07:12", info.Sunrise)
	assert.Equal(t, "17:48", info.Sunset)
	require.NotNil(t, info.DaylightHours)
	assert.InDelta(t, 10.6, *info.DaylightHours, 1e-9)
}

func TestDaylightPolarNight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties": {"sunrise": {}, "sunset": {}}}`))
	}))
	defer server.Close()

	client := NewDaylightClient(newTestBase(t), server.URL, "+01:00", fixedClock{}, nil)
	info, err := client.FetchDaylight(context.Background(), 70.0, 23.0, "2026-01-05")
	require.NoError(t, err)

	assert.Equal(t, noTimePlaceholder, info.Sunrise)
	assert.Equal(t, noTimePlaceholder, info.Sunset)
	assert.Nil(t, info.DaylightHours)
}

// --- Observations ---

func TestObservationFetchNearby(t *testing.T) {
	var gotBody regObsSearchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, jsonDecode(r, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"DtObsTime": "2026-02-27T11:30:00",
				"ObserverNickName": "fjellgeit",
				"Registrations": [{"RegistrationName": "Snødekke"}, {"RegistrationName": "Faretegn"}],
				"ObsLocation": {"Latitude": 61.14, "Longitude": 8.28, "LocationName": "Storhøgda"}
			},
			{
				"DtObsTime": "2026-02-26T09:00:00",
				"CompetenceLevelName": "***",
				"Registrations": [],
				"ObsLocation": {"LocationName": "Veslebotn"}
			}
		]`))
	}))
	defer server.Close()

	clock := fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	client := NewObservationClient(newTestBase(t), server.URL, clock, nil)

	obs, err := client.FetchNearby(context.Background(), 61.15, 8.30, 20, 7)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, 20000, gotBody.Radius, "radius is sent in metres")
	assert.Equal(t, geoHazardSnow, gotBody.GeoHazardTID)
	assert.Equal(t, "2026-02-22", gotBody.FromDate)
	assert.Equal(t, "2026-03-01", gotBody.ToDate)

	assert.Equal(t, "2026-02-27", obs[0].Date)
	assert.Equal(t, "fjellgeit", obs[0].Observer)
	assert.Equal(t, []string{"Snødekke", "Faretegn"}, obs[0].Types)

	// Observer falls back to competence level when no nickname is set.
	assert.Equal(t, "***", obs[1].Observer)
	assert.Empty(t, obs[1].Types)
}

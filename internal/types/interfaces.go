package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// WeatherFetcher retrieves a weather forecast series for a point.
// A nil series with a nil error means the upstream had no data.
type WeatherFetcher interface {
	FetchForecast(ctx context.Context, lat, lon float64) ([]ForecastEntry, error)
}

// AvalancheFetcher retrieves published avalanche warnings for a region.
type AvalancheFetcher interface {
	FetchWarnings(ctx context.Context, regionID int) ([]AvalancheWarning, error)
}

// RouteFetcher retrieves road distance and duration between two points.
// A nil estimate with a nil error means no drivable route was found.
type RouteFetcher interface {
	FetchDriveTime(ctx context.Context, originLat, originLon, destLat, destLon float64) (*DriveEstimate, error)
}

// DaylightFetcher retrieves sunrise/sunset times for a point and date.
// An empty date means the adapter's default policy date.
type DaylightFetcher interface {
	FetchDaylight(ctx context.Context, lat, lon float64, date string) (*DaylightInfo, error)
}

// ObservationFetcher retrieves recent crowd-sourced observations near a point.
type ObservationFetcher interface {
	FetchNearby(ctx context.Context, lat, lon float64, radiusKm, days int) ([]Observation, error)
}

package cache

import "tourfinder/internal/types"

// SearchContext holds the five per-data-kind stores shared by every search
// running in this process. Construct one per server instance (or per test)
// and pass it into the ranking engine; there is no hidden global state.
type SearchContext struct {
	Weather      *Store[WeatherKey, []types.ForecastEntry]
	Avalanche    *Store[AvalancheKey, []types.AvalancheWarning]
	Routes       *Store[RouteKey, *types.DriveEstimate]
	Daylight     *Store[DaylightKey, *types.DaylightInfo]
	Observations *Store[ObservationKey, []types.Observation]
}

// NewSearchContext creates a SearchContext with empty stores. metrics may be
// nil to disable cache instrumentation.
func NewSearchContext(metrics MetricsRecorder) *SearchContext {
	return &SearchContext{
		Weather:      NewStore[WeatherKey, []types.ForecastEntry]("weather", metrics),
		Avalanche:    NewStore[AvalancheKey, []types.AvalancheWarning]("avalanche", metrics),
		Routes:       NewStore[RouteKey, *types.DriveEstimate]("route", metrics),
		Daylight:     NewStore[DaylightKey, *types.DaylightInfo]("daylight", metrics),
		Observations: NewStore[ObservationKey, []types.Observation]("observation", metrics),
	}
}

package types

// Location represents a geographic coordinate with an optional display name.
type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Summit is the high point of a tour. Elevation is metres above sea level.
type Summit struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation int     `json:"elevation"`
}

// RoutePoint is a single vertex of a tour's route geometry.
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DescentAlternative is an optional alternate descent line attached to a tour.
type DescentAlternative struct {
	Route []RoutePoint `json:"route,omitempty"`
	Kast  int          `json:"kast,omitempty"`
}

// Tour is the core domain entity: one ski/splitboard route from the catalog.
// Tours are constructed once when the catalog is loaded and never mutated.
type Tour struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`

	// AvalancheRegionID is the Varsom administrative region the tour lies in.
	AvalancheRegionID int `json:"varsom_region_id"`

	Start  Location `json:"start"`
	Summit Summit   `json:"summit"`

	VerticalGain int `json:"vertical_gain"`

	// SlopeAvgDeg is the average slope in degrees. Zero means unknown; the
	// engine substitutes DefaultSlopeDeg when filtering.
	SlopeAvgDeg float64 `json:"slope_avg_deg,omitempty"`

	// Kast is the three-tier hazard classification (1=easy, 2=medium,
	// 3=demanding). Zero means unclassified.
	Kast int `json:"kast,omitempty"`

	Difficulty  string `json:"difficulty,omitempty"`
	Description string `json:"description,omitempty"`
	Aspect      string `json:"aspect,omitempty"`

	// Route is the full route geometry, when the catalog variant carries it.
	Route []RoutePoint `json:"route,omitempty"`

	// DescentAlternatives are alternate descent lines sharing this tour's name.
	DescentAlternatives []DescentAlternative `json:"descent_alternatives,omitempty"`

	// WinterClosed is set at catalog load time when the approach road to the
	// start point is seasonally closed.
	WinterClosed bool `json:"winter_closed,omitempty"`
}

// DefaultSlopeDeg is assumed for tours with no recorded average slope.
const DefaultSlopeDeg = 25.0

// DriveSource identifies how a drive estimate was produced.
type DriveSource string

const (
	// DriveSourceRouted marks figures returned by the routing adapter.
	DriveSourceRouted DriveSource = "routed"
	// DriveSourceEstimated marks the haversine/average-speed fallback.
	DriveSourceEstimated DriveSource = "estimated"
)

// DriveEstimate holds road distance and duration between two points.
type DriveEstimate struct {
	DistanceKm    float64     `json:"distance_km"`
	DurationHours float64     `json:"duration_hours"`
	Source        DriveSource `json:"source"`
}

// ForecastEntry is one timestep of an upstream weather forecast series.
type ForecastEntry struct {
	Time            string   `json:"time"`
	TempC           *float64 `json:"temp_c"`
	WindSpeedMs     *float64 `json:"wind_speed_ms"`
	WindFromDeg     *float64 `json:"wind_from_direction,omitempty"`
	CloudPct        *float64 `json:"cloud_area_fraction"`
	PrecipitationMM *float64 `json:"precipitation_mm"`
	Symbol          string   `json:"symbol,omitempty"`
}

// WeatherDetails are the aggregates behind a weather evaluation.
type WeatherDetails struct {
	AvgWindMs     float64 `json:"avg_wind_ms"`
	AvgTempC      float64 `json:"avg_temp_c"`
	TotalPrecipMM float64 `json:"total_precip_mm"`
	AvgCloudPct   float64 `json:"avg_cloud_pct"`
}

// WeatherEvaluation scores a forecast series for touring conditions.
type WeatherEvaluation struct {
	Score       float64         `json:"score"`
	Description string          `json:"description"`
	Details     *WeatherDetails `json:"details,omitempty"`
}

// AvalancheWarning is one day's published warning for a region.
type AvalancheWarning struct {
	Date        string `json:"date"`
	DangerLevel int    `json:"danger_level"`
	DangerName  string `json:"danger_name"`
	RegionName  string `json:"region_name"`
	RegionID    int    `json:"region_id"`
	MainText    string `json:"main_text"`
}

// AvalancheEvaluation scores the avalanche hazard for one region and date.
// DangerLevel is nil when no warning data was available.
type AvalancheEvaluation struct {
	Score       float64 `json:"score"`
	Description string  `json:"description"`
	DangerLevel *int    `json:"danger_level"`
	DangerName  string  `json:"danger_name,omitempty"`
	RegionName  string  `json:"region_name,omitempty"`
	MainText    string  `json:"main_text,omitempty"`
}

// DaylightInfo holds sunrise/sunset times formatted as HH:MM.
type DaylightInfo struct {
	Sunrise       string   `json:"sunrise"`
	Sunset        string   `json:"sunset"`
	DaylightHours *float64 `json:"daylight_hours"`
}

// Observation is a crowd-sourced snow/avalanche observation near a tour.
type Observation struct {
	Date         string   `json:"date"`
	Observer     string   `json:"observer"`
	Types        []string `json:"types"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationName string   `json:"location_name"`
}

// RankedResult is one entry of the ordered list produced by a search.
// It is constructed fresh per search and never mutated afterwards.
type RankedResult struct {
	Tour         *Tour               `json:"tour"`
	TotalScore   float64             `json:"total_score"`
	Weather      WeatherEvaluation   `json:"weather"`
	Avalanche    AvalancheEvaluation `json:"avalanche"`
	DistanceKm   *float64            `json:"distance_km"`
	DriveHours   *float64            `json:"drive_hours"`
	DriveSource  DriveSource         `json:"drive_source,omitempty"`
	Sunrise      *DaylightInfo       `json:"sunrise"`
	Observations []Observation       `json:"observations"`
}

// BlockedPass describes a seasonally closed mountain pass lying on the
// straight-line corridor between an origin and a tour start.
type BlockedPass struct {
	Name           string  `json:"name"`
	DetourKm       float64 `json:"detour_km"`
	DistanceFromKm float64 `json:"distance_from_route_km"`
}

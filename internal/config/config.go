// Package config defines the process configuration for the tour finder.
// Configuration is loaded once at startup and is immutable thereafter. It
// follows 12-Factor principles: values come from the OS environment, with an
// optional .env file for local development.
//
// Any invalid value causes startup to fail immediately.
package config

import "time"

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"tourfinder"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Catalog  CatalogConfig
	Upstream UpstreamConfig
	Search   SearchConfig

	// Build metadata, injected via ldflags rather than the environment.
	Build BuildInfo
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

// CatalogConfig locates the tour catalog on disk.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" default:"data/tours.geojson" validate:"required"`
}

// UpstreamConfig holds the external API endpoints and shared HTTP settings.
// The defaults point at the public production services.
type UpstreamConfig struct {
	// UserAgent is sent on every upstream request. MET Norway rejects
	// anonymous clients, so it must identify the application.
	UserAgent string `envconfig:"UPSTREAM_USER_AGENT" default:"tourfinder/1.0 (+https://github.com/tourfinder/tourfinder)"`

	WeatherBaseURL     string `envconfig:"MET_BASE_URL" default:"https://api.met.no/weatherapi/locationforecast/2.0/compact" validate:"url"`
	AvalancheBaseURL   string `envconfig:"VARSOM_BASE_URL" default:"https://api01.nve.no/hydrology/forecast/avalanche/v6.3.0/api" validate:"url"`
	RoutingBaseURL     string `envconfig:"OSRM_BASE_URL" default:"https://router.project-osrm.org/route/v1/driving" validate:"url"`
	DaylightBaseURL    string `envconfig:"SUNRISE_BASE_URL" default:"https://api.met.no/weatherapi/sunrise/3.0/sun" validate:"url"`
	ObservationBaseURL string `envconfig:"REGOBS_BASE_URL" default:"https://api.regobs.no/v5/Search" validate:"url"`

	Timeout    time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"UPSTREAM_MAX_RETRIES" default:"2" validate:"min=0,max=5"`
}

// SearchConfig holds the ranking engine tunables.
type SearchConfig struct {
	MaxDriveHoursDefault float64 `envconfig:"SEARCH_MAX_DRIVE_HOURS" default:"4.0" validate:"gt=0"`
	MinSlopeDefault      float64 `envconfig:"SEARCH_MIN_SLOPE" default:"15" validate:"gt=0"`
	MaxSlopeDefault      float64 `envconfig:"SEARCH_MAX_SLOPE" default:"30" validate:"gt=0"`
	ClusterRadiusKm      float64 `envconfig:"SEARCH_CLUSTER_RADIUS_KM" default:"1.0" validate:"gt=0"`
	ObservationRadiusKm  int     `envconfig:"SEARCH_OBSERVATION_RADIUS_KM" default:"20" validate:"gt=0"`
	ObservationDays      int     `envconfig:"SEARCH_OBSERVATION_DAYS" default:"7" validate:"gt=0"`

	// TimezoneOffset resolves the default target date of "tomorrow" and is
	// passed to the daylight upstream.
	TimezoneOffset string `envconfig:"SEARCH_TZ_OFFSET" default:"+01:00"`
}

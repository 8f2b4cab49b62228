// Package ranking implements the tour ranking engine: static filtering,
// de-duplicated fan-out against the external data sources, heuristic scoring
// and the avalanche safety override.
//
// A search runs as a strict sequence of phases. Each network phase scatters
// its fetches across an errgroup and waits for the whole phase to complete
// before the next begins; per-key failures are isolated in the cache layer
// and surface to scoring as "no data" rather than failing the search.
package ranking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tourfinder/internal/cache"
	"tourfinder/internal/catalog"
	"tourfinder/internal/closures"
	"tourfinder/internal/geo"
	"tourfinder/internal/types"
)

const (
	// fanoutLimit caps concurrent upstream fetches within one phase.
	fanoutLimit = 10

	// maxObservationsPerTour limits how many nearby observations a ranked
	// result carries.
	maxObservationsPerTour = 3
)

// Config holds the engine's tunables. Zero values are replaced by
// DefaultConfig figures at construction.
type Config struct {
	// MaxDriveHoursDefault applies when a search gives an origin but no
	// drive-time budget.
	MaxDriveHoursDefault float64

	// MinSlopeDefault and MaxSlopeDefault bound the slope filter when the
	// search does not override them.
	MinSlopeDefault float64
	MaxSlopeDefault float64

	// ClusterRadiusKm groups tour start points for drive-time fetching: starts
	// within this distance of a cluster's first member share one route lookup.
	ClusterRadiusKm float64

	// ObservationRadiusKm and ObservationDays parameterize the observation
	// search around each summit.
	ObservationRadiusKm int
	ObservationDays     int

	// TimezoneOffset is the fixed UTC offset (e.g. "+01:00") used to resolve
	// the default target date of "tomorrow".
	TimezoneOffset string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxDriveHoursDefault: 4.0,
		MinSlopeDefault:      15.0,
		MaxSlopeDefault:      30.0,
		ClusterRadiusKm:      1.0,
		ObservationRadiusKm:  20,
		ObservationDays:      7,
		TimezoneOffset:       "+01:00",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDriveHoursDefault <= 0 {
		c.MaxDriveHoursDefault = d.MaxDriveHoursDefault
	}
	if c.MinSlopeDefault <= 0 {
		c.MinSlopeDefault = d.MinSlopeDefault
	}
	if c.MaxSlopeDefault <= 0 {
		c.MaxSlopeDefault = d.MaxSlopeDefault
	}
	if c.ClusterRadiusKm <= 0 {
		c.ClusterRadiusKm = d.ClusterRadiusKm
	}
	if c.ObservationRadiusKm <= 0 {
		c.ObservationRadiusKm = d.ObservationRadiusKm
	}
	if c.ObservationDays <= 0 {
		c.ObservationDays = d.ObservationDays
	}
	if c.TimezoneOffset == "" {
		c.TimezoneOffset = d.TimezoneOffset
	}
	return c
}

// Fetchers bundles the upstream adapters the engine fans out against. Any nil
// fetcher disables its data source; scoring then sees "no data" for it.
type Fetchers struct {
	Weather      types.WeatherFetcher
	Avalanche    types.AvalancheFetcher
	Routes       types.RouteFetcher
	Daylight     types.DaylightFetcher
	Observations types.ObservationFetcher
}

// SearchRecorder receives per-search metrics. Implemented by
// observability.Collector; nil disables recording.
type SearchRecorder interface {
	ObserveSearch(outcome string, resultCount int, elapsed time.Duration)
}

// FindOptions are the parameters of one ranking search.
type FindOptions struct {
	// Origin enables drive-time filtering and the distance score component.
	// Nil means rank without drive-time data.
	Origin *types.Location

	// MaxDriveHours is the drive-time budget. Zero means the configured
	// default. Ignored when Origin is nil.
	MaxDriveHours float64

	// TargetDate is the YYYY-MM-DD day to evaluate. Empty means tomorrow in
	// the configured timezone offset.
	TargetDate string

	// Region, when set, keeps only tours whose region matches case
	// insensitively.
	Region string

	// Difficulty, when set, keeps only tours whose difficulty text contains
	// it case insensitively.
	Difficulty string

	// MinSlope and MaxSlope bound the average-slope filter in degrees. Nil
	// means the configured default.
	MinSlope *float64
	MaxSlope *float64

	// MaxKast, when positive, drops tours classified harder than this tier.
	// Unclassified tours always pass.
	MaxKast int

	// Progress, when non-nil, receives phase events as the search advances.
	Progress ProgressObserver
}

// Engine runs ranking searches against a loaded catalog.
type Engine struct {
	cfg      Config
	catalog  *catalog.Catalog
	caches   *cache.SearchContext
	fetchers Fetchers
	advisor  *closures.Advisor
	clock    types.Clock
	logger   *slog.Logger
	metrics  SearchRecorder
}

// NewEngine constructs an Engine. metrics may be nil; advisor may be nil to
// disable closure-aware drive estimates.
func NewEngine(cfg Config, cat *catalog.Catalog, caches *cache.SearchContext, fetchers Fetchers, advisor *closures.Advisor, clock types.Clock, logger *slog.Logger, metrics SearchRecorder) *Engine {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		catalog:  cat,
		caches:   caches,
		fetchers: fetchers,
		advisor:  advisor,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// driveFigures is the resolved drive data for one tour.
type driveFigures struct {
	distKm float64
	hours  float64
	source types.DriveSource
}

// FindTours runs a full ranking search and returns results ordered by total
// score, highest first. Ties keep catalog order. Upstream failures never fail
// the search; affected tours score with "no data" for the failed source.
func (e *Engine) FindTours(ctx context.Context, opts FindOptions) ([]types.RankedResult, error) {
	start := e.clock.Now()

	targetDate, err := e.resolveTargetDate(opts.TargetDate)
	if err != nil {
		e.observe("invalid", 0, start)
		return nil, err
	}
	minSlope, maxSlope := e.cfg.MinSlopeDefault, e.cfg.MaxSlopeDefault
	if opts.MinSlope != nil {
		minSlope = *opts.MinSlope
	}
	if opts.MaxSlope != nil {
		maxSlope = *opts.MaxSlope
	}
	if minSlope > maxSlope {
		e.observe("invalid", 0, start)
		return nil, types.NewAppError(types.ErrCodeValidationSlopeRange,
			fmt.Sprintf("min slope %.1f exceeds max slope %.1f", minSlope, maxSlope), nil)
	}
	maxDrive := opts.MaxDriveHours
	if maxDrive <= 0 {
		maxDrive = e.cfg.MaxDriveHoursDefault
	}

	tours := e.filterTours(opts, minSlope, maxSlope)
	notify(opts.Progress, PhaseFiltering, "Filtrerer turer", len(tours))

	var drive map[*types.Tour]driveFigures
	if opts.Origin != nil {
		drive = e.resolveDriveTimes(ctx, tours, *opts.Origin, targetDate)
		kept := tours[:0]
		for _, t := range tours {
			if f, ok := drive[t]; ok && f.hours <= maxDrive {
				kept = append(kept, t)
			}
		}
		tours = kept
	}
	notify(opts.Progress, PhaseDriveTime, "Beregner kjøretid", len(tours))
	if err := ctx.Err(); err != nil {
		e.observe("canceled", 0, start)
		return nil, err
	}

	e.fetchAvalanche(ctx, tours)
	notify(opts.Progress, PhaseAvalanche, "Henter skredvarsel", len(tours))
	if err := ctx.Err(); err != nil {
		e.observe("canceled", 0, start)
		return nil, err
	}

	e.fetchConditions(ctx, tours, targetDate)
	notify(opts.Progress, PhaseWeather, "Henter vær, dagslys og observasjoner", len(tours))
	if err := ctx.Err(); err != nil {
		e.observe("canceled", 0, start)
		return nil, err
	}

	results := e.score(tours, drive, targetDate, maxDrive)
	notify(opts.Progress, PhaseScoring, "Beregner score", len(results))

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalScore > results[j].TotalScore
	})
	notify(opts.Progress, PhaseDone, "Ferdig", len(results))

	e.observe("ok", len(results), start)
	e.logger.Info("search completed",
		"target_date", targetDate,
		"results", len(results),
		"elapsed", e.clock.Now().Sub(start),
	)
	return results, nil
}

// resolveTargetDate validates an explicit date or derives the default of
// tomorrow in the configured timezone offset.
func (e *Engine) resolveTargetDate(date string) (string, error) {
	if date == "" {
		loc := time.UTC
		if t, err := time.Parse("-07:00", e.cfg.TimezoneOffset); err == nil {
			loc = t.Location()
		}
		return e.clock.Now().In(loc).AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", types.NewAppError(types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date), err)
	}
	return date, nil
}

// filterTours applies the static, network-free filters in catalog order.
func (e *Engine) filterTours(opts FindOptions, minSlope, maxSlope float64) []*types.Tour {
	var kept []*types.Tour
	for _, t := range e.catalog.All() {
		if opts.Region != "" && !strings.EqualFold(t.Region, opts.Region) {
			continue
		}
		if opts.Difficulty != "" &&
			!strings.Contains(strings.ToLower(t.Difficulty), strings.ToLower(opts.Difficulty)) {
			continue
		}
		slope := t.SlopeAvgDeg
		if slope == 0 {
			slope = types.DefaultSlopeDeg
		}
		if slope < minSlope || slope > maxSlope {
			continue
		}
		if opts.MaxKast > 0 && t.Kast > opts.MaxKast {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// resolveDriveTimes produces drive figures for every tour. Start points are
// clustered so nearby tours share one routing lookup; a failed or absent
// route falls back to a per-tour haversine estimate, stretched by the detour
// of any closed pass on the corridor.
func (e *Engine) resolveDriveTimes(ctx context.Context, tours []*types.Tour, origin types.Location, targetDate string) map[*types.Tour]driveFigures {
	clusters := clusterByStart(tours, e.cfg.ClusterRadiusKm)

	var mu sync.Mutex
	figures := make(map[*types.Tour]driveFigures, len(tours))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)
	for _, cl := range clusters {
		cl := cl
		g.Go(func() error {
			est, err := e.fetchRoute(gCtx, origin, cl.rep)
			mu.Lock()
			defer mu.Unlock()
			for _, t := range cl.tours {
				if err == nil && est != nil {
					figures[t] = driveFigures{
						distKm: est.DistanceKm,
						hours:  est.DurationHours,
						source: types.DriveSourceRouted,
					}
					continue
				}
				figures[t] = e.estimateDrive(origin, t, targetDate)
			}
			// Routing failures degrade to estimates; never fail the phase.
			return nil
		})
	}
	_ = g.Wait()
	return figures
}

func (e *Engine) fetchRoute(ctx context.Context, origin types.Location, dest *types.Tour) (*types.DriveEstimate, error) {
	if e.fetchers.Routes == nil {
		return nil, nil
	}
	key := cache.RouteKeyFor(origin.Lat, origin.Lon, dest.Start.Lat, dest.Start.Lon)
	est, err := e.caches.Routes.GetOrFetch(ctx, key, func(ctx context.Context) (*types.DriveEstimate, error) {
		return e.fetchers.Routes.FetchDriveTime(ctx, origin.Lat, origin.Lon, dest.Start.Lat, dest.Start.Lon)
	})
	if err != nil {
		e.logger.Warn("route lookup failed, falling back to estimate",
			"tour", dest.Name, "error", err)
		return nil, err
	}
	return est, nil
}

// estimateDrive is the haversine fallback. When the straight-line corridor
// crosses a pass closed in the target month, its detour is added before
// converting distance to hours.
func (e *Engine) estimateDrive(origin types.Location, t *types.Tour, targetDate string) driveFigures {
	dist := geo.HaversineKm(origin.Lat, origin.Lon, t.Start.Lat, t.Start.Lon)
	if e.advisor != nil {
		if day, err := time.Parse("2006-01-02", targetDate); err == nil {
			blocked := e.advisor.FindBlockingPasses(origin.Lat, origin.Lon, t.Start.Lat, t.Start.Lon, int(day.Month()))
			for _, b := range blocked {
				dist += b.DetourKm
			}
		}
	}
	return driveFigures{
		distKm: dist,
		hours:  geo.EstimateDriveHours(dist),
		source: types.DriveSourceEstimated,
	}
}

// fetchAvalanche resolves the warning list for every distinct avalanche
// region among the surviving tours.
func (e *Engine) fetchAvalanche(ctx context.Context, tours []*types.Tour) {
	if e.fetchers.Avalanche == nil {
		return
	}
	regions := make(map[int]struct{})
	for _, t := range tours {
		regions[t.AvalancheRegionID] = struct{}{}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)
	for regionID := range regions {
		regionID := regionID
		g.Go(func() error {
			key := cache.AvalancheKey{RegionID: regionID}
			_, err := e.caches.Avalanche.GetOrFetch(gCtx, key, func(ctx context.Context) ([]types.AvalancheWarning, error) {
				return e.fetchers.Avalanche.FetchWarnings(ctx, regionID)
			})
			if err != nil {
				e.logger.Warn("avalanche warnings unavailable", "region_id", regionID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// fetchConditions resolves weather, daylight and observations for every
// distinct cache cell among the surviving summits, in one fan-out barrier.
func (e *Engine) fetchConditions(ctx context.Context, tours []*types.Tour, targetDate string) {
	type point struct{ lat, lon float64 }
	weatherCells := make(map[cache.WeatherKey]point)
	daylightCells := make(map[cache.DaylightKey]point)
	obsCells := make(map[cache.ObservationKey]point)
	for _, t := range tours {
		p := point{t.Summit.Lat, t.Summit.Lon}
		weatherCells[cache.WeatherKeyFor(p.lat, p.lon)] = p
		daylightCells[cache.DaylightKeyFor(p.lat, p.lon, targetDate)] = p
		obsCells[cache.ObservationKeyFor(p.lat, p.lon)] = p
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	if e.fetchers.Weather != nil {
		for key, p := range weatherCells {
			key, p := key, p
			g.Go(func() error {
				_, err := e.caches.Weather.GetOrFetch(gCtx, key, func(ctx context.Context) ([]types.ForecastEntry, error) {
					return e.fetchers.Weather.FetchForecast(ctx, p.lat, p.lon)
				})
				if err != nil {
					e.logger.Warn("weather unavailable", "key", key.String(), "error", err)
				}
				return nil
			})
		}
	}
	if e.fetchers.Daylight != nil {
		for key, p := range daylightCells {
			key, p := key, p
			g.Go(func() error {
				_, err := e.caches.Daylight.GetOrFetch(gCtx, key, func(ctx context.Context) (*types.DaylightInfo, error) {
					return e.fetchers.Daylight.FetchDaylight(ctx, p.lat, p.lon, targetDate)
				})
				if err != nil {
					e.logger.Warn("daylight unavailable", "key", key.String(), "error", err)
				}
				return nil
			})
		}
	}
	if e.fetchers.Observations != nil {
		for key, p := range obsCells {
			key, p := key, p
			g.Go(func() error {
				_, err := e.caches.Observations.GetOrFetch(gCtx, key, func(ctx context.Context) ([]types.Observation, error) {
					return e.fetchers.Observations.FetchNearby(ctx, p.lat, p.lon, e.cfg.ObservationRadiusKm, e.cfg.ObservationDays)
				})
				if err != nil {
					e.logger.Warn("observations unavailable", "key", key.String(), "error", err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
}

// score evaluates the surviving tours against the resolved cache entries.
// Phase barriers have already completed, so every lookup is a Peek: no
// network happens here.
func (e *Engine) score(tours []*types.Tour, drive map[*types.Tour]driveFigures, targetDate string, maxDrive float64) []types.RankedResult {
	results := make([]types.RankedResult, 0, len(tours))
	for _, t := range tours {
		warnings, _, _ := e.caches.Avalanche.Peek(cache.AvalancheKey{RegionID: t.AvalancheRegionID})
		forecasts, _, _ := e.caches.Weather.Peek(cache.WeatherKeyFor(t.Summit.Lat, t.Summit.Lon))
		daylight, _, _ := e.caches.Daylight.Peek(cache.DaylightKeyFor(t.Summit.Lat, t.Summit.Lon, targetDate))
		observations, _, _ := e.caches.Observations.Peek(cache.ObservationKeyFor(t.Summit.Lat, t.Summit.Lon))

		avalancheEval := EvaluateAvalanche(warnings, targetDate)
		weatherEval := EvaluateWeather(forecasts, targetDate)

		var distKm, driveHours *float64
		var driveSource types.DriveSource
		if f, ok := drive[t]; ok {
			d := round1(f.distKm)
			h := round1(f.hours)
			distKm, driveHours = &d, &h
			driveSource = f.source
		}

		if len(observations) > maxObservationsPerTour {
			observations = observations[:maxObservationsPerTour]
		}

		results = append(results, types.RankedResult{
			Tour:         t,
			TotalScore:   totalScore(avalancheEval, weatherEval, distanceScore(driveHours, maxDrive)),
			Weather:      weatherEval,
			Avalanche:    avalancheEval,
			DistanceKm:   distKm,
			DriveHours:   driveHours,
			DriveSource:  driveSource,
			Sunrise:      daylight,
			Observations: observations,
		})
	}
	return results
}

func (e *Engine) observe(outcome string, count int, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveSearch(outcome, count, e.clock.Now().Sub(start))
}

// startCluster groups tours whose start points lie within the cluster radius
// of the cluster's first member.
type startCluster struct {
	rep   *types.Tour
	tours []*types.Tour
}

func clusterByStart(tours []*types.Tour, radiusKm float64) []*startCluster {
	var clusters []*startCluster
	for _, t := range tours {
		placed := false
		for _, cl := range clusters {
			if geo.HaversineKm(t.Start.Lat, t.Start.Lon, cl.rep.Start.Lat, cl.rep.Start.Lon) <= radiusKm {
				cl.tours = append(cl.tours, t)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &startCluster{rep: t, tours: []*types.Tour{t}})
		}
	}
	return clusters
}

// Package handlers contains the HTTP handler implementations for the tour
// finder API: the ranking search endpoint and the raw catalog listing.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tourfinder/internal/catalog"
	"tourfinder/internal/core"
	"tourfinder/internal/ranking"
	"tourfinder/internal/types"
)

// TourFinder is the ranking contract the handler depends on. Defined locally
// to avoid coupling the handler layer to the concrete engine and to enable
// test fakes.
type TourFinder interface {
	FindTours(ctx context.Context, opts ranking.FindOptions) ([]types.RankedResult, error)
}

// ToursHandler serves the /api/tours endpoints.
type ToursHandler struct {
	finder  TourFinder
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewToursHandler constructs a ToursHandler.
func NewToursHandler(finder TourFinder, cat *catalog.Catalog, logger *slog.Logger) *ToursHandler {
	return &ToursHandler{finder: finder, catalog: cat, logger: logger}
}

// RegisterRoutes mounts the tour endpoints onto the router group.
func (h *ToursHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tours", h.HandleSearch)
	r.Get("/tours/all", h.HandleAll)
}

// SearchResponse is the body returned by GET /api/tours.
type SearchResponse struct {
	Count   int                  `json:"count"`
	Results []types.RankedResult `json:"results"`
}

// CatalogResponse is the body returned by GET /api/tours/all.
type CatalogResponse struct {
	Count int           `json:"count"`
	Tours []*types.Tour `json:"tours"`
}

// HandleSearch runs a ranking search.
//
// Query parameters:
//
//	lat, lon    search origin; both or neither must be given
//	max_hours   drive-time budget in hours (requires lat/lon)
//	date        target date, YYYY-MM-DD; defaults to tomorrow
//	region      exact region filter, case insensitive
//	difficulty  substring filter on the difficulty text
//	min_slope   lower bound of the average-slope filter, degrees
//	max_slope   upper bound of the average-slope filter, degrees
//	max_kast    hardest accepted hazard tier (1-3)
func (h *ToursHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := ranking.FindOptions{
		TargetDate: q.Get("date"),
		Region:     q.Get("region"),
		Difficulty: q.Get("difficulty"),
	}

	lat, err := parseFloat(q.Get("lat"), "lat")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	lon, err := parseFloat(q.Get("lon"), "lon")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	switch {
	case lat != nil && lon != nil:
		if *lat < -90 || *lat > 90 {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidLat,
				fmt.Sprintf("latitude %g out of range [-90, 90]", *lat), nil))
			return
		}
		if *lon < -180 || *lon > 180 {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidLon,
				fmt.Sprintf("longitude %g out of range [-180, 180]", *lon), nil))
			return
		}
		opts.Origin = &types.Location{Lat: *lat, Lon: *lon}
	case lat != nil || lon != nil:
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"lat and lon must be given together", nil))
		return
	}

	maxHours, err := parseFloat(q.Get("max_hours"), "max_hours")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if maxHours != nil {
		if *maxHours <= 0 {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidParam,
				"max_hours must be positive", nil))
			return
		}
		opts.MaxDriveHours = *maxHours
	}

	if opts.MinSlope, err = parseFloat(q.Get("min_slope"), "min_slope"); err != nil {
		core.Error(w, r, err)
		return
	}
	if opts.MaxSlope, err = parseFloat(q.Get("max_slope"), "max_slope"); err != nil {
		core.Error(w, r, err)
		return
	}

	if raw := q.Get("max_kast"); raw != "" {
		kast, convErr := strconv.Atoi(raw)
		if convErr != nil || kast < 1 || kast > 3 {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidParam,
				fmt.Sprintf("max_kast %q must be an integer between 1 and 3", raw), convErr))
			return
		}
		opts.MaxKast = kast
	}

	results, err := h.finder.FindTours(r.Context(), opts)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if results == nil {
		results = []types.RankedResult{}
	}

	core.JSON(w, r, http.StatusOK, SearchResponse{Count: len(results), Results: results})
}

// HandleAll returns the full catalog without any scoring or filtering.
func (h *ToursHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	tours := h.catalog.All()
	if tours == nil {
		tours = []*types.Tour{}
	}
	core.JSON(w, r, http.StatusOK, CatalogResponse{Count: len(tours), Tours: tours})
}

// parseFloat parses an optional float query parameter. An empty value yields
// nil; a malformed value yields a validation AppError naming the parameter.
func parseFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidParam,
			fmt.Sprintf("%s %q is not a number", name, raw), err)
	}
	return &v, nil
}

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"tourfinder/internal/types"
)

// RouteClient fetches road distance and duration from an OSRM server.
type RouteClient struct {
	base    *BaseClient
	baseURL string
	metrics UpstreamRecorder
}

// NewRouteClient creates a RouteClient. baseURL is the route service root,
// e.g. "https://router.project-osrm.org/route/v1/driving".
func NewRouteClient(base *BaseClient, baseURL string, metrics UpstreamRecorder) *RouteClient {
	return &RouteClient{base: base, baseURL: baseURL, metrics: metrics}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// FetchDriveTime retrieves the fastest driving route between two points.
// Returns (nil, nil) when OSRM reports no route; the caller falls back to the
// haversine estimate.
func (c *RouteClient) FetchDriveTime(ctx context.Context, originLat, originLon, destLat, destLon float64) (est *types.DriveEstimate, err error) {
	defer func() { recordCall(c.metrics, "route", err) }()

	// OSRM takes lon,lat order.
	url := fmt.Sprintf("%s/%f,%f;%f,%f?overview=false", c.baseURL, originLon, originLat, destLon, destLat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building route request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamRouting,
			fmt.Sprintf("routing API returned %d", resp.StatusCode), nil)
	}

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamRouting, "malformed routing payload", err)
	}

	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return nil, nil
	}

	route := payload.Routes[0]
	return &types.DriveEstimate{
		DistanceKm:    math.Round(route.Distance/100) / 10,
		DurationHours: math.Round(route.Duration/36) / 100,
		Source:        types.DriveSourceRouted,
	}, nil
}

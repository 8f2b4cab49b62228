package external

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"tourfinder/internal/types"
)

// noTimePlaceholder is shown when the sun never rises or sets on the target
// date (polar night or midnight sun).
const noTimePlaceholder = "—"

// DaylightClient fetches sunrise/sunset times from the MET Norway Sunrise
// 3.0 API.
type DaylightClient struct {
	base      *BaseClient
	baseURL   string
	utcOffset string
	clock     types.Clock
	metrics   UpstreamRecorder
}

// NewDaylightClient creates a DaylightClient. utcOffset is the fixed offset
// the API should render local times in, e.g. "+01:00".
func NewDaylightClient(base *BaseClient, baseURL, utcOffset string, clock types.Clock, metrics UpstreamRecorder) *DaylightClient {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &DaylightClient{base: base, baseURL: baseURL, utcOffset: utcOffset, clock: clock, metrics: metrics}
}

type sunriseResponse struct {
	Properties struct {
		Sunrise struct {
			Time string `json:"time"`
		} `json:"sunrise"`
		Sunset struct {
			Time string `json:"time"`
		} `json:"sunset"`
	} `json:"properties"`
}

// FetchDaylight retrieves sun times for a point and date (YYYY-MM-DD).
// An empty date defaults to tomorrow.
func (c *DaylightClient) FetchDaylight(ctx context.Context, lat, lon float64, date string) (info *types.DaylightInfo, err error) {
	defer func() { recordCall(c.metrics, "daylight", err) }()

	if date == "" {
		date = c.clock.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", lat))
	q.Set("lon", fmt.Sprintf("%.4f", lon))
	q.Set("date", date)
	q.Set("offset", c.utcOffset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building daylight request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamDaylight,
			fmt.Sprintf("sunrise API returned %d", resp.StatusCode), nil)
	}

	var payload sunriseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDaylight, "malformed sunrise payload", err)
	}

	sunriseTime := payload.Properties.Sunrise.Time
	sunsetTime := payload.Properties.Sunset.Time

	var daylightHours *float64
	if sunriseTime != "" && sunsetTime != "" {
		if sr, srErr := time.Parse(time.RFC3339, sunriseTime); srErr == nil {
			if ss, ssErr := time.Parse(time.RFC3339, sunsetTime); ssErr == nil {
				h := math.Round(ss.Sub(sr).Hours()*10) / 10
				daylightHours = &h
			}
		}
	}

	return &types.DaylightInfo{
		Sunrise:       formatClock(sunriseTime),
		Sunset:        formatClock(sunsetTime),
		DaylightHours: daylightHours,
	}, nil
}

// formatClock extracts HH:MM from an RFC 3339 timestamp.
func formatClock(ts string) string {
	if len(ts) <= 16 {
		return noTimePlaceholder
	}
	return ts[11:16]
}

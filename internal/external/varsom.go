package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tourfinder/internal/types"
)

// warningDaysAhead is how many days of warnings are requested per region.
const warningDaysAhead = 2

// DangerLevelName maps the 1-5 danger scale to its Norwegian display name.
var DangerLevelName = map[int]string{
	1: "Liten",
	2: "Moderat",
	3: "Betydelig",
	4: "Stor",
	5: "Meget stor",
}

// AvalancheClient fetches regional warnings from the Varsom/NVE avalanche
// forecast API.
type AvalancheClient struct {
	base    *BaseClient
	baseURL string
	clock   types.Clock
	metrics UpstreamRecorder
}

// NewAvalancheClient creates an AvalancheClient. baseURL is the API root
// (up to and including "/api").
func NewAvalancheClient(base *BaseClient, baseURL string, clock types.Clock, metrics UpstreamRecorder) *AvalancheClient {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &AvalancheClient{base: base, baseURL: baseURL, clock: clock, metrics: metrics}
}

// varsomWarning mirrors the Simple warning payload. DangerLevel arrives as a
// JSON string in some API versions and a number in others.
type varsomWarning struct {
	ValidFrom   string      `json:"ValidFrom"`
	DangerLevel json.Number `json:"DangerLevel"`
	RegionName  string      `json:"RegionName"`
	RegionID    int         `json:"RegionId"`
	MainText    string      `json:"MainText"`
}

// FetchWarnings retrieves the warnings for one region covering today through
// today+2 days.
func (c *AvalancheClient) FetchWarnings(ctx context.Context, regionID int) (warnings []types.AvalancheWarning, err error) {
	defer func() { recordCall(c.metrics, "avalanche", err) }()

	now := c.clock.Now()
	start := now.Format("2006-01-02")
	end := now.AddDate(0, 0, warningDaysAhead).Format("2006-01-02")

	url := fmt.Sprintf("%s/AvalancheWarningByRegion/Simple/%d/1/%s/%s", c.baseURL, regionID, start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building avalanche request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamAvalanche,
			fmt.Sprintf("avalanche API returned %d", resp.StatusCode), nil)
	}

	var payload []varsomWarning
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamAvalanche, "malformed avalanche payload", err)
	}

	warnings = make([]types.AvalancheWarning, 0, len(payload))
	for _, w := range payload {
		level := 0
		if n, convErr := w.DangerLevel.Int64(); convErr == nil {
			level = int(n)
		}

		name, ok := DangerLevelName[level]
		if !ok {
			name = "Ukjent"
		}

		date := w.ValidFrom
		if len(date) > 10 {
			date = date[:10]
		}

		region := w.RegionID
		if region == 0 {
			region = regionID
		}

		warnings = append(warnings, types.AvalancheWarning{
			Date:        date,
			DangerLevel: level,
			DangerName:  name,
			RegionName:  w.RegionName,
			RegionID:    region,
			MainText:    w.MainText,
		})
	}
	return warnings, nil
}

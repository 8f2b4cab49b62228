package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tourfinder/internal/types"
)

const (
	// geoHazardSnow is the RegObs hazard category for snow and avalanches.
	geoHazardSnow = 10

	// maxObservationRecords bounds the search result size per request.
	maxObservationRecords = 10
)

// ObservationClient fetches recent snow/avalanche observations from the
// RegObs v5 search endpoint.
type ObservationClient struct {
	base    *BaseClient
	baseURL string
	clock   types.Clock
	metrics UpstreamRecorder
}

// NewObservationClient creates an ObservationClient. baseURL is the full
// Search endpoint URL.
func NewObservationClient(base *BaseClient, baseURL string, clock types.Clock, metrics UpstreamRecorder) *ObservationClient {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &ObservationClient{base: base, baseURL: baseURL, clock: clock, metrics: metrics}
}

type regObsSearchRequest struct {
	FromDate        string  `json:"FromDate"`
	ToDate          string  `json:"ToDate"`
	Latitude        float64 `json:"Latitude"`
	Longitude       float64 `json:"Longitude"`
	Radius          int     `json:"Radius"` // metres
	NumberOfRecords int     `json:"NumberOfRecords"`
	GeoHazardTID    int     `json:"GeoHazardTID"`
}

type regObsRecord struct {
	DtObsTime           string `json:"DtObsTime"`
	ObserverNickName    string `json:"ObserverNickName"`
	CompetenceLevelName string `json:"CompetenceLevelName"`
	Registrations       []struct {
		RegistrationName string `json:"RegistrationName"`
	} `json:"Registrations"`
	ObsLocation struct {
		Latitude     *float64 `json:"Latitude"`
		Longitude    *float64 `json:"Longitude"`
		LocationName string   `json:"LocationName"`
	} `json:"ObsLocation"`
}

// FetchNearby retrieves snow/avalanche observations within radiusKm of a
// point over the last days days.
func (c *ObservationClient) FetchNearby(ctx context.Context, lat, lon float64, radiusKm, days int) (observations []types.Observation, err error) {
	defer func() { recordCall(c.metrics, "observation", err) }()

	now := c.clock.Now()
	body := regObsSearchRequest{
		FromDate:        now.AddDate(0, 0, -days).Format("2006-01-02"),
		ToDate:          now.Format("2006-01-02"),
		Latitude:        lat,
		Longitude:       lon,
		Radius:          radiusKm * 1000,
		NumberOfRecords: maxObservationRecords,
		GeoHazardTID:    geoHazardSnow,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "encoding observation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building observation request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamRegObs,
			fmt.Sprintf("regobs API returned %d", resp.StatusCode), nil)
	}

	var payload []regObsRecord
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamRegObs, "malformed regobs payload", err)
	}

	observations = make([]types.Observation, 0, len(payload))
	for _, rec := range payload {
		var kinds []string
		for _, reg := range rec.Registrations {
			if reg.RegistrationName != "" {
				kinds = append(kinds, reg.RegistrationName)
			}
		}

		observer := rec.ObserverNickName
		if observer == "" {
			observer = rec.CompetenceLevelName
		}

		date := rec.DtObsTime
		if len(date) > 10 {
			date = date[:10]
		}

		observations = append(observations, types.Observation{
			Date:         date,
			Observer:     observer,
			Types:        kinds,
			Latitude:     rec.ObsLocation.Latitude,
			Longitude:    rec.ObsLocation.Longitude,
			LocationName: rec.ObsLocation.LocationName,
		})
	}
	return observations, nil
}

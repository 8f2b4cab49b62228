package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"tourfinder/internal/types"
)

// maxForecastEntries caps the forecast series at the next 48 hours.
const maxForecastEntries = 48

// UpstreamRecorder receives adapter call outcomes. Implemented by
// observability.Collector; nil disables recording.
type UpstreamRecorder interface {
	RecordUpstreamCall(adapter, outcome string)
}

func recordCall(m UpstreamRecorder, adapter string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RecordUpstreamCall(adapter, outcome)
}

// WeatherClient fetches point forecasts from the MET Norway Locationforecast
// 2.0 compact endpoint.
type WeatherClient struct {
	base    *BaseClient
	baseURL string
	metrics UpstreamRecorder
}

// NewWeatherClient creates a WeatherClient. baseURL is the full compact
// endpoint URL without query parameters.
func NewWeatherClient(base *BaseClient, baseURL string, metrics UpstreamRecorder) *WeatherClient {
	return &WeatherClient{base: base, baseURL: baseURL, metrics: metrics}
}

// metForecastResponse mirrors the subset of the Locationforecast compact
// payload the evaluator needs.
type metForecastResponse struct {
	Properties struct {
		Timeseries []struct {
			Time string `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature    *float64 `json:"air_temperature"`
						WindSpeed         *float64 `json:"wind_speed"`
						WindFromDirection *float64 `json:"wind_from_direction"`
						CloudAreaFraction *float64 `json:"cloud_area_fraction"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours *metPeriod `json:"next_1_hours"`
				Next6Hours *metPeriod `json:"next_6_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

type metPeriod struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount *float64 `json:"precipitation_amount"`
	} `json:"details"`
}

// FetchForecast retrieves the forecast series for a point, clamped to the
// next 48 hourly entries. Precipitation comes from the next_1_hours period
// when present, otherwise next_6_hours.
func (c *WeatherClient) FetchForecast(ctx context.Context, lat, lon float64) (entries []types.ForecastEntry, err error) {
	defer func() { recordCall(c.metrics, "weather", err) }()

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", lat))
	q.Set("lon", fmt.Sprintf("%.4f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building weather request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather API returned %d", resp.StatusCode), nil)
	}

	var payload metForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "malformed weather payload", err)
	}

	series := payload.Properties.Timeseries
	if len(series) > maxForecastEntries {
		series = series[:maxForecastEntries]
	}

	entries = make([]types.ForecastEntry, 0, len(series))
	for _, ts := range series {
		e := types.ForecastEntry{
			Time:        ts.Time,
			TempC:       ts.Data.Instant.Details.AirTemperature,
			WindSpeedMs: ts.Data.Instant.Details.WindSpeed,
			WindFromDeg: ts.Data.Instant.Details.WindFromDirection,
			CloudPct:    ts.Data.Instant.Details.CloudAreaFraction,
		}
		for _, period := range []*metPeriod{ts.Data.Next1Hours, ts.Data.Next6Hours} {
			if period == nil {
				continue
			}
			if period.Details.PrecipitationAmount != nil {
				e.PrecipitationMM = period.Details.PrecipitationAmount
			} else {
				zero := 0.0
				e.PrecipitationMM = &zero
			}
			e.Symbol = period.Summary.SymbolCode
			break
		}
		entries = append(entries, e)
	}
	return entries, nil
}

package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourfinder/internal/types"
)

func fp(v float64) *float64 { return &v }

func forecastHour(date, hour string, temp, wind, precip, cloud float64) types.ForecastEntry {
	return types.ForecastEntry{
		Time:            date + "T" + hour + ":00:00Z",
		TempC:           fp(temp),
		WindSpeedMs:     fp(wind),
		PrecipitationMM: fp(precip),
		CloudPct:        fp(cloud),
	}
}

func TestEvaluateWeatherNoData(t *testing.T) {
	eval := EvaluateWeather(nil, "2026-03-01")

	assert.Equal(t, 0.0, eval.Score)
	assert.Equal(t, "Ingen værdata tilgjengelig", eval.Description)
	assert.Nil(t, eval.Details)
}

func TestEvaluateWeatherCalmColdDay(t *testing.T) {
	entries := []types.ForecastEntry{
		forecastHour("2026-03-01", "06", -6, 3, 0, 30),
		forecastHour("2026-03-01", "09", -5, 4, 0, 40),
		forecastHour("2026-03-01", "12", -4, 3, 0, 50),
	}

	eval := EvaluateWeather(entries, "2026-03-01")

	assert.Equal(t, 100.0, eval.Score)
	assert.Equal(t, "\U0001F7E2 Utmerkede forhold", eval.Description)
	require.NotNil(t, eval.Details)
	assert.InDelta(t, 3.3, eval.Details.AvgWindMs, 0.05)
	assert.InDelta(t, -5.0, eval.Details.AvgTempC, 0.05)
	assert.Equal(t, 0.0, eval.Details.TotalPrecipMM)
}

func TestEvaluateWeatherStackedPenalties(t *testing.T) {
	// avg wind 12 (-30), total precip 6 (-15), avg temp 1 (-10),
	// avg clouds 80 (-5): 100 - 60 = 40.
	entries := []types.ForecastEntry{
		forecastHour("2026-03-01", "06", 1, 12, 3, 80),
		forecastHour("2026-03-01", "12", 1, 12, 3, 80),
	}

	eval := EvaluateWeather(entries, "2026-03-01")

	assert.Equal(t, 40.0, eval.Score)
	assert.Equal(t, "\U0001F7E0 Moderate forhold", eval.Description)
}

func TestEvaluateWeatherClampsAtZero(t *testing.T) {
	entries := []types.ForecastEntry{
		forecastHour("2026-03-01", "06", 4, 20, 20, 95),
	}

	eval := EvaluateWeather(entries, "2026-03-01")

	assert.Equal(t, 0.0, eval.Score)
	assert.Equal(t, "\U0001F534 Dårlige forhold", eval.Description)
}

func TestEvaluateWeatherPicksTargetDate(t *testing.T) {
	entries := []types.ForecastEntry{
		forecastHour("2026-03-01", "12", 2, 20, 10, 95), // grim day before
		forecastHour("2026-03-02", "09", -5, 2, 0, 20),
		forecastHour("2026-03-02", "12", -4, 3, 0, 20),
	}

	eval := EvaluateWeather(entries, "2026-03-02")

	assert.Equal(t, 100.0, eval.Score)
}

func TestEvaluateWeatherFallsBackToLeadingEntries(t *testing.T) {
	var entries []types.ForecastEntry
	for i := 0; i < 12; i++ {
		entries = append(entries, forecastHour("2026-03-01", "06", -5, 3, 0, 20))
	}
	for i := 0; i < 12; i++ {
		entries = append(entries, forecastHour("2026-03-02", "06", 4, 20, 2, 95))
	}

	// No entry matches the target date, so the first 12 stand in.
	eval := EvaluateWeather(entries, "2026-03-09")

	assert.Equal(t, 100.0, eval.Score)
}

func TestEvaluateWeatherIsPure(t *testing.T) {
	entries := []types.ForecastEntry{
		forecastHour("2026-03-01", "06", -2, 7, 2, 60),
	}

	first := EvaluateWeather(entries, "2026-03-01")
	second := EvaluateWeather(entries, "2026-03-01")

	assert.Equal(t, first, second)
}

func TestEvaluateAvalancheNoData(t *testing.T) {
	eval := EvaluateAvalanche(nil, "2026-03-01")

	assert.Equal(t, 0.0, eval.Score)
	assert.Equal(t, "Ingen skredvarsel tilgjengelig", eval.Description)
	assert.Nil(t, eval.DangerLevel)
}

func TestEvaluateAvalancheScoreByLevel(t *testing.T) {
	cases := []struct {
		level int
		score float64
	}{
		{1, 100}, {2, 75}, {3, 35}, {4, 5}, {5, 0}, {0, 0},
	}
	for _, tc := range cases {
		warnings := []types.AvalancheWarning{{Date: "2026-03-01", DangerLevel: tc.level, DangerName: "x"}}
		eval := EvaluateAvalanche(warnings, "2026-03-01")
		assert.Equal(t, tc.score, eval.Score, "level %d", tc.level)
	}
}

func TestEvaluateAvalanchePrefersTargetDate(t *testing.T) {
	warnings := []types.AvalancheWarning{
		{Date: "2026-03-01", DangerLevel: 2, DangerName: "Moderat"},
		{Date: "2026-03-02", DangerLevel: 4, DangerName: "Stor"},
	}

	eval := EvaluateAvalanche(warnings, "2026-03-02")

	require.NotNil(t, eval.DangerLevel)
	assert.Equal(t, 4, *eval.DangerLevel)
	assert.Equal(t, 5.0, eval.Score)
	assert.Contains(t, eval.Description, "tur frarådes")
}

func TestEvaluateAvalancheFallbackPicksEarliestDate(t *testing.T) {
	// Upstream ordering is not trusted: the list is sorted by date before the
	// no-match fallback selects the first entry.
	warnings := []types.AvalancheWarning{
		{Date: "2026-03-03", DangerLevel: 4, DangerName: "Stor"},
		{Date: "2026-03-01", DangerLevel: 2, DangerName: "Moderat"},
	}

	eval := EvaluateAvalanche(warnings, "2026-03-09")

	require.NotNil(t, eval.DangerLevel)
	assert.Equal(t, 2, *eval.DangerLevel)
	assert.Equal(t, 75.0, eval.Score)
	assert.Contains(t, eval.Description, "Faregrad 2")
}

func TestDistanceScore(t *testing.T) {
	assert.Equal(t, neutralDistanceScore, distanceScore(nil, 4))
	assert.Equal(t, 85.0, distanceScore(fp(2), 4))
	assert.Equal(t, 70.0, distanceScore(fp(4), 4))
	assert.Equal(t, 100.0, distanceScore(fp(0), 4))
}

func TestTotalScoreWeights(t *testing.T) {
	aval := types.AvalancheEvaluation{Score: 75, DangerLevel: fpInt(2)}
	weather := types.WeatherEvaluation{Score: 50}

	// 0.50*75 + 0.35*50 + 0.15*70 = 65.5
	assert.Equal(t, 65.5, totalScore(aval, weather, 70))
}

func TestTotalScoreSafetyOverride(t *testing.T) {
	weather := types.WeatherEvaluation{Score: 100}

	// Danger level 4: raw 0.50*5 + 0.35*100 + 0.15*100 = 52.5, capped at 10.
	capped := totalScore(types.AvalancheEvaluation{Score: 5, DangerLevel: fpInt(4)}, weather, 100)
	assert.Equal(t, 10.0, capped)

	// Danger level 3 is not capped.
	open := totalScore(types.AvalancheEvaluation{Score: 35, DangerLevel: fpInt(3)}, weather, 100)
	assert.Equal(t, 67.5, open)

	// Unknown danger is not treated as dangerous.
	unknown := totalScore(types.AvalancheEvaluation{Score: 0}, weather, 100)
	assert.Equal(t, 50.0, unknown)
}

func fpInt(v int) *int { return &v }

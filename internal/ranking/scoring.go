package ranking

import (
	"fmt"
	"math"
	"sort"

	"tourfinder/internal/types"
)

// Scoring weights. Avalanche hazard dominates, weather matters, drive
// distance is a bonus.
const (
	avalancheWeight = 0.50
	weatherWeight   = 0.35
	distanceWeight  = 0.15
)

// neutralDistanceScore is used when no origin was given and drive time is
// unknown.
const neutralDistanceScore = 70.0

// safetyCeiling caps the total score whenever the danger level reaches
// dangerOverrideLevel. A non-negotiable floor, not a weight.
const (
	dangerOverrideLevel = 4
	safetyCeiling       = 10.0
)

// fallbackForecastHours is how many leading entries stand in for the target
// day when the forecast series has no entry on that date.
const fallbackForecastHours = 12

// avalancheScoreByLevel maps the 1-5 danger scale to a 0-100 score.
// Anything outside the scale scores zero.
var avalancheScoreByLevel = map[int]float64{
	1: 100,
	2: 75,
	3: 35,
	4: 5,
	5: 0,
}

var dangerEmoji = map[int]string{
	1: "\U0001F7E2",
	2: "\U0001F7E1",
	3: "\U0001F7E0",
	4: "\U0001F534",
	5: "⚫",
}

// EvaluateWeather scores a forecast series for touring on the target date
// (YYYY-MM-DD). It is a pure function: same inputs, same output.
//
// Entries whose date matches the target are averaged; when none match, the
// first 12 entries stand in. Wind, temperature and cloud cover are averaged,
// precipitation is summed, and penalties are applied to a base score of 100.
func EvaluateWeather(forecasts []types.ForecastEntry, targetDate string) types.WeatherEvaluation {
	if len(forecasts) == 0 {
		return types.WeatherEvaluation{
			Score:       0,
			Description: "Ingen værdata tilgjengelig",
		}
	}

	day := make([]types.ForecastEntry, 0, len(forecasts))
	for _, f := range forecasts {
		if len(f.Time) >= 10 && f.Time[:10] == targetDate {
			day = append(day, f)
		}
	}
	if len(day) == 0 {
		day = forecasts
		if len(day) > fallbackForecastHours {
			day = day[:fallbackForecastHours]
		}
	}

	n := float64(len(day))
	var windSum, tempSum, precipSum, cloudSum float64
	for _, f := range day {
		windSum += deref(f.WindSpeedMs)
		tempSum += deref(f.TempC)
		precipSum += deref(f.PrecipitationMM)
		cloudSum += deref(f.CloudPct)
	}
	avgWind := windSum / n
	avgTemp := tempSum / n
	avgClouds := cloudSum / n

	score := 100.0

	// Wind: ideal below 5 m/s, workable below 10, grim above 15.
	switch {
	case avgWind > 15:
		score -= 50
	case avgWind > 10:
		score -= 30
	case avgWind > 5:
		score -= 10
	}

	// Precipitation: a little snow is fine, rain is not.
	switch {
	case precipSum > 15:
		score -= 30
	case precipSum > 5:
		score -= 15
	case precipSum > 1:
		score -= 5
	}

	// Temperature: above freezing ruins the snow, far below is unpleasant.
	switch {
	case avgTemp > 2:
		score -= 20
	case avgTemp > 0:
		score -= 10
	case avgTemp < -15:
		score -= 10
	}

	switch {
	case avgClouds > 90:
		score -= 15
	case avgClouds > 70:
		score -= 5
	}

	score = math.Max(0, math.Min(100, score))

	var desc string
	switch {
	case score >= 80:
		desc = "\U0001F7E2 Utmerkede forhold"
	case score >= 60:
		desc = "\U0001F7E1 Gode forhold"
	case score >= 40:
		desc = "\U0001F7E0 Moderate forhold"
	default:
		desc = "\U0001F534 Dårlige forhold"
	}

	return types.WeatherEvaluation{
		Score:       score,
		Description: desc,
		Details: &types.WeatherDetails{
			AvgWindMs:     round1(avgWind),
			AvgTempC:      round1(avgTemp),
			TotalPrecipMM: round1(precipSum),
			AvgCloudPct:   math.Round(avgClouds),
		},
	}
}

// EvaluateAvalanche scores the avalanche hazard for the target date from a
// region's warning list. The list is sorted ascending by date before the
// target-date lookup, so the "no match" fallback reliably picks the earliest
// warning regardless of upstream ordering.
func EvaluateAvalanche(warnings []types.AvalancheWarning, targetDate string) types.AvalancheEvaluation {
	if len(warnings) == 0 {
		return types.AvalancheEvaluation{
			Score:       0,
			Description: "Ingen skredvarsel tilgjengelig",
		}
	}

	sorted := make([]types.AvalancheWarning, len(warnings))
	copy(sorted, warnings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	selected := sorted[0]
	for _, w := range sorted {
		if w.Date == targetDate {
			selected = w
			break
		}
	}

	danger := selected.DangerLevel
	score := avalancheScoreByLevel[danger]

	var desc string
	switch {
	case danger >= 1 && danger <= 2:
		desc = fmt.Sprintf("%s Faregrad %d (%s) – gode forhold for tur",
			dangerEmoji[danger], danger, selected.DangerName)
	case danger == 3:
		desc = fmt.Sprintf("%s Faregrad %d (%s) – vær forsiktig, velg trygge ruter",
			dangerEmoji[danger], danger, selected.DangerName)
	case danger >= 4:
		desc = fmt.Sprintf("%s Faregrad %d (%s) – tur frarådes",
			dangerEmoji[danger], danger, selected.DangerName)
	default:
		desc = "Ukjent faregrad"
	}

	level := danger
	return types.AvalancheEvaluation{
		Score:       score,
		Description: desc,
		DangerLevel: &level,
		DangerName:  selected.DangerName,
		RegionName:  selected.RegionName,
		MainText:    selected.MainText,
	}
}

// distanceScore rewards shorter drives. Unknown drive time (no origin given)
// scores the neutral 70.
func distanceScore(driveHours *float64, maxDriveHours float64) float64 {
	if driveHours == nil {
		return neutralDistanceScore
	}
	return 100 - (*driveHours/maxDriveHours)*30
}

// totalScore combines the component scores and applies the safety override:
// danger level 4 or above caps the result at 10 regardless of weather or
// distance.
func totalScore(avalanche types.AvalancheEvaluation, weather types.WeatherEvaluation, distScore float64) float64 {
	total := avalanche.Score*avalancheWeight +
		weather.Score*weatherWeight +
		distScore*distanceWeight

	if avalanche.DangerLevel != nil && *avalanche.DangerLevel >= dangerOverrideLevel {
		total = math.Min(total, safetyCeiling)
	}
	return round1(total)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

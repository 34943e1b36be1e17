package analysis

import (
	"sort"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

// DefaultDecay is the weight ratio between consecutive filling intervals,
// newest first.
const DefaultDecay = 0.7

// RecencyWeightedRate averages interval rates with weight decay^k for the
// k-th most recent interval. decay outside (0, 1] falls back to DefaultDecay.
func RecencyWeightedRate(intervals []Interval, decay float64) float64 {
	if decay <= 0 || decay > 1 {
		decay = DefaultDecay
	}
	var num, den float64
	w := 1.0
	for i := len(intervals) - 1; i >= 0; i-- {
		num += w * intervals[i].Rate()
		den += w
		w *= decay
	}
	if den == 0 {
		return 0
	}
	return clampRate(num / den)
}

// ETA is the minutes until currentLevel reaches maxVolume at rate. ok is
// false, and the value NoETA, when the vessel is already full or not filling.
// A real ETA is never capped.
func ETA(currentLevel, maxVolume, rate float64) (minutes float64, ok bool) {
	rate = clampRate(rate)
	if rate <= 0 || currentLevel >= maxVolume {
		return models.NoETA, false
	}
	return (maxVolume - currentLevel) / rate, true
}

// Forecast projects a vessel's overflow as of asOf using only readings at or
// before asOf.
func Forecast(v models.Vessel, readings []models.LevelReading, asOf time.Time, decay float64) models.ForecastRecord {
	rec := models.ForecastRecord{
		VesselID:   v.ID,
		VesselName: v.Name,
		AsOf:       asOf,
		MaxVolume:  v.MaxVolume,
		ETAMinutes: models.NoETA,
	}
	rs := sortedReadings(readings)
	n := sort.Search(len(rs), func(i int) bool { return rs[i].Timestamp.After(asOf) })
	if n == 0 {
		return rec
	}
	visible := rs[:n]
	rec.CurrentLevel = visible[n-1].Level
	rec.FillRate = RecencyWeightedRate(FillingIntervals(visible), decay)
	rec.ETAMinutes, rec.HasETA = ETA(rec.CurrentLevel, rec.MaxVolume, rec.FillRate)
	return rec
}

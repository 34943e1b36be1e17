// Package analysis reconciles vessel level telemetry against pickup tickets
// and projects overflow. Every function here is a pure computation over the
// values it is given; loading and caching live in the service package.
package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/cauldronwatch/backend/internal/models"
)

// Interval is a maximal run of readings over which the level never dropped.
type Interval struct {
	Start      time.Time
	End        time.Time
	LevelStart float64
	LevelEnd   float64
}

func (iv Interval) Minutes() float64 {
	return iv.End.Sub(iv.Start).Minutes()
}

// Rate is the level gain per minute across the interval.
func (iv Interval) Rate() float64 {
	m := iv.Minutes()
	if m <= 0 {
		return 0
	}
	return (iv.LevelEnd - iv.LevelStart) / m
}

// FillingIntervals splits the series into maximal non-decreasing runs and
// keeps those with at least two readings and a positive duration.
func FillingIntervals(readings []models.LevelReading) []Interval {
	rs := sortedReadings(readings)
	var out []Interval
	start := 0
	for i := 1; i <= len(rs); i++ {
		if i < len(rs) && rs[i].Level >= rs[i-1].Level {
			continue
		}
		last := i - 1
		if last > start {
			iv := Interval{
				Start:      rs[start].Timestamp,
				End:        rs[last].Timestamp,
				LevelStart: rs[start].Level,
				LevelEnd:   rs[last].Level,
			}
			if iv.Minutes() > 0 {
				out = append(out, iv)
			}
		}
		start = i
	}
	return out
}

// EstimateFillRate returns the median filling rate in L/min over the whole
// history, or 0 when the vessel never shows a usable filling interval.
func EstimateFillRate(readings []models.LevelReading) float64 {
	intervals := FillingIntervals(readings)
	if len(intervals) == 0 {
		return 0
	}
	rates := make([]float64, len(intervals))
	for i, iv := range intervals {
		rates[i] = iv.Rate()
	}
	return clampRate(median(rates))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	if len(s)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	m := len(s) / 2
	return stat.Mean(s[m-1:m+1], nil)
}

// clampRate maps negative and non-finite rates to zero.
func clampRate(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return 0
	}
	return r
}

// sortedReadings returns readings ordered by timestamp, copying only when the
// input is out of order.
func sortedReadings(readings []models.LevelReading) []models.LevelReading {
	less := func(a, b models.LevelReading) bool { return a.Timestamp.Before(b.Timestamp) }
	if sort.SliceIsSorted(readings, func(i, j int) bool { return less(readings[i], readings[j]) }) {
		return readings
	}
	out := append([]models.LevelReading(nil), readings...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

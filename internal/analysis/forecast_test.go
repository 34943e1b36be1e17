package analysis

import (
	"testing"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

func TestForecastNoDataBeforeCutoff(t *testing.T) {
	v := models.Vessel{ID: "v1", Name: "Azure", MaxVolume: 100}
	readings := series("v1", time.Minute, 10, 20, 30)
	rec := Forecast(v, readings, t0.Add(-time.Second), DefaultDecay)
	if rec.ETAMinutes != models.NoETA || rec.FillRate != 0 || rec.CurrentLevel != 0 {
		t.Fatalf("expected sentinel forecast, got %+v", rec)
	}
	if rec.AtRisk() {
		t.Fatalf("sentinel forecast must not be at risk")
	}
}

func TestForecastIgnoresFutureReadings(t *testing.T) {
	v := models.Vessel{ID: "v1", MaxVolume: 100}
	readings := series("v1", 10*time.Minute, 0, 10, 95)
	rec := Forecast(v, readings, t0.Add(10*time.Minute), DefaultDecay)
	if rec.CurrentLevel != 10 {
		t.Fatalf("expected current level 10, got %f", rec.CurrentLevel)
	}
	if !almostEqual(rec.FillRate, 1) {
		t.Fatalf("expected rate 1, got %f", rec.FillRate)
	}
	if !almostEqual(rec.ETAMinutes, 90) || !rec.HasETA {
		t.Fatalf("expected eta 90, got %f", rec.ETAMinutes)
	}
}

func TestForecastFullVessel(t *testing.T) {
	v := models.Vessel{ID: "v1", MaxVolume: 100}
	rec := Forecast(v, series("v1", time.Minute, 90, 100), t0.Add(time.Hour), DefaultDecay)
	if rec.ETAMinutes != models.NoETA || rec.HasETA {
		t.Fatalf("expected sentinel for full vessel, got %+v", rec)
	}
}

func TestETAMonotonic(t *testing.T) {
	prev, _ := ETA(0, 100, 2)
	for level := 10.0; level < 100; level += 10 {
		eta, ok := ETA(level, 100, 2)
		if !ok || eta >= prev {
			t.Fatalf("eta must strictly decrease: level %f gave %f after %f", level, eta, prev)
		}
		prev = eta
	}
	for _, level := range []float64{100, 120} {
		if eta, ok := ETA(level, 100, 2); ok || eta != models.NoETA {
			t.Fatalf("expected sentinel at level %f, got %f", level, eta)
		}
	}
	for _, rate := range []float64{0, -1} {
		if eta, ok := ETA(10, 100, rate); ok || eta != models.NoETA {
			t.Fatalf("expected sentinel for rate %f, got %f", rate, eta)
		}
	}
}

func TestForecastETABeyondSentinel(t *testing.T) {
	v := models.Vessel{ID: "slow", MaxVolume: 2000}
	rec := Forecast(v, series("slow", time.Minute, 100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110), t0.Add(time.Hour), DefaultDecay)
	if !almostEqual(rec.ETAMinutes, 1890) {
		t.Fatalf("expected uncapped eta 1890, got %f", rec.ETAMinutes)
	}
	if !rec.HasETA || !rec.AtRisk() {
		t.Fatalf("a real eta above the sentinel must stay at risk: %+v", rec)
	}

	exact, ok := ETA(1, 1000, 1)
	if !ok || exact != models.NoETA {
		t.Fatalf("expected a real eta of exactly %f, got %f ok=%v", models.NoETA, exact, ok)
	}
}

func TestRecencyWeightedRateFavoursRecentIntervals(t *testing.T) {
	intervals := []Interval{
		{Start: t0, End: t0.Add(time.Minute), LevelStart: 0, LevelEnd: 1},
		{Start: t0.Add(time.Hour), End: t0.Add(time.Hour + time.Minute), LevelStart: 0, LevelEnd: 4},
	}
	got := RecencyWeightedRate(intervals, 0.5)
	if !almostEqual(got, 3) {
		t.Fatalf("expected (4*1 + 1*0.5)/1.5 = 3, got %f", got)
	}
	if med := median([]float64{1, 4}); got <= med {
		t.Fatalf("expected recency weighting (%f) above the median (%f)", got, med)
	}
	if got := RecencyWeightedRate(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 without intervals, got %f", got)
	}
	if got := RecencyWeightedRate(intervals, 7); !almostEqual(got, (4+DefaultDecay)/(1+DefaultDecay)) {
		t.Fatalf("expected default decay fallback, got %f", got)
	}
}

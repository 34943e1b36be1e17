package analysis

import (
	"math"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

var t0 = time.Date(2025, 11, 8, 6, 0, 0, 0, time.UTC)

// series builds readings for one vessel spaced step apart starting at t0.
func series(vesselID string, step time.Duration, levels ...float64) []models.LevelReading {
	out := make([]models.LevelReading, len(levels))
	for i, l := range levels {
		out[i] = models.LevelReading{VesselID: vesselID, Timestamp: t0.Add(time.Duration(i) * step), Level: l}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

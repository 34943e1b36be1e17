package analysis

import (
	"github.com/cauldronwatch/backend/internal/models"
)

// DetectDrains segments a vessel's history into drain events. An event starts
// at the first strictly decreasing step and runs through every following
// decreasing step; a flat or rising step ends it. TrueVolume is left at zero
// for Reconcile to fill in.
func DetectDrains(vesselID string, readings []models.LevelReading) []models.DrainEvent {
	rs := sortedReadings(readings)
	out := make([]models.DrainEvent, 0)
	i := 0
	for i < len(rs)-1 {
		if rs[i+1].Level >= rs[i].Level {
			i++
			continue
		}
		start, end := i, i+1
		for end < len(rs)-1 && rs[end+1].Level < rs[end].Level {
			end++
		}
		out = append(out, models.DrainEvent{
			VesselID:     vesselID,
			StartTime:    rs[start].Timestamp,
			EndTime:      rs[end].Timestamp,
			LevelBefore:  rs[start].Level,
			LevelAfter:   rs[end].Level,
			DrainMinutes: drainMinutes(rs, start, end),
		})
		i = end
	}
	return out
}

// drainMinutes is the event duration. When start and end share a timestamp
// the gap to the reading before the event stands in, or zero at the head of
// the series.
func drainMinutes(rs []models.LevelReading, start, end int) float64 {
	d := rs[end].Timestamp.Sub(rs[start].Timestamp)
	if d <= 0 && start > 0 {
		d = rs[start].Timestamp.Sub(rs[start-1].Timestamp)
	}
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

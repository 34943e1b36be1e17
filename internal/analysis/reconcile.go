package analysis

import (
	"github.com/cauldronwatch/backend/internal/models"
)

// TrueVolume restores the inflow that kept arriving while the vessel was
// being drained: raw drop + rate × duration. Negative or non-finite rates
// count as zero.
func TrueVolume(levelBefore, levelAfter, drainMinutes, fillRate float64) float64 {
	if drainMinutes < 0 {
		drainMinutes = 0
	}
	return (levelBefore - levelAfter) + clampRate(fillRate)*drainMinutes
}

func Reconcile(ev models.DrainEvent, fillRate float64) models.DrainEvent {
	ev.FillRate = clampRate(fillRate)
	ev.TrueVolume = TrueVolume(ev.LevelBefore, ev.LevelAfter, ev.DrainMinutes, ev.FillRate)
	return ev
}

// VesselAnalysis is the historical result for one vessel.
type VesselAnalysis struct {
	VesselID string
	FillRate float64
	Drains   []models.DrainEvent
}

// ReconcileVessel estimates the vessel's fill rate, detects its drains and
// computes each drain's true volume. With noiseFloor > 0, drains whose true
// volume does not exceed it are discarded.
func ReconcileVessel(vesselID string, readings []models.LevelReading, noiseFloor float64) VesselAnalysis {
	rate := EstimateFillRate(readings)
	detected := DetectDrains(vesselID, readings)
	drains := make([]models.DrainEvent, 0, len(detected))
	for _, ev := range detected {
		ev = Reconcile(ev, rate)
		if noiseFloor > 0 && ev.TrueVolume <= noiseFloor {
			continue
		}
		drains = append(drains, ev)
	}
	return VesselAnalysis{VesselID: vesselID, FillRate: rate, Drains: drains}
}

package analysis

import (
	"math"
	"sort"

	"github.com/cauldronwatch/backend/internal/models"
)

// VesselNamer resolves display names; *snapshot.Snapshot satisfies it.
type VesselNamer interface {
	VesselName(id string) string
}

type dayKey struct {
	date     string
	vesselID string
}

type dayTotals struct {
	expected float64
	actual   float64
}

// Classify labels a missing volume. A positive value (less physically removed
// than ticketed) is theft; anything else is leakage.
func Classify(missingVolume float64) string {
	if missingVolume > 0 {
		return models.ClassTheft
	}
	return models.ClassLeakage
}

// MatchDiscrepancies sums reconciled drains and ticketed volumes per UTC day
// and vessel and emits one record for every pair seen on either side, ordered
// by date then vessel id. tolerance only sets WithinTolerance.
func MatchDiscrepancies(drains []models.DrainEvent, tickets []models.Ticket, names VesselNamer, tolerance float64) []models.DiscrepancyRecord {
	totals := map[dayKey]*dayTotals{}
	var keys []dayKey
	get := func(k dayKey) *dayTotals {
		t, ok := totals[k]
		if !ok {
			t = &dayTotals{}
			totals[k] = t
			keys = append(keys, k)
		}
		return t
	}

	for _, ev := range drains {
		get(dayKey{date: ev.Day(), vesselID: ev.VesselID}).actual += ev.TrueVolume
	}
	for _, t := range tickets {
		get(dayKey{date: t.Day(), vesselID: t.VesselID}).expected += t.ReportedVolume
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].date == keys[j].date {
			return keys[i].vesselID < keys[j].vesselID
		}
		return keys[i].date < keys[j].date
	})

	out := make([]models.DiscrepancyRecord, 0, len(keys))
	for _, k := range keys {
		t := totals[k]
		missing := t.expected - t.actual
		name := k.vesselID
		if names != nil {
			name = names.VesselName(k.vesselID)
		}
		out = append(out, models.DiscrepancyRecord{
			Date:            k.date,
			VesselID:        k.vesselID,
			VesselName:      name,
			ExpectedVolume:  t.expected,
			ActualVolume:    t.actual,
			MissingVolume:   missing,
			Classification:  Classify(missing),
			WithinTolerance: math.Abs(missing) <= tolerance,
		})
	}
	return out
}

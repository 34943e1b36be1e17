// Package snapshot validates and freezes one batch of vessels, level readings
// and tickets. Everything downstream reads from a Snapshot instead of loading
// data on its own, and can rely on per-vessel readings being sorted.
package snapshot

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/utils"
)

var validate = validator.New()

const (
	KindVessel  = "vessel"
	KindReading = "reading"
	KindTicket  = "ticket"
)

// ValidationError identifies the record that made a batch unusable. Index is
// the record's position in the slice handed to New.
type ValidationError struct {
	Kind     string `json:"kind"`
	Index    int    `json:"index"`
	VesselID string `json:"vessel_id"`
	Reason   string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s #%d (vessel %q): %s", e.Kind, e.Index, e.VesselID, e.Reason)
}

type Snapshot struct {
	vessels      []models.Vessel
	byID         map[string]models.Vessel
	readings     map[string][]models.LevelReading
	tickets      []models.Ticket
	fingerprints map[string]uint64
}

type indexedReading struct {
	idx int
	r   models.LevelReading
}

// New validates the batch and returns an immutable snapshot. Readings are
// grouped per vessel and sorted by timestamp. An exact duplicate reading is
// dropped; two readings of one vessel sharing a timestamp with different
// levels are rejected.
func New(vessels []models.Vessel, readings []models.LevelReading, tickets []models.Ticket) (*Snapshot, error) {
	s := &Snapshot{
		byID:         make(map[string]models.Vessel, len(vessels)),
		readings:     make(map[string][]models.LevelReading, len(vessels)),
		fingerprints: make(map[string]uint64, len(vessels)),
	}

	for i, v := range vessels {
		if err := validate.Struct(v); err != nil {
			return nil, &ValidationError{Kind: KindVessel, Index: i, VesselID: v.ID, Reason: err.Error()}
		}
		if _, dup := s.byID[v.ID]; dup {
			return nil, &ValidationError{Kind: KindVessel, Index: i, VesselID: v.ID, Reason: "duplicate vessel id"}
		}
		if v.Name == "" {
			v.Name = v.ID
		}
		s.byID[v.ID] = v
		s.vessels = append(s.vessels, v)
	}
	sort.Slice(s.vessels, func(i, j int) bool { return s.vessels[i].ID < s.vessels[j].ID })

	grouped := map[string][]indexedReading{}
	for i, r := range readings {
		if err := validate.Struct(r); err != nil {
			return nil, &ValidationError{Kind: KindReading, Index: i, VesselID: r.VesselID, Reason: err.Error()}
		}
		if math.IsInf(r.Level, 0) {
			return nil, &ValidationError{Kind: KindReading, Index: i, VesselID: r.VesselID, Reason: "level must be finite"}
		}
		if _, ok := s.byID[r.VesselID]; !ok {
			return nil, &ValidationError{Kind: KindReading, Index: i, VesselID: r.VesselID, Reason: "unknown vessel"}
		}
		grouped[r.VesselID] = append(grouped[r.VesselID], indexedReading{idx: i, r: r})
	}

	for _, v := range s.vessels {
		series := grouped[v.ID]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].r.Timestamp.Before(series[j].r.Timestamp)
		})
		out := make([]models.LevelReading, 0, len(series))
		for i, ir := range series {
			if i > 0 && ir.r.Timestamp.Equal(series[i-1].r.Timestamp) {
				if ir.r.Level != series[i-1].r.Level {
					return nil, &ValidationError{
						Kind:     KindReading,
						Index:    ir.idx,
						VesselID: v.ID,
						Reason:   fmt.Sprintf("conflicting level at duplicate timestamp %s", ir.r.Timestamp.UTC().Format("2006-01-02T15:04:05Z")),
					}
				}
				continue
			}
			out = append(out, ir.r)
		}
		s.readings[v.ID] = out
		s.fingerprints[v.ID] = fingerprint(v.ID, out)
	}

	for i, t := range tickets {
		if err := validate.Struct(t); err != nil {
			return nil, &ValidationError{Kind: KindTicket, Index: i, VesselID: t.VesselID, Reason: err.Error()}
		}
		if _, ok := s.byID[t.VesselID]; !ok {
			return nil, &ValidationError{Kind: KindTicket, Index: i, VesselID: t.VesselID, Reason: "unknown vessel"}
		}
		s.tickets = append(s.tickets, t)
	}

	return s, nil
}

func fingerprint(vesselID string, readings []models.LevelReading) uint64 {
	times := make([]time.Time, len(readings))
	levels := make([]float64, len(readings))
	for i, r := range readings {
		times[i] = r.Timestamp
		levels[i] = r.Level
	}
	return utils.FingerprintSeries(vesselID, times, levels)
}

// Vessels returns all vessels ordered by id.
func (s *Snapshot) Vessels() []models.Vessel {
	out := make([]models.Vessel, len(s.vessels))
	copy(out, s.vessels)
	return out
}

func (s *Snapshot) Vessel(id string) (models.Vessel, bool) {
	v, ok := s.byID[id]
	return v, ok
}

// VesselName falls back to the id for vessels the snapshot does not know.
func (s *Snapshot) VesselName(id string) string {
	if v, ok := s.byID[id]; ok {
		return v.Name
	}
	return id
}

// Readings returns the vessel's readings sorted by timestamp. The slice is
// shared and must not be modified.
func (s *Snapshot) Readings(vesselID string) []models.LevelReading {
	return s.readings[vesselID]
}

// AllReadings returns every kept reading ordered by vessel id then timestamp.
// Exact duplicates dropped by New are not included.
func (s *Snapshot) AllReadings() []models.LevelReading {
	var out []models.LevelReading
	for _, v := range s.vessels {
		out = append(out, s.readings[v.ID]...)
	}
	return out
}

func (s *Snapshot) Tickets() []models.Ticket {
	out := make([]models.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// Fingerprint identifies the exact reading series held for a vessel.
func (s *Snapshot) Fingerprint(vesselID string) uint64 {
	return s.fingerprints[vesselID]
}

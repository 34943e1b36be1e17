package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cauldronwatch/backend/internal/analysis"
	"github.com/cauldronwatch/backend/internal/geocode"
	"github.com/cauldronwatch/backend/internal/metrics"
	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/snapshot"
	"github.com/cauldronwatch/backend/internal/source"
)

type Options struct {
	Decay          float64
	Tolerance      float64
	NoiseFloor     float64
	SpeedKmh       float64
	ServiceMinutes float64
	BandMinutes    float64
}

func DefaultOptions() Options {
	return Options{
		Decay:     analysis.DefaultDecay,
		Tolerance: 5,
		SpeedKmh:  analysis.DefaultSpeedKmh,
	}
}

// SourceError wraps a failed load from the telemetry source.
type SourceError struct {
	Kind string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// AnalysisService loads a fresh snapshot per call and runs the analysis core
// over it.
type AnalysisService struct {
	Source   source.Source
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Cache    *Cache
	Planner  analysis.Planner
	Geocoder geocode.Geocoder
	Options  Options
}

func (s *AnalysisService) planner(travel analysis.TravelTimes) analysis.Planner {
	if s.Planner != nil {
		return s.Planner
	}
	return analysis.GreedyPlanner{
		SpeedKmh:       s.Options.SpeedKmh,
		ServiceMinutes: s.Options.ServiceMinutes,
		BandMinutes:    s.Options.BandMinutes,
		Travel:         travel,
	}
}

// travelTimes loads network edges when the source publishes them. A failed
// load is logged and routes fall back to distance estimates.
func (s *AnalysisService) travelTimes(ctx context.Context) analysis.TravelTimes {
	locator, ok := s.Source.(source.NetworkLocator)
	if !ok {
		return nil
	}
	edges, err := locator.Network(ctx)
	if err != nil {
		s.Metrics.SourceFailure("network")
		s.Logger.Warn().Err(err).Msg("network unavailable, using distance estimates")
		return nil
	}
	return analysis.NewTravelTimes(edges)
}

// Snapshot loads every vessel, reading and ticket and validates them.
func (s *AnalysisService) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	vessels, err := s.Source.Vessels(ctx)
	if err != nil {
		return nil, s.sourceError("vessels", err)
	}
	readings, err := s.Source.Readings(ctx, source.ReadingFilter{})
	if err != nil {
		return nil, s.sourceError("readings", err)
	}
	tickets, err := s.Source.Tickets(ctx)
	if err != nil {
		return nil, s.sourceError("tickets", err)
	}

	snap, err := snapshot.New(vessels, readings, tickets)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug().
		Int("vessels", len(vessels)).
		Int("readings", len(readings)).
		Int("tickets", len(tickets)).
		Msg("snapshot loaded")
	return snap, nil
}

func (s *AnalysisService) sourceError(kind string, err error) error {
	s.Metrics.SourceFailure(kind)
	s.Logger.Error().Err(err).Str("kind", kind).Msg("source load failed")
	return &SourceError{Kind: kind, Err: err}
}

// Reconcile runs the per-vessel historical analysis over snap, in vessel id
// order.
func (s *AnalysisService) Reconcile(snap *snapshot.Snapshot) []analysis.VesselAnalysis {
	vessels := snap.Vessels()
	out := make([]analysis.VesselAnalysis, 0, len(vessels))
	for _, v := range vessels {
		id := v.ID
		res := s.Cache.Get(id, snap.Fingerprint(id), s.Options.NoiseFloor, func() analysis.VesselAnalysis {
			return analysis.ReconcileVessel(id, snap.Readings(id), s.Options.NoiseFloor)
		})
		s.Metrics.SetFillRate(id, res.FillRate)
		out = append(out, res)
	}
	return out
}

// Drains returns reconciled drain events overlapping [start, end], ordered by
// vessel id then start time. Zero bounds are unbounded.
func (s *AnalysisService) Drains(ctx context.Context, start, end time.Time) ([]models.DrainEvent, error) {
	defer s.Metrics.ObserveDuration("drains", time.Now())
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Unix(source.MaxEpoch, 0).UTC()
	}
	out := []models.DrainEvent{}
	for _, res := range s.Reconcile(snap) {
		for _, ev := range res.Drains {
			if ev.Overlaps(start, end) {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

// Discrepancies matches all reconciled drains against all tickets.
func (s *AnalysisService) Discrepancies(ctx context.Context) ([]models.DiscrepancyRecord, error) {
	defer s.Metrics.ObserveDuration("discrepancies", time.Now())
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var drains []models.DrainEvent
	for _, res := range s.Reconcile(snap) {
		drains = append(drains, res.Drains...)
	}
	records := analysis.MatchDiscrepancies(drains, snap.Tickets(), snap, s.Options.Tolerance)
	s.Metrics.RecordDiscrepancies(records)

	var theft int
	for _, r := range records {
		if r.Classification == models.ClassTheft && !r.WithinTolerance {
			theft++
		}
	}
	s.Logger.Info().Int("records", len(records)).Int("suspected_theft", theft).Msg("discrepancies computed")
	return records, nil
}

// Forecast returns one overflow forecast per vessel as of asOf.
func (s *AnalysisService) Forecast(ctx context.Context, asOf time.Time) ([]models.ForecastRecord, error) {
	defer s.Metrics.ObserveDuration("forecast", time.Now())
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records := s.forecast(snap, asOf)
	s.Metrics.RecordForecasts(records)
	return records, nil
}

func (s *AnalysisService) forecast(snap *snapshot.Snapshot, asOf time.Time) []models.ForecastRecord {
	vessels := snap.Vessels()
	out := make([]models.ForecastRecord, 0, len(vessels))
	for _, v := range vessels {
		out = append(out, analysis.Forecast(v, snap.Readings(v.ID), asOf, s.Options.Decay))
	}
	return out
}

// Route plans a collection route from start over vesselIDs, or over every
// vessel at risk of overflow when vesselIDs is empty.
func (s *AnalysisService) Route(ctx context.Context, vesselIDs []string, start analysis.Origin, asOf time.Time) ([]models.RouteStop, error) {
	defer s.Metrics.ObserveDuration("route", time.Now())
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	forecasts := s.forecast(snap, asOf)
	s.Metrics.RecordForecasts(forecasts)
	byID := make(map[string]models.ForecastRecord, len(forecasts))
	for _, f := range forecasts {
		byID[f.VesselID] = f
	}

	var selected []models.ForecastRecord
	if len(vesselIDs) == 0 {
		for _, f := range forecasts {
			if f.AtRisk() {
				selected = append(selected, f)
			}
		}
	} else {
		seen := map[string]bool{}
		for i, id := range vesselIDs {
			f, ok := byID[id]
			if !ok {
				return nil, &snapshot.ValidationError{Kind: snapshot.KindVessel, Index: i, VesselID: id, Reason: "unknown vessel"}
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			selected = append(selected, f)
		}
	}

	candidates := make([]analysis.Candidate, 0, len(selected))
	for _, f := range selected {
		v, _ := snap.Vessel(f.VesselID)
		candidates = append(candidates, analysis.Candidate{
			VesselID:   v.ID,
			VesselName: v.Name,
			Lat:        v.Latitude,
			Lon:        v.Longitude,
			ETAMinutes: f.ETAMinutes,
			HasETA:     f.HasETA,
		})
	}
	stops := s.planner(s.travelTimes(ctx)).Plan(start, candidates)

	var late int
	for _, st := range stops {
		if st.Late {
			late++
		}
	}
	s.Logger.Info().Int("stops", len(stops)).Int("late", late).Msg("route planned")
	return stops, nil
}

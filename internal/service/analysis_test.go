package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cauldronwatch/backend/internal/analysis"
	"github.com/cauldronwatch/backend/internal/metrics"
	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/snapshot"
	"github.com/cauldronwatch/backend/internal/source"
)

var base = time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func fixture() *source.Memory {
	m := &source.Memory{
		VesselList: []models.Vessel{
			{ID: "cauldron_002", Name: "Bubbling Brew", Latitude: 33.0, Longitude: -97.1, MaxVolume: 500},
			{ID: "cauldron_001", Name: "Crimson Brew", Latitude: 33.0, Longitude: -97.0, MaxVolume: 1000},
		},
		TicketList: []models.Ticket{
			{ID: "TT_1", VesselID: "cauldron_001", Date: base, ReportedVolume: 50},
			{ID: "TT_2", VesselID: "cauldron_002", Date: base, ReportedVolume: 30},
		},
	}
	for i, level := range []float64{100, 110, 120, 90, 80, 90, 100} {
		m.ReadingList = append(m.ReadingList, models.LevelReading{VesselID: "cauldron_001", Timestamp: at(i), Level: level})
	}
	m.ReadingList = append(m.ReadingList,
		models.LevelReading{VesselID: "cauldron_002", Timestamp: at(0), Level: 100},
		models.LevelReading{VesselID: "cauldron_002", Timestamp: at(10), Level: 200},
	)
	return m
}

func newService(src source.Source) *AnalysisService {
	return &AnalysisService{
		Source:  src,
		Logger:  zerolog.Nop(),
		Metrics: metrics.New(),
		Cache:   NewCache(),
		Options: DefaultOptions(),
	}
}

func TestDiscrepancies(t *testing.T) {
	svc := newService(fixture())
	records, err := svc.Discrepancies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}

	a := records[0]
	if a.VesselID != "cauldron_001" || a.ActualVolume != 60 || a.MissingVolume != -10 || a.Classification != models.ClassLeakage {
		t.Fatalf("unexpected record for cauldron_001: %+v", a)
	}
	if a.WithinTolerance {
		t.Fatalf("expected -10 to fall outside tolerance 5")
	}
	b := records[1]
	if b.VesselID != "cauldron_002" || b.VesselName != "Bubbling Brew" || b.MissingVolume != 30 || b.Classification != models.ClassTheft {
		t.Fatalf("unexpected record for cauldron_002: %+v", b)
	}
}

func TestDiscrepanciesUsesCache(t *testing.T) {
	svc := newService(fixture())
	first, err := svc.Discrepancies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Discrepancies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical results across runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	hits, misses := svc.Cache.Stats()
	if hits != 2 || misses != 2 {
		t.Fatalf("expected 2 hits and 2 misses, got %d/%d", hits, misses)
	}
}

func TestCacheRecomputesOnNewReadings(t *testing.T) {
	src := fixture()
	svc := newService(src)
	if _, err := svc.Discrepancies(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.ReadingList = append(src.ReadingList, models.LevelReading{VesselID: "cauldron_002", Timestamp: at(11), Level: 150})
	records, err := svc.Discrepancies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hits, misses := svc.Cache.Stats()
	if hits != 1 || misses != 3 {
		t.Fatalf("expected only cauldron_002 to be recomputed, got %d hits / %d misses", hits, misses)
	}
	if records[1].ActualVolume <= 0 {
		t.Fatalf("expected new drain on cauldron_002, got %+v", records[1])
	}
}

func TestDrainsOverlapRange(t *testing.T) {
	svc := newService(fixture())
	all, err := svc.Drains(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].TrueVolume != 60 {
		t.Fatalf("expected one drain of 60 L, got %+v", all)
	}

	edge, _ := svc.Drains(context.Background(), at(4), at(100))
	if len(edge) != 1 {
		t.Fatalf("expected closed range to include drain ending at start bound")
	}
	after, _ := svc.Drains(context.Background(), at(5), at(100))
	if len(after) != 0 {
		t.Fatalf("expected no drains after the event, got %+v", after)
	}
}

func TestForecast(t *testing.T) {
	svc := newService(fixture())
	records, err := svc.Forecast(context.Background(), at(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected one forecast per vessel, got %d", len(records))
	}
	if records[0].VesselID != "cauldron_001" || records[0].CurrentLevel != 100 || records[0].ETAMinutes != 90 {
		t.Fatalf("unexpected forecast: %+v", records[0])
	}
	if records[1].ETAMinutes != models.NoETA || records[1].AtRisk() {
		t.Fatalf("expected sentinel eta for vessel without filling history, got %+v", records[1])
	}
}

func TestRouteDefaultsToAtRiskVessels(t *testing.T) {
	svc := newService(fixture())
	stops, err := svc.Route(context.Background(), nil, analysis.Origin{Point: models.Point{Lat: 33.0, Lon: -97.0}}, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %+v", stops)
	}
	if stops[0].VesselID != "cauldron_002" || stops[0].DeadlineMinutes != 30 {
		t.Fatalf("expected most urgent vessel first, got %+v", stops[0])
	}
	if stops[1].VesselID != "cauldron_001" || stops[1].Position != 2 {
		t.Fatalf("unexpected second stop: %+v", stops[1])
	}

	only, err := svc.Route(context.Background(), []string{"cauldron_001", "cauldron_001"}, analysis.Origin{Point: models.Point{Lat: 33.0, Lon: -97.0}}, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(only) != 1 || only[0].LegKm != 0 {
		t.Fatalf("expected single stop at the start position, got %+v", only)
	}
}

func TestRouteKeepsETABeyondSentinel(t *testing.T) {
	src := &source.Memory{
		VesselList: []models.Vessel{
			{ID: "idle", Latitude: 33.0, Longitude: -97.0, MaxVolume: 1000},
			{ID: "slow", Latitude: 33.1, Longitude: -97.0, MaxVolume: 2000},
		},
	}
	for i := 0; i <= 10; i++ {
		src.ReadingList = append(src.ReadingList,
			models.LevelReading{VesselID: "slow", Timestamp: at(i), Level: float64(100 + i)},
			models.LevelReading{VesselID: "idle", Timestamp: at(i), Level: 50},
		)
	}
	svc := newService(src)

	forecasts, err := svc.Forecast(context.Background(), at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slow := forecasts[1]; slow.VesselID != "slow" || slow.ETAMinutes != 1890 || !slow.AtRisk() {
		t.Fatalf("expected slow vessel at risk with eta 1890, got %+v", slow)
	}

	start := analysis.Origin{Point: models.Point{Lat: 33.0, Lon: -97.0}}
	stops, err := svc.Route(context.Background(), nil, start, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 1 || stops[0].VesselID != "slow" || stops[0].DeadlineMinutes != 1890 || stops[0].Late {
		t.Fatalf("expected the slow vessel in the default route, got %+v", stops)
	}

	both, err := svc.Route(context.Background(), []string{"idle", "slow"}, start, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(both) != 2 || both[0].VesselID != "slow" || both[1].DeadlineMinutes != models.NoETA {
		t.Fatalf("expected the vessel with an eta before the idle one, got %+v", both)
	}
}

func TestRouteUsesNetworkTravelTimes(t *testing.T) {
	src := fixture()
	src.DepotInfo = &models.Depot{ID: "market_001", Latitude: 33.5, Longitude: -97.5}
	src.Edges = []models.Edge{{From: "market_001", To: "cauldron_001", TravelMinutes: 12}}
	svc := newService(src)

	start, from, err := svc.ResolveStart(context.Background(), nil, "")
	if err != nil || from != StartFromDepot {
		t.Fatalf("expected depot start, got %s (%v)", from, err)
	}
	stops, err := svc.Route(context.Background(), []string{"cauldron_001"}, start, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 1 || stops[0].ArrivalMinutes != 12 || stops[0].LegKm == 0 {
		t.Fatalf("expected the edge's 12 minutes with a great-circle leg, got %+v", stops)
	}

	stops, err = svc.Route(context.Background(), []string{"cauldron_002"}, start, at(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := stops[0].LegKm / analysis.DefaultSpeedKmh * 60; stops[0].ArrivalMinutes != want {
		t.Fatalf("expected distance fallback %f without an edge, got %f", want, stops[0].ArrivalMinutes)
	}
}

func TestRouteUnknownVessel(t *testing.T) {
	svc := newService(fixture())
	_, err := svc.Route(context.Background(), []string{"cauldron_001", "ghost"}, analysis.Origin{}, at(10))
	var verr *snapshot.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Index != 1 || verr.VesselID != "ghost" {
		t.Fatalf("unexpected error detail: %+v", verr)
	}
}

type failingSource struct {
	source.Memory
}

func (failingSource) Tickets(ctx context.Context) ([]models.Ticket, error) {
	return nil, errors.New("connection refused")
}

func TestSourceErrorIsWrapped(t *testing.T) {
	svc := newService(&failingSource{Memory: *fixture()})
	_, err := svc.Discrepancies(context.Background())
	var serr *SourceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if serr.Kind != "tickets" {
		t.Fatalf("expected tickets kind, got %q", serr.Kind)
	}
}

func TestInvalidSnapshotSurfaces(t *testing.T) {
	src := fixture()
	src.ReadingList = append(src.ReadingList, models.LevelReading{VesselID: "cauldron_001", Timestamp: at(20), Level: -1})
	svc := newService(src)
	_, err := svc.Forecast(context.Background(), at(20))
	var verr *snapshot.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

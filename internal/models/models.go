package models

import "time"

// NoETA is reported as eta_minutes when a vessel has no actionable overflow ETA.
const NoETA = 999.0

const (
	ClassTheft   = "theft"
	ClassLeakage = "leakage"
)

type Vessel struct {
	ID        string  `json:"id" validate:"required"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	MaxVolume float64 `json:"max_volume" validate:"gt=0"`
}

type LevelReading struct {
	VesselID  string    `json:"vessel_id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Level     float64   `json:"level" validate:"gte=0"`
}

type Ticket struct {
	ID             string    `json:"id,omitempty"`
	VesselID       string    `json:"vessel_id" validate:"required"`
	CourierID      string    `json:"courier_id,omitempty"`
	Date           time.Time `json:"date" validate:"required"`
	ReportedVolume float64   `json:"reported_volume" validate:"gte=0"`
}

// Day returns the ticket's calendar day in UTC as YYYY-MM-DD.
func (t Ticket) Day() string {
	return t.Date.UTC().Format(DayLayout)
}

const DayLayout = "2006-01-02"

type DrainEvent struct {
	VesselID     string    `json:"vessel_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	LevelBefore  float64   `json:"level_before"`
	LevelAfter   float64   `json:"level_after"`
	DrainMinutes float64   `json:"drain_minutes"`
	FillRate     float64   `json:"fill_rate"`
	TrueVolume   float64   `json:"true_volume"`
}

// Day returns the UTC calendar day the drain started on.
func (e DrainEvent) Day() string {
	return e.StartTime.UTC().Format(DayLayout)
}

// Overlaps reports whether the event intersects the closed range [start, end].
func (e DrainEvent) Overlaps(start, end time.Time) bool {
	return !e.EndTime.Before(start) && !e.StartTime.After(end)
}

type DiscrepancyRecord struct {
	Date            string  `json:"date"`
	VesselID        string  `json:"vessel_id"`
	VesselName      string  `json:"vessel_name"`
	ExpectedVolume  float64 `json:"expected_volume"`
	ActualVolume    float64 `json:"actual_volume"`
	MissingVolume   float64 `json:"missing_volume"`
	Classification  string  `json:"classification"`
	WithinTolerance bool    `json:"within_tolerance"`
}

type ForecastRecord struct {
	VesselID     string    `json:"vessel_id"`
	VesselName   string    `json:"vessel_name"`
	AsOf         time.Time `json:"as_of"`
	CurrentLevel float64   `json:"current_level"`
	MaxVolume    float64   `json:"max_volume"`
	FillRate     float64   `json:"r_fill"`
	ETAMinutes   float64   `json:"eta_minutes"`
	HasETA       bool      `json:"has_eta"`
}

// AtRisk is true when the forecast carries an actionable overflow ETA. An
// ETA may exceed NoETA, so the flag decides and not the value.
func (f ForecastRecord) AtRisk() bool {
	return f.HasETA
}

type RouteStop struct {
	Position        int     `json:"position"`
	VesselID        string  `json:"vessel_id"`
	VesselName      string  `json:"vessel_name"`
	LegKm           float64 `json:"leg_km"`
	CumulativeKm    float64 `json:"cumulative_km"`
	ArrivalMinutes  float64 `json:"arrival_minutes"`
	DeadlineMinutes float64 `json:"deadline_minutes"`
	Late            bool    `json:"late"`
}

type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Edge is an upstream network link between two nodes (vessels or the depot).
// Travel time applies in both directions.
type Edge struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	TravelMinutes float64 `json:"travel_time_minutes"`
}

// Depot is where collection routes start when no start is given.
type Depot struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (d Depot) Point() Point {
	return Point{Lat: d.Latitude, Lon: d.Longitude}
}

package analysis

import (
	"math"
	"sort"

	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/utils"
)

const DefaultSpeedKmh = 40.0

// Candidate is a vessel eligible for a collection route. ETAMinutes is only
// meaningful when HasETA is set.
type Candidate struct {
	VesselID   string
	VesselName string
	Lat        float64
	Lon        float64
	ETAMinutes float64
	HasETA     bool
}

// Origin is where a route starts. NodeID names the origin in the travel
// network and may be empty.
type Origin struct {
	NodeID string
	Point  models.Point
}

// TravelTimes holds network travel minutes between node pairs, both ways.
type TravelTimes map[[2]string]float64

func NewTravelTimes(edges []models.Edge) TravelTimes {
	tt := make(TravelTimes, 2*len(edges))
	for _, e := range edges {
		if e.From == "" || e.To == "" || e.TravelMinutes < 0 || math.IsNaN(e.TravelMinutes) {
			continue
		}
		tt[[2]string{e.From, e.To}] = e.TravelMinutes
		tt[[2]string{e.To, e.From}] = e.TravelMinutes
	}
	return tt
}

func (tt TravelTimes) Lookup(from, to string) (float64, bool) {
	if from == "" || to == "" {
		return 0, false
	}
	m, ok := tt[[2]string{from, to}]
	return m, ok
}

// Planner orders candidates into a route starting at start.
type Planner interface {
	Plan(start Origin, candidates []Candidate) []models.RouteStop
}

// GreedyPlanner visits the most urgent vessel first. Among vessels whose ETA
// lies within BandMinutes of the most urgent one it takes the nearest.
// Vessels without an ETA follow in nearest-neighbour order. Leg minutes come
// from Travel when the network knows the pair, else from distance at SpeedKmh.
type GreedyPlanner struct {
	SpeedKmh       float64
	ServiceMinutes float64
	BandMinutes    float64
	Travel         TravelTimes
}

func (p GreedyPlanner) Plan(start Origin, candidates []Candidate) []models.RouteStop {
	speed := p.SpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}
	band := math.Max(p.BandMinutes, 0)

	ordered := append([]Candidate(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].VesselID < ordered[j].VesselID })

	var urgent, idle []Candidate
	for _, c := range ordered {
		if c.HasETA && !math.IsNaN(c.ETAMinutes) {
			urgent = append(urgent, c)
		} else {
			idle = append(idle, c)
		}
	}

	stops := make([]models.RouteStop, 0, len(ordered))
	pos, node := start.Point, start.NodeID
	var clock, total float64
	visit := func(c Candidate) {
		leg := utils.DistanceKm(pos.Lat, pos.Lon, c.Lat, c.Lon)
		total += leg
		if m, ok := p.Travel.Lookup(node, c.VesselID); ok {
			clock += m
		} else {
			clock += leg / speed * 60
		}
		stop := models.RouteStop{
			Position:        len(stops) + 1,
			VesselID:        c.VesselID,
			VesselName:      c.VesselName,
			LegKm:           leg,
			CumulativeKm:    total,
			ArrivalMinutes:  clock,
			DeadlineMinutes: models.NoETA,
		}
		if c.HasETA {
			stop.DeadlineMinutes = c.ETAMinutes
			stop.Late = clock > c.ETAMinutes
		}
		stops = append(stops, stop)
		clock += math.Max(p.ServiceMinutes, 0)
		pos, node = models.Point{Lat: c.Lat, Lon: c.Lon}, c.VesselID
	}

	for len(urgent) > 0 {
		minETA := urgent[0].ETAMinutes
		for _, c := range urgent[1:] {
			minETA = math.Min(minETA, c.ETAMinutes)
		}
		best := nearest(pos, urgent, func(c Candidate) bool { return c.ETAMinutes <= minETA+band })
		visit(urgent[best])
		urgent = append(urgent[:best], urgent[best+1:]...)
	}
	for len(idle) > 0 {
		best := nearest(pos, idle, func(Candidate) bool { return true })
		visit(idle[best])
		idle = append(idle[:best], idle[best+1:]...)
	}
	return stops
}

// nearest returns the index of the closest candidate accepted by keep. The
// slice is ordered by vessel id, so the strict comparison breaks distance
// ties by id.
func nearest(pos models.Point, cs []Candidate, keep func(Candidate) bool) int {
	best := -1
	bestD := 0.0
	for i, c := range cs {
		if !keep(c) {
			continue
		}
		d := utils.DistanceKm(pos.Lat, pos.Lon, c.Lat, c.Lon)
		if best == -1 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

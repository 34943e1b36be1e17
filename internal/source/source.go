// Package source loads the raw inputs of an analysis: vessel metadata, level
// readings and pickup tickets.
package source

import (
	"context"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

type Source interface {
	Vessels(ctx context.Context) ([]models.Vessel, error)
	Readings(ctx context.Context, f ReadingFilter) ([]models.LevelReading, error)
	Tickets(ctx context.Context) ([]models.Ticket, error)
}

// Pinger is implemented by sources that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DepotLocator is implemented by sources that know where routes start.
type DepotLocator interface {
	Depot(ctx context.Context) (models.Depot, error)
}

// NetworkLocator is implemented by sources that publish travel times between
// nodes.
type NetworkLocator interface {
	Network(ctx context.Context) ([]models.Edge, error)
}

// ReadingFilter narrows a readings query. Zero values mean unbounded.
type ReadingFilter struct {
	VesselID string
	Start    time.Time
	End      time.Time
}

func (f ReadingFilter) Match(r models.LevelReading) bool {
	if f.VesselID != "" && r.VesselID != f.VesselID {
		return false
	}
	if !f.Start.IsZero() && r.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && r.Timestamp.After(f.End) {
		return false
	}
	return true
}

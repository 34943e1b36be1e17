package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cauldronwatch/backend/internal/models"
)

var ErrNoDepot = errors.New("no depot configured")

// Memory serves a fixed batch of records. It backs tests and local runs
// without an upstream.
type Memory struct {
	VesselList  []models.Vessel
	ReadingList []models.LevelReading
	TicketList  []models.Ticket
	DepotInfo   *models.Depot
	Edges       []models.Edge
}

type memoryFixture struct {
	Vessels  []models.Vessel       `json:"vessels"`
	Readings []models.LevelReading `json:"readings"`
	Tickets  []models.Ticket       `json:"tickets"`
	Depot    *models.Depot         `json:"depot"`
	Edges    []models.Edge         `json:"edges"`
}

// LoadMemory reads a JSON fixture with vessels, readings, tickets and the
// optional depot and edges.
func LoadMemory(path string) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f memoryFixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	if len(f.Vessels) == 0 {
		return nil, fmt.Errorf("fixture %s: no vessels", path)
	}
	return &Memory{
		VesselList:  f.Vessels,
		ReadingList: f.Readings,
		TicketList:  f.Tickets,
		DepotInfo:   f.Depot,
		Edges:       f.Edges,
	}, nil
}

func (m *Memory) Vessels(ctx context.Context) ([]models.Vessel, error) {
	return append([]models.Vessel(nil), m.VesselList...), nil
}

func (m *Memory) Readings(ctx context.Context, f ReadingFilter) ([]models.LevelReading, error) {
	out := make([]models.LevelReading, 0, len(m.ReadingList))
	for _, r := range m.ReadingList {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Tickets(ctx context.Context) ([]models.Ticket, error) {
	return append([]models.Ticket(nil), m.TicketList...), nil
}

func (m *Memory) Depot(ctx context.Context) (models.Depot, error) {
	if m.DepotInfo == nil {
		return models.Depot{}, ErrNoDepot
	}
	return *m.DepotInfo, nil
}

func (m *Memory) Network(ctx context.Context) ([]models.Edge, error) {
	return append([]models.Edge(nil), m.Edges...), nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

// MaxEpoch is the far-future bound used when a readings query has no end.
const MaxEpoch = 2_000_000_000

// HTTPSource reads the upstream telemetry API.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

type vesselBody struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MaxVolume float64 `json:"max_volume"`
}

type dataBody struct {
	Timestamp string             `json:"timestamp"`
	Levels    map[string]float64 `json:"cauldron_levels"`
}

type ticketBody struct {
	TicketID        string   `json:"ticket_id"`
	CauldronID      string   `json:"cauldron_id"`
	CauldronIDCamel string   `json:"cauldronId"`
	CourierID       string   `json:"courier_id"`
	Volume          *float64 `json:"volume"`
	AmountCollected *float64 `json:"amount_collected"`
	Date            string   `json:"date"`
	Timestamp       string   `json:"timestamp"`
}

type networkBody struct {
	Edges []models.Edge `json:"edges"`
}

type ticketsEnvelope struct {
	Tickets []ticketBody `json:"transport_tickets"`
}

func (h *HTTPSource) client() *http.Client {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return h.Client
}

func (h *HTTPSource) Ping(ctx context.Context) error {
	var out []vesselBody
	return h.getJSON(ctx, "/api/Information/cauldrons", nil, &out)
}

func (h *HTTPSource) Vessels(ctx context.Context) ([]models.Vessel, error) {
	var body []vesselBody
	if err := h.getJSON(ctx, "/api/Information/cauldrons", nil, &body); err != nil {
		return nil, err
	}
	out := make([]models.Vessel, 0, len(body))
	for _, v := range body {
		out = append(out, models.Vessel{
			ID:        v.ID,
			Name:      v.Name,
			Latitude:  v.Latitude,
			Longitude: v.Longitude,
			MaxVolume: v.MaxVolume,
		})
	}
	return out, nil
}

func (h *HTTPSource) Depot(ctx context.Context) (models.Depot, error) {
	var body vesselBody
	if err := h.getJSON(ctx, "/api/Information/market", nil, &body); err != nil {
		return models.Depot{}, err
	}
	return models.Depot{
		ID:        body.ID,
		Name:      body.Name,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}

func (h *HTTPSource) Network(ctx context.Context) ([]models.Edge, error) {
	var body networkBody
	if err := h.getJSON(ctx, "/api/Information/network", nil, &body); err != nil {
		return nil, err
	}
	return body.Edges, nil
}

func (h *HTTPSource) Readings(ctx context.Context, f ReadingFilter) ([]models.LevelReading, error) {
	q := url.Values{}
	start, end := int64(0), int64(MaxEpoch)
	if !f.Start.IsZero() {
		start = f.Start.Unix()
	}
	if !f.End.IsZero() {
		end = f.End.Unix()
	}
	q.Set("start_date", strconv.FormatInt(start, 10))
	q.Set("end_date", strconv.FormatInt(end, 10))

	var body []dataBody
	if err := h.getJSON(ctx, "/api/Data", q, &body); err != nil {
		return nil, err
	}

	var out []models.LevelReading
	for i, rec := range body {
		ts, err := ParseTime(rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("data record %d: %w", i, err)
		}
		ids := make([]string, 0, len(rec.Levels))
		for id := range rec.Levels {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			r := models.LevelReading{VesselID: id, Timestamp: ts, Level: rec.Levels[id]}
			if f.Match(r) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (h *HTTPSource) Tickets(ctx context.Context) ([]models.Ticket, error) {
	var env ticketsEnvelope
	if err := h.getJSON(ctx, "/api/Tickets", nil, &env); err != nil {
		return nil, err
	}
	out := make([]models.Ticket, 0, len(env.Tickets))
	for i, t := range env.Tickets {
		raw := t.Timestamp
		if raw == "" {
			raw = t.Date
		}
		day, err := ParseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: %w", i, err)
		}
		vesselID := t.CauldronID
		if vesselID == "" {
			vesselID = t.CauldronIDCamel
		}
		var volume float64
		switch {
		case t.Volume != nil:
			volume = *t.Volume
		case t.AmountCollected != nil:
			volume = *t.AmountCollected
		}
		out = append(out, models.Ticket{
			ID:             t.TicketID,
			VesselID:       vesselID,
			CourierID:      t.CourierID,
			Date:           day.UTC(),
			ReportedVolume: volume,
		})
	}
	return out, nil
}

func (h *HTTPSource) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := strings.TrimRight(h.BaseURL, "/") + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream %s: decode: %w", path, err)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	models.DayLayout,
}

// ParseTime accepts RFC 3339 timestamps, naive timestamps (read as UTC) and
// bare dates.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", value)
}

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

// NominatimGeocoder queries an OpenStreetMap Nominatim instance. Requests are
// spaced by MinInterval and answers are cached per query.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string]Place
}

type nominatimItem struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Place, error) {
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "cauldron-backend"
	}
	if g.MinInterval <= 0 {
		g.MinInterval = time.Second
	}

	g.mu.Lock()
	if g.cache == nil {
		g.cache = map[string]Place{}
	}
	if cached, ok := g.cache[query]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	sleepFor := time.Until(g.lastReqAt.Add(g.MinInterval))
	g.lastReqAt = time.Now().Add(max(sleepFor, 0))
	g.mu.Unlock()
	if sleepFor > 0 {
		select {
		case <-ctx.Done():
			return Place{}, ctx.Err()
		case <-time.After(sleepFor):
		}
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.BaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Place{}, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var items []nominatimItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return Place{}, err
	}
	place, err := parseNominatimItems(items)
	if err != nil {
		return Place{}, err
	}

	g.mu.Lock()
	g.cache[query] = place
	g.mu.Unlock()
	return place, nil
}

func parseNominatimItems(items []nominatimItem) (Place, error) {
	if len(items) == 0 {
		return Place{}, ErrNotFound
	}
	lat, err := strconv.ParseFloat(items[0].Lat, 64)
	if err != nil {
		return Place{}, err
	}
	lon, err := strconv.ParseFloat(items[0].Lon, 64)
	if err != nil {
		return Place{}, err
	}
	if lat == 0 && lon == 0 && items[0].DisplayName == "" {
		return Place{}, ErrNotFound
	}
	return Place{
		Point:       models.Point{Lat: lat, Lon: lon},
		DisplayName: items[0].DisplayName,
		Confidence:  items[0].Importance,
	}, nil
}

// Package geocode turns a free-form address into coordinates for route
// starts.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/cauldronwatch/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Place struct {
	Point       models.Point
	DisplayName string
	Confidence  float64
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// BuildQuery joins the non-empty parts with ", ".
func BuildQuery(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

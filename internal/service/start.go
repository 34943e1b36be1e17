package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cauldronwatch/backend/internal/analysis"
	"github.com/cauldronwatch/backend/internal/geocode"
	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/source"
)

const (
	StartFromRequest = "request"
	StartFromAddress = "address"
	StartFromDepot   = "depot"
)

var (
	ErrNoStart          = errors.New("route start required: no point, address or depot available")
	ErrGeocoderDisabled = errors.New("address lookup is not configured")
)

// ResolveStart picks the route origin: an explicit point, then a geocoded
// address, then the source's depot. Only the depot carries a network node id.
func (s *AnalysisService) ResolveStart(ctx context.Context, point *models.Point, address string) (analysis.Origin, string, error) {
	if point != nil {
		return analysis.Origin{Point: *point}, StartFromRequest, nil
	}
	if query := geocode.BuildQuery(strings.Split(address, ",")...); query != "" {
		if s.Geocoder == nil {
			return analysis.Origin{}, "", ErrGeocoderDisabled
		}
		place, err := s.Geocoder.Geocode(ctx, query)
		if err != nil {
			return analysis.Origin{}, "", err
		}
		s.Logger.Debug().Str("address", query).Str("match", place.DisplayName).Msg("route start geocoded")
		return analysis.Origin{Point: place.Point}, StartFromAddress, nil
	}

	locator, ok := s.Source.(source.DepotLocator)
	if !ok {
		return analysis.Origin{}, "", ErrNoStart
	}
	depot, err := locator.Depot(ctx)
	if errors.Is(err, source.ErrNoDepot) {
		return analysis.Origin{}, "", ErrNoStart
	}
	if err != nil {
		return analysis.Origin{}, "", s.sourceError("depot", err)
	}
	return analysis.Origin{NodeID: depot.ID, Point: depot.Point()}, StartFromDepot, nil
}

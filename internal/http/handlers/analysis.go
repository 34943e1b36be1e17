package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cauldronwatch/backend/internal/geocode"
	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/service"
	"github.com/cauldronwatch/backend/internal/source"
)

// RouteRequest starts at Start, else at the geocoded StartAddress, else at
// the depot.
type RouteRequest struct {
	VesselIDs    []string      `json:"vessel_ids" validate:"omitempty,dive,required"`
	Start        *models.Point `json:"start"`
	StartAddress string        `json:"start_address" validate:"max=256"`
	AsOf         *int64        `json:"as_of" validate:"omitempty,gte=0"`
}

type RouteResponse struct {
	AsOf      time.Time          `json:"as_of"`
	Start     models.Point       `json:"start"`
	StartFrom string             `json:"start_from"`
	Stops     []models.RouteStop `json:"stops"`
	TotalKm   float64            `json:"total_km"`
	Late      int                `json:"late"`
}

// round2 rounds for presentation only.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// @Summary Reconciled drain events
// @Description Drain events overlapping [start_date, end_date] with the inflow-corrected volume
// @Tags analysis
// @Produce json
// @Param start_date query int false "Epoch seconds" default(0)
// @Param end_date query int false "Epoch seconds" default(2000000000)
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/drains [get]
func (h *Handler) Drains(c *gin.Context) {
	start, end, err := epochRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	events, err := h.Service.Drains(c.Request.Context(), start, end)
	if err != nil {
		h.writeServiceError(c, "Failed to detect drains", err)
		return
	}
	for i := range events {
		ev := &events[i]
		ev.LevelBefore = round2(ev.LevelBefore)
		ev.LevelAfter = round2(ev.LevelAfter)
		ev.DrainMinutes = round2(ev.DrainMinutes)
		ev.TrueVolume = round2(ev.TrueVolume)
	}
	respond(c, http.StatusOK, gin.H{"items": events, "count": len(events)})
}

// @Summary Ticket discrepancies
// @Description Daily per-vessel comparison of ticketed and reconciled volume
// @Tags analysis
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/discrepancies [get]
func (h *Handler) Discrepancies(c *gin.Context) {
	records, err := h.Service.Discrepancies(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "Failed to compute discrepancies", err)
		return
	}
	var flagged int
	for i := range records {
		r := &records[i]
		r.ExpectedVolume = round2(r.ExpectedVolume)
		r.ActualVolume = round2(r.ActualVolume)
		r.MissingVolume = round2(r.MissingVolume)
		if !r.WithinTolerance {
			flagged++
		}
	}
	respond(c, http.StatusOK, gin.H{"items": records, "count": len(records), "flagged": flagged})
}

// @Summary Overflow forecast
// @Tags analysis
// @Produce json
// @Param as_of query int false "Epoch seconds, defaults to now"
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/forecast [get]
func (h *Handler) Forecast(c *gin.Context) {
	asOf, err := epochQuery(c, "as_of")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	records, err := h.Service.Forecast(c.Request.Context(), asOf)
	if err != nil {
		h.writeServiceError(c, "Failed to forecast", err)
		return
	}
	for i := range records {
		r := &records[i]
		r.CurrentLevel = round2(r.CurrentLevel)
		r.ETAMinutes = round2(r.ETAMinutes)
	}
	respond(c, http.StatusOK, gin.H{"as_of": asOf, "items": records})
}

// @Summary Plan a collection route
// @Description Orders vessels by overflow urgency, nearest first within the urgency band
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body RouteRequest true "Route request"
// @Success 200 {object} RouteResponse
// @Failure 400 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/routes [post]
func (h *Handler) Route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", err.Error())
		return
	}

	start, from, err := h.Service.ResolveStart(c.Request.Context(), req.Start, req.StartAddress)
	switch {
	case errors.Is(err, service.ErrNoStart), errors.Is(err, service.ErrGeocoderDisabled):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	case errors.Is(err, geocode.ErrNotFound):
		writeError(c, http.StatusUnprocessableEntity, "GEOCODE_NOT_FOUND", "Start address not found", req.StartAddress)
		return
	case err != nil:
		h.writeServiceError(c, "Failed to resolve route start", err)
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = time.Unix(*req.AsOf, 0).UTC()
	}
	stops, err := h.Service.Route(c.Request.Context(), req.VesselIDs, start, asOf)
	if err != nil {
		h.writeServiceError(c, "Failed to plan route", err)
		return
	}

	resp := RouteResponse{AsOf: asOf, Start: start.Point, StartFrom: from, Stops: stops}
	for i := range stops {
		st := &stops[i]
		if st.Late {
			resp.Late++
		}
		resp.TotalKm = st.CumulativeKm
		st.LegKm = round2(st.LegKm)
		st.CumulativeKm = round2(st.CumulativeKm)
		st.ArrivalMinutes = round2(st.ArrivalMinutes)
		st.DeadlineMinutes = round2(st.DeadlineMinutes)
	}
	resp.TotalKm = round2(resp.TotalKm)
	c.JSON(http.StatusOK, resp)
}

// @Summary Route depot
// @Tags analysis
// @Produce json
// @Success 200 {object} models.Depot
// @Failure 404 {object} map[string]any
// @Router /api/depot [get]
func (h *Handler) Depot(c *gin.Context) {
	locator, ok := h.Source.(source.DepotLocator)
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Source has no depot", nil)
		return
	}
	depot, err := locator.Depot(c.Request.Context())
	if errors.Is(err, source.ErrNoDepot) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No depot configured", nil)
		return
	}
	if err != nil {
		h.writeSourceError(c, "Failed to load depot", err)
		return
	}
	c.JSON(http.StatusOK, depot)
}

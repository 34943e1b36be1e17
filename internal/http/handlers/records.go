package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cauldronwatch/backend/internal/source"
)

// @Summary List vessels
// @Tags records
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/vessels [get]
func (h *Handler) VesselsList(c *gin.Context) {
	items, err := h.Source.Vessels(c.Request.Context())
	if err != nil {
		h.writeSourceError(c, "Failed to list vessels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary List pickup tickets
// @Tags records
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	items, err := h.Source.Tickets(c.Request.Context())
	if err != nil {
		h.writeSourceError(c, "Failed to list tickets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary List level readings
// @Tags records
// @Produce json
// @Param vessel_id query string false "Vessel ID"
// @Param start_date query int false "Epoch seconds, inclusive"
// @Param end_date query int false "Epoch seconds, inclusive"
// @Param format query string false "json or msgpack"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/readings [get]
func (h *Handler) ReadingsList(c *gin.Context) {
	start, end, err := epochRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	filter := source.ReadingFilter{
		VesselID: strings.TrimSpace(c.Query("vessel_id")),
		Start:    start,
		End:      end,
	}
	items, err := h.Source.Readings(c.Request.Context(), filter)
	if err != nil {
		h.writeSourceError(c, "Failed to list readings", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

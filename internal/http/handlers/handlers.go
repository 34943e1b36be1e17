package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cauldronwatch/backend/internal/db"
	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/service"
	"github.com/cauldronwatch/backend/internal/snapshot"
	"github.com/cauldronwatch/backend/internal/source"
)

// Importer bulk-loads a validated batch. Only the postgres backend has one.
type Importer interface {
	Import(ctx context.Context, vessels []models.Vessel, readings []models.LevelReading, tickets []models.Ticket) (db.ImportCounts, error)
}

type Handler struct {
	Source    source.Source
	Service   *service.AnalysisService
	Importer  Importer
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
	// DBBacked switches source failures from 502 SOURCE_ERROR to 500 DB_ERROR.
	DBBacked bool
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	pinger, ok := h.Source.(source.Pinger)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "Data source unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeServiceError maps analysis failures onto the error envelope.
func (h *Handler) writeServiceError(c *gin.Context, message string, err error) {
	var verr *snapshot.ValidationError
	if errors.As(err, &verr) {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Error(), verr)
		return
	}
	h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	h.writeSourceError(c, message, err)
}

func (h *Handler) writeSourceError(c *gin.Context, message string, err error) {
	if h.DBBacked {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", message, err.Error())
		return
	}
	writeError(c, http.StatusBadGateway, "SOURCE_ERROR", message, err.Error())
}

// epochQuery reads an epoch-seconds query parameter. A missing parameter
// yields the zero time.
func epochQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}, fmt.Errorf("%s must be a non-negative epoch in seconds", name)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func epochRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := epochQuery(c, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := epochQuery(c, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date must not precede start_date")
	}
	return start, end, nil
}

package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/snapshot"
)

type ImportSummary struct {
	Vessels  ImportCount `json:"vessels"`
	Readings ImportCount `json:"readings"`
	Tickets  ImportCount `json:"tickets"`
	Errors   []string    `json:"errors"`
}

type ImportCount struct {
	Parsed   int   `json:"parsed"`
	Inserted int64 `json:"inserted"`
	Errors   int   `json:"errors"`
}

// @Summary Import CSV data
// @Description Replace stored vessels, level readings and tickets. Postgres backend only.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param X-Admin-Key header string false "Admin key"
// @Param vessels formData file true "vessels.csv"
// @Param readings formData file true "readings.csv"
// @Param tickets formData file false "tickets.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 501 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	if h.Importer == nil {
		writeError(c, http.StatusNotImplemented, "IMPORT_UNSUPPORTED", "Import requires the postgres data source", nil)
		return
	}

	vesselsFile, err := c.FormFile("vessels")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "vessels file required", nil)
		return
	}
	readingsFile, err := c.FormFile("readings")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "readings file required", nil)
		return
	}
	ticketsFile, err := c.FormFile("tickets")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid tickets file", err.Error())
		return
	}

	files := []*multipart.FileHeader{vesselsFile, readingsFile}
	if ticketsFile != nil {
		files = append(files, ticketsFile)
	}
	for _, f := range files {
		if !validateExt(f.Filename) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "all files must be .csv", nil)
			return
		}
	}

	summary := ImportSummary{Errors: []string{}}

	vessels, errs := parseVesselsCSV(vesselsFile)
	summary.Vessels.Parsed = len(vessels)
	summary.Vessels.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	readings, errs := parseReadingsCSV(readingsFile)
	summary.Readings.Parsed = len(readings)
	summary.Readings.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)

	var tickets []models.Ticket
	if ticketsFile != nil {
		tickets, errs = parseTicketsCSV(ticketsFile)
		summary.Tickets.Parsed = len(tickets)
		summary.Tickets.Errors = len(errs)
		summary.Errors = append(summary.Errors, errs...)
	}

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", summary.Errors)
		return
	}

	// The batch must form a valid snapshot before anything is replaced.
	snap, err := snapshot.New(vessels, readings, tickets)
	if err != nil {
		var verr *snapshot.ValidationError
		if errors.As(err, &verr) {
			writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Error(), verr)
			return
		}
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	counts, err := h.Importer.Import(c.Request.Context(), vessels, snap.AllReadings(), tickets)
	if err != nil {
		h.Logger.Error().Err(err).Msg("import failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to import records", err.Error())
		return
	}
	summary.Vessels.Inserted = counts.Vessels
	summary.Readings.Inserted = counts.Readings
	summary.Tickets.Inserted = counts.Tickets
	h.Logger.Info().
		Int64("vessels", counts.Vessels).
		Int64("readings", counts.Readings).
		Int64("tickets", counts.Tickets).
		Msg("import complete")
	c.JSON(http.StatusOK, summary)
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}

func lineError(file string, line int, format string, args ...any) string {
	return fmt.Sprintf("%s line %d: %s", file, line, fmt.Sprintf(format, args...))
}

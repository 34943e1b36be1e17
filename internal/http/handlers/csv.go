package handlers

import (
	"encoding/csv"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/source"
)

// csvRows opens an uploaded CSV and calls fn for every data row with its
// header index and 1-based line number.
func csvRows(file *multipart.FileHeader, name string, fn func(rec []string, idx map[string]int, line int)) []string {
	f, err := file.Open()
	if err != nil {
		return []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	headers, err := reader.Read()
	if err != nil {
		return []string{name + ": failed to read header"}
	}
	index := headerIndex(headers)

	var errs []string
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, lineError(name, line, "%v", err))
			continue
		}
		fn(rec, index, line)
	}
	return errs
}

func parseVesselsCSV(file *multipart.FileHeader) ([]models.Vessel, []string) {
	var out []models.Vessel
	var errs []string
	fileErrs := csvRows(file, "vessels", func(rec []string, idx map[string]int, line int) {
		id := getFieldAny(rec, idx, "id", "vessel_id", "cauldron_id")
		if id == "" {
			errs = append(errs, lineError("vessels", line, "missing id"))
			return
		}
		lat, err1 := parseFloat(getFieldAny(rec, idx, "latitude", "lat"))
		lon, err2 := parseFloat(getFieldAny(rec, idx, "longitude", "lon", "lng"))
		maxVol, err3 := parseFloat(getFieldAny(rec, idx, "max_volume", "capacity", "max volume"))
		if err1 != nil || err2 != nil || err3 != nil {
			errs = append(errs, lineError("vessels", line, "invalid number for vessel %s", id))
			return
		}
		out = append(out, models.Vessel{
			ID:        id,
			Name:      getFieldAny(rec, idx, "name"),
			Latitude:  lat,
			Longitude: lon,
			MaxVolume: maxVol,
		})
	})
	return out, append(fileErrs, errs...)
}

func parseReadingsCSV(file *multipart.FileHeader) ([]models.LevelReading, []string) {
	var out []models.LevelReading
	var errs []string
	fileErrs := csvRows(file, "readings", func(rec []string, idx map[string]int, line int) {
		id := getFieldAny(rec, idx, "vessel_id", "cauldron_id", "id")
		ts, err := source.ParseTime(getFieldAny(rec, idx, "timestamp", "time", "ts"))
		if err != nil {
			errs = append(errs, lineError("readings", line, "%v", err))
			return
		}
		level, err := parseFloat(getFieldAny(rec, idx, "level", "volume"))
		if err != nil {
			errs = append(errs, lineError("readings", line, "invalid level"))
			return
		}
		out = append(out, models.LevelReading{VesselID: id, Timestamp: ts, Level: level})
	})
	return out, append(fileErrs, errs...)
}

func parseTicketsCSV(file *multipart.FileHeader) ([]models.Ticket, []string) {
	var out []models.Ticket
	var errs []string
	fileErrs := csvRows(file, "tickets", func(rec []string, idx map[string]int, line int) {
		day, err := source.ParseTime(getFieldAny(rec, idx, "date", "timestamp"))
		if err != nil {
			errs = append(errs, lineError("tickets", line, "%v", err))
			return
		}
		volume, err := parseFloat(getFieldAny(rec, idx, "amount_collected", "volume", "reported_volume"))
		if err != nil {
			errs = append(errs, lineError("tickets", line, "invalid volume"))
			return
		}
		out = append(out, models.Ticket{
			ID:             getFieldAny(rec, idx, "ticket_id", "id"),
			VesselID:       getFieldAny(rec, idx, "cauldron_id", "vessel_id"),
			CourierID:      getFieldAny(rec, idx, "courier_id", "courier"),
			Date:           day,
			ReportedVolume: volume,
		})
	})
	return out, append(fileErrs, errs...)
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

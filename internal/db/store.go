package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cauldronwatch/backend/internal/models"
	"github.com/cauldronwatch/backend/internal/source"
)

const schema = `
CREATE TABLE IF NOT EXISTS vessels (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	max_volume DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS level_readings (
	vessel_id TEXT NOT NULL REFERENCES vessels(id),
	ts        TIMESTAMPTZ NOT NULL,
	level     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (vessel_id, ts)
);
CREATE TABLE IF NOT EXISTS tickets (
	id              TEXT NOT NULL DEFAULT '',
	vessel_id       TEXT NOT NULL REFERENCES vessels(id),
	courier_id      TEXT NOT NULL DEFAULT '',
	day             DATE NOT NULL,
	reported_volume DOUBLE PRECISION NOT NULL
);
`

type Store struct {
	Pool *pgxpool.Pool
}

var _ source.Source = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type ImportCounts struct {
	Vessels  int64 `json:"vessels"`
	Readings int64 `json:"readings"`
	Tickets  int64 `json:"tickets"`
}

// Import replaces all stored records with the given batch in one transaction.
// Callers validate the batch first.
func (s *Store) Import(ctx context.Context, vessels []models.Vessel, readings []models.LevelReading, tickets []models.Ticket) (ImportCounts, error) {
	var counts ImportCounts
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE tickets, level_readings, vessels`); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}

		rows := make([][]any, 0, len(vessels))
		for _, v := range vessels {
			rows = append(rows, []any{v.ID, v.Name, v.Latitude, v.Longitude, v.MaxVolume})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"vessels"}, []string{"id", "name", "latitude", "longitude", "max_volume"}, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy vessels: %w", err)
		}
		counts.Vessels = n

		rows = make([][]any, 0, len(readings))
		for _, r := range readings {
			rows = append(rows, []any{r.VesselID, r.Timestamp, r.Level})
		}
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"level_readings"}, []string{"vessel_id", "ts", "level"}, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy readings: %w", err)
		}
		counts.Readings = n

		rows = make([][]any, 0, len(tickets))
		for _, t := range tickets {
			rows = append(rows, []any{t.ID, t.VesselID, t.CourierID, t.Date, t.ReportedVolume})
		}
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"tickets"}, []string{"id", "vessel_id", "courier_id", "day", "reported_volume"}, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy tickets: %w", err)
		}
		counts.Tickets = n
		return nil
	})
	return counts, err
}

func (s *Store) Vessels(ctx context.Context) ([]models.Vessel, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, latitude, longitude, max_volume FROM vessels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vessel
	for rows.Next() {
		var v models.Vessel
		if err := rows.Scan(&v.ID, &v.Name, &v.Latitude, &v.Longitude, &v.MaxVolume); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Readings(ctx context.Context, f source.ReadingFilter) ([]models.LevelReading, error) {
	query := `SELECT vessel_id, ts, level FROM level_readings`
	var args []any
	var wheres []string
	if f.VesselID != "" {
		args = append(args, f.VesselID)
		wheres = append(wheres, fmt.Sprintf("vessel_id = $%d", len(args)))
	}
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		wheres = append(wheres, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		wheres = append(wheres, fmt.Sprintf("ts <= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY vessel_id ASC, ts ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LevelReading
	for rows.Next() {
		var r models.LevelReading
		if err := rows.Scan(&r.VesselID, &r.Timestamp, &r.Level); err != nil {
			return nil, err
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Tickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, vessel_id, courier_id, day, reported_volume FROM tickets ORDER BY day ASC, vessel_id ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.VesselID, &t.CourierID, &t.Date, &t.ReportedVolume); err != nil {
			return nil, err
		}
		t.Date = t.Date.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

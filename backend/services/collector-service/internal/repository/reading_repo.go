package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"powerlog/backend/services/collector-service/internal/models"
)

// rowColumns maps models.Header positions to table columns.
var rowColumns = [models.RowWidth]string{
	"reading_time", "frequency",
	"l1_current", "l1_voltage", "l1_power", "l1_reactive_power", "l1_cos_phi",
	"l2_current", "l2_voltage", "l2_power", "l2_reactive_power", "l2_cos_phi",
	"l3_current", "l3_voltage", "l3_power", "l3_reactive_power", "l3_cos_phi",
}

// ReadingRepository mirrors written rows into Postgres.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository returns repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// EnsureSchema creates the mirror table when it does not exist.
func (r *ReadingRepository) EnsureSchema(ctx context.Context) error {
	var cols strings.Builder
	for _, c := range rowColumns {
		fmt.Fprintf(&cols, "\t\t\t%s TEXT NOT NULL DEFAULT '',\n", c)
	}
	table := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS power_readings (
			id BIGSERIAL PRIMARY KEY,
			device_id TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL,
%s			received_at TIMESTAMPTZ NOT NULL
		)
	`, cols.String())
	const index = `
		CREATE INDEX IF NOT EXISTS power_readings_received_at_idx
		ON power_readings (received_at DESC)
	`
	for _, query := range []string{table, index} {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("ensure power_readings: %w", err)
		}
	}
	return nil
}

// Insert stores a row and fills in the generated id.
func (r *ReadingRepository) Insert(ctx context.Context, rec *models.ReadingRecord) error {
	args := make([]any, 0, models.RowWidth+3)
	args = append(args, rec.DeviceID, rec.Topic, rec.ReceivedAt)
	for _, f := range rec.Row {
		args = append(args, f)
	}

	placeholders := make([]string, len(args))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO power_readings (device_id, topic, received_at, %s)
		VALUES (%s)
		RETURNING id
	`, strings.Join(rowColumns[:], ", "), strings.Join(placeholders, ", "))

	return r.db.QueryRowContext(ctx, query, args...).Scan(&rec.ID)
}

// Recent returns up to limit rows, newest first.
func (r *ReadingRepository) Recent(ctx context.Context, limit int) ([]models.ReadingRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, device_id, topic, received_at, %s
		FROM power_readings
		ORDER BY received_at DESC, id DESC
		LIMIT $1
	`, strings.Join(rowColumns[:], ", "))

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ReadingRecord
	for rows.Next() {
		var rec models.ReadingRecord
		dest := []any{&rec.ID, &rec.DeviceID, &rec.Topic, &rec.ReceivedAt}
		for i := range rec.Row {
			dest = append(dest, &rec.Row[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

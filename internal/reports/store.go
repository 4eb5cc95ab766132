// SPDX-License-Identifier: MIT

package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/abiahub/abiahub-gateway/internal/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	reference      TEXT NOT NULL UNIQUE,
	category       TEXT NOT NULL,
	description    TEXT NOT NULL,
	address        TEXT NOT NULL,
	channel        TEXT NOT NULL,
	reporter_phone TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'PENDING',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_reference ON reports(reference);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
`

// Store is the sqlite-backed report store.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (and if needed creates) the report database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger := log.WithComponent("reports")
	logger.Info().Str("path", path).Msg("report store ready")
	return &Store{db: db, logger: logger}, nil
}

// newReference derives a short citizen-facing reference from a fresh UUID.
func newReference(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "AB-" + strings.ToUpper(hex[:8])
}

// Create inserts a new report in status PENDING and returns it.
func (s *Store) Create(ctx context.Context, in NewReport) (Report, error) {
	if in.Category == "" || in.Description == "" || in.Address == "" {
		return Report{}, fmt.Errorf("category, description and address are required")
	}
	channel := in.Channel
	if channel == "" {
		channel = ChannelUSSD
	}

	id := uuid.New()
	now := time.Now().UTC()
	r := Report{
		ID:            id.String(),
		Reference:     newReference(id),
		Category:      in.Category,
		Description:   in.Description,
		Address:       in.Address,
		Channel:       channel,
		ReporterPhone: in.ReporterPhone,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, reference, category, description, address, channel, reporter_phone, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Reference, r.Category, r.Description, r.Address, r.Channel, r.ReporterPhone, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", err)
	}

	s.logger.Info().
		Str("report_id", r.ID).
		Str("reference", r.Reference).
		Str("category", r.Category).
		Str("channel", r.Channel).
		Msg("report created")
	return r, nil
}

const selectColumns = `id, reference, category, description, address, channel, reporter_phone, status, created_at, updated_at`

func (s *Store) scanOne(row *sql.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.Reference, &r.Category, &r.Description, &r.Address,
		&r.Channel, &r.ReporterPhone, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("scan report: %w", err)
	}
	return r, nil
}

// ByID fetches a report by its UUID.
func (s *Store) ByID(ctx context.Context, id string) (Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reports WHERE id = ?`, id)
	return s.scanOne(row)
}

// ByReference fetches a report by its citizen-facing reference.
func (s *Store) ByReference(ctx context.Context, reference string) (Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reports WHERE reference = ?`,
		strings.ToUpper(strings.TrimSpace(reference)))
	return s.scanOne(row)
}

// UpdateStatus moves a report to status and returns the updated row.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) (Report, error) {
	if !ValidStatus(status) {
		return Report{}, fmt.Errorf("invalid status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return Report{}, fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Report{}, ErrNotFound
	}

	s.logger.Info().Str("report_id", id).Str("status", status).Msg("report status updated")
	return s.ByID(ctx, id)
}

// Ping checks database availability for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

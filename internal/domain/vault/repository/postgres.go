package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the pgx surface the repository uses. Both *pgxpool.Pool and a pgxmock
// pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresPayslipRepository implements PayslipRepository using PostgreSQL.
type PostgresPayslipRepository struct {
	pool DB
}

var _ PayslipRepository = (*PostgresPayslipRepository)(nil)

// NewPostgresPayslipRepository creates a PostgreSQL-backed payslip repository.
func NewPostgresPayslipRepository(pool DB) *PostgresPayslipRepository {
	return &PostgresPayslipRepository{pool: pool}
}

// InsertIfAbsent stores an encrypted record; an existing row for the same
// source blob is left untouched.
func (r *PostgresPayslipRepository) InsertIfAbsent(ctx context.Context, sourceID string, periodDate time.Time, payload []byte) error {
	query := `
		INSERT INTO payslip_data (id, source_id, payslip_date, encrypted_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, uuid.New(), sourceID, periodDate, payload); err != nil {
		return fmt.Errorf("failed to insert payslip data: %w", err)
	}
	return nil
}

// ExistsBySourceID reports whether a row exists for the source blob.
func (r *PostgresPayslipRepository) ExistsBySourceID(ctx context.Context, sourceID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payslip_data WHERE source_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, sourceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check payslip existence: %w", err)
	}
	return exists, nil
}

// GetPreviousBefore returns the most recent row strictly earlier than
// periodDate, or nil when none is stored.
func (r *PostgresPayslipRepository) GetPreviousBefore(ctx context.Context, periodDate time.Time) (*PreviousPayslip, error) {
	query := `
		SELECT payslip_date, encrypted_data FROM payslip_data
		WHERE payslip_date < $1
		ORDER BY payslip_date DESC
		LIMIT 1`

	prev := &PreviousPayslip{}
	err := r.pool.QueryRow(ctx, query, periodDate).Scan(&prev.PeriodDate, &prev.Payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query previous payslip: %w", err)
	}
	return prev, nil
}

// DeleteBySourceID removes the row for the source blob.
func (r *PostgresPayslipRepository) DeleteBySourceID(ctx context.Context, sourceID string) error {
	query := `DELETE FROM payslip_data WHERE source_id = $1`

	if _, err := r.pool.Exec(ctx, query, sourceID); err != nil {
		return fmt.Errorf("failed to delete payslip data: %w", err)
	}
	return nil
}

// ListAll returns every stored row ordered by period date ascending.
func (r *PostgresPayslipRepository) ListAll(ctx context.Context) ([]StoredRecord, error) {
	query := `
		SELECT source_id, payslip_date, encrypted_data FROM payslip_data
		ORDER BY payslip_date ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip data: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var rec StoredRecord
		if err := rows.Scan(&rec.SourceID, &rec.PeriodDate, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan payslip row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslip rows: %w", err)
	}
	return records, nil
}

// ListAllSourceIDs returns every source blob identifier with a stored row.
func (r *PostgresPayslipRepository) ListAllSourceIDs(ctx context.Context) ([]string, error) {
	query := `SELECT source_id FROM payslip_data`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list source ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan source id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source ids: %w", err)
	}
	return ids, nil
}

package labor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// Repository persists real labor records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, quotation_id, worker_id, description, hours, hourly_rate,
	manual_amount, scope, applied_units, created_by, created_at, updated_at`

// CreateRecord inserts a new real labor record.
func (r *Repository) CreateRecord(ctx context.Context, record *RealLaborRecord) error {
	query := `
		INSERT INTO real_labor_records
			(quotation_id, worker_id, description, hours, hourly_rate, manual_amount, scope, applied_units, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		record.QuotationID,
		record.WorkerID,
		record.Description,
		record.Hours,
		record.HourlyRate,
		record.ManualAmount,
		record.Scope,
		record.AppliedUnits,
		record.CreatedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

// GetRecord fetches one record by id.
func (r *Repository) GetRecord(ctx context.Context, id int64) (*RealLaborRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM real_labor_records WHERE id = $1`, recordColumns)
	record, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return record, err
}

// ListRecords returns every record of a quotation, oldest first.
func (r *Repository) ListRecords(ctx context.Context, quotationID int64) ([]RealLaborRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM real_labor_records WHERE quotation_id = $1 ORDER BY created_at, id`, recordColumns)
	rows, err := r.pool.Query(ctx, query, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]RealLaborRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateRecord applies a partial update over whitelisted columns.
func (r *Repository) UpdateRecord(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	allowed := map[string]bool{
		"description":   true,
		"hours":         true,
		"hourly_rate":   true,
		"manual_amount": true,
		"scope":         true,
		"applied_units": true,
	}
	sets := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+1)
	idx := 1
	for column, value := range updates {
		if !allowed[column] {
			return fmt.Errorf("labor: column %q not updatable", column)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", idx))
	args = append(args, time.Now().UTC())
	idx++
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE real_labor_records SET %s WHERE id = $%d`, strings.Join(sets, ", "), idx)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteRecord removes a record.
func (r *Repository) DeleteRecord(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM real_labor_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*RealLaborRecord, error) {
	var (
		record RealLaborRecord
		worker pgtype.Int8
		manual pgtype.Float8
	)
	err := row.Scan(
		&record.ID,
		&record.QuotationID,
		&worker,
		&record.Description,
		&record.Hours,
		&record.HourlyRate,
		&manual,
		&record.Scope,
		&record.AppliedUnits,
		&record.CreatedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if worker.Valid {
		record.WorkerID = &worker.Int64
	}
	if manual.Valid {
		record.ManualAmount = &manual.Float64
	}
	return &record, nil
}

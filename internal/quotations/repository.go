package quotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/shared"
)

// ErrNumberTaken indicates the unique constraint on quotation numbers fired.
var ErrNumberTaken = errors.New("quotation number already taken")

// ErrStaleStatus indicates a guarded status transition matched no row because
// the quotation left the expected status between read and write.
var ErrStaleStatus = errors.New("quotation status changed concurrently")

// Repository provides PostgreSQL backed persistence for quotations and the
// rows created by acceptance (clients, jobs, worker assignments).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations that must share one transaction.
type TxRepository interface {
	CreateQuotation(ctx context.Context, q Quotation) (int64, error)
	UpdateQuotation(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, to QuotationStatus, from ...QuotationStatus) error
	UpdatePayment(ctx context.Context, id int64, amountPaid float64, status PaymentStatus) error
	InsertHistory(ctx context.Context, entry ModificationHistory) (int64, error)

	FindClient(ctx context.Context, companyID int64, email, phone *string) (*Client, error)
	CreateClient(ctx context.Context, c Client) (int64, error)
	CreateJob(ctx context.Context, j Job) (int64, error)
	CreateWorkerAssignment(ctx context.Context, a WorkerAssignment) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const quotationColumns = `id, number, company_id, client_name, client_email, client_phone, client_address,
	items, subtotal, iva_percent, iva, margin_percent, total, unit_count,
	status, payment_status, amount_paid, seller_id, seller_payout,
	created_by, created_at, updated_at`

// Get retrieves a quotation by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	return scanQuotation(row)
}

// GetByNumber retrieves a quotation by its document number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE number = $1`, number)
	return scanQuotation(row)
}

// LastNumber returns the number of the most recently created quotation for a
// company, empty when none exists yet.
func (r *Repository) LastNumber(ctx context.Context, companyID int64) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx,
		`SELECT number FROM quotations WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		companyID).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}

// List returns quotations matching the filter plus the unpaginated count.
func (r *Repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{req.CompanyID}
	argPos := 2

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", argPos))
		args = append(args, *req.SellerID)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotations "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM quotations %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		quotationColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, total, rows.Err()
}

// ListHistory returns the modification history for a quotation, newest first.
func (r *Repository) ListHistory(ctx context.Context, quotationID int64) ([]ModificationHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quotation_id, description, diff, author_id, created_at
		 FROM quotation_history WHERE quotation_id = $1 ORDER BY created_at DESC, id DESC`,
		quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ModificationHistory
	for rows.Next() {
		var entry ModificationHistory
		var diff []byte
		if err := rows.Scan(&entry.ID, &entry.QuotationID, &entry.Description, &diff, &entry.AuthorID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(diff) > 0 {
			if err := json.Unmarshal(diff, &entry.Diff); err != nil {
				return nil, fmt.Errorf("decode history diff: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetJobByQuotation returns the job created for an accepted quotation.
func (r *Repository) GetJobByQuotation(ctx context.Context, quotationID int64) (*Job, error) {
	var j Job
	err := r.pool.QueryRow(ctx,
		`SELECT id, quotation_id, client_id, status, created_at, updated_at FROM jobs WHERE quotation_id = $1`,
		quotationID).Scan(&j.ID, &j.QuotationID, &j.ClientID, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// ============================================================================
// TRANSACTIONAL OPERATIONS
// ============================================================================

func (t *txRepo) CreateQuotation(ctx context.Context, q Quotation) (int64, error) {
	items, err := EncodeItems(q.Items)
	if err != nil {
		return 0, fmt.Errorf("encode items: %w", err)
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO quotations (number, company_id, client_name, client_email, client_phone, client_address,
			items, subtotal, iva_percent, iva, margin_percent, total, unit_count,
			status, payment_status, amount_paid, seller_id, seller_payout, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		RETURNING id`,
		q.Number, q.CompanyID, q.ClientName, q.ClientEmail, q.ClientPhone, q.ClientAddress,
		items, q.Subtotal, q.IVAPercent, q.IVA, q.MarginPercent, q.Total, q.UnitCount,
		q.Status, q.PaymentStatus, q.AmountPaid, q.SellerID, q.SellerPayout, q.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: %s", ErrNumberTaken, q.Number)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) UpdateQuotation(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE quotations SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"client_name", "client_email", "client_phone", "client_address",
		"items", "subtotal", "iva_percent", "iva", "margin_percent", "total",
		"unit_count", "seller_id", "seller_payout",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	if len(args) == 0 {
		return nil
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	_, err := t.tx.Exec(ctx, query, args...)
	return err
}

// UpdateStatus flips the status, optionally guarded by the set of statuses the
// row must still be in. The guard runs inside the transaction, so a transition
// that raced another one fails with ErrStaleStatus instead of clobbering it.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, to QuotationStatus, from ...QuotationStatus) error {
	query := `UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2`
	args := []interface{}{to, id}
	if len(from) > 0 {
		allowed := make([]string, len(from))
		for i, st := range from {
			allowed[i] = string(st)
		}
		query += ` AND status = ANY($3)`
		args = append(args, allowed)
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var current QuotationStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM quotations WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("%w: now %s", ErrStaleStatus, current)
}

func (t *txRepo) UpdatePayment(ctx context.Context, id int64, amountPaid float64, status PaymentStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE quotations SET amount_paid = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`,
		amountPaid, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertHistory(ctx context.Context, entry ModificationHistory) (int64, error) {
	diff, err := json.Marshal(entry.Diff)
	if err != nil {
		return 0, fmt.Errorf("encode history diff: %w", err)
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO quotation_history (quotation_id, description, diff, author_id, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING id`,
		entry.QuotationID, entry.Description, diff, entry.AuthorID,
	).Scan(&id)
	return id, err
}

// FindClient looks up an existing client by email or phone within a company.
func (t *txRepo) FindClient(ctx context.Context, companyID int64, email, phone *string) (*Client, error) {
	var row pgx.Row
	switch {
	case email != nil && *email != "":
		row = t.tx.QueryRow(ctx,
			`SELECT id, company_id, name, email, phone, address, created_at, updated_at
			 FROM clients WHERE company_id = $1 AND email = $2 LIMIT 1`, companyID, *email)
	case phone != nil && *phone != "":
		row = t.tx.QueryRow(ctx,
			`SELECT id, company_id, name, email, phone, address, created_at, updated_at
			 FROM clients WHERE company_id = $1 AND phone = $2 LIMIT 1`, companyID, *phone)
	default:
		return nil, shared.ErrNotFound
	}

	var c Client
	var cEmail, cPhone, cAddress pgtype.Text
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &cEmail, &cPhone, &cAddress, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if cEmail.Valid {
		c.Email = &cEmail.String
	}
	if cPhone.Valid {
		c.Phone = &cPhone.String
	}
	if cAddress.Valid {
		c.Address = &cAddress.String
	}
	return &c, nil
}

func (t *txRepo) CreateClient(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO clients (company_id, name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		c.CompanyID, c.Name, c.Email, c.Phone, c.Address,
	).Scan(&id)
	return id, err
}

func (t *txRepo) CreateJob(ctx context.Context, j Job) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO jobs (quotation_id, client_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`,
		j.QuotationID, j.ClientID, j.Status,
	).Scan(&id)
	return id, err
}

func (t *txRepo) CreateWorkerAssignment(ctx context.Context, a WorkerAssignment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO worker_assignments (quotation_id, job_id, worker_id, payout, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		a.QuotationID, a.JobID, a.WorkerID, a.Payout, a.Notes,
	).Scan(&id)
	return id, err
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var clientEmail, clientPhone, clientAddress pgtype.Text
	var sellerID pgtype.Int8
	var items []byte

	err := row.Scan(
		&q.ID, &q.Number, &q.CompanyID, &q.ClientName, &clientEmail, &clientPhone, &clientAddress,
		&items, &q.Subtotal, &q.IVAPercent, &q.IVA, &q.MarginPercent, &q.Total, &q.UnitCount,
		&q.Status, &q.PaymentStatus, &q.AmountPaid, &sellerID, &q.SellerPayout,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if clientEmail.Valid {
		q.ClientEmail = &clientEmail.String
	}
	if clientPhone.Valid {
		q.ClientPhone = &clientPhone.String
	}
	if clientAddress.Valid {
		q.ClientAddress = &clientAddress.String
	}
	if sellerID.Valid {
		q.SellerID = &sellerID.Int64
	}
	if q.Items, err = DecodeItems(items); err != nil {
		return nil, err
	}
	return &q, nil
}

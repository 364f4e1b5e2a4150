package liquidations

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/platform/db"
)

// Advisory lock class ids keep seller and worker settlements from colliding
// in the shared lock space.
const (
	lockClassSeller uint32 = 4101
	lockClassWorker uint32 = 4102
)

// lockKey hashes (class, personID) into the 64-bit advisory lock space.
// pg_advisory_xact_lock(int4, int4) would truncate a BIGSERIAL person id.
func lockKey(class uint32, personID int64) int64 {
	h := fnv.New64a()
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], class)
	binary.BigEndian.PutUint64(buf[4:], uint64(personID))
	_, _ = h.Write(buf[:])
	return int64(h.Sum64())
}

// Repository persists liquidations and computes earned totals from the
// quotation side tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository is the slice of Repository available inside a settlement
// transaction.
type TxRepository interface {
	LockPerson(ctx context.Context, personID int64, role Role) error
	TotalEarned(ctx context.Context, personID int64, role Role) (float64, error)
	TotalLiquidated(ctx context.Context, personID int64, role Role) (float64, error)
	InsertLiquidation(ctx context.Context, liq *Liquidation) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// TotalEarned sums a person's payouts outside any transaction, for balance
// previews.
func (r *Repository) TotalEarned(ctx context.Context, personID int64, role Role) (float64, error) {
	return totalEarned(ctx, r.pool, personID, role)
}

// TotalLiquidated sums a person's settled amounts outside any transaction.
func (r *Repository) TotalLiquidated(ctx context.Context, personID int64, role Role) (float64, error) {
	return totalLiquidated(ctx, r.pool, personID, role)
}

// ListLiquidations returns a person's settlements, newest first.
func (r *Repository) ListLiquidations(ctx context.Context, personID int64, role Role) ([]Liquidation, error) {
	query := `
		SELECT id, person_id, role, amount, method, reference, COALESCE(notes, ''), created_by, created_at
		FROM liquidations
		WHERE person_id = $1 AND role = $2
		ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, personID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	liqs := make([]Liquidation, 0)
	for rows.Next() {
		var liq Liquidation
		var reference pgtype.Text
		if err := rows.Scan(&liq.ID, &liq.PersonID, &liq.Role, &liq.Amount, &liq.Method, &reference, &liq.Notes, &liq.CreatedBy, &liq.CreatedAt); err != nil {
			return nil, err
		}
		if reference.Valid {
			liq.Reference = &reference.String
		}
		liqs = append(liqs, liq)
	}
	return liqs, rows.Err()
}

// LockPerson takes a transaction-scoped advisory lock on the person so
// concurrent settlements of the same balance serialize.
func (t *txRepository) LockPerson(ctx context.Context, personID int64, role Role) error {
	class := lockClassSeller
	if role == RoleWorker {
		class = lockClassWorker
	}
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey(class, personID))
	return err
}

func (t *txRepository) TotalEarned(ctx context.Context, personID int64, role Role) (float64, error) {
	return totalEarned(ctx, t.tx, personID, role)
}

func (t *txRepository) TotalLiquidated(ctx context.Context, personID int64, role Role) (float64, error) {
	return totalLiquidated(ctx, t.tx, personID, role)
}

func (t *txRepository) InsertLiquidation(ctx context.Context, liq *Liquidation) error {
	query := `
		INSERT INTO liquidations (person_id, role, amount, method, reference, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return t.tx.QueryRow(ctx, query, liq.PersonID, liq.Role, liq.Amount, liq.Method, liq.Reference, liq.Notes, liq.CreatedBy).
		Scan(&liq.ID, &liq.CreatedAt)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func totalEarned(ctx context.Context, q querier, personID int64, role Role) (float64, error) {
	var query string
	switch role {
	case RoleSeller:
		query = `
			SELECT COALESCE(SUM(seller_payout), 0)
			FROM quotations
			WHERE seller_id = $1 AND status = 'accepted'`
	case RoleWorker:
		query = `
			SELECT COALESCE(SUM(payout), 0)
			FROM worker_assignments
			WHERE worker_id = $1`
	default:
		return 0, fmt.Errorf("liquidations: unknown role %q", role)
	}
	var total float64
	if err := q.QueryRow(ctx, query, personID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func totalLiquidated(ctx context.Context, q querier, personID int64, role Role) (float64, error) {
	var total float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM liquidations WHERE person_id = $1 AND role = $2`
	if err := q.QueryRow(ctx, query, personID, role).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
